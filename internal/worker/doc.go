// Package worker implements a single simulated user's lifecycle: a fresh
// identity and HTTP client per flow iteration, continuous execution of a
// flow's steps via internal/interpreter, and the inter-iteration rest
// period, per spec.md §4.8/§4.9.
package worker
