// Package flowhttp is the Request Executor: it merges headers, encodes
// the request body, performs the HTTP call with bounded retry and
// exponential backoff on network errors and 5xx responses, and hands
// back a response shape ready for internal/extract. See Execute and
// MergeHeaders.
package flowhttp
