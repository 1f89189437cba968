// Package urlbuild implements the URL Builder component: given the flow's
// target URL, an optional DNS override, and a step's URL, it produces the
// request URL, the address to dial, and an optional explicit Host header.
// See Build, and spec.md §4.5 for the Case A / Case B rules.
package urlbuild
