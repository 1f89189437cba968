// Package substitution expands the two marker forms flows use to pull
// context values into strings, request bodies, and headers:
//
//   - {{path}}            interpolated as a string; missing paths become "".
//   - ##VAR:string:path## same as {{path}} but explicit about intent.
//   - ##VAR:unquoted:path## only valid as the entire string; returns the
//     raw typed value, which is how numbers/bools/objects enter a JSON
//     request body without being stringified.
package substitution
