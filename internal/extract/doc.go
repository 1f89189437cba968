// Package extract implements the Extractor component: for each
// {target: pathExpr} rule, pull a value out of the HTTP response
// (".status", "headers.X", "body"/"body.path", or an implicit body path)
// into the flow context. Uses github.com/tidwall/gjson for JSON body
// path lookups. See Apply.
package extract
