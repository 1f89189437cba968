// Package flowvalue implements the tagged value type that backs every
// per-iteration flow context.
//
// # Why not interface{}
//
// encoding/json decodes JSON into `interface{}`, `map[string]interface{}`,
// and friends, but that representation cannot express "this key is
// absent" separately from "this key is present and null" — both come back
// as a Go nil in different guises. The path resolver in internal/pathexpr
// needs that distinction to satisfy spec.md's condition and extraction
// semantics, so Value carries an explicit Missing variant alongside
// Null/Bool/Num/Str/List/Map.
//
// # Copying
//
// Value is copied by value for scalars but shares slice/map backing
// storage for List and Map unless DeepCopy is used explicitly. Every
// context handoff across a Condition branch or Loop iteration boundary
// must go through DeepCopy — see internal/interpreter.
package flowvalue
