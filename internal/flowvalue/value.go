// Package flowvalue implements the tagged JSON-like value used as the
// per-iteration context tree: Null, Bool, Num, Str, List, and Map, plus an
// explicit Missing sentinel distinct from Null.
package flowvalue

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Kind identifies the dynamic type carried by a Value.
type Kind int

const (
	KindMissing Kind = iota
	KindNull
	KindBool
	KindNum
	KindStr
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNum:
		return "number"
	case KindStr:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// Value is a closed-world sum type mirroring JSON's data model, with one
// addition: Missing, which is never present in a literal JSON document but
// is returned by path resolution when a key or index does not exist. This
// lets callers distinguish "the path resolved to null" from "the path does
// not exist" — a distinction plain Go `interface{}`/`encoding/json` erases.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	list []Value
	// m preserves insertion order via keys, mirroring an "ordered map".
	keys []string
	m    map[string]Value
}

// Missing is the sentinel returned by failed path resolution.
var Missing = Value{kind: KindMissing}

// Null is the JSON null value.
var Null = Value{kind: KindNull}

func Bool(b bool) Value    { return Value{kind: KindBool, b: b} }
func Num(n float64) Value  { return Value{kind: KindNum, n: n} }
func Str(s string) Value   { return Value{kind: KindStr, s: s} }
func List(v []Value) Value { return Value{kind: KindList, list: v} }

// NewMap builds an empty, ordered Map value.
func NewMap() Value {
	return Value{kind: KindMap, m: make(map[string]Value), keys: nil}
}

func (v Value) Kind() Kind     { return v.kind }
func (v Value) IsMissing() bool { return v.kind == KindMissing }
func (v Value) IsNull() bool    { return v.kind == KindNull }

// IsNullOrMissing treats Missing as null, matching spec.md's "callers map
// MISSING to null when storing into context" rule and the `exists`/`is_*`
// condition operators' MISSING-as-null semantics.
func (v Value) IsNullOrMissing() bool { return v.kind == KindNull || v.kind == KindMissing }

func (v Value) Bool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

func (v Value) Num() (float64, bool) {
	if v.kind != KindNum || math.IsNaN(v.n) {
		return 0, false
	}
	return v.n, true
}

func (v Value) Str() (string, bool) {
	if v.kind != KindStr {
		return "", false
	}
	return v.s, true
}

func (v Value) List() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return v.list, true
}

// Get looks up a key on a Map value. Returns Missing if v is not a map or
// the key is absent.
func (v Value) Get(key string) Value {
	if v.kind != KindMap {
		return Missing
	}
	if val, ok := v.m[key]; ok {
		return val
	}
	return Missing
}

// Set assigns a key on a Map value, preserving insertion order for new
// keys. Set on a non-map Value is a no-op (callers are expected to check
// Kind first; writers in internal/pathexpr always operate on freshly
// created maps).
func (v *Value) Set(key string, val Value) {
	if v.kind != KindMap {
		return
	}
	if v.m == nil {
		v.m = make(map[string]Value)
	}
	if _, exists := v.m[key]; !exists {
		v.keys = append(v.keys, key)
	}
	v.m[key] = val
}

// Keys returns the Map's keys in insertion order. Returns nil for non-map
// values.
func (v Value) Keys() []string {
	if v.kind != KindMap {
		return nil
	}
	out := make([]string, len(v.keys))
	copy(out, v.keys)
	return out
}

// Len returns the element count of a List or Map, or -1 otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindList:
		return len(v.list)
	case KindMap:
		return len(v.keys)
	default:
		return -1
	}
}

// DeepCopy returns a fully independent clone. Required at Condition branch
// entry and Loop iteration entry per spec.md §9 so mutations never leak
// across branches, iterations, or back to a stale parent snapshot.
func (v Value) DeepCopy() Value {
	switch v.kind {
	case KindList:
		out := make([]Value, len(v.list))
		for i, e := range v.list {
			out[i] = e.DeepCopy()
		}
		return Value{kind: KindList, list: out}
	case KindMap:
		m := make(map[string]Value, len(v.m))
		keys := make([]string, len(v.keys))
		copy(keys, v.keys)
		for k, e := range v.m {
			m[k] = e.DeepCopy()
		}
		return Value{kind: KindMap, m: m, keys: keys}
	default:
		return v
	}
}

// DeepMerge merges src into v (both assumed Map) per spec.md §4.7: nested
// maps merge key-by-key recursively; any other value kind (scalar, list)
// at a given key is replaced wholesale by src's value. Keys present only
// in v are left untouched. Used to fold a Condition branch's mutated
// context back into its parent.
func DeepMerge(dst, src Value) Value {
	if dst.kind != KindMap || src.kind != KindMap {
		return src
	}
	out := dst.DeepCopy()
	for _, k := range src.keys {
		sv := src.m[k]
		if ev, ok := out.m[k]; ok && ev.kind == KindMap && sv.kind == KindMap {
			out.Set(k, DeepMerge(ev, sv))
		} else {
			out.Set(k, sv)
		}
	}
	return out
}

// FromJSON converts a decoded `encoding/json` value (the result of
// json.Unmarshal into an `any`, decoded with UseNumber for numeric
// fidelity) into a Value tree.
func FromJSON(raw any) Value {
	switch t := raw.(type) {
	case nil:
		return Null
	case bool:
		return Bool(t)
	case float64:
		return Num(t)
	case json.Number:
		f, _ := t.Float64()
		return Num(f)
	case string:
		return Str(t)
	case []any:
		out := make([]Value, len(t))
		for i, e := range t {
			out[i] = FromJSON(e)
		}
		return List(out)
	case map[string]any:
		v := NewMap()
		// map[string]any has no stable order; sort keys for determinism.
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			v.Set(k, FromJSON(t[k]))
		}
		return v
	default:
		return Null
	}
}

// ParseJSON decodes a JSON document into a Value tree.
func ParseJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return Null, err
	}
	return FromJSON(raw), nil
}

// ToInterface converts a Value back into plain `any` for `encoding/json`
// marshaling (used when serializing a Request body).
func (v Value) ToInterface() any {
	switch v.kind {
	case KindMissing, KindNull:
		return nil
	case KindBool:
		return v.b
	case KindNum:
		return v.n
	case KindStr:
		return v.s
	case KindList:
		out := make([]any, len(v.list))
		for i, e := range v.list {
			out[i] = e.ToInterface()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.keys))
		for _, k := range v.keys {
			out[k] = v.m[k].ToInterface()
		}
		return out
	default:
		return nil
	}
}

// StringForm converts a Value to its string representation per spec.md
// §4.2's substitution rules: null/missing become "", scalars use their
// natural form, complex values (list/map) become compact JSON.
func (v Value) StringForm() string {
	switch v.kind {
	case KindMissing, KindNull:
		return ""
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindNum:
		return formatNum(v.n)
	case KindStr:
		return v.s
	case KindList, KindMap:
		data, err := json.Marshal(v.ToInterface())
		if err != nil {
			return ""
		}
		return string(data)
	default:
		return ""
	}
}

func formatNum(n float64) string {
	if n == math.Trunc(n) && !math.IsInf(n, 0) && math.Abs(n) < 1e15 {
		return fmt.Sprintf("%d", int64(n))
	}
	return fmt.Sprintf("%g", n)
}

// Equal reports deep structural equality.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindMissing, KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindNum:
		return a.n == b.n
	case KindStr:
		return a.s == b.s
	case KindList:
		if len(a.list) != len(b.list) {
			return false
		}
		for i := range a.list {
			if !Equal(a.list[i], b.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(a.keys) != len(b.keys) {
			return false
		}
		for _, k := range a.keys {
			bv, ok := b.m[k]
			if !ok || !Equal(a.m[k], bv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
