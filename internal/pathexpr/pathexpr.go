// Package pathexpr resolves and assigns dot/bracket path expressions
// (e.g. "a.b[0].c") against an internal/flowvalue context tree.
package pathexpr

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/torosent/flowrunner/internal/flowvalue"
)

// token is either a map-key segment or a list index segment.
type token struct {
	key      string
	index    int
	isIndex  bool
}

// tokenPattern mirrors the original implementation's segment grammar: a
// bracketed integer index, or a bare dot-delimited key.
var tokenPattern = regexp.MustCompile(`\[(\d+)\]|\.?([^.\[\]]+)`)

// Parse tokenizes a path expression. An empty path is invalid per
// spec.md §4.1.
func Parse(path string) ([]token, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("pathexpr: empty path")
	}
	matches := tokenPattern.FindAllStringSubmatch(path, -1)
	if matches == nil {
		return nil, fmt.Errorf("pathexpr: no valid segments in %q", path)
	}
	tokens := make([]token, 0, len(matches))
	consumed := 0
	for _, m := range matches {
		consumed += len(m[0])
		if m[1] != "" {
			idx, err := strconv.Atoi(m[1])
			if err != nil {
				return nil, fmt.Errorf("pathexpr: bad index in %q", path)
			}
			tokens = append(tokens, token{index: idx, isIndex: true})
			continue
		}
		tokens = append(tokens, token{key: m[2]})
	}
	if consumed != len(path) {
		return nil, fmt.Errorf("pathexpr: unparseable path %q", path)
	}
	return tokens, nil
}

// Get resolves path against root, returning flowvalue.Missing on any
// failure: a missing key, indexing a non-list, a bare key on a non-map,
// or an out-of-range index.
func Get(root flowvalue.Value, path string) flowvalue.Value {
	tokens, err := Parse(path)
	if err != nil {
		return flowvalue.Missing
	}
	cur := root
	for _, tok := range tokens {
		if tok.isIndex {
			list, ok := cur.List()
			if !ok || tok.index < 0 || tok.index >= len(list) {
				return flowvalue.Missing
			}
			cur = list[tok.index]
			continue
		}
		if cur.Kind() != flowvalue.KindMap {
			return flowvalue.Missing
		}
		cur = cur.Get(tok.key)
		if cur.IsMissing() {
			return flowvalue.Missing
		}
	}
	return cur
}

// Set writes value at path within root, which must be a Map. Intermediate
// maps are created as needed. Lists are never auto-grown: writing to an
// out-of-range or non-existent index fails per spec.md §4.1.
func Set(root *flowvalue.Value, path string, value flowvalue.Value) error {
	tokens, err := Parse(path)
	if err != nil {
		return err
	}
	if root.Kind() != flowvalue.KindMap {
		return fmt.Errorf("pathexpr: root is not a map")
	}
	return setRecursive(root, tokens, value)
}

func setRecursive(cur *flowvalue.Value, tokens []token, value flowvalue.Value) error {
	tok := tokens[0]
	last := len(tokens) == 1

	if tok.isIndex {
		list, ok := cur.List()
		if !ok {
			return fmt.Errorf("pathexpr: cannot index into non-list")
		}
		if tok.index < 0 || tok.index >= len(list) {
			return fmt.Errorf("pathexpr: index %d out of range (len %d)", tok.index, len(list))
		}
		if last {
			list[tok.index] = value
			*cur = flowvalue.List(list)
			return nil
		}
		child := list[tok.index]
		if err := descendAndSet(&child, tokens[1:], value); err != nil {
			return err
		}
		list[tok.index] = child
		*cur = flowvalue.List(list)
		return nil
	}

	if cur.Kind() != flowvalue.KindMap {
		return fmt.Errorf("pathexpr: cannot set key %q on non-map", tok.key)
	}
	if last {
		cur.Set(tok.key, value)
		return nil
	}
	child := cur.Get(tok.key)
	if child.IsMissing() || child.Kind() != nextContainerKind(tokens[1]) {
		child = newContainerFor(tokens[1])
	}
	if err := descendAndSet(&child, tokens[1:], value); err != nil {
		return err
	}
	cur.Set(tok.key, child)
	return nil
}

func descendAndSet(cur *flowvalue.Value, tokens []token, value flowvalue.Value) error {
	return setRecursive(cur, tokens, value)
}

func nextContainerKind(next token) flowvalue.Kind {
	if next.isIndex {
		return flowvalue.KindList
	}
	return flowvalue.KindMap
}

func newContainerFor(next token) flowvalue.Value {
	if next.isIndex {
		// Writes never auto-grow lists; an intermediate list segment can
		// only be materialized if it already existed with sufficient
		// length, which the caller checked. Returning an empty list here
		// simply lets setRecursive report the out-of-range error.
		return flowvalue.List(nil)
	}
	return flowvalue.NewMap()
}
