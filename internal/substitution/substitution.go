// Package substitution expands "{{path}}" and "##VAR:kind:name##" markers
// against a flowvalue context, per spec.md §4.2.
package substitution

import (
	"regexp"
	"strings"

	"github.com/torosent/flowrunner/internal/flowvalue"
	"github.com/torosent/flowrunner/internal/pathexpr"
)

var (
	unquotedWholeString = regexp.MustCompile(`^##VAR:unquoted:(.+)##$`)
	varMarker           = regexp.MustCompile(`##VAR:(string|unquoted):([^#]+)##`)
	bracePath           = regexp.MustCompile(`\{\{([^{}]+)\}\}`)
)

// Apply recursively substitutes markers in v against ctx. Strings are
// expanded, map keys and values are substituted, list elements are
// substituted, and other scalars pass through unchanged.
func Apply(v flowvalue.Value, ctx flowvalue.Value) flowvalue.Value {
	switch v.Kind() {
	case flowvalue.KindStr:
		s, _ := v.Str()
		return applyString(s, ctx)
	case flowvalue.KindList:
		list, _ := v.List()
		out := make([]flowvalue.Value, len(list))
		for i, e := range list {
			out[i] = Apply(e, ctx)
		}
		return flowvalue.List(out)
	case flowvalue.KindMap:
		out := flowvalue.NewMap()
		for _, k := range v.Keys() {
			newKey := applyString(k, ctx)
			ks, _ := newKey.Str()
			out.Set(ks, Apply(v.Get(k), ctx))
		}
		return out
	default:
		return v
	}
}

// ApplyToText expands markers within a plain Go string (used for URL and
// header values which are never JSON-structured). It follows the same
// rules as applyString but never returns a non-string Value.
func ApplyToText(s string, ctx flowvalue.Value) string {
	result := applyString(s, ctx)
	return result.StringForm()
}

func applyString(s string, ctx flowvalue.Value) flowvalue.Value {
	if m := unquotedWholeString.FindStringSubmatch(s); m != nil {
		name := m[1]
		val := pathexpr.Get(ctx, name)
		if val.IsMissing() {
			return flowvalue.Null
		}
		return val
	}

	expanded := varMarker.ReplaceAllStringFunc(s, func(tok string) string {
		m := varMarker.FindStringSubmatch(tok)
		if m == nil {
			return tok
		}
		kind, name := m[1], m[2]
		val := pathexpr.Get(ctx, name)
		switch kind {
		case "string":
			return val.StringForm()
		case "unquoted":
			// A ##VAR:unquoted:...## that is not the *entire* string is a
			// malformed use of the marker (unquoted only makes sense as a
			// standalone token); left as string form rather than raising,
			// matching spec.md's "malformed forms are left as literal
			// text" rule applied to this narrower case.
			return val.StringForm()
		default:
			return tok
		}
	})

	expanded = bracePath.ReplaceAllStringFunc(expanded, func(tok string) string {
		m := bracePath.FindStringSubmatch(tok)
		if m == nil {
			return tok
		}
		path := strings.TrimSpace(m[1])
		val := pathexpr.Get(ctx, path)
		return val.StringForm()
	})

	return flowvalue.Str(expanded)
}
