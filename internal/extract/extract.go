// Package extract pulls values out of an HTTP response into the flow
// context, per spec.md §4.4: ".status", "headers.X", "body"/"body.path",
// or an implicit body path.
package extract

import (
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/torosent/flowrunner/internal/flowvalue"
)

// Logger receives extraction-failure warnings tagged with the target
// variable name and a reason.
type Logger interface {
	Warnw(msg string, keysAndValues ...any)
}

// Response is the minimal response shape extraction rules need.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
}

// Rules maps a target context-variable name to a path expression.
type Rules map[string]string

// Apply evaluates every rule against resp and returns the extracted
// values keyed by target variable name. Failures assign flowvalue.Null
// and are warned via logger (nil suppresses warnings). Empty target
// names or empty path expressions are skipped with a warning.
func Apply(resp Response, rules Rules, logger Logger) map[string]flowvalue.Value {
	out := make(map[string]flowvalue.Value, len(rules))
	for target, path := range rules {
		if strings.TrimSpace(target) == "" || strings.TrimSpace(path) == "" {
			warn(logger, "extract rule skipped: empty target or path", "target", target, "path", path)
			continue
		}
		out[target] = extractOne(resp, path, target, logger)
	}
	return out
}

func extractOne(resp Response, path, target string, logger Logger) flowvalue.Value {
	switch {
	case path == ".status":
		return flowvalue.Num(float64(resp.StatusCode))
	case strings.HasPrefix(path, "headers."):
		name := strings.TrimPrefix(path, "headers.")
		return extractHeader(resp, name)
	case path == "body":
		return extractBody(resp, "", target, logger)
	case strings.HasPrefix(path, "body."):
		bodyPath := strings.TrimPrefix(path, "body.")
		return extractBody(resp, bodyPath, target, logger)
	default:
		// "Any other path" — implicit path within the parsed body.
		return extractBody(resp, path, target, logger)
	}
}

func extractHeader(resp Response, name string) flowvalue.Value {
	if resp.Headers == nil {
		return flowvalue.Null
	}
	values := resp.Headers.Values(http.CanonicalHeaderKey(name))
	if len(values) == 0 {
		return flowvalue.Null
	}
	// RFC 7230 §3.2.2-style concatenation for repeated header fields.
	return flowvalue.Str(strings.Join(values, ", "))
}

func extractBody(resp Response, bodyPath, target string, logger Logger) flowvalue.Value {
	if len(resp.Body) == 0 {
		warn(logger, "extract body empty", "target", target)
		return flowvalue.Null
	}
	if !resp.IsJSON {
		if bodyPath == "" {
			return flowvalue.Str(string(resp.Body))
		}
		warn(logger, "extract path into non-JSON body", "target", target, "path", bodyPath)
		return flowvalue.Null
	}
	if bodyPath == "" {
		v, err := flowvalue.ParseJSON(resp.Body)
		if err != nil {
			warn(logger, "extract body JSON parse failed", "target", target, "error", err.Error())
			return flowvalue.Str(string(resp.Body))
		}
		return v
	}
	result := gjson.GetBytes(resp.Body, bodyPath)
	if !result.Exists() {
		warn(logger, "extract body path miss", "target", target, "path", bodyPath)
		return flowvalue.Null
	}
	return gjsonToValue(result)
}

func gjsonToValue(r gjson.Result) flowvalue.Value {
	switch r.Type {
	case gjson.Null:
		return flowvalue.Null
	case gjson.True:
		return flowvalue.Bool(true)
	case gjson.False:
		return flowvalue.Bool(false)
	case gjson.Number:
		return flowvalue.Num(r.Num)
	case gjson.String:
		return flowvalue.Str(r.Str)
	case gjson.JSON:
		if r.IsArray() {
			var out []flowvalue.Value
			r.ForEach(func(_, v gjson.Result) bool {
				out = append(out, gjsonToValue(v))
				return true
			})
			return flowvalue.List(out)
		}
		v := flowvalue.NewMap()
		r.ForEach(func(k, val gjson.Result) bool {
			v.Set(k.String(), gjsonToValue(val))
			return true
		})
		return v
	default:
		return flowvalue.Null
	}
}

func warn(logger Logger, msg string, kv ...any) {
	if logger == nil {
		return
	}
	logger.Warnw(msg, kv...)
}
