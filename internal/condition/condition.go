// Package condition evaluates the {variable, operator, value} triples used
// by Condition steps, applying the coercion rules of spec.md §4.3.
package condition

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/torosent/flowrunner/internal/flowvalue"
	"github.com/torosent/flowrunner/internal/pathexpr"
)

// Data mirrors the flow JSON's conditionData object.
type Data struct {
	Variable string `json:"variable" yaml:"variable" mapstructure:"variable"`
	Operator string `json:"operator" yaml:"operator" mapstructure:"operator"`
	Value    string `json:"value" yaml:"value" mapstructure:"value"`
}

// Logger receives warnings for malformed or uncoercible conditions.
type Logger interface {
	Warnw(msg string, keysAndValues ...any)
}

// Evaluate resolves Data.Variable against ctx and applies Data.Operator.
// Any malformed input (unknown operator, absent variable path expression)
// evaluates to false and is warned via logger, which may be nil.
func Evaluate(d Data, ctx flowvalue.Value, logger Logger) bool {
	if strings.TrimSpace(d.Variable) == "" {
		warn(logger, "condition missing variable", "operator", d.Operator)
		return false
	}
	ctxVal := pathexpr.Get(ctx, d.Variable)

	switch d.Operator {
	case "equals":
		return smartEquals(ctxVal, d.Value)
	case "not_equals":
		return !smartEquals(ctxVal, d.Value)
	case "greater_than", "less_than", "greater_equals", "less_equals":
		return numericCompare(d.Operator, ctxVal, d.Value, logger)
	case "contains":
		return stringOp(ctxVal, d.Value, strings.Contains)
	case "starts_with":
		return stringOp(ctxVal, d.Value, strings.HasPrefix)
	case "ends_with":
		return stringOp(ctxVal, d.Value, strings.HasSuffix)
	case "matches_regex":
		return matchesRegex(ctxVal, d.Value, logger)
	case "exists":
		return !ctxVal.IsNullOrMissing()
	case "not_exists":
		return ctxVal.IsNullOrMissing()
	case "is_number":
		_, ok := ctxVal.Num()
		return ok
	case "is_text":
		_, ok := ctxVal.Str()
		return ok
	case "is_boolean":
		_, ok := ctxVal.Bool()
		return ok
	case "is_array":
		return ctxVal.Kind() == flowvalue.KindList
	case "is_true":
		b, ok := ctxVal.Bool()
		return ok && b
	case "is_false":
		b, ok := ctxVal.Bool()
		return ok && !b
	default:
		warn(logger, "condition unknown operator", "operator", d.Operator, "variable", d.Variable)
		return false
	}
}

// smartEquals implements spec.md §4.3's "equals" coercion ladder: numeric
// if both sides parse as numbers, boolean if ctx is bool and value is a
// bool literal, null-equals-empty-string, else string comparison.
func smartEquals(ctx flowvalue.Value, value string) bool {
	if n, ok := ctx.Num(); ok {
		if vn, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return n == vn
		}
	}
	if b, ok := ctx.Bool(); ok {
		lower := strings.ToLower(strings.TrimSpace(value))
		if lower == "true" {
			return b == true
		}
		if lower == "false" {
			return b == false
		}
	}
	if ctx.IsNullOrMissing() && value == "" {
		return true
	}
	return ctx.StringForm() == value
}

func numericCompare(op string, ctx flowvalue.Value, value string, logger Logger) bool {
	ctxNum, ok1 := numericOf(ctx)
	valNum, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if !ok1 || err != nil {
		warn(logger, "condition numeric coercion failed", "operator", op, "value", value)
		return false
	}
	switch op {
	case "greater_than":
		return ctxNum > valNum
	case "less_than":
		return ctxNum < valNum
	case "greater_equals":
		return ctxNum >= valNum
	case "less_equals":
		return ctxNum <= valNum
	default:
		return false
	}
}

func numericOf(v flowvalue.Value) (float64, bool) {
	if n, ok := v.Num(); ok {
		return n, true
	}
	if s, ok := v.Str(); ok {
		if n, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

func stringOp(ctx flowvalue.Value, value string, op func(s, substr string) bool) bool {
	if ctx.IsNullOrMissing() {
		return false
	}
	return op(ctx.StringForm(), value)
}

func matchesRegex(ctx flowvalue.Value, pattern string, logger Logger) bool {
	re, err := regexp.Compile(pattern)
	if err != nil {
		warn(logger, "condition invalid regex", "pattern", pattern)
		return false
	}
	return re.MatchString(ctx.StringForm())
}

func warn(logger Logger, msg string, kv ...any) {
	if logger == nil {
		return
	}
	logger.Warnw(msg, kv...)
}
