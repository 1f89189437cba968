package substitution

import (
	"testing"

	"github.com/torosent/flowrunner/internal/flowvalue"
)

func buildContext() flowvalue.Value {
	ctx := flowvalue.NewMap()
	ctx.Set("n", flowvalue.Num(7))
	ctx.Set("on", flowvalue.Bool(true))
	ctx.Set("name", flowvalue.Str("alice"))
	return ctx
}

func TestBracePathInterpolation(t *testing.T) {
	ctx := buildContext()
	got := ApplyToText("hello {{name}}, n={{n}}", ctx)
	if got != "hello alice, n=7" {
		t.Fatalf("got %q", got)
	}
}

func TestMissingPathProducesEmptyString(t *testing.T) {
	ctx := buildContext()
	got := ApplyToText("x={{missing}}y", ctx)
	if got != "x=y" {
		t.Fatalf("got %q", got)
	}
}

func TestUnquotedWholeStringReturnsTypedValue(t *testing.T) {
	ctx := buildContext()
	v := Apply(flowvalue.Str("##VAR:unquoted:n##"), ctx)
	if v.Kind() != flowvalue.KindNum {
		t.Fatalf("expected numeric kind, got %v", v.Kind())
	}
	if n, _ := v.Num(); n != 7 {
		t.Fatalf("expected 7, got %v", n)
	}
}

func TestUnquotedMissingReturnsNull(t *testing.T) {
	ctx := buildContext()
	v := Apply(flowvalue.Str("##VAR:unquoted:nope##"), ctx)
	if !v.IsNull() {
		t.Fatalf("expected null, got %v", v.Kind())
	}
}

func TestVarStringMarkerExpandsInline(t *testing.T) {
	ctx := buildContext()
	got := ApplyToText("count=##VAR:string:n##!", ctx)
	if got != "count=7!" {
		t.Fatalf("got %q", got)
	}
}

func TestJSONBodyInjectionScenario(t *testing.T) {
	ctx := buildContext()
	body := flowvalue.NewMap()
	body.Set("count", flowvalue.Str("##VAR:unquoted:n##"))
	body.Set("active", flowvalue.Str("##VAR:unquoted:on##"))
	body.Set("label", flowvalue.Str("item-{{n}}"))

	result := Apply(body, ctx)

	if got, _ := result.Get("count").Num(); got != 7 {
		t.Fatalf("expected count=7, got %v", result.Get("count"))
	}
	if got, _ := result.Get("active").Bool(); got != true {
		t.Fatalf("expected active=true, got %v", result.Get("active"))
	}
	if got, _ := result.Get("label").Str(); got != "item-7" {
		t.Fatalf("expected label=item-7, got %v", got)
	}
}

func TestMalformedMarkerLeftLiteral(t *testing.T) {
	ctx := buildContext()
	got := ApplyToText("value=##VAR:bogus:n##", ctx)
	if got != "value=##VAR:bogus:n##" {
		t.Fatalf("expected malformed marker preserved literally, got %q", got)
	}
}
