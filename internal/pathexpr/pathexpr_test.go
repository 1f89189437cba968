package pathexpr

import (
	"testing"

	"github.com/torosent/flowrunner/internal/flowvalue"
)

func buildContext() flowvalue.Value {
	root := flowvalue.NewMap()
	inner := flowvalue.NewMap()
	inner.Set("name", flowvalue.Str("alice"))
	items := flowvalue.List([]flowvalue.Value{flowvalue.Num(1), flowvalue.Num(2), flowvalue.Num(3)})
	root.Set("user", inner)
	root.Set("items", items)
	root.Set("flag", flowvalue.Null)
	return root
}

func TestGetNestedMap(t *testing.T) {
	ctx := buildContext()
	got := Get(ctx, "user.name")
	if s, ok := got.Str(); !ok || s != "alice" {
		t.Fatalf("expected alice, got %v", got)
	}
}

func TestGetListIndex(t *testing.T) {
	ctx := buildContext()
	got := Get(ctx, "items[1]")
	if n, ok := got.Num(); !ok || n != 2 {
		t.Fatalf("expected 2, got %v", got)
	}
}

func TestGetPresentNullVsMissing(t *testing.T) {
	ctx := buildContext()
	if !Get(ctx, "flag").IsNull() {
		t.Fatalf("expected flag to resolve to null")
	}
	if !Get(ctx, "nope").IsMissing() {
		t.Fatalf("expected nope to be missing")
	}
}

func TestGetBareSegmentOnListFails(t *testing.T) {
	ctx := buildContext()
	if !Get(ctx, "items.name").IsMissing() {
		t.Fatalf("expected bare segment on list to be missing")
	}
}

func TestGetOutOfRangeIndex(t *testing.T) {
	ctx := buildContext()
	if !Get(ctx, "items[10]").IsMissing() {
		t.Fatalf("expected out-of-range index to be missing")
	}
}

func TestSetCreatesIntermediateMaps(t *testing.T) {
	ctx := flowvalue.NewMap()
	if err := Set(&ctx, "a.b.c", flowvalue.Str("v")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got, ok := Get(ctx, "a.b.c").Str(); !ok || got != "v" {
		t.Fatalf("expected a.b.c=v, got %v", Get(ctx, "a.b.c"))
	}
}

func TestSetNeverAutoGrowsLists(t *testing.T) {
	ctx := buildContext()
	err := Set(&ctx, "items[5].c", flowvalue.Str("x"))
	if err == nil {
		t.Fatalf("expected error writing past list length")
	}
}

func TestSetIndexInBounds(t *testing.T) {
	ctx := buildContext()
	if err := Set(&ctx, "items[0]", flowvalue.Num(99)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got, _ := Get(ctx, "items[0]").Num(); got != 99 {
		t.Fatalf("expected 99, got %v", got)
	}
}

func TestEmptyPathInvalid(t *testing.T) {
	ctx := buildContext()
	if !Get(ctx, "").IsMissing() {
		t.Fatalf("expected empty path to resolve missing")
	}
}
