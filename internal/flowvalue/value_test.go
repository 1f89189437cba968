package flowvalue

import "testing"

func TestMissingDistinctFromNull(t *testing.T) {
	m := NewMap()
	m.Set("a", Null)

	if !m.Get("a").IsNull() {
		t.Fatalf("expected key 'a' to resolve to null")
	}
	if m.Get("a").IsMissing() {
		t.Fatalf("resolved-null value should not be Missing")
	}
}

func TestGetMissingKey(t *testing.T) {
	m := NewMap()
	m.Set("a", Str("x"))

	got := m.Get("b")
	if !got.IsMissing() {
		t.Fatalf("expected Missing for absent key, got kind %v", got.Kind())
	}
}

func TestDeepCopyIsolation(t *testing.T) {
	inner := NewMap()
	inner.Set("count", Num(1))
	outer := NewMap()
	outer.Set("inner", inner)

	clone := outer.DeepCopy()
	mutated := clone.Get("inner")
	mutated.Set("count", Num(99))
	clone.Set("inner", mutated)

	if got, _ := outer.Get("inner").Get("count").Num(); got != 1 {
		t.Fatalf("mutation on clone leaked into original: got %v", got)
	}
	if got, _ := clone.Get("inner").Get("count").Num(); got != 99 {
		t.Fatalf("expected clone mutation to stick, got %v", got)
	}
}

func TestDeepMergeNestedMapsMergeScalarsReplace(t *testing.T) {
	dst := NewMap()
	nested := NewMap()
	nested.Set("keep", Str("original"))
	nested.Set("overwrite", Str("old"))
	dst.Set("nested", nested)
	dst.Set("scalar", Num(1))
	dst.Set("list", List([]Value{Num(1), Num(2)}))

	src := NewMap()
	srcNested := NewMap()
	srcNested.Set("overwrite", Str("new"))
	src.Set("nested", srcNested)
	src.Set("scalar", Num(2))
	src.Set("list", List([]Value{Num(9)}))

	merged := DeepMerge(dst, src)

	nestedOut := merged.Get("nested")
	if got, _ := nestedOut.Get("keep").Str(); got != "original" {
		t.Fatalf("expected untouched nested key preserved, got %q", got)
	}
	if got, _ := nestedOut.Get("overwrite").Str(); got != "new" {
		t.Fatalf("expected nested key overwritten, got %q", got)
	}
	if got, _ := merged.Get("scalar").Num(); got != 2 {
		t.Fatalf("expected scalar replaced wholesale, got %v", got)
	}
	list, _ := merged.Get("list").List()
	if len(list) != 1 {
		t.Fatalf("expected list replaced wholesale, got len %d", len(list))
	}
}

func TestStringFormConversions(t *testing.T) {
	cases := []struct {
		v    Value
		want string
	}{
		{Null, ""},
		{Missing, ""},
		{Bool(true), "true"},
		{Num(7), "7"},
		{Num(3.5), "3.5"},
		{Str("hi"), "hi"},
	}
	for _, c := range cases {
		if got := c.v.StringForm(); got != c.want {
			t.Errorf("StringForm(%v) = %q, want %q", c.v.Kind(), got, c.want)
		}
	}

	list := List([]Value{Num(1), Str("a")})
	if got := list.StringForm(); got != `[1,"a"]` {
		t.Errorf("list StringForm = %q", got)
	}
}

func TestFromJSONRoundTrip(t *testing.T) {
	v, err := ParseJSON([]byte(`{"a":1,"b":[true,null,"x"]}`))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	if got, _ := v.Get("a").Num(); got != 1 {
		t.Fatalf("expected a=1, got %v", got)
	}
	list, ok := v.Get("b").List()
	if !ok || len(list) != 3 {
		t.Fatalf("expected list of 3, got %v ok=%v", list, ok)
	}
	if !list[1].IsNull() {
		t.Fatalf("expected list[1] to be null")
	}
}
