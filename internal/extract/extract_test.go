package extract

import (
	"net/http"
	"testing"
)

func TestExtractStatus(t *testing.T) {
	resp := Response{StatusCode: 200}
	out := Apply(resp, Rules{"s": ".status"}, nil)
	if n, _ := out["s"].Num(); n != 200 {
		t.Fatalf("expected 200, got %v", out["s"])
	}
}

func TestExtractHeaderCaseInsensitiveAndJoined(t *testing.T) {
	h := http.Header{}
	h.Add("X-Trace-Id", "a")
	h.Add("X-Trace-Id", "b")
	resp := Response{Headers: h}
	out := Apply(resp, Rules{"t": "headers.x-trace-id"}, nil)
	if s, _ := out["t"].Str(); s != "a, b" {
		t.Fatalf("expected joined header values, got %q", s)
	}
}

func TestExtractBodyJSON(t *testing.T) {
	resp := Response{Body: []byte(`{"user":{"id":42}}`), IsJSON: true}
	out := Apply(resp, Rules{"uid": "body.user.id"}, nil)
	if n, _ := out["uid"].Num(); n != 42 {
		t.Fatalf("expected 42, got %v", out["uid"])
	}
}

func TestExtractImplicitBodyPath(t *testing.T) {
	resp := Response{Body: []byte(`{"id":7}`), IsJSON: true}
	out := Apply(resp, Rules{"id": "id"}, nil)
	if n, _ := out["id"].Num(); n != 7 {
		t.Fatalf("expected 7, got %v", out["id"])
	}
}

func TestExtractBodyWholeNonJSON(t *testing.T) {
	resp := Response{Body: []byte("plain text"), IsJSON: false}
	out := Apply(resp, Rules{"b": "body"}, nil)
	if s, _ := out["b"].Str(); s != "plain text" {
		t.Fatalf("expected raw text, got %q", s)
	}
}

func TestExtractPathMissAssignsNull(t *testing.T) {
	resp := Response{Body: []byte(`{"a":1}`), IsJSON: true}
	out := Apply(resp, Rules{"x": "body.nope"}, nil)
	if !out["x"].IsNull() {
		t.Fatalf("expected null on miss, got %v", out["x"].Kind())
	}
}

func TestExtractSkipsEmptyTargetOrPath(t *testing.T) {
	resp := Response{StatusCode: 200}
	out := Apply(resp, Rules{"": ".status", "y": ""}, nil)
	if len(out) != 0 {
		t.Fatalf("expected no extractions for empty target/path, got %v", out)
	}
}
