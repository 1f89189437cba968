package interpreter

import (
	"context"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/torosent/flowrunner/internal/condition"
	"github.com/torosent/flowrunner/internal/flowconfig"
	"github.com/torosent/flowrunner/internal/flowvalue"
	"github.com/torosent/flowrunner/internal/metrics"
	"github.com/torosent/flowrunner/internal/telemetry"
	"github.com/torosent/flowrunner/internal/urlbuild"
)

func newTestSession(t *testing.T, srv *httptest.Server) *Session {
	t.Helper()
	return &Session{
		Client:  srv.Client(),
		Config:  flowconfig.Config{},
		Base:    baseFromServer(srv),
		Logger:  telemetry.NewNop(),
		Metrics: metrics.New(),
		Rand:    rand.New(rand.NewSource(1)),
	}
}

func baseFromServer(srv *httptest.Server) urlbuild.Base {
	// httptest.Server URLs are "http://127.0.0.1:PORT"; split host/port.
	raw := srv.URL[len("http://"):]
	host, port := raw, ""
	for i := len(raw) - 1; i >= 0; i-- {
		if raw[i] == ':' {
			host, port = raw[:i], raw[i+1:]
			break
		}
	}
	return urlbuild.Base{Scheme: "http", Host: host, Port: port}
}

func TestExecuteConditionBranchIsolationAndMerge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	session := newTestSession(t, srv)
	in := New(session)

	flowCtx := flowvalue.NewMap()
	flowCtx.Set("flag", flowvalue.Bool(true))

	step := flowconfig.Step{
		ID:   "cond1",
		Type: flowconfig.StepCondition,
		ConditionData: condition.Data{
			Variable: "flag",
			Operator: "is_true",
		},
		Then: []flowconfig.Step{
			{ID: "req1", Type: flowconfig.StepRequest, Method: "GET", URL: "/ping", Extract: map[string]string{"result": "body.status"}},
		},
	}

	out := in.Execute(context.Background(), []flowconfig.Step{step}, flowCtx)

	if got := out.Get("result"); got.IsMissing() {
		t.Fatalf("expected then-branch's extracted variable to be merged back into parent context")
	} else if s, _ := got.Str(); s != "ok" {
		t.Fatalf("expected result=ok, got %v", s)
	}
	// The original flag must be untouched (deep-copy isolation held).
	if b, _ := flowCtx.Get("flag").Bool(); !b {
		t.Fatalf("original context must not be mutated in place")
	}
}

func TestExecuteLoopPerIterationIsolationAndIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	session := newTestSession(t, srv)
	in := New(session)

	items := flowvalue.List([]flowvalue.Value{flowvalue.Str("a"), flowvalue.Str("b"), flowvalue.Str("c")})
	flowCtx := flowvalue.NewMap()
	flowCtx.Set("items", items)

	step := flowconfig.Step{
		ID:           "loop1",
		Type:         flowconfig.StepLoop,
		Source:       "items",
		LoopVariable: "it",
		Steps: []flowconfig.Step{
			{ID: "req1", Type: flowconfig.StepRequest, Method: "GET", URL: "/ping"},
		},
	}

	out := in.Execute(context.Background(), []flowconfig.Step{step}, flowCtx)

	// Loop iterations never merge back into the parent context; only
	// pre-existing keys survive.
	if !out.Get("it").IsMissing() {
		t.Fatalf("loop variable must not leak into parent context after the loop completes")
	}
	if got := out.Get("items"); got.Len() != 3 {
		t.Fatalf("parent items list must be untouched, got len %d", got.Len())
	}
}

func TestExecuteRequestOnFailureStopHaltsRemainingSteps(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	session := newTestSession(t, srv)
	in := New(session)

	flowCtx := flowvalue.NewMap()
	steps := []flowconfig.Step{
		{ID: "req1", Type: flowconfig.StepRequest, Method: "GET", URL: "/fail", OnFailure: flowconfig.OnFailureStop},
		{ID: "req2", Type: flowconfig.StepRequest, Method: "GET", URL: "/never-reached", Extract: map[string]string{"touched": ".status"}},
	}

	out := in.Execute(context.Background(), steps, flowCtx)

	if hasFlowError(out) == false {
		t.Fatalf("expected _flow_error to be set after a stop-on-failure 5xx response")
	}
	if !out.Get("touched").IsMissing() {
		t.Fatalf("expected second step to never run once the flow errored")
	}
}

func TestExecuteRequestOnFailureContinueRunsRemainingSteps(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Path == "/fail" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	session := newTestSession(t, srv)
	in := New(session)

	flowCtx := flowvalue.NewMap()
	steps := []flowconfig.Step{
		{ID: "req1", Type: flowconfig.StepRequest, Method: "GET", URL: "/fail", OnFailure: flowconfig.OnFailureContinue},
		{ID: "req2", Type: flowconfig.StepRequest, Method: "GET", URL: "/ok", Extract: map[string]string{"touched": "body.status"}},
	}

	out := in.Execute(context.Background(), steps, flowCtx)

	if hasFlowError(out) {
		t.Fatalf("expected no _flow_error when on_failure=continue")
	}
	if got := out.Get("touched"); got.IsMissing() {
		t.Fatalf("expected second step to run and extract its result")
	} else if s, _ := got.Str(); s != "ok" {
		t.Fatalf("expected touched=ok, got %v", s)
	}
}

func TestOnFailureOrDefaultDefaultsToStop(t *testing.T) {
	if onFailureOrDefault("") != flowconfig.OnFailureStop {
		t.Fatalf("expected unspecified on_failure to default to stop")
	}
	if onFailureOrDefault(flowconfig.OnFailureContinue) != flowconfig.OnFailureContinue {
		t.Fatalf("expected explicit continue to be preserved")
	}
}
