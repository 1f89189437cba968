package engine

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/torosent/flowrunner/internal/flowconfig"
	"github.com/torosent/flowrunner/internal/telemetry"
)

func testFlow() flowconfig.Flow {
	return flowconfig.Flow{
		Name: "smoke",
		Steps: []flowconfig.Step{
			{ID: "req1", Type: flowconfig.StepRequest, Method: "GET", URL: "/ping"},
		},
	}
}

func TestStartRunningStopLifecycle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	e := New(telemetry.NewNop())
	cfg := flowconfig.Config{FlowTargetURL: srv.URL, SimUsers: 3, MinSleepMs: 1, MaxSleepMs: 2}

	if err := e.Start(cfg, testFlow()); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}
	if e.Status() != StatusRunning {
		t.Fatalf("expected running status after Start")
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if e.Snapshot().ActiveSimulatedUsers == 3 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if got := e.Snapshot().ActiveSimulatedUsers; got != 3 {
		t.Fatalf("expected 3 active users, got %d", got)
	}

	e.Stop()
	if e.Status() != StatusStopped {
		t.Fatalf("expected stopped status after Stop")
	}
	if got := e.Snapshot().ActiveSimulatedUsers; got != 0 {
		t.Fatalf("expected 0 active users after Stop, got %d", got)
	}

	total := e.Snapshot().TotalRequests
	time.Sleep(50 * time.Millisecond)
	if e.Snapshot().TotalRequests != total {
		t.Fatalf("expected total_requests to stop growing after Stop")
	}
}

func TestStartValidatesConfigBeforeSpawningWorkers(t *testing.T) {
	e := New(telemetry.NewNop())
	cfg := flowconfig.Config{FlowTargetURL: "", SimUsers: 0}

	err := e.Start(cfg, testFlow())
	if err == nil {
		t.Fatalf("expected validation error for empty flow_target_url and sim_users=0")
	}
	if e.Status() != StatusError {
		t.Fatalf("expected error status after invalid Start")
	}
}

func TestStartWhileRunningPerformsImplicitStop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	e := New(telemetry.NewNop())
	cfg := flowconfig.Config{FlowTargetURL: srv.URL, SimUsers: 2, MinSleepMs: 1, MaxSleepMs: 2}

	if err := e.Start(cfg, testFlow()); err != nil {
		t.Fatalf("unexpected error on first start: %v", err)
	}
	if err := e.Start(cfg, testFlow()); err != nil {
		t.Fatalf("unexpected error on second start: %v", err)
	}
	if e.Status() != StatusRunning {
		t.Fatalf("expected running status after restart")
	}
	e.Stop()
}

func TestStopIsIdempotent(t *testing.T) {
	e := New(telemetry.NewNop())
	e.Stop()
	e.Stop()
	if e.Status() != StatusInitializing {
		t.Fatalf("expected status to remain initializing when Stop called before any Start")
	}
}
