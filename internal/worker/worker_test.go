package worker

import (
	"context"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/torosent/flowrunner/internal/flowconfig"
	"github.com/torosent/flowrunner/internal/metrics"
	"github.com/torosent/flowrunner/internal/telemetry"
	"github.com/torosent/flowrunner/internal/urlbuild"
)

func baseFromServer(t *testing.T, srv *httptest.Server) urlbuild.Base {
	t.Helper()
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

func TestWorkerRunExecutesIterationsUntilCancelled(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	w := &Worker{
		ID: 1,
		Flow: flowconfig.Flow{
			Name: "smoke",
			Steps: []flowconfig.Step{
				{ID: "req1", Type: flowconfig.StepRequest, Method: "GET", URL: "/ping"},
			},
		},
		Config:  flowconfig.Config{},
		Base:    baseFromServer(t, srv),
		Logger:  telemetry.NewNop(),
		Metrics: metrics.New(),
		Rand:    rand.New(rand.NewSource(1)),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	w.Run(ctx)

	if atomic.LoadInt32(&calls) == 0 {
		t.Fatalf("expected at least one request to be dispatched")
	}
	if got := w.Metrics.Snapshot(time.Now()).ActiveSimulatedUsers; got != 0 {
		t.Fatalf("expected active users to be decremented back to 0 on exit, got %d", got)
	}
}

func TestWorkerRunRecordsFlowCompletionOnSuccessOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	agg := metrics.New()
	w := &Worker{
		ID: 1,
		Flow: flowconfig.Flow{
			Name: "smoke",
			Steps: []flowconfig.Step{
				{ID: "req1", Type: flowconfig.StepRequest, Method: "GET", URL: "/ping"},
			},
		},
		Config:  flowconfig.Config{MinSleepMs: 5, MaxSleepMs: 5},
		Base:    baseFromServer(t, srv),
		Logger:  telemetry.NewNop(),
		Metrics: agg,
		Rand:    rand.New(rand.NewSource(2)),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	w.Run(ctx)

	if agg.Snapshot(time.Now()).FlowCount == 0 {
		t.Fatalf("expected at least one successful iteration to be recorded")
	}
}
