package worker

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/torosent/flowrunner/internal/flowconfig"
	"github.com/torosent/flowrunner/internal/flowhttp"
	"github.com/torosent/flowrunner/internal/flowvalue"
	"github.com/torosent/flowrunner/internal/interpreter"
	"github.com/torosent/flowrunner/internal/metrics"
	"github.com/torosent/flowrunner/internal/urlbuild"
)

const perRequestTimeout = 15 * time.Second

// Worker drives one simulated user's continuous flow iterations, per
// spec.md §4.8.
type Worker struct {
	ID      int
	Flow    flowconfig.Flow
	Config  flowconfig.Config
	Base    urlbuild.Base
	Logger  interpreter.Logger
	Metrics *metrics.Aggregator
	Rand    *rand.Rand
}

// Run loops flow iterations until ctx is cancelled. Each iteration gets a
// fresh identity, a fresh HTTP client, and an independent context seeded
// from the flow's staticVars; exceptions escaping the interpreter end only
// that iteration.
func (w *Worker) Run(ctx context.Context) {
	w.Metrics.IncActiveUsers()
	defer w.Metrics.DecActiveUsers()

	dialAddr, tlsServerName := w.Base.DialOverride()

	iteration := 0
	for ctx.Err() == nil {
		iteration++

		client := flowhttp.NewClient(perRequestTimeout, dialAddr, tlsServerName)
		identity := NewIdentity(w.Rand)

		sessionHeaders := http.Header{}
		for k, v := range identity.Headers {
			sessionHeaders.Set(k, v)
		}

		flowCtx := w.seedContext(iteration, identity)

		session := &interpreter.Session{
			Client:         client,
			Config:         w.Config,
			Base:           w.Base,
			FlowHeaders:    w.Flow.Headers,
			SessionHeaders: sessionHeaders,
			SourceIP:       identity.SourceIP,
			Logger:         w.Logger,
			Metrics:        w.Metrics,
			Rand:           w.Rand,
		}
		in := interpreter.New(session)

		start := time.Now()
		out := in.Execute(ctx, w.Flow.Steps, flowCtx)
		duration := time.Since(start)

		client.CloseIdleConnections()

		if ctx.Err() != nil {
			return
		}
		if !interpreter.HasFlowError(out) {
			w.Metrics.RecordFlowCompletion(duration)
		}

		w.sleepBetweenIterations(ctx)
	}
}

// seedContext builds the per-iteration context from the flow's staticVars
// plus the injected keys named in spec.md §3: sim_user_id,
// iteration_source_ip, iteration_user_agent, flow_iteration_index.
func (w *Worker) seedContext(iteration int, identity Identity) flowvalue.Value {
	ctx := w.Flow.StaticVarsValue()
	if ctx.Kind() != flowvalue.KindMap {
		ctx = flowvalue.NewMap()
	}
	ctx.Set("sim_user_id", flowvalue.Num(float64(w.ID)))
	ctx.Set("iteration_source_ip", flowvalue.Str(identity.SourceIP))
	ctx.Set("iteration_user_agent", flowvalue.Str(identity.Headers["User-Agent"]))
	ctx.Set("flow_iteration_index", flowvalue.Num(float64(iteration)))
	return ctx
}

func (w *Worker) sleepBetweenIterations(ctx context.Context) {
	var d time.Duration
	if w.Config.FlowCycleDelayMs > 0 {
		d = time.Duration(w.Config.FlowCycleDelayMs) * time.Millisecond
	} else {
		min, max := w.Config.MinSleepMs, w.Config.MaxSleepMs
		n := min
		if max > min {
			n += w.Rand.Intn(max - min + 1)
		}
		d = time.Duration(n) * time.Millisecond
	}
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// Label identifies this worker in log fields.
func (w *Worker) Label() string { return fmt.Sprintf("worker-%d", w.ID) }
