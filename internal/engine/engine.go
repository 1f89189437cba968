package engine

import (
	"context"
	"math/rand"
	"net/url"
	"sync"
	"time"

	"github.com/torosent/flowrunner/internal/flowconfig"
	"github.com/torosent/flowrunner/internal/metrics"
	"github.com/torosent/flowrunner/internal/telemetry"
	"github.com/torosent/flowrunner/internal/urlbuild"
	"github.com/torosent/flowrunner/internal/worker"
)

// Status is the engine's state-machine value, per spec.md §4.9.
type Status string

const (
	StatusInitializing Status = "initializing"
	StatusRunning      Status = "running"
	StatusStopped      Status = "stopped"
	StatusError        Status = "error"
)

// gracefulStopTimeout bounds how long Stop waits for workers to notice
// cancellation and return before the engine gives up waiting (the workers'
// own goroutines are still cooperatively cancelled and will exit shortly
// after; the engine simply stops blocking the caller).
const gracefulStopTimeout = 5 * time.Second

// Engine runs a single flow across sim_users concurrent workers.
type Engine struct {
	mu     sync.Mutex
	status Status
	cancel context.CancelFunc
	wg     sync.WaitGroup

	metrics *metrics.Aggregator
	logger  telemetry.Logger
}

// New creates an idle Engine.
func New(logger telemetry.Logger) *Engine {
	if logger == nil {
		logger = telemetry.NewNop()
	}
	return &Engine{
		status:  StatusInitializing,
		metrics: metrics.New(),
		logger:  logger,
	}
}

// Start validates cfg and flow, implicitly stopping any prior run, then
// spawns sim_users workers. Per spec.md §4.9, calling Start while already
// running performs an implicit Stop first.
func (e *Engine) Start(cfg flowconfig.Config, flow flowconfig.Flow) error {
	if err := cfg.Validate(); err != nil {
		e.setStatus(StatusError)
		return err
	}
	if err := flow.Validate(); err != nil {
		e.setStatus(StatusError)
		return err
	}
	base, err := buildBase(cfg)
	if err != nil {
		e.setStatus(StatusError)
		return err
	}

	e.Stop()

	e.mu.Lock()
	e.metrics.Reset()
	e.metrics.SetRunning(true)
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.status = StatusRunning
	e.mu.Unlock()

	for i := 0; i < cfg.SimUsers; i++ {
		w := &worker.Worker{
			ID:      i,
			Flow:    flow,
			Config:  cfg,
			Base:    base,
			Logger:  e.logger,
			Metrics: e.metrics,
			Rand:    rand.New(rand.NewSource(int64(i) + time.Now().UnixNano())),
		}
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			w.Run(ctx)
		}()
	}

	e.logger.Infow("engine: started", "sim_users", cfg.SimUsers)
	return nil
}

// Stop signals cancellation to every worker and waits for them to finish,
// bounded by gracefulStopTimeout. It is idempotent: calling Stop when
// already stopped is a no-op.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.status != StatusRunning {
		e.mu.Unlock()
		return
	}
	cancel := e.cancel
	e.cancel = nil
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(gracefulStopTimeout):
		e.logger.Warnw("engine: grace timeout elapsed waiting for workers, proceeding to stopped")
	}

	e.mu.Lock()
	e.status = StatusStopped
	e.mu.Unlock()
	e.metrics.SetRunning(false)
	e.logger.Infow("engine: stopped")
}

// Status returns the current state-machine value.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// Snapshot returns a consistent read of metrics plus status.
func (e *Engine) Snapshot() metrics.Snapshot {
	snap := e.metrics.Snapshot(time.Now())
	snap.Running = e.Status() == StatusRunning
	return snap
}

func (e *Engine) setStatus(s Status) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status = s
}

// buildBase resolves flow_target_url and, if configured, the DNS override,
// into an internal/urlbuild.Base, per spec.md §4.5.
func buildBase(cfg flowconfig.Config) (urlbuild.Base, error) {
	u, err := url.Parse(cfg.FlowTargetURL)
	if err != nil {
		return urlbuild.Base{}, err
	}
	host := u.Hostname()
	port := u.Port()
	return urlbuild.Base{
		Scheme:   u.Scheme,
		Host:     host,
		Port:     port,
		TargetIP: cfg.FlowTargetDNSOverride,
	}, nil
}
