// Package interpreter dispatches a flow's Request/Condition/Loop steps
// against a per-iteration context, per spec.md §4.7.
package interpreter

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/torosent/flowrunner/internal/condition"
	"github.com/torosent/flowrunner/internal/extract"
	"github.com/torosent/flowrunner/internal/flowconfig"
	"github.com/torosent/flowrunner/internal/flowhttp"
	"github.com/torosent/flowrunner/internal/flowvalue"
	"github.com/torosent/flowrunner/internal/metrics"
	"github.com/torosent/flowrunner/internal/pathexpr"
	"github.com/torosent/flowrunner/internal/substitution"
	"github.com/torosent/flowrunner/internal/urlbuild"
)

// Logger is the structured-logging surface the interpreter and its
// collaborators need.
type Logger interface {
	condition.Logger
	extract.Logger
	flowhttp.Logger
}

const flowErrorKey = "_flow_error"

// Session bundles everything constant across a single worker's flow
// iterations: its HTTP client, static config, and identity.
type Session struct {
	Client        *http.Client
	Config        flowconfig.Config
	Base          urlbuild.Base
	FlowHeaders   map[string]string
	SessionHeaders http.Header // per-worker defaults (e.g. identity headers)
	SourceIP      string
	Logger        Logger
	Metrics       *metrics.Aggregator
	Rand          *rand.Rand
}

// Interpreter executes a flow's step tree.
type Interpreter struct {
	session *Session
}

// New builds an Interpreter bound to session.
func New(session *Session) *Interpreter {
	return &Interpreter{session: session}
}

// Execute runs steps against ctx in order, returning the (possibly
// mutated) context. It stops early if a Request step's on_failure=stop
// sets _flow_error, or if ctx.Err() fires (cancellation).
func (in *Interpreter) Execute(ctx context.Context, steps []flowconfig.Step, flowCtx flowvalue.Value) flowvalue.Value {
	for _, step := range steps {
		if ctx.Err() != nil {
			return flowCtx
		}
		if hasFlowError(flowCtx) {
			return flowCtx
		}

		flowCtx = in.executeStep(ctx, step, flowCtx)
		in.sleepBetweenSteps(ctx)
	}
	return flowCtx
}

func (in *Interpreter) executeStep(ctx context.Context, step flowconfig.Step, flowCtx flowvalue.Value) flowvalue.Value {
	switch step.Type {
	case flowconfig.StepRequest:
		return in.executeRequest(ctx, step, flowCtx)
	case flowconfig.StepCondition:
		return in.executeCondition(ctx, step, flowCtx)
	case flowconfig.StepLoop:
		return in.executeLoop(ctx, step, flowCtx)
	default:
		in.session.Logger.Warnw("interpreter: unknown step type", "type", step.Type, "id", step.ID)
		return flowCtx
	}
}

func (in *Interpreter) executeCondition(ctx context.Context, step flowconfig.Step, flowCtx flowvalue.Value) flowvalue.Value {
	result := condition.Evaluate(step.ConditionData, flowCtx, in.session.Logger)

	branch := step.Else
	if result {
		branch = step.Then
	}
	if len(branch) == 0 {
		return flowCtx
	}

	branchCtx := flowCtx.DeepCopy()
	branchCtx = in.Execute(ctx, branch, branchCtx)

	// Deep-merge per spec.md §3/§4.7 and DESIGN.md Open Question 2.
	return flowvalue.DeepMerge(flowCtx, branchCtx)
}

func (in *Interpreter) executeLoop(ctx context.Context, step flowconfig.Step, flowCtx flowvalue.Value) flowvalue.Value {
	source := pathexpr.Get(flowCtx, step.Source)
	elements, ok := source.List()
	if !ok {
		in.session.Logger.Warnw("interpreter: loop source is not a list, skipping", "source", step.Source, "id", step.ID)
		return flowCtx
	}
	if len(elements) == 0 {
		return flowCtx
	}

	loopVar := step.EffectiveLoopVariable()
	for i, element := range elements {
		if ctx.Err() != nil {
			return flowCtx
		}

		iterCtx := flowCtx.DeepCopy()
		iterCtx.Set(loopVar, element)
		iterCtx.Set(loopVar+"_index", flowvalue.Num(float64(i)))

		iterCtx = in.Execute(ctx, step.Steps, iterCtx)

		if hasFlowError(iterCtx) {
			// Propagate the inner failure to the parent and abort
			// remaining iterations, per spec.md §4.7 loop semantics.
			return flowvalue.DeepMerge(flowCtx, iterCtx)
		}
	}
	return flowCtx
}

func (in *Interpreter) executeRequest(ctx context.Context, step flowconfig.Step, flowCtx flowvalue.Value) flowvalue.Value {
	method := step.Method
	if method == "" {
		method = http.MethodGet
	}

	substitutedURL := substitution.ApplyToText(step.URL, flowCtx)
	built, err := urlbuild.Build(in.session.Base, substitutedURL, in.session.Config.EffectiveOverrideStepURLHost())
	if err != nil {
		in.session.Logger.Warnw("interpreter: url build failed", "id", step.ID, "error", err.Error())
		return setFlowError(flowCtx, step.ID, err.Error())
	}
	in.session.Logger.Debugw("interpreter: url builder branch", "id", step.ID, "branch", built.Branch, "url", built.RequestURL)

	headers := in.buildHeaders(step, flowCtx)
	body := in.buildBody(step, flowCtx)

	req := flowhttp.Request{Method: method, Built: built, Headers: headers, Body: body}
	result := flowhttp.Execute(ctx, in.session.Client, req, in.session.Logger)

	// A pre-dispatch failure (no response at all) is never counted in
	// "requests", per spec.md §4.6 item 5 — only a completed attempt
	// (including a non-retryable network failure that WAS dispatched)
	// counts. result.Err here always means every retry attempt was
	// dispatched and failed, so it is counted.
	if result.Err != nil {
		in.session.Metrics.RecordRequest(result.Latency, time.Now(), friendlyErrorLabel(result.Err))
		in.session.Logger.Warnw("interpreter: request failed", "id", step.ID, "error", result.Err.Error())
		if onFailureOrDefault(step.OnFailure) == flowconfig.OnFailureStop {
			return setFlowError(flowCtx, step.ID, result.Err.Error())
		}
		return flowCtx
	}

	in.session.Metrics.RecordRequest(result.Latency, time.Now(), fmt.Sprintf("%d", result.StatusCode))
	flowCtx = recordResponseMetadata(flowCtx, step.ID, result)

	// Extraction runs on every response, success or failure, before the
	// step decides whether to stop the iteration — spec.md §4.6 item 7.
	if len(step.Extract) > 0 {
		extracted := extract.Apply(result.Response, extract.Rules(step.Extract), in.session.Logger)
		for k, v := range extracted {
			if err := pathexpr.Set(&flowCtx, k, v); err != nil {
				flowCtx.Set(k, v)
			}
		}
	}

	if result.StatusCode >= 400 && onFailureOrDefault(step.OnFailure) == flowconfig.OnFailureStop {
		flowCtx = setFlowError(flowCtx, step.ID, fmt.Sprintf("http status %d", result.StatusCode))
	}

	return flowCtx
}

// onFailureOrDefault applies the "stop" default: an unspecified
// on_failure is treated as the conservative choice, since silently
// continuing past a failed dependency step risks every later step
// operating on missing/null extracted values.
func onFailureOrDefault(of flowconfig.OnFailure) flowconfig.OnFailure {
	if of == "" {
		return flowconfig.OnFailureStop
	}
	return of
}

func friendlyErrorLabel(err error) string {
	if err == nil {
		return ""
	}
	return metrics.FriendlyErrorName(err)
}

func (in *Interpreter) buildHeaders(step flowconfig.Step, flowCtx flowvalue.Value) http.Header {
	flowHeaders := http.Header{}
	for k, v := range in.session.FlowHeaders {
		flowHeaders.Set(k, substitution.ApplyToText(v, flowCtx))
	}
	stepHeaders := http.Header{}
	for k, v := range step.Headers {
		stepHeaders.Set(k, substitution.ApplyToText(v, flowCtx))
	}
	merged := flowhttp.MergeHeaders(in.session.SessionHeaders, flowHeaders, stepHeaders)
	flowhttp.InjectForwardedFor(merged, in.session.Config.EffectiveXFFHeaderName(), in.session.SourceIP)
	return merged
}

func (in *Interpreter) buildBody(step flowconfig.Step, flowCtx flowvalue.Value) flowvalue.Value {
	if step.Body == nil {
		return flowvalue.Missing
	}
	raw := flowvalue.FromJSON(step.Body)
	return substitution.Apply(raw, flowCtx)
}

func (in *Interpreter) sleepBetweenSteps(ctx context.Context) {
	min, max := in.session.Config.MinSleepMs, in.session.Config.MaxSleepMs
	if min == 0 && max == 0 {
		return
	}
	d := min
	if max > min {
		d += in.session.Rand.Intn(max - min + 1)
	}
	sleepCancellable(ctx, time.Duration(d)*time.Millisecond)
}

func sleepCancellable(ctx context.Context, d time.Duration) {
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

func hasFlowError(ctx flowvalue.Value) bool {
	return !pathexpr.Get(ctx, flowErrorKey).IsNullOrMissing()
}

// HasFlowError reports whether ctx carries a _flow_error set by a
// stop-on-failure Request step. Exported for callers (internal/worker)
// that need to decide whether a completed iteration counts as successful.
func HasFlowError(ctx flowvalue.Value) bool {
	return hasFlowError(ctx)
}

func setFlowError(ctx flowvalue.Value, stepID, reason string) flowvalue.Value {
	errVal := flowvalue.NewMap()
	errVal.Set("step_id", flowvalue.Str(stepID))
	errVal.Set("reason", flowvalue.Str(reason))
	ctx.Set(flowErrorKey, errVal)
	return ctx
}

// recordResponseMetadata writes the per-step raw response fields
// additively into context, supplementing named `extract` rules per
// SPEC_FULL.md §13 (grounded on original_source/flow_runner.py writing
// response_<id>_status/_headers/_body after every Request step).
func recordResponseMetadata(ctx flowvalue.Value, stepID string, result flowhttp.Result) flowvalue.Value {
	ctx.Set(fmt.Sprintf("response_%s_status", stepID), flowvalue.Num(float64(result.StatusCode)))
	if result.Response.IsJSON {
		if parsed, err := flowvalue.ParseJSON(result.Response.Body); err == nil {
			ctx.Set(fmt.Sprintf("response_%s_body", stepID), parsed)
		}
	} else {
		ctx.Set(fmt.Sprintf("response_%s_body", stepID), flowvalue.Str(string(result.Response.Body)))
	}
	return ctx
}
