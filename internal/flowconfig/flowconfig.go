// Package flowconfig defines the Config, Flow, and Step types the engine
// accepts at Start, plus their validation, per spec.md §3 and §6.
package flowconfig

import (
	"fmt"
	"os"
	"strings"

	"github.com/torosent/flowrunner/internal/condition"
	"github.com/torosent/flowrunner/internal/flowvalue"
)

// Config is the engine's runtime input, validated once at Start.
type Config struct {
	FlowTargetURL         string `json:"flow_target_url" yaml:"flow_target_url" mapstructure:"flow_target_url"`
	SimUsers              int    `json:"sim_users" yaml:"sim_users" mapstructure:"sim_users"`
	FlowTargetDNSOverride string `json:"flow_target_dns_override" yaml:"flow_target_dns_override" mapstructure:"flow_target_dns_override"`
	XFFHeaderName         string `json:"xff_header_name" yaml:"xff_header_name" mapstructure:"xff_header_name"`
	MinSleepMs            int    `json:"min_sleep_ms" yaml:"min_sleep_ms" mapstructure:"min_sleep_ms"`
	MaxSleepMs            int    `json:"max_sleep_ms" yaml:"max_sleep_ms" mapstructure:"max_sleep_ms"`
	FlowCycleDelayMs      int    `json:"flow_cycle_delay_ms" yaml:"flow_cycle_delay_ms" mapstructure:"flow_cycle_delay_ms"`
	OverrideStepURLHost   *bool  `json:"override_step_url_host" yaml:"override_step_url_host" mapstructure:"override_step_url_host"`
	Debug                 bool   `json:"debug" yaml:"debug" mapstructure:"debug"`
}

// EffectiveOverrideStepURLHost applies the documented default of true.
func (c Config) EffectiveOverrideStepURLHost() bool {
	if c.OverrideStepURLHost == nil {
		return true
	}
	return *c.OverrideStepURLHost
}

// EffectiveXFFHeaderName applies the documented default.
func (c Config) EffectiveXFFHeaderName() string {
	if strings.TrimSpace(c.XFFHeaderName) == "" {
		return "X-Forwarded-For"
	}
	return c.XFFHeaderName
}

// StepType tags the variant carried by a Step.
type StepType string

const (
	StepRequest   StepType = "request"
	StepCondition StepType = "condition"
	StepLoop      StepType = "loop"
)

// OnFailure controls what a failed Request step does to its iteration.
type OnFailure string

const (
	OnFailureStop     OnFailure = "stop"
	OnFailureContinue OnFailure = "continue"
)

var validMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "DELETE": true,
	"PATCH": true, "OPTIONS": true, "HEAD": true,
}

// Step is the tagged Request/Condition/Loop variant from spec.md §3/§6.
// Exactly one of the type-specific field groups is populated, selected by
// Type.
type Step struct {
	ID   string   `json:"id" yaml:"id" mapstructure:"id"`
	Name string   `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`
	Type StepType `json:"type" yaml:"type" mapstructure:"type"`

	// Request fields.
	Method    string            `json:"method,omitempty" yaml:"method,omitempty" mapstructure:"method"`
	URL       string            `json:"url,omitempty" yaml:"url,omitempty" mapstructure:"url"`
	Headers   map[string]string `json:"headers,omitempty" yaml:"headers,omitempty" mapstructure:"headers"`
	Body      any               `json:"body,omitempty" yaml:"body,omitempty" mapstructure:"body"`
	Extract   map[string]string `json:"extract,omitempty" yaml:"extract,omitempty" mapstructure:"extract"`
	OnFailure OnFailure         `json:"onFailure,omitempty" yaml:"onFailure,omitempty" mapstructure:"onFailure"`

	// Condition fields.
	ConditionData condition.Data `json:"conditionData,omitempty" yaml:"conditionData,omitempty" mapstructure:"conditionData"`
	Then          []Step         `json:"then,omitempty" yaml:"then,omitempty" mapstructure:"then"`
	Else          []Step         `json:"else,omitempty" yaml:"else,omitempty" mapstructure:"else"`

	// Loop fields.
	Source       string `json:"source,omitempty" yaml:"source,omitempty" mapstructure:"source"`
	LoopVariable string `json:"loopVariable,omitempty" yaml:"loopVariable,omitempty" mapstructure:"loopVariable"`
	Steps        []Step `json:"steps,omitempty" yaml:"steps,omitempty" mapstructure:"steps"`
}

// EffectiveLoopVariable applies the documented "item" default.
func (s Step) EffectiveLoopVariable() string {
	if strings.TrimSpace(s.LoopVariable) == "" {
		return "item"
	}
	return s.LoopVariable
}

// Flow is a declarative program of steps, per spec.md §3/§6.
type Flow struct {
	ID          string            `json:"id,omitempty" yaml:"id,omitempty" mapstructure:"id"`
	Name        string            `json:"name" yaml:"name" mapstructure:"name"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	Headers     map[string]string `json:"headers,omitempty" yaml:"headers,omitempty" mapstructure:"headers"`
	StaticVars  map[string]any    `json:"staticVars,omitempty" yaml:"staticVars,omitempty" mapstructure:"staticVars"`
	Steps       []Step            `json:"steps" yaml:"steps" mapstructure:"steps"`
}

// StaticVarsValue converts StaticVars into a flowvalue Map, ready to seed
// a fresh iteration context.
func (f Flow) StaticVarsValue() flowvalue.Value {
	return flowvalue.FromJSON(map[string]any(f.StaticVars))
}

// ValidationError aggregates every issue found during validation, mirroring
// the teacher's internal/config.ValidationError.
type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

// Validate checks Config for internal consistency, per spec.md §3.
func (c Config) Validate() error {
	var issues []string

	if strings.TrimSpace(c.FlowTargetURL) == "" {
		issues = append(issues, "flow_target_url is required")
	}
	if c.SimUsers < 1 {
		issues = append(issues, "sim_users must be >= 1")
	}
	if c.MinSleepMs < 0 {
		issues = append(issues, "min_sleep_ms must be >= 0")
	}
	if c.MaxSleepMs < 0 {
		issues = append(issues, "max_sleep_ms must be >= 0")
	}
	if c.MinSleepMs > c.MaxSleepMs {
		issues = append(issues, "min_sleep_ms must be <= max_sleep_ms")
	}
	if c.FlowCycleDelayMs < 0 {
		issues = append(issues, "flow_cycle_delay_ms must be >= 0")
	}

	if c.SimUsers > 2000 {
		fmt.Fprintf(os.Stderr, "WARNING: high sim_users configured (%d). Ensure you have authorization to load-test the target.\n", c.SimUsers)
	}

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

// Validate checks a Flow's step tree for structural well-formedness. Per
// spec.md §3, step IDs need not be unique and unknown top-level fields are
// ignored (Go's JSON/YAML decoders already do this by default when
// decoding into a concrete struct, so no extra handling is required here).
func (f Flow) Validate() error {
	var issues []string
	if strings.TrimSpace(f.Name) == "" {
		issues = append(issues, "flow name is required")
	}
	for i, step := range f.Steps {
		validateStep(step, fmt.Sprintf("steps[%d]", i), &issues)
	}
	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

func validateStep(s Step, path string, issues *[]string) {
	switch s.Type {
	case StepRequest:
		method := strings.ToUpper(strings.TrimSpace(s.Method))
		if !validMethods[method] {
			*issues = append(*issues, fmt.Sprintf("%s: invalid method %q", path, s.Method))
		}
		if s.OnFailure != "" && s.OnFailure != OnFailureStop && s.OnFailure != OnFailureContinue {
			*issues = append(*issues, fmt.Sprintf("%s: invalid onFailure %q", path, s.OnFailure))
		}
	case StepCondition:
		if strings.TrimSpace(s.ConditionData.Variable) == "" {
			*issues = append(*issues, fmt.Sprintf("%s: condition missing variable", path))
		}
		for i, child := range s.Then {
			validateStep(child, fmt.Sprintf("%s.then[%d]", path, i), issues)
		}
		for i, child := range s.Else {
			validateStep(child, fmt.Sprintf("%s.else[%d]", path, i), issues)
		}
	case StepLoop:
		if strings.TrimSpace(s.Source) == "" {
			*issues = append(*issues, fmt.Sprintf("%s: loop missing source", path))
		}
		for i, child := range s.Steps {
			validateStep(child, fmt.Sprintf("%s.steps[%d]", path, i), issues)
		}
	default:
		*issues = append(*issues, fmt.Sprintf("%s: unknown step type %q", path, s.Type))
	}
}
