package plugin

import (
	"strings"
)

// Resource hint bounds for agent plugins.
const (
	MaxRecommendedVRAMGB     = 24.0
	MaxRecommendedIterations = 100
	MinTemperature           = 0.0
	MaxTemperature           = 2.0
)

// Validator checks descriptors against the host. It holds no mutable
// state; Validate is a pure function of the descriptor and the sets the
// Validator was built with.
type Validator struct {
	existingTools  set
	existingAgents set
	models         set
	refTools       set
	refAgents      set
	strict         bool
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithExistingTools sets the host tool names plugins may not reuse.
func WithExistingTools(names ...string) ValidatorOption {
	return func(v *Validator) { v.existingTools.add(names...) }
}

// WithExistingAgents sets the host agent names plugins may not reuse.
func WithExistingAgents(names ...string) ValidatorOption {
	return func(v *Validator) { v.existingAgents.add(names...) }
}

// WithAvailableModels sets the models agents may reference. When empty,
// model references are not checked.
func WithAvailableModels(names ...string) ValidatorOption {
	return func(v *Validator) { v.models.add(names...) }
}

// WithReferenceTools adds tool names that agents may reference but that
// do not count as collisions, such as other plugins in the same batch.
func WithReferenceTools(names ...string) ValidatorOption {
	return func(v *Validator) { v.refTools.add(names...) }
}

// WithReferenceAgents is the agent counterpart of WithReferenceTools.
func WithReferenceAgents(names ...string) ValidatorOption {
	return func(v *Validator) { v.refAgents.add(names...) }
}

// WithStrict turns every warning into an error.
func WithStrict(strict bool) ValidatorOption {
	return func(v *Validator) { v.strict = strict }
}

// NewValidator creates a Validator.
func NewValidator(opts ...ValidatorOption) *Validator {
	v := &Validator{
		existingTools:  set{},
		existingAgents: set{},
		models:         set{},
		refTools:       set{},
		refAgents:      set{},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate runs every rule for the descriptor's kind and collects all
// issues. Rules never short-circuit each other.
func (v *Validator) Validate(d *Descriptor) Outcome {
	o := Outcome{Valid: true}

	switch d.Kind {
	case KindTool:
		v.validateTool(d, &o)
	case KindAgent:
		v.validateAgent(d, &o)
	default:
		o.errorf(ErrInvalidSchema, "unknown plugin kind %q", d.Kind)
	}

	o.Valid = len(o.Errors) == 0
	if v.strict {
		o = Strict(o)
	}
	return o
}

func (v *Validator) validateTool(d *Descriptor, o *Outcome) {
	if v.existingTools.has(d.Name) {
		o.errorf(ErrNameConflict, "tool %q conflicts with an existing tool", d.Name)
	}

	scan, err := d.toolScan()
	if err != nil {
		o.errorf(ErrSyntax, "%v", err)
		return
	}
	if d.LoadError != "" {
		o.errorf(ErrImport, "%s", d.LoadError)
	}

	checkImports(scan, o)
	checkCalls(scan, o)
	checkToolContract(scan, o)
}

func (v *Validator) validateAgent(d *Descriptor, o *Outcome) {
	if v.existingAgents.has(d.Name) {
		o.errorf(ErrNameConflict, "agent %q conflicts with an existing agent", d.Name)
	}
	if d.LoadError != "" {
		o.errorf(ErrImport, "%s", d.LoadError)
	}
	cfg := d.Agent
	if cfg == nil {
		return
	}
	a := cfg.Agent

	if len(v.models) > 0 {
		if a.Model != "" && !v.models.has(a.Model) {
			o.warnf("model %q is not available", a.Model)
		}
		if a.FallbackModel != "" && !v.models.has(a.FallbackModel) {
			o.warnf("fallback model %q is not available", a.FallbackModel)
		}
	}

	for _, t := range a.Tools {
		if !v.existingTools.has(t) && !v.refTools.has(t) {
			o.warnf("tool %q is not registered", t)
		}
	}
	for _, target := range a.DelegateTo {
		if target == d.Name {
			continue
		}
		if !v.existingAgents.has(target) && !v.refAgents.has(target) {
			o.warnf("delegation target %q is not a known agent", target)
		}
	}

	h := cfg.Resolve()
	switch {
	case h.EstimatedVRAMGB <= 0:
		o.errorf(ErrInvalidSchema, "estimated_vram_gb must be positive, got %g", h.EstimatedVRAMGB)
	case h.EstimatedVRAMGB > MaxRecommendedVRAMGB:
		o.warnf("estimated_vram_gb %g exceeds %g", h.EstimatedVRAMGB, MaxRecommendedVRAMGB)
	}
	switch {
	case h.MaxIterations <= 0:
		o.errorf(ErrInvalidSchema, "max_iterations must be positive, got %d", h.MaxIterations)
	case h.MaxIterations > MaxRecommendedIterations:
		o.warnf("max_iterations %d exceeds %d", h.MaxIterations, MaxRecommendedIterations)
	}
	if strings.TrimSpace(cfg.SystemPrompt) == "" && d.LoadError == "" {
		o.warnf("agent has an empty system prompt")
	}
	if h.Temperature < MinTemperature || h.Temperature > MaxTemperature {
		o.warnf("temperature %g is outside [%g, %g]", h.Temperature, MinTemperature, MaxTemperature)
	}
	if a.FallbackVRAMGB != nil && *a.FallbackVRAMGB <= 0 {
		o.errorf(ErrInvalidSchema, "fallback_vram_gb must be positive, got %g", *a.FallbackVRAMGB)
	}
}

type set map[string]struct{}

func (s set) add(names ...string) {
	for _, n := range names {
		s[n] = struct{}{}
	}
}

func (s set) has(name string) bool {
	_, ok := s[name]
	return ok
}
