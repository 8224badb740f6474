// Package agent defines the agent definition record the host schedules.
// The conversational loop that runs agents lives outside this module.
package agent

// Default resource hints applied when a definition leaves them unset.
const (
	DefaultVRAMGB           = 8.0
	DefaultPriority         = 1
	DefaultMaxIterations    = 30
	DefaultMaxContextTokens = 16384
	DefaultTemperature      = 0.3
)

// Definition describes one agent: its model, prompt, tools, delegation
// policy and resource hints.
type Definition struct {
	Name         string   `json:"name" yaml:"name"`
	Role         string   `json:"role" yaml:"role"`
	Description  string   `json:"description,omitempty" yaml:"description"`
	Model        string   `json:"model" yaml:"model"`
	SystemPrompt string   `json:"system_prompt" yaml:"system_prompt"`
	Tools        []string `json:"tools,omitempty" yaml:"tools"`
	CanDelegate  bool     `json:"can_delegate" yaml:"can_delegate"`
	DelegateTo   []string `json:"delegate_to,omitempty" yaml:"delegate_to"`

	EstimatedVRAMGB  float64 `json:"estimated_vram_gb" yaml:"estimated_vram_gb"`
	Priority         int     `json:"priority" yaml:"priority"`
	MaxIterations    int     `json:"max_iterations" yaml:"max_iterations"`
	MaxContextTokens int     `json:"max_context_tokens" yaml:"max_context_tokens"`
	Temperature      float64 `json:"temperature" yaml:"temperature"`

	// FallbackModel is used when Model does not fit the available VRAM.
	FallbackModel  string   `json:"fallback_model,omitempty" yaml:"fallback_model"`
	FallbackVRAMGB *float64 `json:"fallback_vram_gb,omitempty" yaml:"fallback_vram_gb"`

	// Source is the plugin file the definition came from ("" for built-ins).
	Source string `json:"source,omitempty" yaml:"-"`
}

// Builtin returns a minimal built-in definition with default resource hints.
func Builtin(name, role, model string) *Definition {
	return &Definition{
		Name:             name,
		Role:             role,
		Model:            model,
		EstimatedVRAMGB:  DefaultVRAMGB,
		Priority:         DefaultPriority,
		MaxIterations:    DefaultMaxIterations,
		MaxContextTokens: DefaultMaxContextTokens,
		Temperature:      DefaultTemperature,
	}
}
