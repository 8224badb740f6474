package plugin

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/sindri-ai/sindri/internal/agent"
)

// AgentConfig is the parsed form of an agent definition file. Optional
// resource hints are pointers so absent keys can be told apart from zero
// values; Resolve applies the defaults.
type AgentConfig struct {
	Agent    AgentSection  `toml:"agent" yaml:"agent"`
	Prompt   PromptSection `toml:"prompt" yaml:"prompt"`
	Metadata AgentMetadata `toml:"metadata" yaml:"metadata"`

	// SystemPrompt is the resolved prompt text (inline or loaded from file).
	SystemPrompt string `toml:"-" yaml:"-"`
	// PromptPath is the absolute path of [prompt].file, if one was given.
	PromptPath string `toml:"-" yaml:"-"`
}

// AgentSection is the [agent] table.
type AgentSection struct {
	Name        string   `toml:"name" yaml:"name"`
	Role        string   `toml:"role" yaml:"role"`
	Model       string   `toml:"model" yaml:"model"`
	Description string   `toml:"description" yaml:"description"`
	Tools       []string `toml:"tools" yaml:"tools"`
	CanDelegate *bool    `toml:"can_delegate" yaml:"can_delegate"`
	DelegateTo  []string `toml:"delegate_to" yaml:"delegate_to"`
	Enabled     *bool    `toml:"enabled" yaml:"enabled"`

	EstimatedVRAMGB  *float64 `toml:"estimated_vram_gb" yaml:"estimated_vram_gb"`
	Priority         *int     `toml:"priority" yaml:"priority"`
	MaxIterations    *int     `toml:"max_iterations" yaml:"max_iterations"`
	MaxContextTokens *int     `toml:"max_context_tokens" yaml:"max_context_tokens"`
	Temperature      *float64 `toml:"temperature" yaml:"temperature"`

	FallbackModel  string   `toml:"fallback_model" yaml:"fallback_model"`
	FallbackVRAMGB *float64 `toml:"fallback_vram_gb" yaml:"fallback_vram_gb"`
}

// PromptSection is the [prompt] table.
type PromptSection struct {
	Content string `toml:"content" yaml:"content"`
	File    string `toml:"file" yaml:"file"`
}

// AgentMetadata is the [metadata] table.
type AgentMetadata struct {
	Version       string   `toml:"version" yaml:"version"`
	Author        string   `toml:"author" yaml:"author"`
	Category      string   `toml:"category" yaml:"category"`
	Tags          []string `toml:"tags" yaml:"tags"`
	Homepage      string   `toml:"homepage" yaml:"homepage"`
	Repository    string   `toml:"repository" yaml:"repository"`
	License       string   `toml:"license" yaml:"license"`
	Dependencies  []string `toml:"dependencies" yaml:"dependencies"`
	SindriVersion string   `toml:"sindri_version" yaml:"sindri_version"`
}

// Hints holds resource hints with defaults applied.
type Hints struct {
	EstimatedVRAMGB  float64
	Priority         int
	MaxIterations    int
	MaxContextTokens int
	Temperature      float64
	CanDelegate      bool
	Enabled          bool
}

// Resolve returns the resource hints with defaults for absent keys.
func (c *AgentConfig) Resolve() Hints {
	h := Hints{
		EstimatedVRAMGB:  agent.DefaultVRAMGB,
		Priority:         agent.DefaultPriority,
		MaxIterations:    agent.DefaultMaxIterations,
		MaxContextTokens: agent.DefaultMaxContextTokens,
		Temperature:      agent.DefaultTemperature,
		Enabled:          true,
	}
	a := c.Agent
	if a.EstimatedVRAMGB != nil {
		h.EstimatedVRAMGB = *a.EstimatedVRAMGB
	}
	if a.Priority != nil {
		h.Priority = *a.Priority
	}
	if a.MaxIterations != nil {
		h.MaxIterations = *a.MaxIterations
	}
	if a.MaxContextTokens != nil {
		h.MaxContextTokens = *a.MaxContextTokens
	}
	if a.Temperature != nil {
		h.Temperature = *a.Temperature
	}
	if a.CanDelegate != nil {
		h.CanDelegate = *a.CanDelegate
	}
	if a.Enabled != nil {
		h.Enabled = *a.Enabled
	}
	return h
}

// Definition materializes the host agent record.
func (c *AgentConfig) Definition(source string) *agent.Definition {
	h := c.Resolve()
	def := &agent.Definition{
		Name:             c.Agent.Name,
		Role:             c.Agent.Role,
		Description:      c.Agent.Description,
		Model:            c.Agent.Model,
		SystemPrompt:     c.SystemPrompt,
		Tools:            append([]string(nil), c.Agent.Tools...),
		CanDelegate:      h.CanDelegate,
		DelegateTo:       append([]string(nil), c.Agent.DelegateTo...),
		EstimatedVRAMGB:  h.EstimatedVRAMGB,
		Priority:         h.Priority,
		MaxIterations:    h.MaxIterations,
		MaxContextTokens: h.MaxContextTokens,
		Temperature:      h.Temperature,
		FallbackModel:    c.Agent.FallbackModel,
		Source:           source,
	}
	if c.Agent.FallbackVRAMGB != nil {
		v := *c.Agent.FallbackVRAMGB
		def.FallbackVRAMGB = &v
	}
	return def
}

// metadataMap flattens the [metadata] table for a Descriptor.
func (c *AgentConfig) metadataMap() map[string]any {
	m := c.Metadata
	md := make(map[string]any)
	set := func(k, v string) {
		if v != "" {
			md[k] = v
		}
	}
	set("version", m.Version)
	set("author", m.Author)
	set("category", m.Category)
	set("homepage", m.Homepage)
	set("repository", m.Repository)
	set("license", m.License)
	set("sindri_version", m.SindriVersion)
	if len(m.Tags) > 0 {
		md["tags"] = append([]string(nil), m.Tags...)
	}
	if len(m.Dependencies) > 0 {
		md["dependencies"] = append([]string(nil), m.Dependencies...)
	}
	return md
}

// DecodeAgentConfig decodes an agent document. The format is chosen from
// the file extension: .toml, or .yaml/.yml.
func DecodeAgentConfig(path string, data []byte) (*AgentConfig, error) {
	var cfg AgentConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("parsing TOML: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported agent file extension %q", filepath.Ext(path))
	}
	return &cfg, nil
}

// ParseAgentFile reads, decodes and checks an agent definition file.
// The returned config is non-nil whenever decoding succeeded, even if a
// required field is missing or the prompt file cannot be read.
func ParseAgentFile(path string) (*AgentConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading agent file: %w", err)
	}
	cfg, err := DecodeAgentConfig(path, data)
	if err != nil {
		return nil, err
	}

	var missing []string
	if strings.TrimSpace(cfg.Agent.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(cfg.Agent.Role) == "" {
		missing = append(missing, "role")
	}
	if strings.TrimSpace(cfg.Agent.Model) == "" {
		missing = append(missing, "model")
	}
	if len(missing) > 0 {
		return cfg, fmt.Errorf("[agent] is missing required field(s): %s", strings.Join(missing, ", "))
	}

	cfg.SystemPrompt = cfg.Prompt.Content
	if cfg.Prompt.File != "" {
		p := cfg.Prompt.File
		if !filepath.IsAbs(p) {
			p = filepath.Join(filepath.Dir(path), p)
		}
		cfg.PromptPath = p
		content, err := os.ReadFile(p)
		if err != nil {
			return cfg, fmt.Errorf("reading prompt file %s: %w", cfg.Prompt.File, err)
		}
		cfg.SystemPrompt = string(content)
	}
	return cfg, nil
}
