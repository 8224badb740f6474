package plugin

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/sindri-ai/sindri/internal/agent"
	"github.com/sindri-ai/sindri/sdk"
)

// ToolRegistry is the host tool registry plugins are registered into.
type ToolRegistry interface {
	Register(tool sdk.Tool) error
	Names() []string
}

// unregisterer is implemented by registries that support hot reload.
type unregisterer interface {
	Unregister(name string) error
}

// LoadedPlugin is the Manager's record for one plugin.
type LoadedPlugin struct {
	Descriptor *Descriptor
	State      State
	Outcome    *Outcome

	// Tool or Agent is set once the plugin is Loaded.
	Tool  sdk.Tool
	Agent *agent.Definition

	// Error explains a Failed state.
	Error string
}

// Name returns the plugin name.
func (p LoadedPlugin) Name() string { return p.Descriptor.Name }

// Kind returns the plugin kind.
func (p LoadedPlugin) Kind() Kind { return p.Descriptor.Kind }

// Key returns the (kind, name) identity of the plugin.
func (p LoadedPlugin) Key() Key { return p.Descriptor.Key() }

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	Strict bool
	Logger hclog.Logger
}

// Manager tracks discovered plugins through their lifecycle and registers
// the valid ones into the host.
type Manager struct {
	discoverer *Discoverer
	strict     bool
	logger     hclog.Logger

	mu      sync.RWMutex
	plugins map[Key]*LoadedPlugin
	order   []Key
}

// NewManager creates a Manager that discovers plugins with d.
func NewManager(d *Discoverer, cfg ManagerConfig) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Manager{
		discoverer: d,
		strict:     cfg.Strict,
		logger:     logger.Named("plugins"),
		plugins:    make(map[Key]*LoadedPlugin),
	}
}

// Discover runs discovery and merges the result into the tracked set.
// An entry whose key is discovered again is replaced by a fresh
// Discovered entry; entries not rediscovered are kept.
func (m *Manager) Discover() int {
	descs := m.discoverer.Discover()

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range descs {
		m.trackLocked(d)
	}
	m.logger.Debug("discovery finished", "found", len(descs), "tracked", len(m.order))
	return len(descs)
}

// Track adds or replaces a single descriptor.
func (m *Manager) Track(d *Descriptor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trackLocked(d)
}

func (m *Manager) trackLocked(d *Descriptor) {
	key := d.Key()
	if _, exists := m.plugins[key]; !exists {
		m.order = append(m.order, key)
	}
	m.plugins[key] = &LoadedPlugin{Descriptor: d, State: StateDiscovered}
}

// ValidateAll validates every Discovered entry. Names of the other tracked
// plugins are available for cross-references but never count as
// collisions; only existingTools and existingAgents do.
func (m *Manager) ValidateAll(existingTools, existingAgents, availableModels []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var batchTools, batchAgents []string
	for _, key := range m.order {
		switch key.Kind {
		case KindTool:
			batchTools = append(batchTools, key.Name)
		case KindAgent:
			batchAgents = append(batchAgents, key.Name)
		}
	}

	v := NewValidator(
		WithExistingTools(existingTools...),
		WithExistingAgents(existingAgents...),
		WithAvailableModels(availableModels...),
		WithReferenceTools(batchTools...),
		WithReferenceAgents(batchAgents...),
		WithStrict(m.strict),
	)

	for _, key := range m.order {
		p := m.plugins[key]
		if p.State != StateDiscovered {
			continue
		}
		d := p.Descriptor
		switch {
		case d.LoadError != "":
			p.State = StateFailed
			p.Error = d.LoadError
		case !d.Enabled:
			p.State = StateDisabled
		default:
			out := v.Validate(d)
			p.Outcome = &out
			if out.Valid {
				p.State = StateValidated
			} else {
				p.State = StateFailed
				p.Error = out.Errors[0].String()
			}
		}
		m.logger.Debug("validated plugin", "plugin", key.String(), "state", p.State.String())
	}
}

// RegisterTools instantiates every Validated tool plugin and registers it.
// Each plugin is handled independently: an instantiation panic or a
// registry error marks that plugin Failed and processing continues.
// It returns the number of tools registered.
func (m *Manager) RegisterTools(reg ToolRegistry, workDir string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, key := range m.order {
		p := m.plugins[key]
		if key.Kind != KindTool || p.State != StateValidated {
			continue
		}
		tool, err := instantiate(p.Descriptor, workDir)
		if err == nil {
			err = safeRegister(reg, tool)
		}
		if err != nil {
			p.State = StateFailed
			p.Error = err.Error()
			m.logger.Warn("tool plugin failed to register", "plugin", key.Name, "error", err)
			continue
		}
		p.State = StateLoaded
		p.Tool = tool
		n++
		m.logger.Info("registered tool plugin", "plugin", key.Name, "path", p.Descriptor.SourcePath)
	}
	return n
}

func instantiate(d *Descriptor, workDir string) (tool sdk.Tool, err error) {
	if d.Tool == nil || d.Tool.New == nil {
		return nil, fmt.Errorf("tool %q has no constructor", d.Name)
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("instantiating %s: panic: %v", d.Name, rec)
		}
	}()
	tool, err = d.Tool.New(workDir)
	if err != nil {
		return nil, fmt.Errorf("instantiating %s: %w", d.Name, err)
	}
	return tool, nil
}

func safeRegister(reg ToolRegistry, tool sdk.Tool) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("registering tool: panic: %v", rec)
		}
	}()
	return reg.Register(tool)
}

// RegisterAgents inserts every Validated agent plugin into agents and
// returns the number inserted.
func (m *Manager) RegisterAgents(agents map[string]*agent.Definition) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, key := range m.order {
		p := m.plugins[key]
		if key.Kind != KindAgent || p.State != StateValidated {
			continue
		}
		if p.Descriptor.Agent == nil {
			p.State = StateFailed
			p.Error = "agent configuration missing"
			continue
		}
		def := p.Descriptor.Agent.Definition(p.Descriptor.SourcePath)
		agents[def.Name] = def
		p.Agent = def
		p.State = StateLoaded
		n++
		m.logger.Info("registered agent plugin", "plugin", key.Name, "path", p.Descriptor.SourcePath)
	}
	return n
}

// Plugins returns copies of every tracked entry in discovery order.
func (m *Manager) Plugins() []LoadedPlugin {
	return m.filter(func(*LoadedPlugin) bool { return true })
}

// Get returns a copy of the entry for key.
func (m *Manager) Get(key Key) (LoadedPlugin, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.plugins[key]
	if !ok {
		return LoadedPlugin{}, false
	}
	return *p, true
}

// LoadedTools returns the tool instances registered by plugins.
func (m *Manager) LoadedTools() []sdk.Tool {
	var tools []sdk.Tool
	for _, p := range m.filter(func(p *LoadedPlugin) bool { return p.State == StateLoaded && p.Tool != nil }) {
		tools = append(tools, p.Tool)
	}
	return tools
}

// LoadedAgents returns the agent definitions registered by plugins.
func (m *Manager) LoadedAgents() []*agent.Definition {
	var defs []*agent.Definition
	for _, p := range m.filter(func(p *LoadedPlugin) bool { return p.State == StateLoaded && p.Agent != nil }) {
		defs = append(defs, p.Agent)
	}
	return defs
}

// FailedPlugins returns every Failed entry.
func (m *Manager) FailedPlugins() []LoadedPlugin {
	return m.filter(func(p *LoadedPlugin) bool { return p.State == StateFailed })
}

// PluginCount returns the number of tracked entries per state. Every
// state is present in the result.
func (m *Manager) PluginCount() map[State]int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[State]int, len(AllStates()))
	for _, s := range AllStates() {
		counts[s] = 0
	}
	for _, p := range m.plugins {
		counts[p.State]++
	}
	return counts
}

func (m *Manager) filter(keep func(*LoadedPlugin) bool) []LoadedPlugin {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []LoadedPlugin
	for _, key := range m.order {
		if p := m.plugins[key]; keep(p) {
			out = append(out, *p)
		}
	}
	return out
}

// Host bundles the collaborators Reload registers into.
type Host struct {
	Tools   ToolRegistry
	Agents  map[string]*agent.Definition
	WorkDir string

	// BuiltinTools and BuiltinAgents are the names plugins may not reuse.
	BuiltinTools  []string
	BuiltinAgents []string
	Models        []string
}

// ReloadSummary reports the result of a Reload.
type ReloadSummary struct {
	Discovered int
	Tools      int
	Agents     int
	Failed     int
}

// Reload removes what the previous pass registered, then discovers,
// validates and registers again.
func (m *Manager) Reload(ctx context.Context, h Host) (ReloadSummary, error) {
	if err := ctx.Err(); err != nil {
		return ReloadSummary{}, err
	}
	m.unloadAll(h)

	var s ReloadSummary
	s.Discovered = m.reset()
	m.ValidateAll(h.BuiltinTools, h.BuiltinAgents, h.Models)
	if h.Tools != nil {
		s.Tools = m.RegisterTools(h.Tools, h.WorkDir)
	}
	if h.Agents != nil {
		s.Agents = m.RegisterAgents(h.Agents)
	}
	s.Failed = len(m.FailedPlugins())
	m.logger.Info("plugins reloaded", "discovered", s.Discovered, "tools", s.Tools, "agents", s.Agents, "failed", s.Failed)
	return s, nil
}

// reset replaces the tracked set with a fresh discovery pass, so files
// removed since the last pass are no longer reported.
func (m *Manager) reset() int {
	descs := m.discoverer.Discover()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plugins = make(map[Key]*LoadedPlugin, len(descs))
	m.order = nil
	for _, d := range descs {
		m.trackLocked(d)
	}
	return len(descs)
}

func (m *Manager) unloadAll(h Host) {
	m.mu.Lock()
	defer m.mu.Unlock()
	un, canUnregister := h.Tools.(unregisterer)
	for _, key := range m.order {
		p := m.plugins[key]
		if p.State != StateLoaded {
			continue
		}
		if p.Tool != nil && canUnregister {
			if err := un.Unregister(p.Tool.Name()); err != nil {
				m.logger.Debug("unregister failed", "plugin", key.Name, "error", err)
			}
		}
		if p.Agent != nil && h.Agents != nil {
			if cur, ok := h.Agents[p.Agent.Name]; ok && cur == p.Agent {
				delete(h.Agents, p.Agent.Name)
			}
		}
	}
}
