// Package host holds the collaborators the plugin subsystem registers into:
// the tool registry, the agent map and the built-in name sets.
package host

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sindri-ai/sindri/sdk"
)

// ToolRegistry is the host's set of callable tools.
type ToolRegistry struct {
	mu    sync.RWMutex
	tools map[string]sdk.Tool
}

// NewToolRegistry creates an empty ToolRegistry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{tools: make(map[string]sdk.Tool)}
}

// Register adds a tool to the registry.
// Returns an error if a tool with the same name is already registered.
func (tr *ToolRegistry) Register(tool sdk.Tool) error {
	name := tool.Name()
	if name == "" {
		return fmt.Errorf("tool has an empty name")
	}
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if _, exists := tr.tools[name]; exists {
		return fmt.Errorf("tool %q already registered", name)
	}
	tr.tools[name] = tool
	return nil
}

// Unregister removes a tool by name.
func (tr *ToolRegistry) Unregister(name string) error {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if _, exists := tr.tools[name]; !exists {
		return fmt.Errorf("tool %q not found", name)
	}
	delete(tr.tools, name)
	return nil
}

// Get returns a tool by name.
func (tr *ToolRegistry) Get(name string) (sdk.Tool, bool) {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	t, ok := tr.tools[name]
	return t, ok
}

// Execute runs a tool by name with the given arguments.
func (tr *ToolRegistry) Execute(ctx context.Context, name string, args map[string]any) (*sdk.Result, error) {
	t, ok := tr.Get(name)
	if !ok {
		return nil, fmt.Errorf("tool %q not found in registry", name)
	}
	return t.Execute(ctx, args)
}

// Names returns all registered tool names, sorted.
func (tr *ToolRegistry) Names() []string {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	names := make([]string, 0, len(tr.tools))
	for name := range tr.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
