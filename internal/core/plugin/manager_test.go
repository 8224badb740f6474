package plugin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/sindri-ai/sindri/internal/agent"
)

func newTestManager(t *testing.T, rt *fakeRuntime, strict bool) (*Manager, string, string) {
	t.Helper()
	toolDir, agentDir := t.TempDir(), t.TempDir()
	d := NewDiscoverer(toolDir, agentDir, WithRuntime(rt))
	return NewManager(d, ManagerConfig{Strict: strict}), toolDir, agentDir
}

func states(m *Manager) map[string]State {
	out := map[string]State{}
	for _, p := range m.Plugins() {
		out[p.Key().String()] = p.State
	}
	return out
}

func TestManager_PartialFailureIsolation(t *testing.T) {
	m, toolDir, _ := newTestManager(t, &fakeRuntime{}, false)
	writeFile(t, toolDir, "echo.go", echoSource)
	writeFile(t, toolDir, "broken.go", "package broken\n\nfunc {\n")

	m.Discover()
	m.ValidateAll([]string{"read_file"}, nil, nil)
	reg := newMemRegistry("read_file")
	n := m.RegisterTools(reg, "/work")

	assert.Equal(t, 1, n)
	assert.Contains(t, reg.tools, "echo")
	assert.Equal(t, map[string]State{
		"tool:broken": StateFailed,
		"tool:echo":   StateLoaded,
	}, states(m))

	failed := m.FailedPlugins()
	require.Len(t, failed, 1)
	assert.Contains(t, failed[0].Error, "syntax error")
}

func TestManager_ConstructorPanicIsRecovered(t *testing.T) {
	rt := &fakeRuntime{panic: map[string]bool{"boom.go": true}}
	m, toolDir, _ := newTestManager(t, rt, false)
	writeFile(t, toolDir, "boom.go", toolSource("boom"))
	writeFile(t, toolDir, "echo.go", echoSource)

	m.Discover()
	m.ValidateAll(nil, nil, nil)
	n := m.RegisterTools(newMemRegistry(), "/work")

	assert.Equal(t, 1, n)
	p, ok := m.Get(Key{Kind: KindTool, Name: "boom"})
	require.True(t, ok)
	assert.Equal(t, StateFailed, p.State)
	assert.Contains(t, p.Error, "constructor exploded")
}

func TestManager_RegistryRejectionFails(t *testing.T) {
	m, toolDir, _ := newTestManager(t, &fakeRuntime{}, false)
	writeFile(t, toolDir, "echo.go", echoSource)

	m.Discover()
	// The registry already has echo but the validator was not told.
	m.ValidateAll(nil, nil, nil)
	n := m.RegisterTools(newMemRegistry("echo"), "/work")

	assert.Zero(t, n)
	p, _ := m.Get(Key{Kind: KindTool, Name: "echo"})
	assert.Equal(t, StateFailed, p.State)
	assert.Contains(t, p.Error, "already registered")
}

func TestManager_BuiltinCollision(t *testing.T) {
	m, toolDir, _ := newTestManager(t, &fakeRuntime{}, false)
	writeFile(t, toolDir, "read_file.go", toolSource("read_file"))

	m.Discover()
	m.ValidateAll([]string{"read_file"}, nil, nil)

	p, _ := m.Get(Key{Kind: KindTool, Name: "read_file"})
	assert.Equal(t, StateFailed, p.State)
	assert.True(t, p.Outcome.HasErrorKind(ErrNameConflict))
}

func TestManager_BatchNamesAreReferencesOnly(t *testing.T) {
	m, toolDir, agentDir := newTestManager(t, &fakeRuntime{}, true)
	writeFile(t, toolDir, "echo.go", echoSource)
	writeFile(t, agentDir, "reviewer2.toml", agentTOML)
	writeFile(t, agentDir, "mimir2.toml", "[agent]\nname = \"mimir\"\nrole = \"reviewer\"\nmodel = \"m\"\n[prompt]\ncontent = \"x\"\n")

	m.Discover()
	// Strict mode: any unresolved reference would fail reviewer2.
	m.ValidateAll([]string{"read_file"}, nil, nil)

	assert.Equal(t, map[string]State{
		"tool:echo":       StateValidated,
		"agent:reviewer2": StateValidated,
		"agent:mimir":     StateValidated,
	}, states(m))
}

func TestManager_DisabledAndLoadErrors(t *testing.T) {
	toolDir, agentDir := t.TempDir(), t.TempDir()
	writeFile(t, toolDir, "echo.go", echoSource)
	writeFile(t, agentDir, "half.toml", "[agent]\nname = \"half\"\n")
	d := NewDiscoverer(toolDir, agentDir, WithRuntime(&fakeRuntime{}), WithDisabled("echo"))
	m := NewManager(d, ManagerConfig{})

	m.Discover()
	m.ValidateAll(nil, nil, nil)

	assert.Equal(t, map[string]State{
		"tool:echo":  StateDisabled,
		"agent:half": StateFailed,
	}, states(m))

	counts := m.PluginCount()
	assert.Len(t, counts, len(AllStates()))
	assert.Equal(t, 1, counts[StateDisabled])
	assert.Equal(t, 1, counts[StateFailed])
	assert.Equal(t, 0, counts[StateLoaded])
}

func TestManager_RegisterAgents(t *testing.T) {
	m, _, agentDir := newTestManager(t, &fakeRuntime{}, false)
	writeFile(t, agentDir, "reviewer2.toml", agentTOML)

	m.Discover()
	m.ValidateAll([]string{"read_file", "echo"}, []string{"mimir"}, nil)
	agents := map[string]*agent.Definition{"mimir": agent.Builtin("mimir", "reviewer", "m")}
	n := m.RegisterAgents(agents)

	assert.Equal(t, 1, n)
	require.Contains(t, agents, "reviewer2")
	def := agents["reviewer2"]
	assert.Equal(t, "You review code.", def.SystemPrompt)
	assert.Equal(t, agent.DefaultMaxIterations, def.MaxIterations)
	assert.Equal(t, filepath.Join(agentDir, "reviewer2.toml"), def.Source)

	loaded := m.LoadedAgents()
	require.Len(t, loaded, 1)
	assert.Same(t, def, loaded[0])
}

func TestManager_DiscoverMergesByKey(t *testing.T) {
	m, toolDir, _ := newTestManager(t, &fakeRuntime{}, false)
	writeFile(t, toolDir, "alpha.go", toolSource("alpha"))
	writeFile(t, toolDir, "beta.go", toolSource("beta"))
	m.Discover()
	m.ValidateAll(nil, nil, nil)
	m.RegisterTools(newMemRegistry(), "/w")

	require.NoError(t, os.Remove(filepath.Join(toolDir, "beta.go")))
	m.Discover()

	assert.Equal(t, map[string]State{
		"tool:alpha": StateDiscovered,
		"tool:beta":  StateLoaded,
	}, states(m))
}

func TestManager_PluginsReturnsCopies(t *testing.T) {
	m, toolDir, _ := newTestManager(t, &fakeRuntime{}, false)
	writeFile(t, toolDir, "echo.go", echoSource)
	m.Discover()

	ps := m.Plugins()
	require.Len(t, ps, 1)
	ps[0].State = StateLoaded

	p, _ := m.Get(Key{Kind: KindTool, Name: "echo"})
	assert.Equal(t, StateDiscovered, p.State)
}

func TestManager_ReloadReplacesRegistrations(t *testing.T) {
	m, toolDir, agentDir := newTestManager(t, &fakeRuntime{}, false)
	writeFile(t, toolDir, "echo.go", echoSource)
	writeFile(t, agentDir, "reviewer2.toml", agentTOML)

	reg := newMemRegistry("read_file")
	agents := map[string]*agent.Definition{"mimir": agent.Builtin("mimir", "reviewer", "m")}
	h := Host{
		Tools:         reg,
		Agents:        agents,
		WorkDir:       "/w",
		BuiltinTools:  []string{"read_file"},
		BuiltinAgents: []string{"mimir"},
	}

	s, err := m.Reload(context.Background(), h)
	require.NoError(t, err)
	assert.Equal(t, ReloadSummary{Discovered: 2, Tools: 1, Agents: 1}, s)

	require.NoError(t, os.Remove(filepath.Join(agentDir, "reviewer2.toml")))
	s, err = m.Reload(context.Background(), h)
	require.NoError(t, err)
	assert.Equal(t, ReloadSummary{Discovered: 1, Tools: 1}, s)
	assert.NotContains(t, agents, "reviewer2")
	assert.Contains(t, agents, "mimir")
	assert.Len(t, m.LoadedTools(), 1)
}

func TestManager_ReloadHonorsCancellation(t *testing.T) {
	m, _, _ := newTestManager(t, &fakeRuntime{}, false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := m.Reload(ctx, Host{})
	assert.ErrorIs(t, err, context.Canceled)
}

func keysOf(descs []*Descriptor) []string {
	var keys []string
	for _, d := range descs {
		keys = append(keys, d.Key().String())
	}
	sort.Strings(keys)
	return keys
}

func TestDiscover_IdempotentProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		toolDir, err := os.MkdirTemp("", "sindri-tools")
		if err != nil {
			rt.Fatal(err)
		}
		defer os.RemoveAll(toolDir)
		agentDir, err := os.MkdirTemp("", "sindri-agents")
		if err != nil {
			rt.Fatal(err)
		}
		defer os.RemoveAll(agentDir)

		names := rapid.SliceOfDistinct(rapid.StringMatching(`[a-z]{1,8}`), func(s string) string { return s }).Draw(rt, "tools")
		for _, n := range names {
			if err := os.WriteFile(filepath.Join(toolDir, n+".go"), []byte(toolSource(n)), 0o644); err != nil {
				rt.Fatal(err)
			}
		}
		agentCount := rapid.IntRange(0, 4).Draw(rt, "agents")
		for i := 0; i < agentCount; i++ {
			body := fmt.Sprintf("[agent]\nname = \"a%d\"\nrole = \"r\"\nmodel = \"m\"\n", i)
			if err := os.WriteFile(filepath.Join(agentDir, fmt.Sprintf("a%d.toml", i)), []byte(body), 0o644); err != nil {
				rt.Fatal(err)
			}
		}

		d := NewDiscoverer(toolDir, agentDir, WithRuntime(&fakeRuntime{}))
		first, second := keysOf(d.Discover()), keysOf(d.Discover())
		if !assert.ObjectsAreEqual(first, second) {
			rt.Fatalf("discovery not idempotent: %v vs %v", first, second)
		}
		if len(first) != len(names)+agentCount {
			rt.Fatalf("expected %d descriptors, got %d", len(names)+agentCount, len(first))
		}
	})
}
