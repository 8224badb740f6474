package host

import (
	"context"
	"strings"
	"testing"

	"github.com/sindri-ai/sindri/sdk"
)

type fakeTool struct {
	sdk.BaseTool
	name string
}

func (f *fakeTool) Name() string               { return f.name }
func (f *fakeTool) Description() string        { return "fake" }
func (f *fakeTool) Parameters() map[string]any { return nil }
func (f *fakeTool) Execute(ctx context.Context, args map[string]any) (*sdk.Result, error) {
	return sdk.OK(f.name), nil
}

func TestToolRegistry_RegisterAndExecute(t *testing.T) {
	tr := NewToolRegistry()
	if err := tr.Register(&fakeTool{name: "b"}); err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if err := tr.Register(&fakeTool{name: "a"}); err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	if got := strings.Join(tr.Names(), ","); got != "a,b" {
		t.Errorf("Names() = %s, want a,b", got)
	}
	res, err := tr.Execute(context.Background(), "a", nil)
	if err != nil || !res.Success || res.Output != "a" {
		t.Errorf("Execute() = %+v, %v", res, err)
	}
	if _, err := tr.Execute(context.Background(), "missing", nil); err == nil {
		t.Error("Execute(missing) should fail")
	}
}

func TestToolRegistry_RejectsDuplicateAndEmpty(t *testing.T) {
	tr := NewToolRegistry()
	if err := tr.Register(&fakeTool{name: "a"}); err != nil {
		t.Fatal(err)
	}
	if err := tr.Register(&fakeTool{name: "a"}); err == nil {
		t.Error("duplicate Register() should fail")
	}
	if err := tr.Register(&fakeTool{}); err == nil {
		t.Error("Register() of an unnamed tool should fail")
	}
}

func TestToolRegistry_Unregister(t *testing.T) {
	tr := NewToolRegistry()
	_ = tr.Register(&fakeTool{name: "a"})

	if err := tr.Unregister("a"); err != nil {
		t.Fatalf("Unregister() error: %v", err)
	}
	if _, ok := tr.Get("a"); ok {
		t.Error("tool still registered")
	}
	if err := tr.Unregister("a"); err == nil {
		t.Error("second Unregister() should fail")
	}
}

func TestBuiltins(t *testing.T) {
	names := BuiltinToolNames()
	names[0] = "mutated"
	if BuiltinToolNames()[0] == "mutated" {
		t.Error("BuiltinToolNames() must return a copy")
	}

	agents := BuiltinAgents()
	brokkr, ok := agents["brokkr"]
	if !ok || !brokkr.CanDelegate {
		t.Error("the orchestrator should be able to delegate")
	}
	if agents["mimir"].CanDelegate {
		t.Error("only the orchestrator delegates")
	}
	if len(AgentNames(agents)) != len(agents) {
		t.Error("AgentNames() length mismatch")
	}
}
