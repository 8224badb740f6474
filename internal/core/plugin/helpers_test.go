package plugin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sindri-ai/sindri/sdk"
)

const echoSource = `// Package echo repeats its input.
package echo

import (
	"context"
	"fmt"

	"github.com/sindri-ai/sindri/sdk"
)

const (
	Version = "1.2.0"
	Author  = "Ada"
)

//sindri:category utility
//sindri:tags text, debug

type EchoTool struct {
	sdk.BaseTool
}

func NewEchoTool(workDir string) sdk.Tool {
	return &EchoTool{BaseTool: sdk.BaseTool{WorkDir: workDir}}
}

func (t *EchoTool) Name() string        { return "echo" }
func (t *EchoTool) Description() string { return "Echo the input back" }

func (t *EchoTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"text": map[string]any{"type": "string"},
		},
	}
}

func (t *EchoTool) Execute(ctx context.Context, args map[string]any) (*sdk.Result, error) {
	return sdk.OK(fmt.Sprint(args["text"])), nil
}
`

// toolSource renders a minimal well-formed tool named name.
func toolSource(name string) string {
	s := strings.ReplaceAll(echoSource, `return "echo"`, fmt.Sprintf("return %q", name))
	return strings.Replace(s, "package echo", "package "+goIdent(name), 1)
}

func goIdent(name string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, "p_"+name)
}

const agentTOML = `[agent]
name = "reviewer2"
role = "reviewer"
model = "llama3.1:8b"
description = "Second opinion"
tools = ["read_file", "echo"]
delegate_to = ["mimir"]

[prompt]
content = "You review code."

[metadata]
version = "0.1.0"
author = "Ada"
tags = ["review"]
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// fakeRuntime loads tools without an interpreter. The produced tool takes
// its name from the file's Name method.
type fakeRuntime struct {
	loads int
	fail  map[string]error
	panic map[string]bool
}

func (r *fakeRuntime) Load(path string, src []byte, pkg, ctor string) (Factory, error) {
	r.loads++
	if err := r.fail[filepath.Base(path)]; err != nil {
		return nil, err
	}
	scan, err := scanToolSource(path, src)
	if err != nil {
		return nil, err
	}
	cand, err := scan.candidate("")
	if err != nil {
		return nil, err
	}
	name, _ := returnedString(cand.Methods["Name"])
	shouldPanic := r.panic[filepath.Base(path)]
	return func(workDir string) (sdk.Tool, error) {
		if shouldPanic {
			panic("constructor exploded")
		}
		return &stubTool{name: name, workDir: workDir}, nil
	}, nil
}

type stubTool struct {
	name    string
	workDir string
}

func (s *stubTool) Name() string               { return s.name }
func (s *stubTool) Description() string        { return "stub" }
func (s *stubTool) Parameters() map[string]any { return map[string]any{"type": "object"} }
func (s *stubTool) Execute(context.Context, map[string]any) (*sdk.Result, error) {
	return sdk.OK(s.workDir), nil
}

// memRegistry is a minimal ToolRegistry.
type memRegistry struct {
	tools map[string]sdk.Tool
}

func newMemRegistry(names ...string) *memRegistry {
	r := &memRegistry{tools: map[string]sdk.Tool{}}
	for _, n := range names {
		r.tools[n] = &stubTool{name: n}
	}
	return r
}

func (r *memRegistry) Register(t sdk.Tool) error {
	if _, ok := r.tools[t.Name()]; ok {
		return fmt.Errorf("tool %q already registered", t.Name())
	}
	r.tools[t.Name()] = t
	return nil
}

func (r *memRegistry) Unregister(name string) error {
	delete(r.tools, name)
	return nil
}

func (r *memRegistry) Names() []string {
	var out []string
	for n := range r.tools {
		out = append(out, n)
	}
	return out
}

func discoverSource(t *testing.T, name, src string) *Descriptor {
	t.Helper()
	dir := t.TempDir()
	path := writeFile(t, dir, name, src)
	d, err := NewDiscoverer(dir, "", WithRuntime(&fakeRuntime{})).DiscoverFile(path)
	require.NoError(t, err)
	return d
}
