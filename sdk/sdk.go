// Package sdk is the contract between sindri and tool plugins.
//
// A tool plugin is a single Go source file placed in the plugin directory
// (~/.sindri/plugins by default). The file declares a struct that embeds
// BaseTool, implements Tool, and exports a constructor:
//
//	package echo
//
//	import (
//		"context"
//		"fmt"
//
//		"github.com/sindri-ai/sindri/sdk"
//	)
//
//	const Version = "1.0.0"
//
//	type EchoTool struct {
//		sdk.BaseTool
//	}
//
//	func NewEchoTool(workDir string) sdk.Tool {
//		return &EchoTool{BaseTool: sdk.BaseTool{WorkDir: workDir}}
//	}
//
//	func (t *EchoTool) Name() string        { return "echo" }
//	func (t *EchoTool) Description() string { return "Echo the input back" }
//	func (t *EchoTool) Parameters() map[string]any {
//		return map[string]any{"type": "object"}
//	}
//	func (t *EchoTool) Execute(ctx context.Context, args map[string]any) (*sdk.Result, error) {
//		return sdk.OK(fmt.Sprint(args["text"])), nil
//	}
//
// Plugin files are interpreted, not compiled into the host. They are only
// executed after a static inspection found a struct embedding BaseTool.
package sdk

import "context"

// ImportPath is the path plugin files use to import this package.
const ImportPath = "github.com/sindri-ai/sindri/sdk"

// Tool is a single externally callable capability.
type Tool interface {
	// Name returns the unique tool identifier.
	Name() string

	// Description returns a human-readable description.
	Description() string

	// Parameters returns the JSON schema of the tool arguments.
	Parameters() map[string]any

	// Execute runs the tool. Implementations must honor ctx cancellation.
	Execute(ctx context.Context, args map[string]any) (*Result, error)
}

// BaseTool is the marker every plugin tool type embeds.
type BaseTool struct {
	// WorkDir is the directory the host instantiated the tool for.
	WorkDir string
}

// Result is the outcome of a tool execution.
type Result struct {
	Success  bool           `json:"success"`
	Output   string         `json:"output"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// OK returns a successful result with the given output.
func OK(output string) *Result {
	return &Result{Success: true, Output: output}
}

// Fail returns a failed result with the given error message.
func Fail(msg string) *Result {
	return &Result{Success: false, Error: msg}
}
