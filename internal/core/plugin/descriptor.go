// Package plugin discovers, validates and registers sindri plugins.
//
// Discovery is two-phase for tool plugins: a file is parsed with go/parser
// and only executed by the interpreter when it declares a struct embedding
// a Tool marker. Agent plugins are declarative documents and are never
// executed. The Manager tracks every discovered plugin through its state
// machine and registers the valid ones into the host.
package plugin

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/sindri-ai/sindri/sdk"
)

// Kind identifies a plugin type.
type Kind string

const (
	KindTool  Kind = "tool"
	KindAgent Kind = "agent"
)

// String returns the wire form of the kind.
func (k Kind) String() string { return string(k) }

// ParseKind converts a wire string into a Kind.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tool":
		return KindTool, true
	case "agent":
		return KindAgent, true
	}
	return "", false
}

// Extensions recognized per plugin kind.
const (
	ToolExt = ".go"
)

// AgentExts lists the agent definition extensions, preferred first.
var AgentExts = []string{".toml", ".yaml", ".yml"}

// KindForFile classifies a file by its extension. Private files (leading
// underscore) and Go test files are not plugins.
func KindForFile(path string) (Kind, bool) {
	base := filepath.Base(path)
	if strings.HasPrefix(base, "_") || strings.HasPrefix(base, ".") {
		return "", false
	}
	ext := strings.ToLower(filepath.Ext(base))
	if ext == ToolExt {
		if strings.HasSuffix(base, "_test.go") {
			return "", false
		}
		return KindTool, true
	}
	for _, e := range AgentExts {
		if ext == e {
			return KindAgent, true
		}
	}
	return "", false
}

// Key identifies a plugin within the Manager.
type Key struct {
	Kind Kind
	Name string
}

func (k Key) String() string { return string(k.Kind) + ":" + k.Name }

// Factory instantiates a tool for the given working directory.
type Factory func(workDir string) (sdk.Tool, error)

// ToolRef is the live, instantiable reference produced for a tool plugin.
type ToolRef struct {
	TypeName    string
	Constructor string
	New         Factory
}

// Descriptor is the discovery-time description of one plugin file.
// A fresh Descriptor is produced on every discovery pass.
type Descriptor struct {
	Name        string
	Kind        Kind
	SourcePath  string
	Description string
	Version     string
	Author      string
	Enabled     bool
	LoadError   string

	// Tool is set for loadable tool plugins.
	Tool *ToolRef
	// Agent is set for parsed agent plugins, even when LoadError is set
	// for a missing optional piece such as a prompt file.
	Agent *AgentConfig

	Metadata map[string]any

	// source and scan are retained for tool plugins so the validator can
	// inspect the file without reading it again.
	source  []byte
	scan    *sourceScan
	scanErr error
}

// Key returns the (kind, name) identity of the descriptor.
func (d *Descriptor) Key() Key { return Key{Kind: d.Kind, Name: d.Name} }

func (d *Descriptor) fail(format string, err error) *Descriptor {
	d.Enabled = false
	if err != nil {
		d.LoadError = strings.TrimSpace(format + ": " + err.Error())
	} else {
		d.LoadError = format
	}
	return d
}

// Source returns the raw file contents captured at discovery, if any.
func (d *Descriptor) Source() []byte { return d.source }

// toolScan returns the syntax-level view of a tool plugin, parsing the
// captured source (or the file on disk) when discovery did not.
func (d *Descriptor) toolScan() (*sourceScan, error) {
	if d.scan != nil || d.scanErr != nil {
		return d.scan, d.scanErr
	}
	src := d.source
	if src == nil {
		b, err := os.ReadFile(d.SourcePath)
		if err != nil {
			return nil, err
		}
		src = b
	}
	d.scan, d.scanErr = scanToolSource(d.SourcePath, src)
	return d.scan, d.scanErr
}

func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
