package plugin

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// ErrUnsupportedFile is returned by DiscoverFile for files that are not
// tool or agent plugins.
var ErrUnsupportedFile = errors.New("not a plugin file")

// Discoverer enumerates plugin files and produces a Descriptor per file.
type Discoverer struct {
	toolDir  string
	agentDir string
	runtime  Runtime
	disabled map[string]bool
	logger   hclog.Logger
}

// DiscovererOption configures a Discoverer.
type DiscovererOption func(*Discoverer)

// WithRuntime sets the runtime used to execute tool plugin candidates.
func WithRuntime(r Runtime) DiscovererOption {
	return func(d *Discoverer) { d.runtime = r }
}

// WithDisabled marks plugin names that are discovered but not enabled.
func WithDisabled(names ...string) DiscovererOption {
	return func(d *Discoverer) {
		for _, n := range names {
			d.disabled[n] = true
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l hclog.Logger) DiscovererOption {
	return func(d *Discoverer) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDiscoverer creates a Discoverer for the given tool and agent
// directories. Either may be empty to skip that kind.
func NewDiscoverer(toolDir, agentDir string, opts ...DiscovererOption) *Discoverer {
	d := &Discoverer{
		toolDir:  toolDir,
		agentDir: agentDir,
		disabled: make(map[string]bool),
		logger:   hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.runtime == nil {
		d.runtime = NewInterpreterRuntime()
	}
	return d
}

// Discover returns descriptors for every tool plugin followed by every
// agent plugin, each group ordered by file name. It never fails: problems
// with individual files are reported on their descriptors.
func (d *Discoverer) Discover() []*Descriptor {
	out := d.DiscoverTools()
	return append(out, d.DiscoverAgents()...)
}

// DiscoverTools returns descriptors for the tool directory.
func (d *Discoverer) DiscoverTools() []*Descriptor {
	var out []*Descriptor
	for _, path := range d.listFiles(d.toolDir, KindTool) {
		out = append(out, d.discoverTool(path))
	}
	return out
}

// DiscoverAgents returns descriptors for the agent directory.
func (d *Discoverer) DiscoverAgents() []*Descriptor {
	var out []*Descriptor
	for _, path := range d.listFiles(d.agentDir, KindAgent) {
		out = append(out, d.discoverAgent(path))
	}
	return out
}

// DiscoverFile runs the discovery pipeline on a single file, wherever it
// is located.
func (d *Discoverer) DiscoverFile(path string) (*Descriptor, error) {
	kind, ok := KindForFile(path)
	if !ok {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupportedFile)
	}
	if kind == KindTool {
		return d.discoverTool(path), nil
	}
	return d.discoverAgent(path), nil
}

func (d *Discoverer) listFiles(dir string, kind Kind) []string {
	if dir == "" {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			d.logger.Warn("cannot read plugin directory", "dir", dir, "error", err)
		}
		return nil
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if k, ok := KindForFile(e.Name()); ok && k == kind {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths
}

func (d *Discoverer) discoverTool(path string) *Descriptor {
	desc := &Descriptor{
		Name:       fileStem(path),
		Kind:       KindTool,
		SourcePath: path,
		Enabled:    true,
		Metadata:   map[string]any{},
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return desc.fail("reading file", err)
	}
	desc.source = src

	scan, err := scanToolSource(path, src)
	desc.scan, desc.scanErr = scan, err
	if err != nil {
		d.logger.Debug("tool plugin does not parse", "path", path, "error", err)
		return desc.fail("syntax error", err)
	}

	desc.Description = scan.doc
	desc.Metadata = scan.metadata()
	desc.Version, _ = desc.Metadata["version"].(string)
	desc.Author, _ = desc.Metadata["author"].(string)

	cand, err := scan.candidate("")
	if err != nil {
		return desc.fail(err.Error(), nil)
	}
	if name, ok := returnedString(cand.Methods["Name"]); ok && name != "" {
		desc.Name = name
	}
	if text, ok := returnedString(cand.Methods["Description"]); ok && text != "" {
		desc.Description = text
	}
	if d.disabled[desc.Name] {
		desc.Enabled = false
	}

	ctor := cand.constructorName()
	if ctor == "" {
		return desc.fail(fmt.Sprintf("no constructor New%s(workDir string) or New(workDir string) found", cand.Name), nil)
	}
	if issues := securityIssues(scan); len(issues) > 0 {
		return desc.fail("refusing to execute: "+issues[0].Message, nil)
	}

	factory, err := d.runtime.Load(path, src, scan.pkgName, ctor)
	if err != nil {
		d.logger.Debug("tool plugin failed to load", "path", path, "error", err)
		return desc.fail("loading plugin", err)
	}
	desc.Tool = &ToolRef{TypeName: cand.Name, Constructor: ctor, New: factory}
	return desc
}

func (d *Discoverer) discoverAgent(path string) *Descriptor {
	desc := &Descriptor{
		Name:       fileStem(path),
		Kind:       KindAgent,
		SourcePath: path,
		Enabled:    true,
		Metadata:   map[string]any{},
	}

	cfg, err := ParseAgentFile(path)
	if cfg != nil {
		if name := strings.TrimSpace(cfg.Agent.Name); name != "" {
			desc.Name = name
		}
		desc.Agent = cfg
		desc.Description = cfg.Agent.Description
		desc.Version = cfg.Metadata.Version
		desc.Author = cfg.Metadata.Author
		desc.Metadata = cfg.metadataMap()
		desc.Enabled = cfg.Resolve().Enabled
	}
	if err != nil {
		d.logger.Debug("agent plugin failed to load", "path", path, "error", err)
		return desc.fail("loading agent", err)
	}
	if d.disabled[desc.Name] {
		desc.Enabled = false
	}
	return desc
}
