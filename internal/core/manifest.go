package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"

	"github.com/sindri-ai/sindri/internal/core/plugin"
)

// ManifestFileName is the manifest found at the root of an installable
// directory.
const ManifestFileName = "sindri-plugin.json"

// Manifest is the parsed sindri-plugin.json. Comments and trailing commas
// are allowed.
type Manifest struct {
	PluginMetadata
	EntryPoint string `json:"entry_point,omitempty"`
}

// ReadManifest reads the manifest in dir. Returns nil, nil if the
// directory has none.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return ParseManifest(data)
}

// ParseManifest decodes manifest bytes.
func ParseManifest(data []byte) (*Manifest, error) {
	std, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(std, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	m.Normalize()
	return &m, nil
}

// extensionsFor returns the candidate entry point extensions for a type.
func extensionsFor(t PluginType) []string {
	switch t {
	case PluginTypeTool:
		return []string{plugin.ToolExt}
	case PluginTypeAgent:
		return plugin.AgentExts
	}
	return append([]string{plugin.ToolExt}, plugin.AgentExts...)
}

// ResolveEntryPoint finds the plugin file a manifest refers to. The
// declared entry point wins and must stay inside dir; otherwise
// {name}.ext, plugin.ext and main.ext are tried in that order.
func (m *Manifest) ResolveEntryPoint(dir string) (string, error) {
	if m.EntryPoint != "" {
		p, err := safeJoin(dir, m.EntryPoint)
		if err != nil {
			return "", fmt.Errorf("entry point: %w", err)
		}
		if fileExists(p) {
			return p, nil
		}
	}

	var tried []string
	for _, stem := range []string{m.Name, "plugin", "main"} {
		if stem == "" {
			continue
		}
		for _, ext := range extensionsFor(m.PluginType) {
			p := filepath.Join(dir, stem+ext)
			if fileExists(p) {
				return p, nil
			}
			tried = append(tried, stem+ext)
		}
	}
	if m.EntryPoint != "" {
		return "", fmt.Errorf("entry point %s not found (also tried %v): %w", m.EntryPoint, tried, ErrNotFound)
	}
	return "", fmt.Errorf("no entry point found (tried %v): %w", tried, ErrNotFound)
}
