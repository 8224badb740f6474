// Package core provides plugin acquisition for sindri: installing plugins
// from local paths, git repositories and archive URLs, and keeping the
// marketplace index of what is installed.
// It has zero UI dependencies and is independently testable.
package core

import (
	"strings"
	"time"
)

// Config represents the sindri configuration stored at ~/.sindri/config.json.
type Config struct {
	PluginDir      string `json:"plugin_dir,omitempty"`
	AgentDir       string `json:"agent_dir,omitempty"`
	MarketplaceDir string `json:"marketplace_dir,omitempty"`

	// Strict escalates validation warnings to errors.
	Strict bool `json:"strict"`
	// ValidateOnInstall runs discovery and validation before copying.
	ValidateOnInstall bool `json:"validate_on_install"`

	// Disabled lists plugin names that are discovered but not loaded.
	Disabled        []string `json:"disabled,omitempty"`
	AvailableModels []string `json:"available_models,omitempty"`

	// DefaultForge is the host bare "owner/repo" sources resolve against.
	DefaultForge string `json:"default_forge,omitempty"`
	// ForgeHosts are hosts whose https URLs are cloned rather than downloaded.
	ForgeHosts []string `json:"forge_hosts,omitempty"`

	CloneTimeout    Duration `json:"clone_timeout,omitempty"`
	DownloadTimeout Duration `json:"download_timeout,omitempty"`

	LogLevel string `json:"log_level,omitempty"`
}

// IsDisabled reports whether name is in the disabled list.
func (c *Config) IsDisabled(name string) bool {
	for _, n := range c.Disabled {
		if n == name {
			return true
		}
	}
	return false
}

// Duration is a time.Duration encoded as a string such as "90s".
type Duration time.Duration

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// SourceKind indicates where an installed plugin came from.
type SourceKind string

const (
	SourceLocal   SourceKind = "local"
	SourceGit     SourceKind = "git"
	SourceURL     SourceKind = "url"
	SourceUnknown SourceKind = "unknown"
)

// MarshalText implements encoding.TextMarshaler.
func (k SourceKind) MarshalText() ([]byte, error) {
	if k == "" {
		return []byte(SourceUnknown), nil
	}
	return []byte(k), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unknown kinds decode
// as SourceUnknown.
func (k *SourceKind) UnmarshalText(b []byte) error {
	switch SourceKind(strings.ToLower(strings.TrimSpace(string(b)))) {
	case SourceLocal:
		*k = SourceLocal
	case SourceGit:
		*k = SourceGit
	case SourceURL:
		*k = SourceURL
	default:
		*k = SourceUnknown
	}
	return nil
}

// Remote reports whether plugins from this source can be updated.
func (k SourceKind) Remote() bool { return k == SourceGit || k == SourceURL }

// PluginSource records where and when a plugin was installed from.
type PluginSource struct {
	Kind        SourceKind `json:"kind"`
	Location    string     `json:"location"`
	Ref         string     `json:"ref,omitempty"`
	InstalledAt time.Time  `json:"installed_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// InstalledPlugin is one entry of the marketplace index.
type InstalledPlugin struct {
	Metadata      PluginMetadata `json:"metadata"`
	Source        PluginSource   `json:"source"`
	InstalledPath string         `json:"installed_path"`
	// PromptPath is an agent prompt file copied alongside the plugin.
	PromptPath string `json:"prompt_path,omitempty"`
	// Checksum is the sha256 of the installed file when it was copied.
	Checksum string `json:"checksum,omitempty"`
	Enabled  bool   `json:"enabled"`
	Pinned   bool   `json:"pinned"`
}

// Name returns the plugin name.
func (p *InstalledPlugin) Name() string { return p.Metadata.Name }

// InstallOptions configures an installation.
type InstallOptions struct {
	Name           string // Overrides the plugin name taken from metadata
	Ref            string // Git branch or tag
	SkipValidation bool   // Skip discover+validate of the copied file
	Strict         bool   // Treat validation warnings as errors
}

// InstallResult is the outcome of an install, uninstall or update.
type InstallResult struct {
	Success  bool             `json:"success"`
	Plugin   *InstalledPlugin `json:"plugin,omitempty"`
	Error    string           `json:"error,omitempty"`
	Warnings []string         `json:"warnings,omitempty"`

	// Installed and Failed are filled for directory and batch operations.
	Installed []*InstalledPlugin `json:"installed,omitempty"`
	Failed    []FailedInstall    `json:"failed,omitempty"`

	// Err is the underlying error, for errors.Is checks by callers.
	Err error `json:"-"`
}

// FailedInstall names one failed sub-result of a batch.
type FailedInstall struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

func failure(err error, warnings ...string) *InstallResult {
	return &InstallResult{Success: false, Error: err.Error(), Err: err, Warnings: warnings}
}
