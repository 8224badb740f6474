package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tailscale/hujson"
)

const (
	configDirName  = ".sindri"
	configFileName = "config.json"

	// HomeEnv overrides the base directory (~/.sindri).
	HomeEnv = "SINDRI_HOME"
)

// Default timeouts. Zero means unbounded.
const (
	DefaultCloneTimeout    = 0
	DefaultDownloadTimeout = 0
	probeTimeout           = 5 * time.Second
)

// ConfigManager handles reading and writing the sindri configuration.
type ConfigManager struct {
	configDir string
	mu        sync.RWMutex
}

// NewConfigManager creates a ConfigManager using $SINDRI_HOME, or
// ~/.sindri when it is unset.
func NewConfigManager() (*ConfigManager, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return &ConfigManager{configDir: expandPath(dir)}, nil
	}
	home, err := homeDir()
	if err != nil {
		return nil, fmt.Errorf("getting home directory: %w", err)
	}
	return &ConfigManager{
		configDir: filepath.Join(home, configDirName),
	}, nil
}

// NewConfigManagerWithDir creates a ConfigManager using a custom config directory.
// Useful for testing.
func NewConfigManagerWithDir(dir string) *ConfigManager {
	return &ConfigManager{configDir: dir}
}

// ConfigDir returns the configuration directory path.
func (cm *ConfigManager) ConfigDir() string {
	return cm.configDir
}

// ConfigPath returns the full path to the config file.
func (cm *ConfigManager) ConfigPath() string {
	return filepath.Join(cm.configDir, configFileName)
}

// Load reads the config from disk. Returns default config if file doesn't exist.
// The file may contain comments and trailing commas.
func (cm *ConfigManager) Load() (*Config, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	cfg := cm.defaultConfig()
	data, err := os.ReadFile(cm.ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	std, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := json.Unmarshal(std, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cm.resolveDirs(cfg)
	return cfg, nil
}

// Save writes the config to disk, creating the directory if needed.
func (cm *ConfigManager) Save(cfg *Config) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := writeFileAtomic(cm.ConfigPath(), append(data, '\n')); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	return nil
}

// SetDisabled adds or removes name from the disabled list and saves.
func (cm *ConfigManager) SetDisabled(name string, disabled bool) error {
	cfg, err := cm.Load()
	if err != nil {
		return err
	}
	var names []string
	for _, n := range cfg.Disabled {
		if n != name {
			names = append(names, n)
		}
	}
	if disabled {
		names = append(names, name)
	}
	cfg.Disabled = names
	return cm.Save(cfg)
}

func (cm *ConfigManager) defaultConfig() *Config {
	cfg := &Config{
		ValidateOnInstall: true,
		DefaultForge:      "github.com",
		ForgeHosts:        append([]string(nil), defaultForgeHosts...),
		CloneTimeout:      DefaultCloneTimeout,
		DownloadTimeout:   DefaultDownloadTimeout,
		LogLevel:          "warn",
	}
	cm.resolveDirs(cfg)
	return cfg
}

// resolveDirs fills unset directories and makes relative ones absolute
// against the config directory.
func (cm *ConfigManager) resolveDirs(cfg *Config) {
	resolve := func(p *string, def string) {
		if *p == "" {
			*p = filepath.Join(cm.configDir, def)
			return
		}
		*p = expandPath(*p)
		if !filepath.IsAbs(*p) {
			*p = filepath.Join(cm.configDir, *p)
		}
	}
	resolve(&cfg.PluginDir, "plugins")
	resolve(&cfg.AgentDir, "agents")
	resolve(&cfg.MarketplaceDir, "marketplace")
	if cfg.DefaultForge == "" {
		cfg.DefaultForge = "github.com"
	}
	if len(cfg.ForgeHosts) == 0 {
		cfg.ForgeHosts = append([]string(nil), defaultForgeHosts...)
	}
}

// IndexPath returns the marketplace index path for cfg.
func (cfg *Config) IndexPath() string {
	return filepath.Join(cfg.MarketplaceDir, indexFileName)
}
