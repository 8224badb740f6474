package core

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"github.com/sindri-ai/sindri/internal/core/plugin"
)

// HostVersion is the sindri version checked against a plugin's
// sindri_version constraint. Set by the CLI at startup.
var HostVersion = "0.1.0"

// Installer acquires plugins and keeps the marketplace index. All
// mutating operations hold the index lock for their whole duration.
type Installer struct {
	cfg        *Config
	index      *Index
	lock       *fileLock
	logger     hclog.Logger
	client     *http.Client
	discoverer *plugin.Discoverer

	builtinTools  []string
	builtinAgents []string
}

// InstallerOption configures an Installer.
type InstallerOption func(*installerOptions)

type installerOptions struct {
	logger        hclog.Logger
	client        *http.Client
	runtime       plugin.Runtime
	builtinTools  []string
	builtinAgents []string
}

// WithInstallerLogger sets the logger.
func WithInstallerLogger(l hclog.Logger) InstallerOption {
	return func(o *installerOptions) { o.logger = l }
}

// WithHTTPClient sets the client used for URL downloads.
func WithHTTPClient(c *http.Client) InstallerOption {
	return func(o *installerOptions) { o.client = c }
}

// WithPluginRuntime sets the runtime used to introspect tool plugins.
func WithPluginRuntime(r plugin.Runtime) InstallerOption {
	return func(o *installerOptions) { o.runtime = r }
}

// WithBuiltins sets the host's built-in tool and agent names. Installed
// plugins may not collide with them.
func WithBuiltins(tools, agents []string) InstallerOption {
	return func(o *installerOptions) {
		o.builtinTools = tools
		o.builtinAgents = agents
	}
}

// NewInstaller creates an Installer for cfg. The index lives at
// cfg.IndexPath().
func NewInstaller(cfg *Config, opts ...InstallerOption) *Installer {
	var o installerOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = hclog.NewNullLogger()
	}
	logger := o.logger.Named("installer")

	dopts := []plugin.DiscovererOption{plugin.WithLogger(logger)}
	if o.runtime != nil {
		dopts = append(dopts, plugin.WithRuntime(o.runtime))
	}

	return &Installer{
		cfg:           cfg,
		index:         NewIndex(cfg.IndexPath(), logger),
		lock:          newFileLock(cfg.IndexPath()),
		logger:        logger,
		client:        o.client,
		discoverer:    plugin.NewDiscoverer(cfg.PluginDir, cfg.AgentDir, dopts...),
		builtinTools:  o.builtinTools,
		builtinAgents: o.builtinAgents,
	}
}

// Index returns the marketplace index. Reload it before reading.
func (inst *Installer) Index() *Index { return inst.index }

// Install installs the plugin(s) at source. It never returns nil.
func (inst *Installer) Install(ctx context.Context, source string, opts InstallOptions) *InstallResult {
	log := inst.logger.With("op", uuid.NewString(), "source", source)

	unlock, err := inst.lock.acquire()
	if err != nil {
		return failure(err)
	}
	defer unlock()
	inst.index.Load()

	src, err := ParseSource(source, SourceOptions{
		DefaultForge: inst.cfg.DefaultForge,
		ForgeHosts:   inst.cfg.ForgeHosts,
	})
	if err != nil {
		return failure(err)
	}
	ref := opts.Ref
	if ref == "" {
		ref = src.Ref
	}
	log.Debug("installing", "kind", src.Kind, "location", src.Location, "ref", ref)

	res := inst.installFrom(ctx, log, src.Kind, src.Location, ref, opts, "")
	return inst.commit(log, res)
}

// installFrom dispatches on the source kind. When only is set, files whose
// plugin name differs are skipped.
func (inst *Installer) installFrom(ctx context.Context, log hclog.Logger, kind SourceKind, location, ref string, opts InstallOptions, only string) *InstallResult {
	job := &installJob{inst: inst, log: log, opts: opts, only: only}
	switch kind {
	case SourceLocal:
		job.source = PluginSource{Kind: SourceLocal, Location: location}
		return job.installPath(location)
	case SourceGit:
		job.source = PluginSource{Kind: SourceGit, Location: location, Ref: ref}
		return job.installGit(ctx, location, ref)
	case SourceURL:
		job.source = PluginSource{Kind: SourceURL, Location: location}
		return job.installURL(ctx, location)
	}
	return failure(fmt.Errorf("source kind %q: %w", kind, ErrUnsupported))
}

// commit saves the index when res changed it.
func (inst *Installer) commit(log hclog.Logger, res *InstallResult) *InstallResult {
	if !res.Success && len(res.Installed) == 0 {
		log.Info("install failed", "error", res.Error)
		return res
	}
	if err := inst.index.Save(); err != nil {
		return failure(err, res.Warnings...)
	}
	for _, p := range res.Installed {
		log.Info("installed plugin", "name", p.Name(), "path", p.InstalledPath)
	}
	return res
}

// Uninstall removes an installed plugin's files and its index entry.
func (inst *Installer) Uninstall(name string) *InstallResult {
	log := inst.logger.With("op", uuid.NewString(), "name", name)

	unlock, err := inst.lock.acquire()
	if err != nil {
		return failure(err)
	}
	defer unlock()
	inst.index.Load()

	p, ok := inst.index.Get(name)
	if !ok {
		return failure(fmt.Errorf("%s: %w", name, ErrNotFound))
	}
	if err := removeInstalledFiles(p); err != nil {
		return failure(err)
	}
	inst.index.Remove(name)
	if err := inst.index.Save(); err != nil {
		return failure(err)
	}
	log.Info("uninstalled plugin", "path", p.InstalledPath)
	return &InstallResult{Success: true, Plugin: p}
}

func removeInstalledFiles(p *InstalledPlugin) error {
	if err := removeIfExists(p.InstalledPath); err != nil {
		return fmt.Errorf("removing %s: %w", p.InstalledPath, err)
	}
	if err := removeIfExists(p.PromptPath); err != nil {
		return fmt.Errorf("removing %s: %w", p.PromptPath, err)
	}
	return nil
}

// Update reinstalls the named plugin from its recorded source, whatever
// its kind and pin state, or every unpinned git and URL plugin when name
// is empty. A failed reinstall restores the previous files and record.
func (inst *Installer) Update(ctx context.Context, name string) []*InstallResult {
	log := inst.logger.With("op", uuid.NewString())

	unlock, err := inst.lock.acquire()
	if err != nil {
		return []*InstallResult{failure(err)}
	}
	defer unlock()
	inst.index.Load()

	var targets []*InstalledPlugin
	if name != "" {
		p, ok := inst.index.Get(name)
		if !ok {
			return []*InstallResult{failure(fmt.Errorf("%s: %w", name, ErrNotFound))}
		}
		targets = append(targets, p)
	} else {
		for _, p := range inst.index.List() {
			if p.Source.Kind.Remote() && !p.Pinned {
				targets = append(targets, p)
			}
		}
	}

	var results []*InstallResult
	var errs *multierror.Error
	changed := false
	for _, p := range targets {
		if err := ctx.Err(); err != nil {
			results = append(results, failure(err))
			errs = multierror.Append(errs, err)
			continue
		}
		res, dirty := inst.updateOne(ctx, log.With("name", p.Name()), p)
		changed = changed || dirty
		if !res.Success {
			errs = multierror.Append(errs, fmt.Errorf("%s: %s", p.Name(), res.Error))
		}
		results = append(results, res)
	}

	if changed {
		if err := inst.index.Save(); err != nil {
			return append(results, failure(err))
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		log.Warn("update finished with errors", "error", err)
	}
	return results
}

type fileBackup struct {
	path string
	data []byte
}

func (inst *Installer) updateOne(ctx context.Context, log hclog.Logger, old *InstalledPlugin) (*InstallResult, bool) {
	backups, err := backupFiles(old.InstalledPath, old.PromptPath)
	if err != nil {
		return failure(err), false
	}
	if err := removeInstalledFiles(old); err != nil {
		return failure(err), false
	}
	inst.index.Remove(old.Name())

	opts := InstallOptions{Name: old.Name(), Ref: old.Source.Ref, Strict: inst.cfg.Strict}
	res := inst.installFrom(ctx, log, old.Source.Kind, old.Source.Location, old.Source.Ref, opts, old.Name())
	if !res.Success || res.Plugin == nil {
		if rerr := restoreFiles(backups); rerr != nil {
			log.Error("rollback failed", "error", rerr)
			res.Warnings = append(res.Warnings, "restoring previous version: "+rerr.Error())
		} else {
			res.Warnings = append(res.Warnings, "previous version restored")
		}
		inst.index.Put(old)
		if res.Success {
			res = failure(fmt.Errorf("%s: not found in source: %w", old.Name(), ErrNotFound), res.Warnings...)
		}
		log.Info("update failed, rolled back", "error", res.Error)
		return res, true
	}

	now := time.Now().UTC()
	p := res.Plugin
	p.Enabled = old.Enabled
	p.Pinned = old.Pinned
	p.Source.InstalledAt = old.Source.InstalledAt
	p.Source.UpdatedAt = &now
	if CompareVersions(p.Metadata.Version, old.Metadata.Version) < 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("version went down from %s to %s", old.Metadata.Version, p.Metadata.Version))
	}
	log.Info("updated plugin", "from", old.Metadata.Version, "to", p.Metadata.Version)
	return res, true
}

// SetEnabled records whether an installed plugin should be loaded.
func (inst *Installer) SetEnabled(name string, enabled bool) error {
	return inst.mutate(name, func(p *InstalledPlugin) { p.Enabled = enabled })
}

// SetPinned records whether Update without a name should skip a plugin.
func (inst *Installer) SetPinned(name string, pinned bool) error {
	return inst.mutate(name, func(p *InstalledPlugin) { p.Pinned = pinned })
}

func (inst *Installer) mutate(name string, fn func(*InstalledPlugin)) error {
	unlock, err := inst.lock.acquire()
	if err != nil {
		return err
	}
	defer unlock()
	inst.index.Load()

	p, ok := inst.index.Get(name)
	if !ok {
		return fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	fn(p)
	return inst.index.Save()
}

// Installed returns the index entries in installation order.
func (inst *Installer) Installed() []*InstalledPlugin {
	inst.index.Load()
	return inst.index.List()
}

// Lookup returns one index entry.
func (inst *Installer) Lookup(name string) (*InstalledPlugin, error) {
	inst.index.Load()
	p, ok := inst.index.Get(name)
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	return p, nil
}

// Search queries the index.
func (inst *Installer) Search(query string, filter SearchFilter) []SearchHit {
	inst.index.Load()
	return inst.index.Search(query, filter)
}

// DisabledNames merges the config disabled list with index entries
// marked disabled, for plugin discovery.
func (inst *Installer) DisabledNames() []string {
	inst.index.Load()
	names := append([]string(nil), inst.cfg.Disabled...)
	for _, p := range inst.index.List() {
		if !p.Enabled && !inst.cfg.IsDisabled(p.Name()) {
			names = append(names, p.Name())
		}
	}
	return names
}

// installedNames returns index names of one plugin type.
func (inst *Installer) installedNames(t PluginType) []string {
	var names []string
	for _, p := range inst.index.List() {
		if p.Metadata.PluginType == t {
			names = append(names, p.Name())
		}
	}
	return names
}

func (inst *Installer) destDir(kind plugin.Kind) string {
	if kind == plugin.KindAgent {
		return inst.cfg.AgentDir
	}
	return inst.cfg.PluginDir
}

func backupFiles(paths ...string) ([]fileBackup, error) {
	var out []fileBackup
	for _, p := range paths {
		if p == "" || !fileExists(p) {
			continue
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("backing up %s: %w", filepath.Base(p), err)
		}
		out = append(out, fileBackup{path: p, data: data})
	}
	return out, nil
}

func restoreFiles(backups []fileBackup) error {
	var errs *multierror.Error
	for _, b := range backups {
		if err := writeFileAtomic(b.path, b.data); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs.ErrorOrNil()
}
