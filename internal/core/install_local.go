package core

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"github.com/sindri-ai/sindri/internal/core/plugin"
)

// installJob carries the per-operation state of one Install or one
// plugin of an Update.
type installJob struct {
	inst   *Installer
	log    hclog.Logger
	opts   InstallOptions
	source PluginSource
	only   string
}

// installPath installs a local file or directory.
func (j *installJob) installPath(path string) *InstallResult {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return failure(fmt.Errorf("%s: %w", path, ErrNotFound))
		}
		return failure(err)
	}
	if info.IsDir() {
		return j.installDir(path)
	}
	res := j.installFile(path, nil)
	if res == nil {
		return failure(fmt.Errorf("%s: not provided by %s: %w", j.only, filepath.Base(path), ErrNotFound))
	}
	return res
}

// installDir installs a directory. With a manifest, only its entry point is
// installed; otherwise every top-level plugin file is installed on its own
// and the results are combined.
func (j *installJob) installDir(dir string) *InstallResult {
	m, err := ReadManifest(dir)
	if err != nil {
		return failure(err)
	}
	if m != nil {
		entry, err := m.ResolveEntryPoint(dir)
		if err != nil {
			return failure(err)
		}
		j.log.Debug("using manifest entry point", "entry", entry)
		if res := j.installFile(entry, m); res != nil {
			return res
		}
		return failure(fmt.Errorf("%s: not provided by %s: %w", j.only, dir, ErrNotFound))
	}

	files, err := pluginFiles(dir)
	if err != nil {
		return failure(err)
	}
	if len(files) == 0 {
		return failure(fmt.Errorf("no plugin files in %s: %w", dir, ErrNotFound))
	}

	// A name override cannot apply to several files.
	sub := *j
	sub.opts.Name = ""
	if len(files) == 1 {
		sub.opts.Name = j.opts.Name
	}

	combined := &InstallResult{}
	var errs *multierror.Error
	for _, f := range files {
		res := sub.installFile(f, nil)
		if res == nil {
			continue
		}
		combined.Warnings = append(combined.Warnings, res.Warnings...)
		if res.Success {
			combined.Installed = append(combined.Installed, res.Plugin)
			continue
		}
		combined.Failed = append(combined.Failed, FailedInstall{Name: filepath.Base(f), Error: res.Error})
		errs = multierror.Append(errs, fmt.Errorf("%s: %w", filepath.Base(f), res.Err))
	}

	switch {
	case len(combined.Installed) == 0 && errs == nil:
		return failure(fmt.Errorf("%s: not provided by %s: %w", j.only, dir, ErrNotFound))
	case errs != nil:
		combined.Err = errs.ErrorOrNil()
		combined.Error = combined.Err.Error()
	default:
		combined.Success = true
	}
	if len(combined.Installed) == 1 {
		combined.Plugin = combined.Installed[0]
	}
	return combined
}

// pluginFiles lists the top-level tool and agent files of dir.
func pluginFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := plugin.KindForFile(e.Name()); ok {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// installFile installs one plugin file. It returns nil when j.only is set
// and the file provides a different plugin.
func (j *installJob) installFile(path string, m *Manifest) *InstallResult {
	inst := j.inst
	kind, ok := plugin.KindForFile(path)
	if !ok {
		return failure(fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupported))
	}

	desc, err := inst.discoverer.DiscoverFile(path)
	if err != nil {
		return failure(err)
	}

	meta := metadataFor(desc, m)
	if j.opts.Name != "" {
		meta.Name = j.opts.Name
	}
	if j.only != "" && meta.Name != j.only {
		return nil
	}
	warnings, err := meta.Check()
	if err != nil {
		return failure(fmt.Errorf("%s: %w", filepath.Base(path), err))
	}
	if meta.SindriVersion != "" {
		ok, err := CompatibleWith(meta.SindriVersion, HostVersion)
		switch {
		case err != nil:
			warnings = append(warnings, err.Error())
		case !ok:
			warnings = append(warnings, fmt.Sprintf("requires sindri %s, this is %s", meta.SindriVersion, HostVersion))
		}
	}

	if inst.index.Exists(meta.Name) {
		return failure(fmt.Errorf("%s: %w", meta.Name, ErrAlreadyInstalled), warnings...)
	}

	if inst.cfg.ValidateOnInstall && !j.opts.SkipValidation {
		outcome := inst.validator(j.opts.Strict).Validate(desc)
		for _, w := range outcome.Warnings {
			warnings = append(warnings, w)
		}
		if !outcome.Valid {
			msgs := make([]string, len(outcome.Errors))
			for i, e := range outcome.Errors {
				msgs[i] = e.String()
			}
			return failure(fmt.Errorf("%s: %s: %w", meta.Name, strings.Join(msgs, "; "), ErrValidation), warnings...)
		}
	}

	destDir := inst.destDir(kind)
	dest := filepath.Join(destDir, filepath.Base(path))
	if fileExists(dest) {
		dest = filepath.Join(destDir, sanitizeName(meta.Name)+"_"+filepath.Base(path))
		if fileExists(dest) {
			return failure(fmt.Errorf("%s: %s is occupied: %w", meta.Name, dest, ErrAlreadyInstalled), warnings...)
		}
	}
	if err := copyFile(path, dest); err != nil {
		return failure(fmt.Errorf("copying %s: %w", filepath.Base(path), err), warnings...)
	}

	rec := &InstalledPlugin{
		Metadata:      meta,
		Source:        j.source,
		InstalledPath: dest,
		Enabled:       !inst.cfg.IsDisabled(meta.Name),
	}
	rec.Source.InstalledAt = time.Now().UTC()
	if sum, err := fileChecksum(dest); err == nil {
		rec.Checksum = sum
	}

	if desc.Agent != nil && desc.Agent.Prompt.File != "" {
		prompt, warn := copyPromptFile(path, dest, desc.Agent.Prompt.File)
		if warn != "" {
			warnings = append(warnings, warn)
		}
		rec.PromptPath = prompt
	}

	inst.index.Put(rec)
	j.log.Debug("copied plugin", "name", meta.Name, "dest", dest)
	return &InstallResult{Success: true, Plugin: rec, Installed: []*InstalledPlugin{rec}, Warnings: warnings}
}

// copyPromptFile copies an agent's [prompt].file next to the installed
// config, keeping its relative location. Returns the copied path and a
// warning when nothing was copied.
func copyPromptFile(configPath, dest, rel string) (string, string) {
	if filepath.IsAbs(rel) {
		return "", fmt.Sprintf("prompt file %s is absolute and was not copied", rel)
	}
	src := filepath.Join(filepath.Dir(configPath), filepath.FromSlash(rel))
	if !fileExists(src) {
		return "", fmt.Sprintf("prompt file %s not found", rel)
	}
	target, err := safeJoin(filepath.Dir(dest), rel)
	if err != nil {
		return "", fmt.Sprintf("prompt file %s not copied: %v", rel, err)
	}
	if fileExists(target) {
		return "", fmt.Sprintf("prompt file %s already exists and was kept", rel)
	}
	if err := copyFile(src, target); err != nil {
		return "", fmt.Sprintf("copying prompt file %s: %v", rel, err)
	}
	return target, ""
}

// metadataFor combines manifest metadata with what discovery found in
// the file. Manifest fields win.
func metadataFor(d *plugin.Descriptor, m *Manifest) PluginMetadata {
	var meta PluginMetadata
	if m != nil {
		meta = m.PluginMetadata
		meta.Tags = append([]string(nil), m.Tags...)
		meta.Dependencies = append([]string(nil), m.Dependencies...)
	}

	str := func(key string) string {
		s, _ := d.Metadata[key].(string)
		return s
	}
	list := func(key string) []string {
		l, _ := d.Metadata[key].([]string)
		return append([]string(nil), l...)
	}
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = strings.TrimSpace(v)
		}
	}

	fill(&meta.Name, d.Name)
	fill(&meta.Version, d.Version)
	fill(&meta.Description, d.Description)
	fill(&meta.Author, d.Author)
	fill(&meta.Homepage, str("homepage"))
	fill(&meta.Repository, str("repository"))
	fill(&meta.License, str("license"))
	fill(&meta.SindriVersion, str("sindri_version"))
	if len(meta.Tags) == 0 {
		meta.Tags = list("tags")
	}
	if len(meta.Dependencies) == 0 {
		meta.Dependencies = list("dependencies")
	}

	switch d.Kind {
	case plugin.KindAgent:
		meta.PluginType = PluginTypeAgent
	default:
		meta.PluginType = PluginTypeTool
	}
	if meta.Category == "" {
		if c := str("category"); c != "" {
			meta.Category = ParseCategory(c)
		} else if d.Kind == plugin.KindAgent {
			meta.Category = CategoryAgent
		}
	}
	meta.Normalize()
	return meta
}

// validator builds a validator against the host built-ins and what is
// already installed.
func (inst *Installer) validator(strict bool) *plugin.Validator {
	return plugin.NewValidator(
		plugin.WithExistingTools(inst.builtinTools...),
		plugin.WithExistingAgents(inst.builtinAgents...),
		plugin.WithAvailableModels(inst.cfg.AvailableModels...),
		plugin.WithReferenceTools(inst.installedNames(PluginTypeTool)...),
		plugin.WithReferenceAgents(inst.installedNames(PluginTypeAgent)...),
		plugin.WithStrict(strict || inst.cfg.Strict),
	)
}
