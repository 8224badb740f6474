package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// probeGit checks that a git binary is available.
func probeGit(ctx context.Context) error {
	if _, err := runCommand(ctx, probeTimeout, "git", "--version"); err != nil {
		return fmt.Errorf("%v: %w", err, ErrGitMissing)
	}
	return nil
}

// cloneRepo clones a git repository to a temporary directory.
// On failure it returns a *CloneError with classified diagnostics.
func cloneRepo(ctx context.Context, url, ref string, timeout time.Duration) (string, error) {
	tmpDir, err := os.MkdirTemp("", "sindri-clone-*")
	if err != nil {
		return "", fmt.Errorf("creating temp dir: %w", err)
	}

	args := []string{"clone", "--depth", "1"}
	if ref != "" {
		args = append(args, "--branch", ref)
	}
	args = append(args, url, tmpDir)

	output, err := runCommand(ctx, timeout, "git", args...)
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", classifyCloneError(url, ref, output, err)
	}
	return tmpDir, nil
}

// installGit clones the repository and installs it as a local directory.
// The clone is always removed.
func (j *installJob) installGit(ctx context.Context, url, ref string) *InstallResult {
	if err := probeGit(ctx); err != nil {
		return failure(err)
	}
	timeout := time.Duration(j.inst.cfg.CloneTimeout)
	if timeout == 0 {
		j.log.Debug("cloning without a timeout", "url", url)
	}

	dir, err := cloneRepo(ctx, url, ref, timeout)
	if err != nil {
		return failure(err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	return j.installDir(dir)
}

// installURL downloads a file or archive and installs it. Archives are
// installed as directories. Downloaded files are always removed.
func (j *installJob) installURL(ctx context.Context, url string) *InstallResult {
	timeout := time.Duration(j.inst.cfg.DownloadTimeout)
	if timeout == 0 {
		j.log.Debug("downloading without a timeout", "url", url)
	}

	tmpDir, err := os.MkdirTemp("", "sindri-download-*")
	if err != nil {
		return failure(fmt.Errorf("creating temp dir: %w", err))
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	file, err := downloadFile(ctx, j.inst.client, url, tmpDir, timeout)
	if err != nil {
		return failure(err)
	}

	format := detectArchive(file)
	if format == archiveNone {
		res := j.installFile(file, nil)
		if res == nil {
			return failure(fmt.Errorf("%s: not provided by %s: %w", j.only, url, ErrNotFound))
		}
		return res
	}

	root := filepath.Join(tmpDir, "extracted")
	if err := os.MkdirAll(root, 0o755); err != nil {
		return failure(fmt.Errorf("creating extraction dir: %w", err))
	}
	dir, err := extractArchive(file, root, format)
	if err != nil {
		return failure(err)
	}
	return j.installDir(dir)
}
