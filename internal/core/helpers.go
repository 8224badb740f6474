package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
)

var sanitizeRegexp = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

func homeDir() (string, error) {
	return homedir.Dir()
}

// expandPath expands a leading ~ and $VAR references.
func expandPath(p string) string {
	if strings.Contains(p, "$") {
		p = os.ExpandEnv(p)
	}
	if expanded, err := homedir.Expand(p); err == nil {
		p = expanded
	}
	return p
}

// runCommand runs a command, killing it when ctx is done or timeout
// elapses. A zero timeout means no limit beyond ctx. Timeouts are reported
// as ErrTimeout.
func runCommand(ctx context.Context, timeout time.Duration, name string, args ...string) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
		return out.String(), fmt.Errorf("%s timed out after %s: %w", name, timeout, ErrTimeout)
	} else if ctxErr != nil {
		return out.String(), ctxErr
	}
	return out.String(), err
}

// copyFile copies a single file from src to dst, creating parent directories.
func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = srcFile.Close() }()

	info, err := srcFile.Stat()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(dstFile, srcFile); err != nil {
		_ = dstFile.Close()
		return err
	}
	return dstFile.Close()
}

// writeFileAtomic writes data to a temp file next to path and renames it
// into place.
func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath) // clean up on failure
		return err
	}
	return nil
}

// sanitizeName normalizes a plugin name for use as a file name.
func sanitizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = sanitizeRegexp.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_.")
	if len(name) > 255 {
		name = name[:255]
	}
	if name == "" {
		name = "unnamed_plugin"
	}
	return name
}

// fileExists returns true if the path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// dirExists returns true if the path exists and is a directory.
func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// removeIfExists deletes path, treating a missing file as success.
func removeIfExists(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
