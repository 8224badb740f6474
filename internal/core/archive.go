package core

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
)

type archiveFormat int

const (
	archiveNone archiveFormat = iota
	archiveZip
	archiveTar
	archiveTarGz
)

// detectArchive classifies a downloaded file by name.
func detectArchive(name string) archiveFormat {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return archiveZip
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return archiveTarGz
	case strings.HasSuffix(lower, ".tar"):
		return archiveTar
	}
	return archiveNone
}

// extractArchive unpacks src into dst and returns the directory holding
// the plugin: dst itself, or its only top-level directory.
func extractArchive(src, dst string, format archiveFormat) (string, error) {
	var err error
	switch format {
	case archiveZip:
		err = extractZip(src, dst)
	case archiveTar:
		err = extractTarFile(src, dst, false)
	case archiveTarGz:
		err = extractTarFile(src, dst, true)
	default:
		return "", fmt.Errorf("%s is not an archive: %w", filepath.Base(src), ErrExtract)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %v: %w", filepath.Base(src), err, ErrExtract)
	}
	return singleTopDir(dst), nil
}

// safeJoin resolves an archive member name under dst, rejecting absolute
// paths and any name that escapes dst.
func safeJoin(dst, name string) (string, error) {
	name = filepath.FromSlash(name)
	if filepath.IsAbs(name) || strings.HasPrefix(name, `\`) {
		return "", fmt.Errorf("absolute path %q", name)
	}
	target := filepath.Join(dst, name)
	rel, err := filepath.Rel(dst, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes %s", name, dst)
	}
	return target, nil
}

func extractZip(src, dst string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	for _, f := range r.File {
		target, err := safeJoin(dst, f.Name)
		if err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if !f.Mode().IsRegular() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		err = writeMember(target, rc, f.Mode().Perm())
		_ = rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func extractTarFile(src, dst string, gzipped bool) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if gzipped {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return err
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		target, err := safeJoin(dst, hdr.Name)
		if err != nil {
			return err
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeMember(target, tr, os.FileMode(hdr.Mode).Perm()); err != nil {
				return err
			}
		}
		// Links and devices are skipped.
	}
}

// maxMemberSize caps a single extracted archive member.
var maxMemberSize int64 = maxDownloadSize

func writeMember(target string, r io.Reader, perm os.FileMode) error {
	if perm == 0 {
		perm = 0o644
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	n, err := io.Copy(out, io.LimitReader(r, maxMemberSize+1))
	if err == nil && n > maxMemberSize {
		err = fmt.Errorf("%s exceeds %d bytes", filepath.Base(target), maxMemberSize)
	}
	if err != nil {
		_ = out.Close()
		_ = os.Remove(target)
		return err
	}
	return out.Close()
}

// singleTopDir descends into dir's only entry when that entry is a
// directory, as produced by "git archive --prefix" or forge downloads.
func singleTopDir(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 1 || !entries[0].IsDir() {
		return dir
	}
	return filepath.Join(dir, entries[0].Name())
}
