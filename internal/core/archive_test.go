package core

import (
	"archive/tar"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
)

func buildTarGz(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		body := files[name]
		hdr := &tar.Header{Name: name, Mode: 0o644, Size: int64(len(body)), Typeflag: tar.TypeReg}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDetectArchive(t *testing.T) {
	tests := []struct {
		name string
		want archiveFormat
	}{
		{"bundle.zip", archiveZip},
		{"bundle.tar.gz", archiveTarGz},
		{"bundle.TGZ", archiveTarGz},
		{"bundle.tar", archiveTar},
		{"echo.go", archiveNone},
		{"agent.toml", archiveNone},
	}
	for _, tt := range tests {
		if got := detectArchive(tt.name); got != tt.want {
			t.Errorf("detectArchive(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestExtractArchive_TarGzSingleTopDir(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "bundle.tar.gz")
	if err := os.WriteFile(src, buildTarGz(t, map[string]string{
		"bundle/agent.toml":         "x",
		"bundle/prompts/agent.md":   "y",
		"bundle/sindri-plugin.json": "{}",
	}), 0o644); err != nil {
		t.Fatal(err)
	}
	dst := filepath.Join(tmp, "out")
	if err := os.MkdirAll(dst, 0o755); err != nil {
		t.Fatal(err)
	}

	dir, err := extractArchive(src, dst, archiveTarGz)
	if err != nil {
		t.Fatalf("extractArchive() error: %v", err)
	}
	if dir != filepath.Join(dst, "bundle") {
		t.Errorf("dir = %q, want the single top-level directory", dir)
	}
	if !fileExists(filepath.Join(dir, "prompts", "agent.md")) {
		t.Error("nested member not extracted")
	}
}

func TestExtractArchive_ZipFlat(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "bundle.zip")
	if err := os.WriteFile(src, buildZip(t, map[string]string{
		"alpha.toml": "a",
		"beta.toml":  "b",
	}), 0o644); err != nil {
		t.Fatal(err)
	}
	dst := filepath.Join(tmp, "out")

	dir, err := extractArchive(src, dst, archiveZip)
	if err != nil {
		t.Fatalf("extractArchive() error: %v", err)
	}
	if dir != dst {
		t.Errorf("dir = %q, want %q", dir, dst)
	}
	if !fileExists(filepath.Join(dst, "beta.toml")) {
		t.Error("beta.toml not extracted")
	}
}

func TestExtractArchive_RejectsTraversal(t *testing.T) {
	for _, name := range []string{"../evil.toml", "a/../../evil.toml", "/etc/evil.toml"} {
		t.Run(name, func(t *testing.T) {
			tmp := t.TempDir()
			src := filepath.Join(tmp, "bad.zip")
			if err := os.WriteFile(src, buildZip(t, map[string]string{name: "x"}), 0o644); err != nil {
				t.Fatal(err)
			}
			dst := filepath.Join(tmp, "out")

			_, err := extractArchive(src, dst, archiveZip)
			if !errors.Is(err, ErrExtract) {
				t.Fatalf("extractArchive() = %v, want ErrExtract", err)
			}
			if fileExists(filepath.Join(tmp, "evil.toml")) {
				t.Error("member escaped the extraction directory")
			}
		})
	}
}

func TestExtractArchive_OversizedMember(t *testing.T) {
	old := maxMemberSize
	maxMemberSize = 8
	t.Cleanup(func() { maxMemberSize = old })

	files := map[string]string{"big.toml": "0123456789", "small.toml": "ok"}
	tests := []struct {
		name   string
		format archiveFormat
		build  func(*testing.T, map[string]string) []byte
	}{
		{"zip", archiveZip, buildZip},
		{"tar.gz", archiveTarGz, buildTarGz},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.build(t, files)
			tmp := t.TempDir()
			src := filepath.Join(tmp, "bundle")
			if err := os.WriteFile(src, data, 0o644); err != nil {
				t.Fatal(err)
			}
			dst := filepath.Join(tmp, "out")

			_, err := extractArchive(src, dst, tt.format)
			if !errors.Is(err, ErrExtract) {
				t.Fatalf("extractArchive() = %v, want ErrExtract", err)
			}
			if fileExists(filepath.Join(dst, "big.toml")) {
				t.Error("truncated member left on disk")
			}
		})
	}
}

func TestSafeJoin(t *testing.T) {
	dst := t.TempDir()
	if _, err := safeJoin(dst, "ok/inner.toml"); err != nil {
		t.Errorf("safeJoin(ok) error: %v", err)
	}
	if _, err := safeJoin(dst, ".."); err == nil {
		t.Error("safeJoin(..) should fail")
	}
}
