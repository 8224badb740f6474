package core

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileLock_AcquireRelease(t *testing.T) {
	l := newFileLock(filepath.Join(t.TempDir(), "marketplace", "index.json"))

	release, err := l.acquire()
	if err != nil {
		t.Fatalf("acquire() error: %v", err)
	}
	if !fileExists(l.path) {
		t.Fatal("lock file not created")
	}
	release()
	if fileExists(l.path) {
		t.Error("release did not remove the lock file")
	}

	release, err = l.acquire()
	if err != nil {
		t.Fatalf("second acquire() error: %v", err)
	}
	release()
}

func TestFileLock_HeldByAnotherProcess(t *testing.T) {
	indexPath := filepath.Join(t.TempDir(), "index.json")
	writeTestFile(t, filepath.Dir(indexPath), "index.json.lock", "4242\n")

	l := newFileLock(indexPath)
	if _, err := l.acquire(); !errors.Is(err, ErrLocked) {
		t.Fatalf("acquire() error = %v, want ErrLocked", err)
	}

	// The in-process mutex must not stay held after a failed acquire.
	if err := os.Remove(l.path); err != nil {
		t.Fatal(err)
	}
	release, err := l.acquire()
	if err != nil {
		t.Fatalf("acquire() after removal error: %v", err)
	}
	release()
}

func TestFileLock_BreaksStaleLock(t *testing.T) {
	indexPath := filepath.Join(t.TempDir(), "index.json")
	writeTestFile(t, filepath.Dir(indexPath), "index.json.lock", "4242\n")
	old := time.Now().Add(-2 * staleLockAge)
	if err := os.Chtimes(indexPath+".lock", old, old); err != nil {
		t.Fatal(err)
	}

	release, err := newFileLock(indexPath).acquire()
	if err != nil {
		t.Fatalf("acquire() error: %v", err)
	}
	release()
}

func TestInstalledPlugin_Verify(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "echo.go")
	writeTestFile(t, dir, "echo.go", "package main\n")
	sum, err := fileChecksum(path)
	if err != nil {
		t.Fatal(err)
	}

	p := &InstalledPlugin{InstalledPath: path, Checksum: sum}
	if got := p.Verify(); got != StatusOK {
		t.Errorf("Verify() = %q, want ok", got)
	}

	writeTestFile(t, dir, "echo.go", "package main\n// edited\n")
	if got := p.Verify(); got != StatusModified {
		t.Errorf("Verify() = %q, want modified", got)
	}

	p.Checksum = ""
	if got := p.Verify(); got != StatusOK {
		t.Errorf("Verify() without checksum = %q, want ok", got)
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if got := p.Verify(); got != StatusMissing {
		t.Errorf("Verify() = %q, want missing", got)
	}
}
