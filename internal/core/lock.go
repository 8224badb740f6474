package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// staleLockAge is how old a lock file must be before it is broken.
const staleLockAge = 10 * time.Minute

// fileLock is an advisory lock next to the index. It guards against two
// sindri processes mutating the marketplace at the same time; mu covers
// goroutines within one process.
type fileLock struct {
	path string
	mu   sync.Mutex
}

func newFileLock(indexPath string) *fileLock {
	return &fileLock{path: indexPath + ".lock"}
}

// acquire takes the lock. The returned func releases it.
func (l *fileLock) acquire() (func(), error) {
	l.mu.Lock()

	if err := l.create(); err != nil {
		if !errors.Is(err, os.ErrExist) {
			l.mu.Unlock()
			return nil, fmt.Errorf("creating lock file: %w", err)
		}
		if !l.breakStale() {
			l.mu.Unlock()
			return nil, fmt.Errorf("%s: %w", l.path, ErrLocked)
		}
		if err := l.create(); err != nil {
			l.mu.Unlock()
			return nil, fmt.Errorf("%s: %w", l.path, ErrLocked)
		}
	}

	return func() {
		_ = os.Remove(l.path)
		l.mu.Unlock()
	}, nil
}

func (l *fileLock) create() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	_, _ = f.WriteString(strconv.Itoa(os.Getpid()) + "\n")
	return f.Close()
}

// breakStale removes the lock file if it is older than staleLockAge.
func (l *fileLock) breakStale() bool {
	info, err := os.Stat(l.path)
	if err != nil {
		return os.IsNotExist(err)
	}
	if time.Since(info.ModTime()) < staleLockAge {
		return false
	}
	return os.Remove(l.path) == nil
}
