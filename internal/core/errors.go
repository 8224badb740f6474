package core

import "errors"

// Sentinel errors returned by installer operations. Results carry them in
// InstallResult.Err so callers can match with errors.Is.
var (
	ErrNotFound         = errors.New("plugin not found")
	ErrAlreadyInstalled = errors.New("plugin already installed")
	ErrGitMissing       = errors.New("git is not installed or not on PATH")
	ErrTimeout          = errors.New("operation timed out")
	ErrExtract          = errors.New("archive extraction failed")
	ErrValidation       = errors.New("plugin failed validation")
	ErrUnsupported      = errors.New("unsupported plugin file")
	ErrLocked           = errors.New("another sindri process holds the index lock")
)
