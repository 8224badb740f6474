package core

import (
	"errors"
	"fmt"
	"strings"
)

// CloneErrorKind classifies why a git clone failed.
type CloneErrorKind int

const (
	// CloneErrUnknown is an unclassified clone failure.
	CloneErrUnknown CloneErrorKind = iota
	// CloneErrAuth means authentication failed (credentials missing or invalid).
	CloneErrAuth
	// CloneErrRepoNotFound means the repository URL is wrong or the user has no access.
	CloneErrRepoNotFound
	// CloneErrRefNotFound means the requested branch or tag does not exist.
	CloneErrRefNotFound
	// CloneErrNetwork means the host could not be reached (DNS, connectivity).
	CloneErrNetwork
	// CloneErrSSHKey means the SSH key was rejected or not found.
	CloneErrSSHKey
	// CloneErrTimeout means the clone operation timed out.
	CloneErrTimeout
)

// String returns a human-readable label for the error kind.
func (k CloneErrorKind) String() string {
	switch k {
	case CloneErrAuth:
		return "authentication required"
	case CloneErrRepoNotFound:
		return "repository not found"
	case CloneErrRefNotFound:
		return "ref not found"
	case CloneErrNetwork:
		return "network error"
	case CloneErrSSHKey:
		return "ssh key error"
	case CloneErrTimeout:
		return "timeout"
	default:
		return "unknown error"
	}
}

// CloneError is a structured error returned when git clone fails.
type CloneError struct {
	Kind      CloneErrorKind
	URL       string   // The clone URL that was attempted
	Ref       string   // Requested branch or tag, if any
	RawOutput string   // Raw stderr/stdout from git
	Hints     []string // Actionable suggestions for the user

	err error
}

// Error implements the error interface.
func (e *CloneError) Error() string {
	return fmt.Sprintf("git clone %s failed (%s): %s", e.URL, e.Kind, e.firstLine())
}

// Unwrap returns the underlying error, so a timed out clone matches
// ErrTimeout.
func (e *CloneError) Unwrap() error { return e.err }

// firstLine returns the first meaningful line of git output.
func (e *CloneError) firstLine() string {
	for _, line := range strings.Split(e.RawOutput, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "Cloning into") {
			return line
		}
	}
	if e.err != nil {
		return e.err.Error()
	}
	return "clone failed"
}

// AsCloneError returns the *CloneError in err's chain, if any.
func AsCloneError(err error) (*CloneError, bool) {
	var ce *CloneError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// classifyCloneError builds a CloneError from git output and the command error.
func classifyCloneError(cloneURL, ref, rawOutput string, cause error) *CloneError {
	kind := classifyOutput(rawOutput)
	if errors.Is(cause, ErrTimeout) {
		kind = CloneErrTimeout
	}
	return &CloneError{
		Kind:      kind,
		URL:       cloneURL,
		Ref:       ref,
		RawOutput: strings.TrimSpace(rawOutput),
		Hints:     hintsForError(kind, cloneURL, ref),
		err:       cause,
	}
}

// classifyOutput pattern-matches git stderr to determine the error kind.
func classifyOutput(output string) CloneErrorKind {
	lower := strings.ToLower(output)

	switch {
	case strings.Contains(lower, "timed out"):
		return CloneErrTimeout
	case strings.Contains(lower, "permission denied (publickey)"),
		strings.Contains(lower, "host key verification failed"),
		strings.Contains(lower, "no such identity"),
		strings.Contains(lower, "offending key"),
		strings.Contains(lower, "load key"):
		return CloneErrSSHKey
	case strings.Contains(lower, "remote branch") && strings.Contains(lower, "not found"):
		return CloneErrRefNotFound
	case strings.Contains(lower, "could not read username"),
		strings.Contains(lower, "could not read password"),
		strings.Contains(lower, "authentication failed"),
		strings.Contains(lower, "invalid credentials"),
		strings.Contains(lower, "terminal prompts disabled"),
		strings.Contains(lower, "logon failed"),
		strings.Contains(lower, "returned error: 401"),
		strings.Contains(lower, "returned error: 403"):
		return CloneErrAuth
	case strings.Contains(lower, "repository not found"),
		strings.Contains(lower, "does not appear to be a git repository"),
		strings.Contains(lower, "could not be found"),
		strings.Contains(lower, "not found"):
		return CloneErrRepoNotFound
	case strings.Contains(lower, "could not resolve host"),
		strings.Contains(lower, "connection refused"),
		strings.Contains(lower, "network is unreachable"),
		strings.Contains(lower, "no route to host"):
		return CloneErrNetwork
	}
	return CloneErrUnknown
}

// hintsForError returns actionable suggestions for a clone failure.
func hintsForError(kind CloneErrorKind, cloneURL, ref string) []string {
	switch kind {
	case CloneErrAuth:
		return []string{
			"The repository may be private; configure a git credential helper",
			"Or install from an SSH URL: git@host:owner/repo.git",
		}
	case CloneErrSSHKey:
		return []string{
			"Ensure your SSH key is loaded: `ssh-add -l`",
			"Or install from the https URL instead",
		}
	case CloneErrRepoNotFound:
		return []string{
			"Verify the repository URL is correct: " + cloneURL,
			"Ensure you have access to this repository",
		}
	case CloneErrRefNotFound:
		return []string{
			fmt.Sprintf("Check that branch or tag %q exists in the repository", ref),
		}
	case CloneErrNetwork:
		return []string{
			"Check your internet connection",
			"If behind a proxy, ensure git is configured to use it",
		}
	case CloneErrTimeout:
		return []string{
			"Increase clone_timeout in ~/.sindri/config.json",
		}
	default:
		return []string{
			"Try cloning manually to diagnose the issue: " + FormatCloneCommand(cloneURL, ref),
		}
	}
}

// FormatCloneCommand builds the display string for the clone command.
func FormatCloneCommand(url, ref string) string {
	args := []string{"git", "clone", "--depth", "1"}
	if ref != "" {
		args = append(args, "--branch", ref)
	}
	args = append(args, url)
	return strings.Join(args, " ")
}
