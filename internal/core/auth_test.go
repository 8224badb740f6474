package core

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestClassifyOutput(t *testing.T) {
	tests := []struct {
		name     string
		output   string
		wantKind CloneErrorKind
	}{
		// HTTPS auth errors.
		{
			name:     "https could not read username",
			output:   "fatal: could not read Username for 'https://github.com': terminal prompts disabled",
			wantKind: CloneErrAuth,
		},
		{
			name:     "https could not read password",
			output:   "fatal: could not read Password for 'https://github.com': terminal prompts disabled",
			wantKind: CloneErrAuth,
		},
		{
			name:     "https authentication failed",
			output:   "fatal: Authentication failed for 'https://github.com/owner/repo.git/'",
			wantKind: CloneErrAuth,
		},
		{
			name:     "https invalid credentials",
			output:   "remote: Invalid credentials\nfatal: Authentication failed",
			wantKind: CloneErrAuth,
		},
		{
			name:     "https 401",
			output:   "fatal: unable to access 'https://github.com/owner/repo.git/': The requested URL returned error: 401",
			wantKind: CloneErrAuth,
		},
		{
			name:     "https 403",
			output:   "fatal: unable to access 'https://github.com/owner/repo.git/': The requested URL returned error: 403",
			wantKind: CloneErrAuth,
		},
		{
			name:     "windows logon failed",
			output:   "Logon failed, use ctrl+c to cancel basic credential prompt.",
			wantKind: CloneErrAuth,
		},

		// SSH key errors.
		{
			name:     "ssh permission denied publickey",
			output:   "git@github.com: Permission denied (publickey).\nfatal: Could not read from remote repository.",
			wantKind: CloneErrSSHKey,
		},
		{
			name:     "ssh load key",
			output:   "Load key \"/home/user/.ssh/id_rsa\": No such file or directory\ngit@github.com: Permission denied (publickey).",
			wantKind: CloneErrSSHKey,
		},
		{
			name:     "ssh no such identity",
			output:   "no such identity: /home/user/.ssh/id_ed25519: No such file or directory",
			wantKind: CloneErrSSHKey,
		},

		{
			name:     "ssh host key verification failed",
			output:   "Host key verification failed.\nfatal: Could not read from remote repository.",
			wantKind: CloneErrSSHKey,
		},
		{
			name:     "ssh offending known_hosts key",
			output:   "Warning: the ECDSA host key for 'github.com' differs from the key for the IP address\nOffending key for IP in /home/user/.ssh/known_hosts:5",
			wantKind: CloneErrSSHKey,
		},

		// Repository not found.
		{
			name:     "github repo not found",
			output:   "remote: Repository not found.\nfatal: repository 'https://github.com/owner/repo.git/' not found",
			wantKind: CloneErrRepoNotFound,
		},
		{
			name:     "not a git repository",
			output:   "fatal: 'https://example.com/foo' does not appear to be a git repository\nfatal: Could not read from remote repository.",
			wantKind: CloneErrRepoNotFound,
		},
		{
			name:     "gitlab project not found",
			output:   "remote: The project you were looking for could not be found.\nfatal: repository 'https://gitlab.com/owner/repo.git/' not found",
			wantKind: CloneErrRepoNotFound,
		},

		// Network errors.
		{
			name:     "could not resolve host",
			output:   "fatal: unable to access 'https://github.com/owner/repo.git/': Could not resolve host: github.com",
			wantKind: CloneErrNetwork,
		},
		{
			name:     "connection refused",
			output:   "fatal: unable to access 'https://github.com/owner/repo.git/': Failed to connect to github.com port 443: Connection refused",
			wantKind: CloneErrNetwork,
		},
		{
			name:     "network unreachable",
			output:   "fatal: unable to access 'https://github.com/owner/repo.git/': Network is unreachable",
			wantKind: CloneErrNetwork,
		},

		// Timeout.
		{
			name:     "command timeout",
			output:   "command timed out after 60s",
			wantKind: CloneErrTimeout,
		},

		// Unknown.
		{
			name:     "unknown error",
			output:   "fatal: something unexpected happened",
			wantKind: CloneErrUnknown,
		},
		{
			name:     "empty output",
			output:   "",
			wantKind: CloneErrUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyOutput(tt.output)
			if got != tt.wantKind {
				t.Errorf("classifyOutput(%q) = %v, want %v", tt.output, got, tt.wantKind)
			}
		})
	}
}

func TestClassifyCloneError(t *testing.T) {
	ce := classifyCloneError(
		"https://github.com/owner/repo.git",
		"",
		"Cloning into '/tmp/x'...\nfatal: could not read Username for 'https://github.com': terminal prompts disabled",
		errors.New("exit status 128"),
	)

	if ce.Kind != CloneErrAuth {
		t.Errorf("Kind = %v, want CloneErrAuth", ce.Kind)
	}
	if ce.URL != "https://github.com/owner/repo.git" {
		t.Errorf("URL = %q, want %q", ce.URL, "https://github.com/owner/repo.git")
	}
	if len(ce.Hints) == 0 {
		t.Error("expected non-empty hints")
	}
	if strings.Contains(ce.Error(), "Cloning into") {
		t.Errorf("Error() = %q, should skip the progress line", ce.Error())
	}
}

func TestClassifyCloneError_TimeoutCause(t *testing.T) {
	cause := fmt.Errorf("git timed out after 1s: %w", ErrTimeout)
	ce := classifyCloneError("https://github.com/owner/repo.git", "", "", cause)

	if ce.Kind != CloneErrTimeout {
		t.Errorf("Kind = %v, want CloneErrTimeout", ce.Kind)
	}
	if !errors.Is(ce, ErrTimeout) {
		t.Error("errors.Is(ce, ErrTimeout) = false, want true")
	}
}

func TestCloneErrorKindString(t *testing.T) {
	tests := []struct {
		kind CloneErrorKind
		want string
	}{
		{CloneErrAuth, "authentication required"},
		{CloneErrRepoNotFound, "repository not found"},
		{CloneErrRefNotFound, "ref not found"},
		{CloneErrNetwork, "network error"},
		{CloneErrSSHKey, "ssh key error"},
		{CloneErrTimeout, "timeout"},
		{CloneErrUnknown, "unknown error"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHintsForError(t *testing.T) {
	hints := hintsForError(CloneErrRefNotFound, "https://github.com/owner/repo.git", "v9")
	if len(hints) != 1 || !strings.Contains(hints[0], `"v9"`) {
		t.Errorf("ref hints = %v, want one mentioning v9", hints)
	}

	hints = hintsForError(CloneErrUnknown, "https://github.com/owner/repo.git", "main")
	if len(hints) == 0 || !strings.Contains(hints[0], "--branch main") {
		t.Errorf("unknown hints = %v, want a manual clone command", hints)
	}
}

func TestAsCloneError(t *testing.T) {
	ce := &CloneError{Kind: CloneErrAuth, URL: "https://github.com/owner/repo.git"}

	got, ok := AsCloneError(fmt.Errorf("installing: %w", ce))
	if !ok || got != ce {
		t.Error("AsCloneError should find a wrapped CloneError")
	}

	got, ok = AsCloneError(nil)
	if ok || got != nil {
		t.Error("AsCloneError(nil) should return false")
	}
}

func TestFormatCloneCommand(t *testing.T) {
	got := FormatCloneCommand("https://github.com/owner/repo.git", "")
	want := "git clone --depth 1 https://github.com/owner/repo.git"
	if got != want {
		t.Errorf("FormatCloneCommand() = %q, want %q", got, want)
	}

	got = FormatCloneCommand("https://github.com/owner/repo.git", "main")
	want = "git clone --depth 1 --branch main https://github.com/owner/repo.git"
	if got != want {
		t.Errorf("FormatCloneCommand(with ref) = %q, want %q", got, want)
	}
}
