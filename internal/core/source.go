package core

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ownerRepoPattern matches "owner/repo" format (2 segments, no protocol).
var ownerRepoPattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+/[a-zA-Z0-9_.-]+$`)

var defaultForgeHosts = []string{"github.com", "gitlab.com", "bitbucket.org", "codeberg.org"}

// ParsedSource represents a parsed install source string.
type ParsedSource struct {
	Kind     SourceKind
	Location string // Absolute local path, clone URL or download URL
	Host     string // Hostname for remote sources
	Owner    string // Repository owner, when known
	Repo     string // Repository name, when known
	Ref      string // Git ref taken from a /tree/<ref> URL
}

// SourceOptions configures source detection.
type SourceOptions struct {
	DefaultForge string   // Host for bare owner/repo sources
	ForgeHosts   []string // Hosts whose https URLs are git repositories
}

func (o SourceOptions) withDefaults() SourceOptions {
	if o.DefaultForge == "" {
		o.DefaultForge = "github.com"
	}
	if len(o.ForgeHosts) == 0 {
		o.ForgeHosts = defaultForgeHosts
	}
	return o
}

func (o SourceOptions) isForge(host string) bool {
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	for _, h := range o.ForgeHosts {
		if strings.EqualFold(h, host) {
			return true
		}
	}
	return false
}

// ParseSource classifies an install source string.
//
// Detection order:
//   - an existing local path                    → local
//   - "*.git", "git@host:path" or "ssh://..."    → git
//   - "owner/repo"                               → git on the default forge
//   - "https://<forge>/owner/repo[/tree/<ref>]"  → git, normalized to .git
//   - any other http(s) URL                      → url
//   - anything else                              → local (may not exist)
func ParseSource(input string, opts SourceOptions) (*ParsedSource, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("empty source")
	}
	opts = opts.withDefaults()

	if src, ok := parseExistingLocal(input); ok {
		return src, nil
	}

	if strings.HasPrefix(input, "git@") || strings.HasPrefix(input, "ssh://") {
		return parseSSHSource(input)
	}

	isHTTP := strings.HasPrefix(input, "https://") || strings.HasPrefix(input, "http://")

	if strings.HasSuffix(input, ".git") {
		if isHTTP {
			return parseHTTPSource(input, opts)
		}
		return &ParsedSource{Kind: SourceGit, Location: input}, nil
	}

	if !isHTTP && ownerRepoPattern.MatchString(input) {
		segments := strings.SplitN(input, "/", 2)
		return &ParsedSource{
			Kind:     SourceGit,
			Host:     opts.DefaultForge,
			Owner:    segments[0],
			Repo:     segments[1],
			Location: fmt.Sprintf("https://%s/%s/%s.git", opts.DefaultForge, segments[0], segments[1]),
		}, nil
	}

	if isHTTP {
		return parseHTTPSource(input, opts)
	}

	abs, err := filepath.Abs(expandPath(input))
	if err != nil {
		return nil, fmt.Errorf("resolving local path: %w", err)
	}
	return &ParsedSource{Kind: SourceLocal, Location: abs}, nil
}

func parseExistingLocal(input string) (*ParsedSource, bool) {
	expanded := expandPath(input)
	if _, err := os.Stat(expanded); err != nil {
		return nil, false
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return nil, false
	}
	return &ParsedSource{Kind: SourceLocal, Location: abs}, true
}

func parseSSHSource(input string) (*ParsedSource, error) {
	result := &ParsedSource{Kind: SourceGit, Location: input}

	var host, repoPath string
	if strings.HasPrefix(input, "ssh://") {
		u, err := url.Parse(input)
		if err != nil {
			return nil, fmt.Errorf("invalid SSH URL: %w", err)
		}
		host, repoPath = u.Hostname(), strings.TrimPrefix(u.Path, "/")
	} else {
		// git@github.com:owner/repo.git
		parts := strings.SplitN(strings.TrimPrefix(input, "git@"), ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid SSH URL: %q", input)
		}
		host, repoPath = parts[0], parts[1]
	}

	result.Host = host
	segments := strings.SplitN(strings.TrimSuffix(repoPath, ".git"), "/", 2)
	if len(segments) == 2 {
		result.Owner = segments[0]
		result.Repo = segments[1]
	}
	return result, nil
}

func parseHTTPSource(input string, opts SourceOptions) (*ParsedSource, error) {
	u, err := url.Parse(input)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid URL: %q has no host", input)
	}

	if !opts.isForge(u.Hostname()) {
		if strings.HasSuffix(u.Path, ".git") {
			return &ParsedSource{Kind: SourceGit, Location: input, Host: u.Host}, nil
		}
		return &ParsedSource{Kind: SourceURL, Location: input, Host: u.Host}, nil
	}

	// Parse path segments: /owner/repo[/tree/branch]
	pathParts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(pathParts) < 2 {
		return &ParsedSource{Kind: SourceURL, Location: input, Host: u.Host}, nil
	}

	result := &ParsedSource{
		Kind:  SourceGit,
		Host:  u.Host,
		Owner: pathParts[0],
		Repo:  strings.TrimSuffix(pathParts[1], ".git"),
	}
	result.Location = fmt.Sprintf("%s://%s/%s/%s.git", u.Scheme, u.Host, result.Owner, result.Repo)
	if len(pathParts) >= 4 && pathParts[2] == "tree" {
		result.Ref = pathParts[3]
	}
	return result, nil
}
