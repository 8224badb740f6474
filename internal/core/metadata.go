package core

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// Category groups plugins for search and listing.
type Category string

const (
	CategoryDevelopment Category = "development"
	CategoryTesting     Category = "testing"
	CategoryDatabase    Category = "database"
	CategoryGit         Category = "git"
	CategoryWeb         Category = "web"
	CategoryUtility     Category = "utility"
	CategoryAgent       Category = "agent"
	CategoryOther       Category = "other"
)

var knownCategories = map[Category]bool{
	CategoryDevelopment: true,
	CategoryTesting:     true,
	CategoryDatabase:    true,
	CategoryGit:         true,
	CategoryWeb:         true,
	CategoryUtility:     true,
	CategoryAgent:       true,
	CategoryOther:       true,
}

// ParseCategory converts a string into a Category. Unknown values map to
// CategoryOther.
func ParseCategory(s string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if knownCategories[c] {
		return c
	}
	return CategoryOther
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	if c == "" {
		return []byte(CategoryOther), nil
	}
	return []byte(c), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unknown categories
// decode as CategoryOther instead of failing.
func (c *Category) UnmarshalText(b []byte) error {
	*c = ParseCategory(string(b))
	return nil
}

// PluginType is the kind of an installable plugin.
type PluginType string

const (
	PluginTypeTool  PluginType = "tool"
	PluginTypeAgent PluginType = "agent"
)

// MarshalText implements encoding.TextMarshaler.
func (t PluginType) MarshalText() ([]byte, error) { return []byte(t), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *PluginType) UnmarshalText(b []byte) error {
	switch PluginType(strings.ToLower(strings.TrimSpace(string(b)))) {
	case PluginTypeTool:
		*t = PluginTypeTool
	case PluginTypeAgent:
		*t = PluginTypeAgent
	case "":
		*t = ""
	default:
		return fmt.Errorf("unknown plugin type %q", string(b))
	}
	return nil
}

// PluginMetadata describes an installable plugin.
type PluginMetadata struct {
	Name          string     `json:"name"`
	Version       string     `json:"version"`
	Description   string     `json:"description,omitempty"`
	Author        string     `json:"author,omitempty"`
	Category      Category   `json:"category"`
	Tags          []string   `json:"tags,omitempty"`
	Homepage      string     `json:"homepage,omitempty"`
	Repository    string     `json:"repository,omitempty"`
	License       string     `json:"license,omitempty"`
	Dependencies  []string   `json:"dependencies,omitempty"`
	SindriVersion string     `json:"sindri_version,omitempty"`
	PluginType    PluginType `json:"plugin_type"`
	Readme        string     `json:"readme,omitempty"`
	Changelog     string     `json:"changelog,omitempty"`
}

// DefaultVersion is recorded for plugins that do not declare a version.
const DefaultVersion = "0.1.0"

// Normalize fills defaults and canonicalizes the version.
func (m *PluginMetadata) Normalize() {
	m.Name = strings.TrimSpace(m.Name)
	if m.Version == "" {
		m.Version = DefaultVersion
	}
	m.Version = strings.TrimPrefix(m.Version, "v")
	if m.Category == "" {
		m.Category = CategoryOther
	}
}

// Check returns problems with the metadata. An empty name is fatal; other
// problems are returned as warnings.
func (m *PluginMetadata) Check() (warnings []string, err error) {
	if m.Name == "" {
		return nil, fmt.Errorf("plugin name is required")
	}
	if !ValidVersion(m.Version) {
		warnings = append(warnings, fmt.Sprintf("version %q is not a semantic version", m.Version))
	}
	return warnings, nil
}

// ValidVersion reports whether v is a semantic version, with or without a
// leading "v".
func ValidVersion(v string) bool {
	return semver.IsValid(canonical(v))
}

// CompareVersions compares two semantic versions. Invalid versions sort
// before valid ones.
func CompareVersions(a, b string) int {
	return semver.Compare(canonical(a), canonical(b))
}

func canonical(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

// CompatibleWith checks a sindri_version constraint against the host
// version. Constraints are space-separated comparisons such as
// ">=0.2.0 <1.0.0"; a bare version means ">=". An empty constraint or a
// non-semantic host version matches.
func CompatibleWith(constraint, hostVersion string) (bool, error) {
	constraint = strings.TrimSpace(constraint)
	host := canonical(hostVersion)
	if constraint == "" || !semver.IsValid(host) {
		return true, nil
	}
	for _, term := range strings.Fields(strings.ReplaceAll(constraint, ",", " ")) {
		op, ver := splitOperator(term)
		v := canonical(ver)
		if !semver.IsValid(v) {
			return false, fmt.Errorf("invalid version %q in constraint %q", ver, constraint)
		}
		cmp := semver.Compare(host, v)
		var ok bool
		switch op {
		case ">=", "":
			ok = cmp >= 0
		case ">":
			ok = cmp > 0
		case "<=":
			ok = cmp <= 0
		case "<":
			ok = cmp < 0
		case "=", "==":
			ok = cmp == 0
		case "^":
			ok = cmp >= 0 && semver.Major(host) == semver.Major(v)
		case "~":
			ok = cmp >= 0 && semver.MajorMinor(host) == semver.MajorMinor(v)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func splitOperator(term string) (op, version string) {
	for _, candidate := range []string{">=", "<=", "==", ">", "<", "=", "^", "~"} {
		if strings.HasPrefix(term, candidate) {
			return candidate, strings.TrimSpace(term[len(candidate):])
		}
	}
	return "", term
}
