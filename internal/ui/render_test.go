package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
)

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("Truncate() = %q, want unchanged", got)
	}
	got := Truncate("a rather long description", 10)
	if w := ansi.StringWidth(got); w > 10 {
		t.Errorf("Truncate() width = %d, want <= 10", w)
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("Truncate() = %q, want ellipsis", got)
	}
	if got := Truncate("keep", 0); got != "keep" {
		t.Errorf("Truncate(width 0) = %q", got)
	}
}

func TestTruncate_IgnoresStyling(t *testing.T) {
	styled := ErrorStyle.Render("failed")
	if got := Truncate(styled, 20); ansi.Strip(got) != "failed" {
		t.Errorf("Truncate() = %q", ansi.Strip(got))
	}
}

func TestMarkdown(t *testing.T) {
	if got := Markdown("   ", 40); got != "" {
		t.Errorf("Markdown(blank) = %q, want empty", got)
	}
	got := ansi.Strip(Markdown("# Echo\n\nRepeats its **input**.", 40))
	if !strings.Contains(got, "Echo") || !strings.Contains(got, "input") {
		t.Errorf("Markdown() = %q", got)
	}
}

func TestSectionHeader(t *testing.T) {
	if got := ansi.Strip(SectionHeader("TOOLS")); got != "── TOOLS ──" {
		t.Errorf("SectionHeader() = %q", got)
	}
}

func TestJoin(t *testing.T) {
	if Join(nil) != "-" || Join([]string{"a", "b"}) != "a, b" {
		t.Error("Join() output unexpected")
	}
}
