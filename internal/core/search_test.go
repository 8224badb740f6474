package core

import (
	"path/filepath"
	"testing"
)

func searchIndex(t *testing.T) *Index {
	t.Helper()
	ix := NewIndex(filepath.Join(t.TempDir(), "index.json"), nil)

	git := testPlugin("git-status", PluginTypeTool)
	git.Metadata.Description = "Show repository status"
	git.Metadata.Category = CategoryGit
	git.Metadata.Tags = []string{"vcs"}
	ix.Put(git)

	status := testPlugin("status", PluginTypeTool)
	status.Metadata.Description = "Report service health"
	ix.Put(status)

	reviewer := testPlugin("reviewer", PluginTypeAgent)
	reviewer.Metadata.Description = "Reviews git diffs for status regressions"
	reviewer.Metadata.Category = CategoryAgent
	reviewer.Enabled = false
	ix.Put(reviewer)

	return ix
}

func hitNames(hits []SearchHit) []string {
	names := make([]string, 0, len(hits))
	for _, h := range hits {
		names = append(names, h.Plugin.Name())
	}
	return names
}

func TestSearch_RanksNameMatchesFirst(t *testing.T) {
	ix := searchIndex(t)

	got := hitNames(ix.Search("status", SearchFilter{}))
	want := []string{"status", "git-status", "reviewer"}
	if len(got) != len(want) {
		t.Fatalf("Search(status) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Search(status)[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestSearch_AllTermsMustMatch(t *testing.T) {
	ix := searchIndex(t)

	got := hitNames(ix.Search("git regressions", SearchFilter{}))
	if len(got) != 1 || got[0] != "reviewer" {
		t.Errorf("Search(git regressions) = %v, want [reviewer]", got)
	}
	if hits := ix.Search("status nonsense", SearchFilter{}); len(hits) != 0 {
		t.Errorf("Search(status nonsense) = %v, want none", hitNames(hits))
	}
}

func TestSearch_Filters(t *testing.T) {
	ix := searchIndex(t)

	tests := []struct {
		name   string
		filter SearchFilter
		want   int
	}{
		{"type", SearchFilter{PluginType: PluginTypeAgent}, 1},
		{"category", SearchFilter{Category: CategoryGit}, 1},
		{"tag", SearchFilter{Tag: "VCS"}, 1},
		{"enabled", SearchFilter{EnabledOnly: true}, 2},
		{"none", SearchFilter{}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ix.Search("", tt.filter); len(got) != tt.want {
				t.Errorf("Search() = %v, want %d hits", hitNames(got), tt.want)
			}
		})
	}
}

func TestSearch_EmptyQueryKeepsIndexOrder(t *testing.T) {
	ix := searchIndex(t)

	got := hitNames(ix.Search("  ", SearchFilter{}))
	want := []string{"git-status", "status", "reviewer"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Search()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}
