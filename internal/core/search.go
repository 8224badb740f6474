package core

import (
	"sort"
	"strings"
)

// SearchFilter narrows a Search. Zero values match everything.
type SearchFilter struct {
	Category    Category
	PluginType  PluginType
	Tag         string
	EnabledOnly bool
}

func (f SearchFilter) match(p *InstalledPlugin) bool {
	if f.Category != "" && p.Metadata.Category != f.Category {
		return false
	}
	if f.PluginType != "" && p.Metadata.PluginType != f.PluginType {
		return false
	}
	if f.Tag != "" && !containsFold(p.Metadata.Tags, f.Tag) {
		return false
	}
	if f.EnabledOnly && !p.Enabled {
		return false
	}
	return true
}

// SearchHit is one Search result.
type SearchHit struct {
	Plugin *InstalledPlugin
	Score  int
}

// Match weights. A name match outranks everything else.
const (
	scoreExactName   = 100
	scoreNamePrefix  = 60
	scoreNameContain = 40
	scoreDescription = 20
	scoreTag         = 15
	scoreCategory    = 10
)

// Search returns installed plugins matching query, best first. Every
// whitespace-separated term must match somewhere. An empty query lists
// everything the filter admits in index order.
func (ix *Index) Search(query string, filter SearchFilter) []SearchHit {
	terms := strings.Fields(strings.ToLower(query))

	var hits []SearchHit
	for _, p := range ix.List() {
		if !filter.match(p) {
			continue
		}
		total := 0
		for _, term := range terms {
			s := scoreTerm(p, term)
			if s == 0 {
				total = 0
				break
			}
			total += s
		}
		if len(terms) > 0 && total == 0 {
			continue
		}
		hits = append(hits, SearchHit{Plugin: p, Score: total})
	}

	if len(terms) == 0 {
		return hits
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Plugin.Name() < hits[j].Plugin.Name()
	})
	return hits
}

func scoreTerm(p *InstalledPlugin, term string) int {
	m := p.Metadata
	name := strings.ToLower(m.Name)
	score := 0
	switch {
	case name == term:
		score += scoreExactName
	case strings.HasPrefix(name, term):
		score += scoreNamePrefix
	case strings.Contains(name, term):
		score += scoreNameContain
	}
	if strings.Contains(strings.ToLower(m.Description), term) {
		score += scoreDescription
	}
	for _, tag := range m.Tags {
		if strings.Contains(strings.ToLower(tag), term) {
			score += scoreTag
			break
		}
	}
	if strings.Contains(string(m.Category), term) {
		score += scoreCategory
	}
	return score
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
