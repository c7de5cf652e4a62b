package parser

import (
	"path"
	"strings"

	"github.com/starford/ansuz/internal/models"
)

// Criteria selects which relationship signals connect two notes.
type Criteria struct {
	Tags  bool
	Links bool
}

// ParseCriteria maps the wire form ("tags", "links") onto Criteria.
// An empty list means both.
func ParseCriteria(on []string) Criteria {
	if len(on) == 0 {
		return Criteria{Tags: true, Links: true}
	}
	var c Criteria
	for _, s := range on {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "tags":
			c.Tags = true
		case "links":
			c.Links = true
		}
	}
	return c
}

// Source holds the relationship signals of a source note, precomputed so
// a corpus scan checks each candidate in constant time.
type Source struct {
	Path  string
	tags  map[string]struct{}
	links map[string]struct{}
}

// NewSource extracts tag and link sets from a note.
func NewSource(note models.Note) Source {
	s := Source{
		Path:  note.Path,
		tags:  make(map[string]struct{}),
		links: make(map[string]struct{}),
	}
	for _, t := range Tags(note.Frontmatter) {
		s.tags[t] = struct{}{}
	}
	for _, l := range Links(note.Body) {
		s.links[l] = struct{}{}
	}
	return s
}

// Match reports whether the candidate note is related to the source under
// the given criteria, and through which signal. The source itself never
// matches.
func (s Source) Match(candidate models.Note, c Criteria) (bool, string) {
	if candidate.Path == s.Path {
		return false, ""
	}
	if c.Tags {
		for _, t := range Tags(candidate.Frontmatter) {
			if _, ok := s.tags[t]; ok {
				return true, "shared tag: " + t
			}
		}
	}
	if c.Links {
		for _, name := range candidateNames(candidate.Path) {
			if _, ok := s.links[name]; ok {
				return true, "linked as: " + name
			}
		}
	}
	return false, ""
}

// Related scans corpus in order and returns the paths of notes related to
// source. Results keep first-encountered order; no relevance ranking.
func Related(source models.Note, corpus []models.Note, c Criteria) []string {
	src := NewSource(source)
	var out []string
	for _, cand := range corpus {
		if ok, _ := src.Match(cand, c); ok {
			out = append(out, cand.Path)
		}
	}
	return out
}

// candidateNames lists the forms a wikilink may use to address a note:
// the filename with and without extension, and the vault-relative path
// with and without extension.
func candidateNames(relPath string) []string {
	base := path.Base(relPath)
	stem := strings.TrimSuffix(base, ".md")
	names := []string{base, stem}
	if relPath != base {
		names = append(names, relPath, strings.TrimSuffix(relPath, ".md"))
	}
	return names
}
