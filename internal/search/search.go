// Package search evaluates literal queries against a single note.
// Matching is presence-only: no ranking, no index, each note judged
// independently from its current content.
package search

import (
	"strings"
	"unicode/utf8"

	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/parser"
)

// previewContext is the number of bytes of surrounding context kept on
// each side of a content match.
const previewContext = 50

// Scope selects which note fields a query is checked against.
type Scope struct {
	Content  bool
	Filename bool
	Tags     bool
}

// ParseScope maps the wire form ("content", "filename", "tags") onto a
// Scope. An empty list means content plus filename.
func ParseScope(fields []string) Scope {
	if len(fields) == 0 {
		return Scope{Content: true, Filename: true}
	}
	var s Scope
	for _, f := range fields {
		switch strings.ToLower(strings.TrimSpace(f)) {
		case "content":
			s.Content = true
		case "filename":
			s.Filename = true
		case "tags":
			s.Tags = true
		}
	}
	return s
}

// Query is a literal, case-sensitive search request.
type Query struct {
	Text       string
	Scope      Scope
	PathFilter string // optional path prefix; non-matching notes are skipped
}

// Match is the outcome for one note.
type Match struct {
	Matched  bool
	Previews []string
}

// Matches evaluates q against a single note. The note matches when any
// requested scope matches; the path filter is applied before any scope
// check.
func Matches(note models.Note, q Query) Match {
	if q.PathFilter != "" && !strings.HasPrefix(note.Path, q.PathFilter) {
		return Match{}
	}

	if q.Scope.Filename && strings.Contains(note.Path, q.Text) {
		return Match{Matched: true, Previews: []string{"filename match: " + note.Path}}
	}

	if q.Scope.Tags {
		for _, tag := range parser.Tags(note.Frontmatter) {
			if strings.Contains(tag, q.Text) {
				return Match{Matched: true, Previews: []string{"tag match: " + tag}}
			}
		}
	}

	if q.Scope.Content {
		if idx := strings.Index(note.Body, q.Text); idx >= 0 {
			return Match{Matched: true, Previews: []string{preview(note.Body, idx, len(q.Text))}}
		}
	}

	return Match{}
}

// preview cuts a window of surrounding context around a match, clamped to
// rune boundaries so multi-byte text is never split.
func preview(body string, idx, matchLen int) string {
	start := idx - previewContext
	if start < 0 {
		start = 0
	}
	end := idx + matchLen + previewContext
	if end > len(body) {
		end = len(body)
	}
	for start > 0 && !utf8.RuneStart(body[start]) {
		start--
	}
	for end < len(body) && !utf8.RuneStart(body[end]) {
		end++
	}
	return body[start:end]
}
