package search

import (
	"strings"
	"testing"

	"github.com/starford/ansuz/internal/frontmatter"
	"github.com/starford/ansuz/internal/models"
)

func taggedNote(path, body string, tags ...string) models.Note {
	n := models.Note{Path: path, Body: body}
	if len(tags) > 0 {
		vals := make([]frontmatter.Value, len(tags))
		for i, t := range tags {
			vals[i] = frontmatter.String(t)
		}
		fm := frontmatter.NewMap()
		fm.Set("tags", frontmatter.Sequence(vals...))
		n.Frontmatter = fm
	}
	return n
}

func TestParseScope(t *testing.T) {
	if s := ParseScope(nil); !s.Content || !s.Filename || s.Tags {
		t.Errorf("default scope = %+v", s)
	}
	if s := ParseScope([]string{"tags"}); s.Content || s.Filename || !s.Tags {
		t.Errorf("tags scope = %+v", s)
	}
	if s := ParseScope([]string{" Content ", "FILENAME"}); !s.Content || !s.Filename {
		t.Errorf("case-insensitive scope = %+v", s)
	}
}

func TestMatches_Content(t *testing.T) {
	n := taggedNote("a.md", "some uniquetoken in the body")
	m := Matches(n, Query{Text: "uniquetoken", Scope: Scope{Content: true}})
	if !m.Matched {
		t.Fatal("expected content match")
	}
	if len(m.Previews) != 1 || !strings.Contains(m.Previews[0], "uniquetoken") {
		t.Errorf("previews = %v", m.Previews)
	}
}

func TestMatches_CaseSensitive(t *testing.T) {
	n := taggedNote("a.md", "Token here")
	if m := Matches(n, Query{Text: "token", Scope: Scope{Content: true}}); m.Matched {
		t.Error("matching is case-sensitive; should not match")
	}
}

func TestMatches_Filename(t *testing.T) {
	n := taggedNote("projects/roadmap.md", "nothing relevant")
	m := Matches(n, Query{Text: "roadmap", Scope: Scope{Filename: true}})
	if !m.Matched {
		t.Fatal("expected filename match")
	}
	if m.Previews[0] != "filename match: projects/roadmap.md" {
		t.Errorf("preview = %q", m.Previews[0])
	}
}

func TestMatches_Tags(t *testing.T) {
	n := taggedNote("a.md", "", "meeting-notes")
	m := Matches(n, Query{Text: "meeting", Scope: Scope{Tags: true}})
	if !m.Matched {
		t.Fatal("expected tag match")
	}
	if m.Previews[0] != "tag match: meeting-notes" {
		t.Errorf("preview = %q", m.Previews[0])
	}
}

func TestMatches_ScopeGate(t *testing.T) {
	n := taggedNote("needle.md", "needle in body", "needle")
	if m := Matches(n, Query{Text: "needle", Scope: Scope{Tags: true}}); !m.Matched {
		t.Error("tag scope should match")
	}
	if m := Matches(n, Query{Text: "needle", Scope: Scope{}}); m.Matched {
		t.Error("empty scope should match nothing")
	}
}

func TestMatches_PathFilter(t *testing.T) {
	n := taggedNote("archive/old.md", "needle")
	if m := Matches(n, Query{Text: "needle", Scope: Scope{Content: true}, PathFilter: "projects/"}); m.Matched {
		t.Error("path filter should exclude note")
	}
	if m := Matches(n, Query{Text: "needle", Scope: Scope{Content: true}, PathFilter: "archive/"}); !m.Matched {
		t.Error("path filter prefix should include note")
	}
}

func TestPreview_Window(t *testing.T) {
	body := strings.Repeat("x", 200) + "NEEDLE" + strings.Repeat("y", 200)
	m := Matches(models.Note{Path: "a.md", Body: body}, Query{Text: "NEEDLE", Scope: Scope{Content: true}})
	if !m.Matched {
		t.Fatal("expected match")
	}
	p := m.Previews[0]
	if len(p) != 50+len("NEEDLE")+50 {
		t.Errorf("preview length = %d", len(p))
	}
	if !strings.Contains(p, "NEEDLE") {
		t.Errorf("preview = %q", p)
	}
}

func TestPreview_RuneBoundaries(t *testing.T) {
	body := strings.Repeat("é", 60) + "NEEDLE" + strings.Repeat("é", 60)
	m := Matches(models.Note{Path: "a.md", Body: body}, Query{Text: "NEEDLE", Scope: Scope{Content: true}})
	if !m.Matched {
		t.Fatal("expected match")
	}
	if !strings.ContainsRune(m.Previews[0], 'é') {
		t.Errorf("preview = %q", m.Previews[0])
	}
	for _, r := range m.Previews[0] {
		if r == '�' {
			t.Fatal("preview split a multi-byte rune")
		}
	}
}
