// Package parser extracts relationship signals — wikilinks, tags, titles —
// from parsed Markdown notes.
package parser

import (
	"regexp"
	"strings"

	"github.com/starford/ansuz/internal/frontmatter"
)

var wikilinkRe = regexp.MustCompile(`\[\[(.*?)\]\]`)

// Result holds the output of parsing a Markdown file.
type Result struct {
	Frontmatter *frontmatter.Map
	Body        string
	Links       []string
	Tags        []string
	Title       string
}

// Parse splits raw Markdown bytes into frontmatter and body and derives
// links, tags, and the display title.
func Parse(data []byte) (*Result, error) {
	fm, body, err := frontmatter.Parse(data)
	if err != nil {
		return nil, err
	}
	return &Result{
		Frontmatter: fm,
		Body:        body,
		Links:       Links(body),
		Tags:        Tags(fm),
		Title:       deriveTitle(fm, body),
	}, nil
}

// Links returns deduplicated wikilink targets from body. Aliases
// ([[Target|alias]]) and section anchors ([[Target#heading]]) are
// stripped down to the target name.
func Links(body string) []string {
	matches := wikilinkRe.FindAllStringSubmatch(body, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		target := m[1]
		if i := strings.IndexAny(target, "|#"); i >= 0 {
			target = target[:i]
		}
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		if _, dup := seen[target]; dup {
			continue
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}
	return out
}

// Tags returns the note's tag set from the frontmatter "tags" key.
// The key may hold a sequence of strings or a single string; an absent
// or wrong-shaped key yields no tags rather than an error.
func Tags(fm *frontmatter.Map) []string {
	raw, ok := fm.Get("tags")
	if !ok {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, tag := range raw.Strings() {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// deriveTitle returns the frontmatter "title" if present, otherwise the
// first H1 heading, otherwise empty string.
func deriveTitle(fm *frontmatter.Map, body string) string {
	if v, ok := fm.Get("title"); ok {
		if s, isStr := v.AsString(); isStr && s != "" {
			return s
		}
	}
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(line[2:])
		}
	}
	return ""
}
