// Package section locates heading-delimited sections of a Markdown body.
// Only ATX headings are recognized: one to six # characters at the very
// start of a line, followed by whitespace and non-empty text.
package section

import (
	"strings"
)

// Section is one heading-delimited region of a body. Start/End form a
// half-open byte range covering the section content, exclusive of the
// heading line itself. End is the offset of the next heading with a level
// less than or equal to this one, or the end of the body.
type Section struct {
	Level   int
	Heading string // whitespace-normalized heading text
	Start   int
	End     int
	Line    int // 1-based line number of the heading, for diagnostics
}

// Normalize trims a heading and collapses internal whitespace runs to
// single spaces, the same way parsed headings are stored.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// headingLine reports whether line is an ATX heading and returns its
// level and normalized text.
func headingLine(line string) (int, string, bool) {
	level := 0
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level == 0 || level > 6 || level == len(line) {
		return 0, "", false
	}
	if line[level] != ' ' && line[level] != '\t' {
		return 0, "", false
	}
	text := Normalize(line[level:])
	if text == "" {
		return 0, "", false
	}
	return level, text, true
}

// Parse scans body and returns its sections in document order. Sections
// are derived fresh on every call; nothing is cached.
func Parse(body string) []Section {
	type headingPos struct {
		level int
		text  string
		start int // offset of the heading line's first byte
		end   int // offset just past the heading line's newline
		line  int
	}

	var heads []headingPos
	offset := 0
	line := 0
	for offset <= len(body) {
		line++
		nl := strings.IndexByte(body[offset:], '\n')
		lineEnd := len(body)
		next := len(body) + 1
		if nl >= 0 {
			lineEnd = offset + nl
			next = lineEnd + 1
		}
		if level, text, ok := headingLine(body[offset:lineEnd]); ok {
			heads = append(heads, headingPos{
				level: level,
				text:  text,
				start: offset,
				end:   min(next, len(body)),
				line:  line,
			})
		}
		offset = next
	}

	sections := make([]Section, 0, len(heads))
	for i, h := range heads {
		end := len(body)
		for _, later := range heads[i+1:] {
			if later.level <= h.level {
				end = later.start
				break
			}
		}
		sections = append(sections, Section{
			Level:   h.level,
			Heading: h.text,
			Start:   h.end,
			End:     end,
			Line:    h.line,
		})
	}
	return sections
}

// Find resolves spec (a heading with # markers, e.g. "## End day") to the
// unique matching section. Zero or multiple matches are reported through
// the typed errors in errors.go so callers can act on the detail.
func Find(sections []Section, spec string) (Section, error) {
	level, text, err := ParseSpec(spec)
	if err != nil {
		return Section{}, err
	}

	var exact []Section
	var otherLevels []Section
	for _, s := range sections {
		if s.Heading != text {
			continue
		}
		if s.Level == level {
			exact = append(exact, s)
		} else {
			otherLevels = append(otherLevels, s)
		}
	}

	switch len(exact) {
	case 0:
		if len(otherLevels) > 0 {
			mismatch := &LevelMismatchError{Text: text, Requested: level}
			for _, s := range otherLevels {
				mismatch.FoundLevels = append(mismatch.FoundLevels, s.Level)
				mismatch.Lines = append(mismatch.Lines, s.Line)
			}
			return Section{}, mismatch
		}
		return Section{}, &NotFoundError{Level: level, Text: text}
	case 1:
		return exact[0], nil
	default:
		amb := &AmbiguousError{Level: level, Text: text, Count: len(exact)}
		for _, s := range exact {
			amb.Lines = append(amb.Lines, s.Line)
		}
		return Section{}, amb
	}
}

// ParseSpec splits a header spec like "## End day" into level and
// normalized text. The # markers are mandatory: without them the caller
// has not specified a level.
func ParseSpec(spec string) (int, string, error) {
	trimmed := strings.TrimSpace(spec)
	if !strings.HasPrefix(trimmed, "#") {
		return 0, "", ErrLevelMissing
	}
	level := 0
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	if level > 6 {
		return 0, "", ErrLevelInvalid
	}
	text := Normalize(trimmed[level:])
	if text == "" {
		return 0, "", ErrTextEmpty
	}
	return level, text, nil
}
