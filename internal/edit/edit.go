// Package edit applies deterministic text mutations to a note body.
// Every operation is a pure function from (body, parameters) to a new
// body: an edit either fully succeeds or returns an error with the input
// left untouched. Targets are literal substrings, never patterns.
package edit

import (
	"fmt"
	"strings"

	"github.com/starford/ansuz/internal/section"
)

// TargetNotFoundError reports that the literal target substring does not
// occur in the body.
type TargetNotFoundError struct {
	Target string
}

func (e *TargetNotFoundError) Error() string {
	return fmt.Sprintf("edit: target text %q not found", e.Target)
}

// DecodeNewlines converts escaped \n sequences into real newlines.
// Callers pass replacement and append payloads through JSON or CLI
// arguments where literal newlines are awkward to type.
func DecodeNewlines(text string) string {
	return strings.ReplaceAll(text, `\n`, "\n")
}

// InsertAfter inserts content immediately after the first occurrence of
// target. With newlineBefore, a single newline separates the anchor from
// the content unless the boundary already has one.
func InsertAfter(body, target, content string, newlineBefore bool) (string, error) {
	idx := strings.Index(body, target)
	if idx < 0 {
		return "", &TargetNotFoundError{Target: target}
	}
	at := idx + len(target)
	sep := ""
	if newlineBefore && !strings.HasSuffix(body[:at], "\n") && !strings.HasPrefix(content, "\n") {
		sep = "\n"
	}
	return body[:at] + sep + content + body[at:], nil
}

// InsertBefore inserts content immediately before the first occurrence of
// target. With newlineBefore, a single newline separates the content from
// the anchor unless the boundary already has one.
func InsertBefore(body, target, content string, newlineBefore bool) (string, error) {
	idx := strings.Index(body, target)
	if idx < 0 {
		return "", &TargetNotFoundError{Target: target}
	}
	sep := ""
	if newlineBefore && !strings.HasSuffix(content, "\n") && !strings.HasPrefix(body[idx:], "\n") {
		sep = "\n"
	}
	return body[:idx] + content + sep + body[idx:], nil
}

// Replace substitutes occurrences of target with replacement. With
// replaceAll every non-overlapping occurrence is replaced left to right;
// otherwise only the first. Escaped \n sequences in the replacement are
// decoded first. Zero occurrences is an error either way.
func Replace(body, target, replacement string, replaceAll bool) (string, error) {
	if !strings.Contains(body, target) {
		return "", &TargetNotFoundError{Target: target}
	}
	decoded := DecodeNewlines(replacement)
	if replaceAll {
		return strings.ReplaceAll(body, target, decoded), nil
	}
	return strings.Replace(body, target, decoded, 1), nil
}

// AppendToSection inserts text at the end of the section identified by
// header (a spec with # markers, resolved through the section locator).
// The text lands immediately before the next heading of the same or
// higher level, or at end of document, separated from the section's
// trailing content by exactly one newline. Escaped \n sequences in text
// are decoded first.
func AppendToSection(body, header, text string) (string, error) {
	sections := section.Parse(body)
	sec, err := section.Find(sections, header)
	if err != nil {
		return "", err
	}

	decoded := DecodeNewlines(text)
	at := sec.End

	sep := ""
	if at > 0 && body[at-1] != '\n' {
		sep = "\n"
	}
	// Keep the following heading at the start of its line.
	tail := ""
	if at < len(body) && !strings.HasSuffix(decoded, "\n") {
		tail = "\n"
	}
	return body[:at] + sep + decoded + tail + body[at:], nil
}
