package section

import (
	"errors"
	"fmt"
	"strings"
)

// Header spec errors. These stem from the caller's spec string, not from
// the document being edited.
var (
	ErrLevelMissing = errors.New("section: header level must be specified with # markers (e.g. \"## End day\")")
	ErrLevelInvalid = errors.New("section: header level must be 1-6 (# to ######)")
	ErrTextEmpty    = errors.New("section: header text cannot be empty")
)

// NotFoundError reports that no heading with the requested text exists at
// any level.
type NotFoundError struct {
	Level int
	Text  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("section: no header matching %q found", marker(e.Level)+" "+e.Text)
}

// LevelMismatchError reports that the requested text exists, but only at
// other levels. FoundLevels and Lines are parallel.
type LevelMismatchError struct {
	Text        string
	Requested   int
	FoundLevels []int
	Lines       []int
}

func (e *LevelMismatchError) Error() string {
	found := make([]string, len(e.FoundLevels))
	for i, lvl := range e.FoundLevels {
		found[i] = fmt.Sprintf("%q at line %d", marker(lvl), e.Lines[i])
	}
	return fmt.Sprintf("section: header level mismatch: looking for %q but found %s",
		marker(e.Requested)+" "+e.Text, strings.Join(found, ", "))
}

// AmbiguousError reports that more than one section matches the requested
// level and text exactly. Callers should fall back to a literal-text
// replace for precise targeting.
type AmbiguousError struct {
	Level int
	Text  string
	Count int
	Lines []int
}

func (e *AmbiguousError) Error() string {
	lines := make([]string, len(e.Lines))
	for i, l := range e.Lines {
		lines[i] = fmt.Sprintf("%d", l)
	}
	return fmt.Sprintf("section: found %d headers matching %q at lines %s; use a text replace for precise targeting",
		e.Count, marker(e.Level)+" "+e.Text, strings.Join(lines, ", "))
}

func marker(level int) string {
	return strings.Repeat("#", level)
}
