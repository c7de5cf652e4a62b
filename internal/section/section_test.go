package section

import (
	"errors"
	"strings"
	"testing"
)

const sampleBody = "intro\n# Title\nalpha\n## Log\none\n## Log\ntwo\n# Tail\nend\n"

func TestParse_Ranges(t *testing.T) {
	sections := Parse(sampleBody)
	want := []Section{
		{Level: 1, Heading: "Title", Start: 14, End: 42, Line: 2},
		{Level: 2, Heading: "Log", Start: 27, End: 31, Line: 4},
		{Level: 2, Heading: "Log", Start: 38, End: 42, Line: 6},
		{Level: 1, Heading: "Tail", Start: 49, End: 53, Line: 8},
	}
	if len(sections) != len(want) {
		t.Fatalf("got %d sections, want %d: %+v", len(sections), len(want), sections)
	}
	for i, w := range want {
		if sections[i] != w {
			t.Errorf("sections[%d] = %+v, want %+v", i, sections[i], w)
		}
	}
}

func TestParse_HeadingRecognition(t *testing.T) {
	cases := []struct {
		body string
		want int // number of sections
	}{
		{"# ok\n", 1},
		{"###### deep\n", 1},
		{"####### seven\n", 0},    // more than six markers
		{"#nospace\n", 0},         // no whitespace after markers
		{"  # indented\n", 0},     // not at column 0
		{"#\n", 0},                // no text
		{"#   \n", 0},             // whitespace-only text
		{"#\tTabbed text\n", 1},   // tab separator is fine
		{"body\n# last no nl", 1}, // heading at EOF without newline
	}
	for _, c := range cases {
		if got := len(Parse(c.body)); got != c.want {
			t.Errorf("Parse(%q) = %d sections, want %d", c.body, got, c.want)
		}
	}
}

func TestParse_NormalizesWhitespace(t *testing.T) {
	sections := Parse("##   End   day  \ntext\n")
	if len(sections) != 1 {
		t.Fatal("expected one section")
	}
	if sections[0].Heading != "End day" {
		t.Errorf("heading = %q, want %q", sections[0].Heading, "End day")
	}
}

func TestParse_LastSectionRunsToEnd(t *testing.T) {
	body := "# Only\ntail without newline"
	sections := Parse(body)
	if len(sections) != 1 {
		t.Fatal("expected one section")
	}
	if sections[0].End != len(body) {
		t.Errorf("End = %d, want %d", sections[0].End, len(body))
	}
	if body[sections[0].Start:sections[0].End] != "tail without newline" {
		t.Errorf("content = %q", body[sections[0].Start:sections[0].End])
	}
}

func TestFind_Unique(t *testing.T) {
	sections := Parse(sampleBody)
	sec, err := Find(sections, "# Tail")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if sec.Line != 8 {
		t.Errorf("line = %d, want 8", sec.Line)
	}
}

func TestFind_NormalizedSpec(t *testing.T) {
	sections := Parse("##  End   day\ntext\n")
	if _, err := Find(sections, "## End day"); err != nil {
		t.Errorf("normalized spec should match: %v", err)
	}
}

func TestFind_NotFound(t *testing.T) {
	sections := Parse(sampleBody)
	_, err := Find(sections, "## Missing")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("err = %v, want *NotFoundError", err)
	}
	if !strings.Contains(err.Error(), "## Missing") {
		t.Errorf("message should quote the spec: %v", err)
	}
}

func TestFind_LevelMismatch(t *testing.T) {
	sections := Parse(sampleBody)
	_, err := Find(sections, "# Log")
	var lm *LevelMismatchError
	if !errors.As(err, &lm) {
		t.Fatalf("err = %v, want *LevelMismatchError", err)
	}
	if len(lm.FoundLevels) != 2 || lm.FoundLevels[0] != 2 || lm.FoundLevels[1] != 2 {
		t.Errorf("FoundLevels = %v", lm.FoundLevels)
	}
	if len(lm.Lines) != 2 || lm.Lines[0] != 4 || lm.Lines[1] != 6 {
		t.Errorf("Lines = %v", lm.Lines)
	}
}

func TestFind_Ambiguous(t *testing.T) {
	sections := Parse(sampleBody)
	_, err := Find(sections, "## Log")
	var amb *AmbiguousError
	if !errors.As(err, &amb) {
		t.Fatalf("err = %v, want *AmbiguousError", err)
	}
	if amb.Count != 2 {
		t.Errorf("Count = %d, want 2", amb.Count)
	}
	if len(amb.Lines) != 2 || amb.Lines[0] != 4 || amb.Lines[1] != 6 {
		t.Errorf("Lines = %v", amb.Lines)
	}
}

func TestParseSpec(t *testing.T) {
	level, text, err := ParseSpec("  ## End   day ")
	if err != nil {
		t.Fatalf("ParseSpec: %v", err)
	}
	if level != 2 || text != "End day" {
		t.Errorf("got (%d, %q)", level, text)
	}

	if _, _, err := ParseSpec("End day"); !errors.Is(err, ErrLevelMissing) {
		t.Errorf("missing markers: err = %v", err)
	}
	if _, _, err := ParseSpec("####### Seven"); !errors.Is(err, ErrLevelInvalid) {
		t.Errorf("seven markers: err = %v", err)
	}
	if _, _, err := ParseSpec("##   "); !errors.Is(err, ErrTextEmpty) {
		t.Errorf("empty text: err = %v", err)
	}
}
