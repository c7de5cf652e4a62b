// Package frontmatter parses, merges, and serializes the YAML metadata
// block delimited by --- fences at the top of a Markdown note. Key order
// is preserved so that edits never reshuffle a note's properties.
package frontmatter

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const fence = "---\n"

// ParseError reports malformed YAML inside a detected frontmatter fence.
// A missing or non-mapping fence is not an error; broken YAML is.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("frontmatter: invalid YAML: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse splits raw note bytes into an ordered frontmatter mapping and the
// body. When there is no leading fence, no closing fence, or the fenced
// content is not a mapping, the frontmatter is nil and the entire input is
// the body. Malformed YAML inside a detected fence returns a *ParseError.
func Parse(raw []byte) (*Map, string, error) {
	s := string(raw)
	if !strings.HasPrefix(s, fence) {
		return nil, s, nil
	}

	rest := s[len(fence):]
	idx := strings.Index(rest, "\n---\n")
	if idx < 0 {
		return nil, s, nil
	}
	block := rest[:idx+1]
	body := rest[idx+len("\n---\n"):]

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(block), &doc); err != nil {
		return nil, "", &ParseError{Err: err}
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, s, nil
	}

	root := doc.Content[0]
	m := NewMap()
	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode := root.Content[i]
		v, err := fromNode(root.Content[i+1])
		if err != nil {
			return nil, "", &ParseError{Err: err}
		}
		m.Set(keyNode.Value, v)
	}
	return m, body, nil
}

// Merge applies removals, then updates, to existing and returns a new Map.
// Removals of absent keys are no-ops. Updated keys keep their original
// position; keys new to existing are appended in updates' order. Neither
// input is mutated, and Merge is idempotent for fixed updates and removals.
func Merge(existing, updates *Map, removals []string) *Map {
	out := existing.Clone()
	for _, key := range removals {
		out.Delete(key)
	}
	updates.Each(func(k string, v Value) {
		out.Set(k, v)
	})
	return out
}

// Serialize re-assembles a note from its frontmatter and body. An empty
// mapping produces the bare body with no fence. The body is emitted
// byte-for-byte, so Serialize(Parse(raw)) == raw whenever the source
// frontmatter is in the encoder's canonical form.
func Serialize(fm *Map, body string) []byte {
	if fm.Len() == 0 {
		return []byte(body)
	}

	root := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	fm.Each(func(k string, v Value) {
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			v.node(),
		)
	})

	var buf bytes.Buffer
	buf.WriteString(fence)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	// Encoding a pre-built node cannot fail; the tree holds scalars and
	// sequences only.
	_ = enc.Encode(root)
	_ = enc.Close()
	buf.WriteString("---\n")
	buf.WriteString(body)
	return buf.Bytes()
}
