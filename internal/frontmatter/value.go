package frontmatter

import (
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Kind discriminates the variants of a frontmatter Value.
type Kind uint8

// Value kinds. The set is closed: every consumer switches exhaustively,
// so a wrong-shaped value (e.g. tags stored as a number) is an ordinary
// branch rather than a surprise.
const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindSequence
)

// Value is a single frontmatter value: a scalar or a sequence of values.
// Nested mappings are not part of the model and are rejected at parse time.
type Value struct {
	Kind Kind
	Str  string
	Num  float64
	Bool bool
	Seq  []Value

	// Original scalar text and style, kept so re-serialization reproduces
	// the source file byte-for-byte.
	raw   string
	style yaml.Style
}

// String constructs a string Value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Number constructs a numeric Value.
func Number(f float64) Value { return Value{Kind: KindNumber, Num: f} }

// Bool constructs a boolean Value.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// Null constructs a null Value.
func Null() Value { return Value{Kind: KindNull} }

// Sequence constructs a sequence Value.
func Sequence(items ...Value) Value { return Value{Kind: KindSequence, Seq: items} }

// AsString returns the string payload and whether the value is a string.
func (v Value) AsString() (string, bool) {
	return v.Str, v.Kind == KindString
}

// Strings returns the value as a list of strings: a string sequence yields
// its elements, a single string yields itself, anything else yields nil.
func (v Value) Strings() []string {
	switch v.Kind {
	case KindString:
		return []string{v.Str}
	case KindSequence:
		var out []string
		for _, item := range v.Seq {
			if s, ok := item.AsString(); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// fromNode converts a yaml.v3 node into a Value.
func fromNode(n *yaml.Node) (Value, error) {
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	switch n.Kind {
	case yaml.ScalarNode:
		return fromScalar(n)
	case yaml.SequenceNode:
		seq := make([]Value, 0, len(n.Content))
		for _, c := range n.Content {
			item, err := fromNode(c)
			if err != nil {
				return Value{}, err
			}
			seq = append(seq, item)
		}
		return Value{Kind: KindSequence, Seq: seq, style: n.Style}, nil
	case yaml.MappingNode:
		return Value{}, fmt.Errorf("nested mappings are not supported (line %d)", n.Line)
	default:
		return Value{}, fmt.Errorf("unsupported YAML node kind %v (line %d)", n.Kind, n.Line)
	}
}

func fromScalar(n *yaml.Node) (Value, error) {
	v := Value{raw: n.Value, style: n.Style}
	switch n.ShortTag() {
	case "!!null":
		v.Kind = KindNull
	case "!!bool":
		b, err := strconv.ParseBool(n.Value)
		if err != nil {
			// YAML also admits yes/no/on/off spellings.
			b = n.Value == "yes" || n.Value == "on" || n.Value == "Yes" || n.Value == "On"
		}
		v.Kind = KindBool
		v.Bool = b
	case "!!int", "!!float":
		f, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			// Non-decimal int forms (0x..., 0o...) fall back to string.
			v.Kind = KindString
			v.Str = n.Value
			return v, nil
		}
		v.Kind = KindNumber
		v.Num = f
	default:
		v.Kind = KindString
		v.Str = n.Value
	}
	return v, nil
}

// node converts a Value back into a yaml.v3 node, reusing the original
// scalar text where available.
func (v Value) node() *yaml.Node {
	n := &yaml.Node{Kind: yaml.ScalarNode, Style: v.style}
	switch v.Kind {
	case KindNull:
		n.Tag = "!!null"
		n.Value = v.raw
		if n.Value == "" {
			n.Value = "null"
		}
	case KindString:
		n.Tag = "!!str"
		n.Value = v.Str
	case KindBool:
		n.Tag = "!!bool"
		n.Value = v.raw
		if n.Value == "" {
			n.Value = strconv.FormatBool(v.Bool)
		}
	case KindNumber:
		n.Value = v.raw
		if n.Value == "" {
			n.Value = strconv.FormatFloat(v.Num, 'f', -1, 64)
		}
		if f, err := strconv.ParseFloat(n.Value, 64); err == nil && f == float64(int64(f)) && !isFloatForm(n.Value) {
			n.Tag = "!!int"
		} else {
			n.Tag = "!!float"
		}
	case KindSequence:
		n.Kind = yaml.SequenceNode
		n.Tag = "!!seq"
		n.Style = v.style
		for _, item := range v.Seq {
			n.Content = append(n.Content, item.node())
		}
	}
	return n
}

func isFloatForm(s string) bool {
	for _, c := range s {
		if c == '.' || c == 'e' || c == 'E' {
			return true
		}
	}
	return false
}

// FromGo converts a decoded JSON value (string, bool, number, nil, or a
// slice of those) into a Value. Maps are rejected: the frontmatter model
// holds scalars and sequences only.
func FromGo(v any) (Value, error) {
	switch t := v.(type) {
	case nil:
		return Null(), nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("invalid number %q", t.String())
		}
		return Value{Kind: KindNumber, Num: f, raw: t.String()}, nil
	case float64:
		return Number(t), nil
	case int:
		return Value{Kind: KindNumber, Num: float64(t), raw: strconv.Itoa(t)}, nil
	case int64:
		return Value{Kind: KindNumber, Num: float64(t), raw: strconv.FormatInt(t, 10)}, nil
	case []any:
		seq := make([]Value, 0, len(t))
		for _, item := range t {
			iv, err := FromGo(item)
			if err != nil {
				return Value{}, err
			}
			seq = append(seq, iv)
		}
		return Value{Kind: KindSequence, Seq: seq}, nil
	case []string:
		seq := make([]Value, 0, len(t))
		for _, s := range t {
			seq = append(seq, String(s))
		}
		return Value{Kind: KindSequence, Seq: seq}, nil
	default:
		return Value{}, fmt.Errorf("unsupported property type %T", v)
	}
}

// MarshalJSON renders the value as its natural JSON shape.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNull:
		return []byte("null"), nil
	case KindString:
		return json.Marshal(v.Str)
	case KindBool:
		return json.Marshal(v.Bool)
	case KindNumber:
		if v.raw != "" {
			if _, err := strconv.ParseFloat(v.raw, 64); err == nil {
				return []byte(v.raw), nil
			}
		}
		return json.Marshal(v.Num)
	case KindSequence:
		items := v.Seq
		if items == nil {
			items = []Value{}
		}
		return json.Marshal(items)
	default:
		return nil, fmt.Errorf("unknown value kind %d", v.Kind)
	}
}
