package edit

import "fmt"

// OpKind discriminates Operation variants.
type OpKind uint8

const (
	OpInsertAfter OpKind = iota
	OpInsertBefore
	OpReplace
	OpAppendSection
)

// Operation is a tagged edit request. Target is a literal substring for
// the insert and replace variants and a header spec (with # markers) for
// OpAppendSection.
type Operation struct {
	Kind          OpKind
	Target        string
	Content       string
	NewlineBefore bool // insert variants only
	ReplaceAll    bool // OpReplace only
}

// Apply runs the operation against body and returns the new body.
func (op Operation) Apply(body string) (string, error) {
	switch op.Kind {
	case OpInsertAfter:
		return InsertAfter(body, op.Target, op.Content, op.NewlineBefore)
	case OpInsertBefore:
		return InsertBefore(body, op.Target, op.Content, op.NewlineBefore)
	case OpReplace:
		return Replace(body, op.Target, op.Content, op.ReplaceAll)
	case OpAppendSection:
		return AppendToSection(body, op.Target, op.Content)
	default:
		return "", fmt.Errorf("edit: unknown operation kind %d", op.Kind)
	}
}
