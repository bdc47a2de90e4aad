package resolve

import (
	"errors"
	"fmt"
	"strings"

	"github.com/agentic-research/pubsubconf/internal/nodespace"
)

var (
	ErrPathNotFound   = errors.New("path not found")
	ErrReadFailed     = errors.New("read failed")
	ErrMalformedValue = errors.New("malformed nested value")
)

// PathNotFoundError reports a TranslatePath with no target.
type PathNotFoundError struct {
	Start nodespace.NodeID
	Path  []nodespace.QualifiedName
}

func (e *PathNotFoundError) Error() string {
	return fmt.Sprintf("%s/%s: %v", e.Start, joinPath(e.Path), ErrPathNotFound)
}

func (e *PathNotFoundError) Is(target error) bool { return target == ErrPathNotFound }

// ReadFailedError reports a Read whose value status was not Good.
type ReadFailedError struct {
	Node      nodespace.NodeID
	Attribute nodespace.AttributeID
	Status    nodespace.StatusCode
}

func (e *ReadFailedError) Error() string {
	return fmt.Sprintf("%s.%s: %v: %s", e.Node, e.Attribute, ErrReadFailed, e.Status)
}

func (e *ReadFailedError) Is(target error) bool { return target == ErrReadFailed }

// MalformedValueError reports a value that does not have the expected shape.
type MalformedValueError struct {
	Shape string // expected shape, e.g. "UInt16" or "DataSetMetaDataType"
	Got   string // what arrived instead
}

func (e *MalformedValueError) Error() string {
	return fmt.Sprintf("%v: want %s, got %s", ErrMalformedValue, e.Shape, e.Got)
}

func (e *MalformedValueError) Is(target error) bool { return target == ErrMalformedValue }

// ElementError reports a bad element of an otherwise usable array.
type ElementError struct {
	Index int
	Err   error
}

func (e *ElementError) Error() string { return fmt.Sprintf("[%d]: %v", e.Index, e.Err) }

func (e *ElementError) Unwrap() error { return e.Err }

func malformed(shape string, v any) error {
	got := fmt.Sprintf("%T", v)
	if eo, ok := v.(nodespace.ExtensionObject); ok {
		got = nodespace.TypeName(eo.TypeID)
	}
	return &MalformedValueError{Shape: shape, Got: got}
}

func joinPath(path []nodespace.QualifiedName) string {
	parts := make([]string, len(path))
	for i, q := range path {
		parts[i] = q.String()
	}
	return strings.Join(parts, "/")
}
