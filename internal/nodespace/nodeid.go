package nodespace

import (
	"fmt"
	"strconv"
	"strings"
)

// IDType distinguishes numeric from string node identifiers.
type IDType uint8

const (
	IDNumeric IDType = iota
	IDString
)

// NodeID identifies a node in the remote node space.
// The zero value is the null node id (ns=0;i=0).
type NodeID struct {
	Namespace uint16
	Type      IDType
	Numeric   uint32
	Str       string
}

// Numeric builds a numeric node id.
func Numeric(ns uint16, id uint32) NodeID {
	return NodeID{Namespace: ns, Type: IDNumeric, Numeric: id}
}

// StringID builds a string node id.
func StringID(ns uint16, id string) NodeID {
	return NodeID{Namespace: ns, Type: IDString, Str: id}
}

// IsNull reports whether n is the null node id.
func (n NodeID) IsNull() bool {
	return n.Namespace == 0 && n.Type == IDNumeric && n.Numeric == 0
}

// String renders the canonical text form, eliding ns=0.
func (n NodeID) String() string {
	var b strings.Builder
	if n.Namespace != 0 {
		b.WriteString("ns=")
		b.WriteString(strconv.FormatUint(uint64(n.Namespace), 10))
		b.WriteByte(';')
	}
	switch n.Type {
	case IDString:
		b.WriteString("s=")
		b.WriteString(n.Str)
	default:
		b.WriteString("i=")
		b.WriteString(strconv.FormatUint(uint64(n.Numeric), 10))
	}
	return b.String()
}

// ParseNodeID parses "ns=<n>;i=<num>", "ns=<n>;s=<str>", "i=<num>" or "s=<str>".
func ParseNodeID(s string) (NodeID, error) {
	var id NodeID
	rest := strings.TrimSpace(s)
	if strings.HasPrefix(rest, "ns=") {
		semi := strings.IndexByte(rest, ';')
		if semi < 0 {
			return NodeID{}, fmt.Errorf("invalid node id %q: missing ';' after namespace", s)
		}
		ns, err := strconv.ParseUint(rest[3:semi], 10, 16)
		if err != nil {
			return NodeID{}, fmt.Errorf("invalid node id %q: namespace: %w", s, err)
		}
		id.Namespace = uint16(ns)
		rest = rest[semi+1:]
	}
	switch {
	case strings.HasPrefix(rest, "i="):
		v, err := strconv.ParseUint(rest[2:], 10, 32)
		if err != nil {
			return NodeID{}, fmt.Errorf("invalid node id %q: identifier: %w", s, err)
		}
		id.Type = IDNumeric
		id.Numeric = uint32(v)
	case strings.HasPrefix(rest, "s="):
		id.Type = IDString
		id.Str = rest[2:]
	default:
		return NodeID{}, fmt.Errorf("invalid node id %q: unsupported identifier type", s)
	}
	return id, nil
}

// MustParseNodeID is ParseNodeID for constants and tests. It panics on error.
func MustParseNodeID(s string) NodeID {
	id, err := ParseNodeID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// MarshalText implements encoding.TextMarshaler.
func (n NodeID) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (n *NodeID) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*n = NodeID{}
		return nil
	}
	id, err := ParseNodeID(string(b))
	if err != nil {
		return err
	}
	*n = id
	return nil
}

// QualifiedName is a namespace-qualified browse name.
type QualifiedName struct {
	Namespace uint16
	Name      string
}

// QN returns a namespace-0 qualified name. All PubSub standard browse names live there.
func QN(name string) QualifiedName {
	return QualifiedName{Name: name}
}

// String renders "<ns>:<name>", or just the name for namespace 0.
func (q QualifiedName) String() string {
	if q.Namespace == 0 {
		return q.Name
	}
	return strconv.FormatUint(uint64(q.Namespace), 10) + ":" + q.Name
}

// ParseQualifiedName parses "<ns>:<name>" or a bare name.
func ParseQualifiedName(s string) QualifiedName {
	if i := strings.IndexByte(s, ':'); i > 0 {
		if ns, err := strconv.ParseUint(s[:i], 10, 16); err == nil {
			return QualifiedName{Namespace: uint16(ns), Name: s[i+1:]}
		}
	}
	return QualifiedName{Name: s}
}

// MarshalText implements encoding.TextMarshaler.
func (q QualifiedName) MarshalText() ([]byte, error) {
	return []byte(q.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (q *QualifiedName) UnmarshalText(b []byte) error {
	*q = ParseQualifiedName(string(b))
	return nil
}
