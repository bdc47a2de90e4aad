// Package nodespace models the remote node space a PubSub configuration is
// reconstructed from, and provides offline backends for it.
//
// The synthesizer only ever talks to an Accessor: Browse, Read and
// TranslatePath. A live client session satisfies it in production; Memory
// and SQLiteSpace satisfy it for tests and captured snapshots.
package nodespace

import (
	"context"
	"errors"
	"fmt"
)

var ErrNodeUnknown = errors.New("node not found")

// NodeClass is the OPC UA node class of a browse target. Zero means the
// class was not recorded, as in captures taken before it was stored.
type NodeClass uint32

const (
	NodeClassUnspecified NodeClass = 0
	NodeClassObject      NodeClass = 1
	NodeClassVariable    NodeClass = 2
	NodeClassMethod      NodeClass = 4
)

func (c NodeClass) String() string {
	switch c {
	case NodeClassUnspecified:
		return "Unspecified"
	case NodeClassObject:
		return "Object"
	case NodeClassVariable:
		return "Variable"
	case NodeClassMethod:
		return "Method"
	default:
		return fmt.Sprintf("NodeClass(%d)", uint32(c))
	}
}

// Reference is one typed edge returned by Browse.
type Reference struct {
	NodeID         NodeID
	BrowseName     QualifiedName
	DisplayName    string
	NodeClass      NodeClass
	TypeDefinition NodeID
}

// MaybeVariable reports whether the target can carry a Value. Targets of
// unrecorded class are given the benefit of the doubt.
func (r Reference) MaybeVariable() bool {
	return r.NodeClass == NodeClassVariable || r.NodeClass == NodeClassUnspecified
}

// Accessor is the connected endpoint the core consumes.
type Accessor interface {
	// Browse lists the forward hierarchical references of a node.
	// An empty result means the node has no children; it is not an error.
	Browse(ctx context.Context, id NodeID) ([]Reference, error)
	// Read returns one result per request. Results carry the request Handle;
	// callers must not rely on result order.
	Read(ctx context.Context, reqs []ReadRequest) ([]ReadResult, error)
	// TranslatePath resolves a relative browse-name path. Zero targets means
	// the path does not exist.
	TranslatePath(ctx context.Context, start NodeID, path []QualifiedName) ([]NodeID, error)
}

// ReadOne is the single-value form of Accessor.Read.
func ReadOne(ctx context.Context, a Accessor, id NodeID, attr AttributeID) (DataValue, error) {
	results, err := a.Read(ctx, []ReadRequest{{Node: id, Attribute: attr}})
	if err != nil {
		return DataValue{}, err
	}
	if len(results) != 1 {
		return DataValue{}, fmt.Errorf("read %s.%s: got %d results, want 1", id, attr, len(results))
	}
	return results[0].DataValue, nil
}
