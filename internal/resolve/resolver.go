// Package resolve turns (node, browse name) pairs into decoded values using
// the three remote primitives: TranslatePath, Read and Browse.
package resolve

import (
	"context"
	"fmt"

	"github.com/agentic-research/pubsubconf/internal/nodespace"
)

// FieldError attaches the name of the field being resolved to an error.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Err.Error() }

func (e *FieldError) Unwrap() error { return e.Err }

// Field wraps err with the field name. A nil err stays nil.
func Field(name string, err error) error {
	if err == nil {
		return nil
	}
	return &FieldError{Field: name, Err: err}
}

// Resolver resolves named children and attributes against an Accessor.
// It holds no mutable state and is safe for concurrent use.
type Resolver struct {
	space nodespace.Accessor
}

// New returns a Resolver over space.
func New(space nodespace.Accessor) *Resolver {
	return &Resolver{space: space}
}

// Accessor returns the underlying node space.
func (r *Resolver) Accessor() nodespace.Accessor {
	return r.space
}

// QNs converts plain names to namespace-0 qualified names.
func QNs(names ...string) []nodespace.QualifiedName {
	out := make([]nodespace.QualifiedName, len(names))
	for i, n := range names {
		out[i] = nodespace.QN(n)
	}
	return out
}

// ChildNode translates a relative path to the single target node.
func (r *Resolver) ChildNode(ctx context.Context, start nodespace.NodeID, path ...nodespace.QualifiedName) (nodespace.NodeID, error) {
	targets, err := r.space.TranslatePath(ctx, start, path)
	if err != nil {
		return nodespace.NodeID{}, err
	}
	if len(targets) == 0 {
		return nodespace.NodeID{}, &PathNotFoundError{Start: start, Path: path}
	}
	return targets[0], nil
}

// ResolveNamedChild translates parent/name and reads the target's Value.
func (r *Resolver) ResolveNamedChild(ctx context.Context, parent nodespace.NodeID, name nodespace.QualifiedName) (any, error) {
	return r.ResolvePath(ctx, parent, name)
}

// ResolvePath is ResolveNamedChild for a multi-segment relative path.
func (r *Resolver) ResolvePath(ctx context.Context, parent nodespace.NodeID, path ...nodespace.QualifiedName) (any, error) {
	target, err := r.ChildNode(ctx, parent, path...)
	if err != nil {
		return nil, err
	}
	return r.ResolveAttribute(ctx, target, nodespace.AttributeValue)
}

// ResolveAttribute reads one attribute of node.
func (r *Resolver) ResolveAttribute(ctx context.Context, node nodespace.NodeID, attr nodespace.AttributeID) (any, error) {
	dv, err := nodespace.ReadOne(ctx, r.space, node, attr)
	if err != nil {
		return nil, err
	}
	if !dv.Status.IsGood() {
		return nil, &ReadFailedError{Node: node, Attribute: attr, Status: dv.Status}
	}
	return dv.Value, nil
}

// ResolveMany resolves several named children of parent with one batched
// Read. Results are in the order of names regardless of the order the
// accessor answers in. The first failure, in input order, is returned as a
// *FieldError naming the child.
func (r *Resolver) ResolveMany(ctx context.Context, parent nodespace.NodeID, names []nodespace.QualifiedName) ([]any, error) {
	nodes := make([]nodespace.NodeID, len(names))
	for i, name := range names {
		id, err := r.ChildNode(ctx, parent, name)
		if err != nil {
			return nil, Field(name.Name, err)
		}
		nodes[i] = id
	}
	values, errs, err := r.ResolveEach(ctx, nodes)
	if err != nil {
		return nil, err
	}
	for i, e := range errs {
		if e != nil {
			return nil, Field(names[i].Name, e)
		}
	}
	return values, nil
}

// ResolveEach reads the Value of every node in one batched Read and reports
// per-node failures separately. The returned error is set only when the
// Read call itself fails.
func (r *Resolver) ResolveEach(ctx context.Context, nodes []nodespace.NodeID) ([]any, []error, error) {
	if len(nodes) == 0 {
		return nil, nil, nil
	}
	reqs := make([]nodespace.ReadRequest, len(nodes))
	for i, id := range nodes {
		reqs[i] = nodespace.ReadRequest{Node: id, Attribute: nodespace.AttributeValue, Handle: uint32(i)}
	}
	results, err := r.space.Read(ctx, reqs)
	if err != nil {
		return nil, nil, err
	}

	values := make([]any, len(nodes))
	errs := make([]error, len(nodes))
	seen := make([]bool, len(nodes))
	for _, res := range results {
		i := int(res.Handle)
		if i >= len(nodes) || seen[i] {
			return nil, nil, fmt.Errorf("read: unexpected result handle %d", res.Handle)
		}
		seen[i] = true
		if !res.Status.IsGood() {
			errs[i] = &ReadFailedError{Node: nodes[i], Attribute: nodespace.AttributeValue, Status: res.Status}
			continue
		}
		values[i] = res.Value
	}
	for i, ok := range seen {
		if !ok {
			errs[i] = &ReadFailedError{Node: nodes[i], Attribute: nodespace.AttributeValue, Status: nodespace.StatusBadUnexpectedError}
		}
	}
	return values, errs, nil
}
