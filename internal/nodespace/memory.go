package nodespace

import (
	"context"
	"fmt"
	"sync"

	"github.com/RoaringBitmap/roaring"
)

// Node is one node held by a Memory space.
type Node struct {
	ID             NodeID
	BrowseName     QualifiedName
	DisplayName    string
	NodeClass      NodeClass
	TypeDefinition NodeID    // null for variables without a modelled type
	DataType       NodeID    // data type of Value (variables only)
	Value          DataValue // Value attribute (variables only)
	Children       []NodeID  // forward hierarchical references, in browse order
}

// Memory is an in-memory Accessor.
// It also keeps a type-definition index so callers can enumerate all nodes
// of a given type without walking the tree.
type Memory struct {
	mu    sync.RWMutex
	nodes map[NodeID]*Node
	roots []NodeID

	// Roaring bitmap index: type definition → set of internal node ids.
	byType      map[NodeID]*roaring.Bitmap
	nodeIntID   map[NodeID]uint32
	intToNodeID []NodeID
	nextIntID   uint32

	// Allocator for Object/Variable helpers.
	allocNS   uint16
	nextAlloc uint32
}

// NewMemory returns an empty space. Helper-allocated ids live in namespace 1.
func NewMemory() *Memory {
	return &Memory{
		nodes:     make(map[NodeID]*Node),
		byType:    make(map[NodeID]*roaring.Bitmap),
		nodeIntID: make(map[NodeID]uint32),
		allocNS:   1,
		nextAlloc: 1000,
	}
}

// AddRoot registers a node as a top-level root and adds it to the space.
func (m *Memory) AddRoot(n *Node) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putLocked(n)
	for _, r := range m.roots {
		if r == n.ID {
			return
		}
	}
	m.roots = append(m.roots, n.ID)
}

// AddNode adds or replaces a node.
func (m *Memory) AddNode(n *Node) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putLocked(n)
}

// putLocked stores n and indexes it by type definition.
// Must be called with m.mu held.
func (m *Memory) putLocked(n *Node) {
	if old, ok := m.nodes[n.ID]; ok && old.TypeDefinition != n.TypeDefinition {
		if bm, ok := m.byType[old.TypeDefinition]; ok {
			bm.Remove(m.nodeIntID[n.ID])
		}
	}
	m.nodes[n.ID] = n

	intID, ok := m.nodeIntID[n.ID]
	if !ok {
		intID = m.nextIntID
		m.nextIntID++
		m.nodeIntID[n.ID] = intID
		m.intToNodeID = append(m.intToNodeID, n.ID)
	}
	if n.TypeDefinition.IsNull() {
		return
	}
	bm, exists := m.byType[n.TypeDefinition]
	if !exists {
		bm = roaring.New()
		m.byType[n.TypeDefinition] = bm
	}
	bm.Add(intID)
}

// Link appends child to parent's forward references.
func (m *Memory) Link(parent, child NodeID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.nodes[parent]
	if !ok {
		return fmt.Errorf("link %s: %w", parent, ErrNodeUnknown)
	}
	if _, ok := m.nodes[child]; !ok {
		return fmt.Errorf("link %s: %w", child, ErrNodeUnknown)
	}
	p.Children = append(p.Children, child)
	return nil
}

// GetNode returns the stored node.
func (m *Memory) GetNode(id NodeID) (*Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrNodeUnknown)
	}
	return n, nil
}

// Roots returns the registered roots in insertion order.
func (m *Memory) Roots() []NodeID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]NodeID(nil), m.roots...)
}

// Nodes returns every node in insertion order.
func (m *Memory) Nodes() []*Node {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Node, 0, len(m.intToNodeID))
	for _, id := range m.intToNodeID {
		if n, ok := m.nodes[id]; ok {
			out = append(out, n)
		}
	}
	return out
}

// OfType returns all nodes with the given type definition, in insertion order.
func (m *Memory) OfType(typeDef NodeID) []NodeID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	bm, ok := m.byType[typeDef]
	if !ok {
		return nil
	}
	out := make([]NodeID, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		out = append(out, m.intToNodeID[it.Next()])
	}
	return out
}

// CountByType returns the number of nodes per type definition.
func (m *Memory) CountByType() map[NodeID]uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[NodeID]uint64, len(m.byType))
	for td, bm := range m.byType {
		if n := bm.GetCardinality(); n > 0 {
			counts[td] = n
		}
	}
	return counts
}

// Object allocates a new object node under parent and returns its id.
// A null parent registers the node as a root.
func (m *Memory) Object(parent NodeID, name string, typeDef NodeID) NodeID {
	return m.add(parent, &Node{
		BrowseName:     ParseQualifiedName(name),
		DisplayName:    ParseQualifiedName(name).Name,
		NodeClass:      NodeClassObject,
		TypeDefinition: typeDef,
	})
}

// Method allocates a new method node under parent. Methods have no value;
// they only show up in Browse results.
func (m *Memory) Method(parent NodeID, name string) NodeID {
	return m.add(parent, &Node{
		BrowseName:  ParseQualifiedName(name),
		DisplayName: ParseQualifiedName(name).Name,
		NodeClass:   NodeClassMethod,
	})
}

// Variable allocates a new variable node with a Good value under parent.
func (m *Memory) Variable(parent NodeID, name string, value any) NodeID {
	return m.add(parent, &Node{
		BrowseName:  ParseQualifiedName(name),
		DisplayName: ParseQualifiedName(name).Name,
		NodeClass:   NodeClassVariable,
		Value:       DataValue{Value: value},
	})
}

// SetStatus overrides the status of a node's Value attribute.
func (m *Memory) SetStatus(id NodeID, status StatusCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.nodes[id]
	if !ok {
		return fmt.Errorf("%s: %w", id, ErrNodeUnknown)
	}
	n.Value.Status = status
	return nil
}

func (m *Memory) add(parent NodeID, n *Node) NodeID {
	m.mu.Lock()
	n.ID = Numeric(m.allocNS, m.nextAlloc)
	m.nextAlloc++
	m.mu.Unlock()

	if parent.IsNull() {
		m.AddRoot(n)
		return n.ID
	}
	m.AddNode(n)
	if err := m.Link(parent, n.ID); err != nil {
		panic(err)
	}
	return n.ID
}

// Browse implements Accessor.
func (m *Memory) Browse(ctx context.Context, id NodeID) ([]Reference, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.nodes[id]
	if !ok {
		return nil, fmt.Errorf("browse %s: %w", id, ErrNodeUnknown)
	}
	refs := make([]Reference, 0, len(n.Children))
	for _, cid := range n.Children {
		c, ok := m.nodes[cid]
		if !ok {
			continue
		}
		refs = append(refs, Reference{
			NodeID:         c.ID,
			BrowseName:     c.BrowseName,
			DisplayName:    c.DisplayName,
			NodeClass:      c.NodeClass,
			TypeDefinition: c.TypeDefinition,
		})
	}
	return refs, nil
}

// Read implements Accessor. Results are returned in request order.
func (m *Memory) Read(ctx context.Context, reqs []ReadRequest) ([]ReadResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ReadResult, len(reqs))
	for i, req := range reqs {
		out[i] = ReadResult{Handle: req.Handle, DataValue: m.readLocked(req)}
	}
	return out, nil
}

func (m *Memory) readLocked(req ReadRequest) DataValue {
	n, ok := m.nodes[req.Node]
	if !ok {
		return DataValue{Status: StatusBadNodeIDUnknown}
	}
	switch req.Attribute {
	case AttributeNodeID:
		return DataValue{Value: n.ID}
	case AttributeBrowseName:
		return DataValue{Value: n.BrowseName}
	case AttributeDisplayName:
		return DataValue{Value: n.DisplayName}
	case AttributeValue:
		return n.Value
	case AttributeDataType:
		return DataValue{Value: n.DataType}
	default:
		return DataValue{Status: StatusBadAttributeIDInvalid}
	}
}

// TranslatePath implements Accessor. Each segment matches the first child
// with that browse name, so the result has at most one target.
func (m *Memory) TranslatePath(ctx context.Context, start NodeID, path []QualifiedName) ([]NodeID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	cur, ok := m.nodes[start]
	if !ok {
		return nil, fmt.Errorf("translate from %s: %w", start, ErrNodeUnknown)
	}
	for _, seg := range path {
		var next *Node
		for _, cid := range cur.Children {
			if c, ok := m.nodes[cid]; ok && c.BrowseName == seg {
				next = c
				break
			}
		}
		if next == nil {
			return nil, nil
		}
		cur = next
	}
	return []NodeID{cur.ID}, nil
}
