package nodespace

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// snapshotFile is the JSON dump format of a captured node space.
type snapshotFile struct {
	Roots []NodeID         `json:"Roots"`
	Nodes []snapshotRecord `json:"Nodes"`
}

type snapshotRecord struct {
	NodeID         NodeID          `json:"NodeId"`
	BrowseName     QualifiedName   `json:"BrowseName"`
	DisplayName    string          `json:"DisplayName,omitempty"`
	NodeClass      NodeClass       `json:"NodeClass,omitempty"`
	TypeDefinition NodeID          `json:"TypeDefinition,omitempty"`
	DataType       NodeID          `json:"DataType,omitempty"`
	Value          json.RawMessage `json:"Value,omitempty"`
	Status         StatusCode      `json:"Status,omitempty"`
	References     []NodeID        `json:"References,omitempty"`
}

// ReadSnapshot parses a JSON dump into a Memory space.
func ReadSnapshot(r io.Reader) (*Memory, error) {
	var f snapshotFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	m := NewMemory()
	isRoot := make(map[NodeID]bool, len(f.Roots))
	for _, id := range f.Roots {
		isRoot[id] = true
	}
	for _, rec := range f.Nodes {
		value, err := DecodeValue(rec.Value)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", rec.NodeID, err)
		}
		n := &Node{
			ID:             rec.NodeID,
			BrowseName:     rec.BrowseName,
			DisplayName:    rec.DisplayName,
			NodeClass:      rec.NodeClass,
			TypeDefinition: rec.TypeDefinition,
			DataType:       rec.DataType,
			Value:          DataValue{Value: value, Status: rec.Status},
			Children:       append([]NodeID(nil), rec.References...),
		}
		if isRoot[n.ID] {
			m.AddRoot(n)
		} else {
			m.AddNode(n)
		}
	}
	return m, nil
}

// WriteSnapshot dumps every node of m as JSON.
func WriteSnapshot(w io.Writer, m *Memory) error {
	f := snapshotFile{Roots: m.Roots()}
	for _, n := range m.Nodes() {
		raw, err := EncodeValue(n.Value.Value)
		if err != nil {
			return fmt.Errorf("node %s: %w", n.ID, err)
		}
		f.Nodes = append(f.Nodes, snapshotRecord{
			NodeID:         n.ID,
			BrowseName:     n.BrowseName,
			DisplayName:    n.DisplayName,
			NodeClass:      n.NodeClass,
			TypeDefinition: n.TypeDefinition,
			DataType:       n.DataType,
			Value:          raw,
			Status:         n.Value.Status,
			References:     n.Children,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(f)
}

// LoadFile loads a snapshot into memory, choosing the format by extension:
// ".db" is a SQLite capture, anything else is a JSON dump.
func LoadFile(path string) (*Memory, error) {
	if filepath.Ext(path) == ".db" {
		return LoadSQLite(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return ReadSnapshot(f)
}

// SaveFile writes m to path, choosing the format by extension like LoadFile.
func SaveFile(path string, m *Memory) error {
	if filepath.Ext(path) == ".db" {
		_ = os.Remove(path) // overwrite
		w, err := NewSQLiteWriter(path)
		if err != nil {
			return err
		}
		if err := w.WriteMemory(m); err != nil {
			_ = w.Close()
			return err
		}
		return w.Close()
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteSnapshot(f, m); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
