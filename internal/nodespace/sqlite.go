package nodespace

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS nodes (
	id TEXT PRIMARY KEY,
	seq INTEGER NOT NULL,
	browse_ns INTEGER NOT NULL,
	browse_name TEXT NOT NULL,
	display_name TEXT NOT NULL DEFAULT '',
	node_class INTEGER NOT NULL DEFAULT 0,
	type_def TEXT NOT NULL DEFAULT '',
	data_type TEXT NOT NULL DEFAULT '',
	value JSON,
	status INTEGER NOT NULL DEFAULT 0,
	is_root INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS refs (
	parent_id TEXT NOT NULL,
	ord INTEGER NOT NULL,
	child_id TEXT NOT NULL,
	PRIMARY KEY (parent_id, ord)
) WITHOUT ROWID;
CREATE INDEX IF NOT EXISTS idx_nodes_browse ON nodes(browse_ns, browse_name);
`

// SQLiteSpace implements Accessor by querying a captured node space directly.
// The database is opened read-only; captures are immutable.
type SQLiteSpace struct {
	db *sql.DB
}

// OpenSQLiteSpace opens a capture written by SQLiteWriter.
func OpenSQLiteSpace(path string) (*SQLiteSpace, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(4)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	return &SQLiteSpace{db: db}, nil
}

// Close closes the database.
func (s *SQLiteSpace) Close() error {
	return s.db.Close()
}

// Browse implements Accessor.
func (s *SQLiteSpace) Browse(ctx context.Context, id NodeID) ([]Reference, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM nodes WHERE id = ?", id.String()).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("browse %s: %w", id, ErrNodeUnknown)
	}
	if err != nil {
		return nil, fmt.Errorf("browse %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT n.id, n.browse_ns, n.browse_name, n.display_name, n.node_class, n.type_def
		FROM refs r JOIN nodes n ON n.id = r.child_id
		WHERE r.parent_id = ?
		ORDER BY r.ord`, id.String())
	if err != nil {
		return nil, fmt.Errorf("browse %s: %w", id, err)
	}
	defer func() { _ = rows.Close() }() // safe to ignore

	var refs []Reference
	for rows.Next() {
		var (
			ref          Reference
			rawID, rawTD string
		)
		if err := rows.Scan(&rawID, &ref.BrowseName.Namespace, &ref.BrowseName.Name, &ref.DisplayName, &ref.NodeClass, &rawTD); err != nil {
			return nil, fmt.Errorf("scan reference: %w", err)
		}
		if err := ref.NodeID.UnmarshalText([]byte(rawID)); err != nil {
			return nil, err
		}
		if err := ref.TypeDefinition.UnmarshalText([]byte(rawTD)); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// Read implements Accessor. Results are returned in request order.
func (s *SQLiteSpace) Read(ctx context.Context, reqs []ReadRequest) ([]ReadResult, error) {
	out := make([]ReadResult, len(reqs))
	for i, req := range reqs {
		dv, err := s.readOne(ctx, req)
		if err != nil {
			return nil, err
		}
		out[i] = ReadResult{Handle: req.Handle, DataValue: dv}
	}
	return out, nil
}

func (s *SQLiteSpace) readOne(ctx context.Context, req ReadRequest) (DataValue, error) {
	var (
		browseNS                         uint16
		browseName, displayName, rawType string
		rawValue                         sql.NullString
		status                           uint32
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT browse_ns, browse_name, display_name, data_type, value, status
		FROM nodes WHERE id = ?`, req.Node.String()).
		Scan(&browseNS, &browseName, &displayName, &rawType, &rawValue, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return DataValue{Status: StatusBadNodeIDUnknown}, nil
	}
	if err != nil {
		return DataValue{}, fmt.Errorf("read %s: %w", req.Node, err)
	}

	switch req.Attribute {
	case AttributeNodeID:
		return DataValue{Value: req.Node}, nil
	case AttributeBrowseName:
		return DataValue{Value: QualifiedName{Namespace: browseNS, Name: browseName}}, nil
	case AttributeDisplayName:
		return DataValue{Value: displayName}, nil
	case AttributeDataType:
		var dt NodeID
		if err := dt.UnmarshalText([]byte(rawType)); err != nil {
			return DataValue{}, err
		}
		return DataValue{Value: dt}, nil
	case AttributeValue:
		var v any
		if rawValue.Valid {
			if v, err = DecodeValue(json.RawMessage(rawValue.String)); err != nil {
				return DataValue{}, fmt.Errorf("read %s: %w", req.Node, err)
			}
		}
		return DataValue{Value: v, Status: StatusCode(status)}, nil
	default:
		return DataValue{Status: StatusBadAttributeIDInvalid}, nil
	}
}

// TranslatePath implements Accessor.
func (s *SQLiteSpace) TranslatePath(ctx context.Context, start NodeID, path []QualifiedName) ([]NodeID, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM nodes WHERE id = ?", start.String()).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("translate from %s: %w", start, ErrNodeUnknown)
	}
	if err != nil {
		return nil, fmt.Errorf("translate from %s: %w", start, err)
	}

	cur := start.String()
	for _, seg := range path {
		var next string
		err := s.db.QueryRowContext(ctx, `
			SELECT n.id FROM refs r JOIN nodes n ON n.id = r.child_id
			WHERE r.parent_id = ? AND n.browse_ns = ? AND n.browse_name = ?
			ORDER BY r.ord LIMIT 1`, cur, seg.Namespace, seg.Name).Scan(&next)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("translate %s/%s: %w", start, seg, err)
		}
		cur = next
	}
	var id NodeID
	if err := id.UnmarshalText([]byte(cur)); err != nil {
		return nil, err
	}
	return []NodeID{id}, nil
}

// LoadSQLite reads a whole capture into a Memory space.
func LoadSQLite(path string) (*Memory, error) {
	s, err := OpenSQLiteSpace(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = s.Close() }() // safe to ignore

	rows, err := s.db.Query(`
		SELECT id, browse_ns, browse_name, display_name, node_class, type_def, data_type, value, status, is_root
		FROM nodes ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query nodes: %w", err)
	}
	defer func() { _ = rows.Close() }() // safe to ignore

	m := NewMemory()
	for rows.Next() {
		var (
			n                   Node
			rawID, rawTD, rawDT string
			rawValue            sql.NullString
			status              uint32
			isRoot              bool
		)
		if err := rows.Scan(&rawID, &n.BrowseName.Namespace, &n.BrowseName.Name, &n.DisplayName, &n.NodeClass,
			&rawTD, &rawDT, &rawValue, &status, &isRoot); err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		if err := n.ID.UnmarshalText([]byte(rawID)); err != nil {
			return nil, err
		}
		if err := n.TypeDefinition.UnmarshalText([]byte(rawTD)); err != nil {
			return nil, err
		}
		if err := n.DataType.UnmarshalText([]byte(rawDT)); err != nil {
			return nil, err
		}
		if rawValue.Valid {
			v, err := DecodeValue(json.RawMessage(rawValue.String))
			if err != nil {
				return nil, fmt.Errorf("node %s: %w", rawID, err)
			}
			n.Value.Value = v
		}
		n.Value.Status = StatusCode(status)
		if isRoot {
			m.AddRoot(&n)
		} else {
			m.AddNode(&n)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nodes: %w", err)
	}

	refs, err := s.db.Query("SELECT parent_id, child_id FROM refs ORDER BY parent_id, ord")
	if err != nil {
		return nil, fmt.Errorf("query refs: %w", err)
	}
	defer func() { _ = refs.Close() }() // safe to ignore
	for refs.Next() {
		var parent, child string
		if err := refs.Scan(&parent, &child); err != nil {
			return nil, fmt.Errorf("scan ref: %w", err)
		}
		pid, err := ParseNodeID(parent)
		if err != nil {
			return nil, err
		}
		cid, err := ParseNodeID(child)
		if err != nil {
			return nil, err
		}
		if err := m.Link(pid, cid); err != nil {
			return nil, err
		}
	}
	return m, refs.Err()
}

// SQLiteWriter captures a node space into a SQLite database.
type SQLiteWriter struct {
	mu       sync.Mutex
	db       *sql.DB
	tx       *sql.Tx
	stmtNode *sql.Stmt
	stmtRef  *sql.Stmt
	seq      int64
}

// NewSQLiteWriter creates the database and its schema.
func NewSQLiteWriter(path string) (*SQLiteWriter, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = MEMORY"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	w := &SQLiteWriter{db: db}
	if w.tx, err = db.Begin(); err != nil {
		_ = db.Close()
		return nil, err
	}
	w.stmtNode, err = w.tx.Prepare(`
		INSERT OR REPLACE INTO nodes (id, seq, browse_ns, browse_name, display_name, node_class, type_def, data_type, value, status, is_root)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = w.tx.Rollback()
		_ = db.Close()
		return nil, err
	}
	w.stmtRef, err = w.tx.Prepare("INSERT OR REPLACE INTO refs (parent_id, ord, child_id) VALUES (?, ?, ?)")
	if err != nil {
		_ = w.tx.Rollback()
		_ = db.Close()
		return nil, err
	}
	return w, nil
}

// WriteNode stores one node and its forward references.
func (w *SQLiteWriter) WriteNode(n *Node, root bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	raw, err := EncodeValue(n.Value.Value)
	if err != nil {
		return fmt.Errorf("node %s: %w", n.ID, err)
	}
	td, dt := "", ""
	if !n.TypeDefinition.IsNull() {
		td = n.TypeDefinition.String()
	}
	if !n.DataType.IsNull() {
		dt = n.DataType.String()
	}
	w.seq++
	if _, err := w.stmtNode.Exec(n.ID.String(), w.seq, n.BrowseName.Namespace, n.BrowseName.Name,
		n.DisplayName, uint32(n.NodeClass), td, dt, string(raw), uint32(n.Value.Status), root); err != nil {
		return fmt.Errorf("insert node %s: %w", n.ID, err)
	}
	for i, c := range n.Children {
		if _, err := w.stmtRef.Exec(n.ID.String(), i, c.String()); err != nil {
			return fmt.Errorf("insert ref %s→%s: %w", n.ID, c, err)
		}
	}
	return nil
}

// WriteMemory stores every node of m.
func (w *SQLiteWriter) WriteMemory(m *Memory) error {
	roots := make(map[NodeID]bool)
	for _, r := range m.Roots() {
		roots[r] = true
	}
	for _, n := range m.Nodes() {
		if err := w.WriteNode(n, roots[n.ID]); err != nil {
			return err
		}
	}
	return nil
}

// Close commits the capture and closes the database.
func (w *SQLiteWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.stmtNode.Close()
	_ = w.stmtRef.Close()
	if err := w.tx.Commit(); err != nil {
		_ = w.db.Close()
		return fmt.Errorf("commit: %w", err)
	}
	return w.db.Close()
}
