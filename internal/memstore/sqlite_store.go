package memstore

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"crawshaw.io/sqlite"
	"github.com/google/uuid"

	"github.com/summarion/summarion/internal/core"
)

// SQLiteStore is a Store implementation backed by SQLite. One row per
// (namespace, memory_level) partition holds the latest result as JSON; audit
// entries live in a separate append-only table whose AUTOINCREMENT sequence
// provides the monotonic per-namespace ordering.
type SQLiteStore struct {
	conn   *sqlite.Conn
	dbPath string

	// The connection is not safe for concurrent use, and audit appends
	// for a namespace must be serialized; one mutex covers both.
	mu sync.Mutex
}

// NewSQLiteStore creates a new, uninitialized SQLiteStore.
func NewSQLiteStore() *SQLiteStore {
	return &SQLiteStore{}
}

// Initialize opens the database at dbPath and creates the schema.
func (s *SQLiteStore) Initialize(dbPath string) error {
	s.dbPath = dbPath

	conn, err := sqlite.OpenConn(dbPath, sqlite.SQLITE_OPEN_CREATE|sqlite.SQLITE_OPEN_READWRITE)
	if err != nil {
		return fmt.Errorf("failed to open SQLite database: %w", err)
	}
	s.conn = conn

	if err := s.createTables(); err != nil {
		s.conn.Close()
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

func (s *SQLiteStore) createTables() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS summary_memory (
			namespace TEXT NOT NULL,
			memory_level TEXT NOT NULL,
			payload TEXT NOT NULL,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (namespace, memory_level)
		);`,
		`CREATE TABLE IF NOT EXISTS audit_log (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL,
			namespace TEXT NOT NULL,
			operation TEXT NOT NULL,
			metadata TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_audit_namespace ON audit_log (namespace, seq);`,
	}

	for _, sql := range statements {
		stmt, err := s.conn.Prepare(sql)
		if err != nil {
			return fmt.Errorf("failed to prepare schema statement: %w", err)
		}
		if _, err := stmt.Step(); err != nil {
			stmt.Reset()
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
		stmt.Reset()
	}
	return nil
}

// Close closes the store and releases the connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		err := s.conn.Close()
		s.conn = nil
		return err
	}
	return nil
}

// LoadContext returns the stored result for the partition, or ErrNotFound.
func (s *SQLiteStore) LoadContext(namespace string, level core.MemoryLevel) (*core.SummaryResult, error) {
	if err := validateKey(namespace, level); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil, fmt.Errorf("memstore: store not initialized")
	}

	stmt, err := s.conn.Prepare(`SELECT payload FROM summary_memory WHERE namespace = ? AND memory_level = ?;`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Reset()

	stmt.BindText(1, namespace)
	stmt.BindText(2, string(level))

	hasRow, err := stmt.Step()
	if err != nil {
		return nil, fmt.Errorf("failed to query summary: %w", err)
	}
	if !hasRow {
		return nil, ErrNotFound
	}

	var result core.SummaryResult
	if err := json.Unmarshal([]byte(stmt.ColumnText(0)), &result); err != nil {
		return nil, fmt.Errorf("failed to decode stored summary: %w", err)
	}
	return &result, nil
}

// SaveResult stores the result for the partition, last write wins.
func (s *SQLiteStore) SaveResult(namespace string, result *core.SummaryResult, level core.MemoryLevel) error {
	if err := validateKey(namespace, level); err != nil {
		return err
	}
	if result == nil {
		return fmt.Errorf("memstore: cannot save nil result")
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return fmt.Errorf("memstore: store not initialized")
	}

	stmt, err := s.conn.Prepare(`
	INSERT OR REPLACE INTO summary_memory (namespace, memory_level, payload, updated_at)
	VALUES (?, ?, ?, ?);`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Reset()

	stmt.BindText(1, namespace)
	stmt.BindText(2, string(level))
	stmt.BindText(3, string(payload))
	stmt.BindInt64(4, time.Now().Unix())

	if _, err := stmt.Step(); err != nil {
		return fmt.Errorf("failed to save summary: %w", err)
	}
	return nil
}

// AppendLog appends an audit entry for the namespace.
func (s *SQLiteStore) AppendLog(namespace string, operation string, metadata map[string]any) error {
	if namespace == "" {
		return core.ErrEmptyNamespace
	}
	if operation == "" {
		return fmt.Errorf("memstore: operation must not be empty")
	}

	meta, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to encode audit metadata: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return fmt.Errorf("memstore: store not initialized")
	}

	stmt, err := s.conn.Prepare(`
	INSERT INTO audit_log (id, namespace, operation, metadata, created_at)
	VALUES (?, ?, ?, ?, ?);`)
	if err != nil {
		return fmt.Errorf("failed to prepare audit statement: %w", err)
	}
	defer stmt.Reset()

	stmt.BindText(1, uuid.NewString())
	stmt.BindText(2, namespace)
	stmt.BindText(3, operation)
	stmt.BindText(4, string(meta))
	stmt.BindInt64(5, time.Now().Unix())

	if _, err := stmt.Step(); err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// ReadLog returns up to limit audit entries for the namespace in append
// order.
func (s *SQLiteStore) ReadLog(namespace string, limit int) ([]AuditEntry, error) {
	if namespace == "" {
		return nil, core.ErrEmptyNamespace
	}
	if limit <= 0 {
		limit = -1 // no LIMIT clause effect in SQLite
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil, fmt.Errorf("memstore: store not initialized")
	}

	stmt, err := s.conn.Prepare(`
	SELECT seq, id, operation, metadata, created_at FROM audit_log
	WHERE namespace = ? ORDER BY seq ASC LIMIT ?;`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare audit query: %w", err)
	}
	defer stmt.Reset()

	stmt.BindText(1, namespace)
	stmt.BindInt64(2, int64(limit))

	var entries []AuditEntry
	for {
		hasRow, err := stmt.Step()
		if err != nil {
			return nil, fmt.Errorf("failed to read audit log: %w", err)
		}
		if !hasRow {
			break
		}

		entry := AuditEntry{
			Seq:       stmt.ColumnInt64(0),
			ID:        stmt.ColumnText(1),
			Namespace: namespace,
			Operation: stmt.ColumnText(2),
			CreatedAt: time.Unix(stmt.ColumnInt64(4), 0).UTC(),
		}
		if raw := stmt.ColumnText(3); raw != "" && raw != "null" {
			if err := json.Unmarshal([]byte(raw), &entry.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode audit metadata for entry %s: %w", entry.ID, err)
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
