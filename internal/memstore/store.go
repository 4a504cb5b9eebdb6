// Package memstore provides hierarchical, namespaced persistence for
// summary results plus append-only audit logging. Results are partitioned by
// namespace and, within a namespace, by memory level.
package memstore

import (
	"errors"
	"fmt"
	"time"

	"github.com/summarion/summarion/internal/core"
)

// ErrNotFound is the explicit "no prior context" signal from LoadContext.
// It is not an error condition for callers; it is how they distinguish
// absence from an empty summary.
var ErrNotFound = errors.New("memstore: no stored result for namespace and memory level")

// Store is the persistence contract. Operations under one namespace never
// read or write data stored under another.
type Store interface {
	// LoadContext returns the most recent result saved for the
	// (namespace, level) partition, or ErrNotFound.
	LoadContext(namespace string, level core.MemoryLevel) (*core.SummaryResult, error)

	// SaveResult stores the result for the partition. Safe to call
	// repeatedly; the last write wins for subsequent LoadContext calls.
	SaveResult(namespace string, result *core.SummaryResult, level core.MemoryLevel) error

	// AppendLog appends an audit entry for the namespace. Entries are
	// never overwritten and their order within a namespace reflects call
	// order. Audit failures must not corrupt a prior SaveResult.
	AppendLog(namespace string, operation string, metadata map[string]any) error

	// ReadLog returns up to limit audit entries for the namespace in
	// append order. limit <= 0 means all entries.
	ReadLog(namespace string, limit int) ([]AuditEntry, error)

	// Close releases any resources held by the store.
	Close() error
}

// AuditEntry is one append-only audit record.
type AuditEntry struct {
	ID        string         `json:"id"`
	Seq       int64          `json:"seq"`
	Namespace string         `json:"namespace"`
	Operation string         `json:"operation"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// validateKey checks the partition coordinates shared by every operation.
func validateKey(namespace string, level core.MemoryLevel) error {
	if namespace == "" {
		return core.ErrEmptyNamespace
	}
	if !level.Valid() {
		return fmt.Errorf("memstore: unknown memory level %q", level)
	}
	return nil
}
