package memstore

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/summarion/summarion/internal/core"
)

// MemoryStore is an in-process Store implementation. It backs tests and
// embedded use where durability is not needed.
type MemoryStore struct {
	mu      sync.RWMutex
	results map[string]*core.SummaryResult
	logs    map[string][]AuditEntry
	seq     int64
	closed  bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		results: make(map[string]*core.SummaryResult),
		logs:    make(map[string][]AuditEntry),
	}
}

func partitionKey(namespace string, level core.MemoryLevel) string {
	return namespace + "\x00" + string(level)
}

// LoadContext returns the stored result for the partition, or ErrNotFound.
func (s *MemoryStore) LoadContext(namespace string, level core.MemoryLevel) (*core.SummaryResult, error) {
	if err := validateKey(namespace, level); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("memstore: store closed")
	}

	result, ok := s.results[partitionKey(namespace, level)]
	if !ok {
		return nil, ErrNotFound
	}

	return cloneResult(result), nil
}

// cloneResult copies a result including its metadata map so the stored
// instance and the caller's never alias each other.
func cloneResult(result *core.SummaryResult) *core.SummaryResult {
	out := *result
	if result.Metadata != nil {
		out.Metadata = make(map[string]any, len(result.Metadata))
		for k, v := range result.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}

// SaveResult stores the result for the partition, last write wins.
func (s *MemoryStore) SaveResult(namespace string, result *core.SummaryResult, level core.MemoryLevel) error {
	if err := validateKey(namespace, level); err != nil {
		return err
	}
	if result == nil {
		return fmt.Errorf("memstore: cannot save nil result")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("memstore: store closed")
	}

	s.results[partitionKey(namespace, level)] = cloneResult(result)
	return nil
}

// AppendLog appends an audit entry for the namespace.
func (s *MemoryStore) AppendLog(namespace string, operation string, metadata map[string]any) error {
	if namespace == "" {
		return core.ErrEmptyNamespace
	}
	if operation == "" {
		return fmt.Errorf("memstore: operation must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("memstore: store closed")
	}

	s.seq++
	meta := make(map[string]any, len(metadata))
	for k, v := range metadata {
		meta[k] = v
	}
	s.logs[namespace] = append(s.logs[namespace], AuditEntry{
		ID:        uuid.NewString(),
		Seq:       s.seq,
		Namespace: namespace,
		Operation: operation,
		Metadata:  meta,
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

// ReadLog returns up to limit audit entries in append order.
func (s *MemoryStore) ReadLog(namespace string, limit int) ([]AuditEntry, error) {
	if namespace == "" {
		return nil, core.ErrEmptyNamespace
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("memstore: store closed")
	}

	entries := s.logs[namespace]
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	out := make([]AuditEntry, len(entries))
	copy(out, entries)
	return out, nil
}

// Close marks the store closed; subsequent operations fail.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
