package memstore

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/summarion/summarion/internal/core"
)

// newTestStores builds one instance of every Store implementation so the
// contract tests below run against all of them.
func newTestStores(t *testing.T) map[string]Store {
	t.Helper()

	sqliteStore := NewSQLiteStore()
	if err := sqliteStore.Initialize(filepath.Join(t.TempDir(), "summarion.db")); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	t.Cleanup(func() { sqliteStore.Close() })

	memStore := NewMemoryStore()
	t.Cleanup(func() { memStore.Close() })

	return map[string]Store{
		"sqlite": sqliteStore,
		"memory": memStore,
	}
}

func sampleResult(mode string) *core.SummaryResult {
	return &core.SummaryResult{
		Mode:        mode,
		ModeVersion: "1",
		Summary:     "the team agreed to ship Friday",
		Metadata:    map[string]any{core.MetaModel: "gpt-4o-mini"},
	}
}

func TestLoadContextNotFound(t *testing.T) {
	for name, store := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			result, err := store.LoadContext("fresh-ns", core.MemorySession)
			if !errors.Is(err, ErrNotFound) {
				t.Errorf("LoadContext() error = %v, want ErrNotFound", err)
			}
			if result != nil {
				t.Errorf("LoadContext() = %+v, want nil on not found", result)
			}
		})
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	for name, store := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			saved := sampleResult("narrative")
			if err := store.SaveResult("ns1", saved, core.MemorySession); err != nil {
				t.Fatalf("SaveResult() error = %v", err)
			}

			loaded, err := store.LoadContext("ns1", core.MemorySession)
			if err != nil {
				t.Fatalf("LoadContext() error = %v", err)
			}
			if loaded.Mode != "narrative" || loaded.Summary != saved.Summary {
				t.Errorf("LoadContext() = %+v, want round-tripped result", loaded)
			}
		})
	}
}

func TestLastWriteWins(t *testing.T) {
	for name, store := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := store.SaveResult("ns1", sampleResult("first"), core.MemorySession); err != nil {
				t.Fatalf("SaveResult() error = %v", err)
			}
			if err := store.SaveResult("ns1", sampleResult("second"), core.MemorySession); err != nil {
				t.Fatalf("SaveResult() error = %v", err)
			}

			loaded, err := store.LoadContext("ns1", core.MemorySession)
			if err != nil {
				t.Fatalf("LoadContext() error = %v", err)
			}
			if loaded.Mode != "second" {
				t.Errorf("LoadContext().Mode = %q, want last write", loaded.Mode)
			}
		})
	}
}

func TestNamespaceIsolation(t *testing.T) {
	for name, store := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := store.SaveResult("A", sampleResult("pointwise"), core.MemorySession); err != nil {
				t.Fatalf("SaveResult() error = %v", err)
			}

			if _, err := store.LoadContext("B", core.MemorySession); !errors.Is(err, ErrNotFound) {
				t.Errorf("LoadContext(B) after SaveResult(A) error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestMemoryLevelPartitioning(t *testing.T) {
	for name, store := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := store.SaveResult("ns1", sampleResult("rolling-result"), core.MemoryRolling); err != nil {
				t.Fatalf("SaveResult() error = %v", err)
			}
			if err := store.SaveResult("ns1", sampleResult("canonical-result"), core.MemoryCanonical); err != nil {
				t.Fatalf("SaveResult() error = %v", err)
			}

			rolling, err := store.LoadContext("ns1", core.MemoryRolling)
			if err != nil {
				t.Fatalf("LoadContext(rolling) error = %v", err)
			}
			if rolling.Mode != "rolling-result" {
				t.Errorf("rolling partition returned %q", rolling.Mode)
			}

			if _, err := store.LoadContext("ns1", core.MemorySession); !errors.Is(err, ErrNotFound) {
				t.Errorf("session partition should be empty, got error %v", err)
			}
		})
	}
}

func TestAppendLogOrdering(t *testing.T) {
	for name, store := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := store.AppendLog("ns1", "op1", map[string]any{"k": "v1"}); err != nil {
				t.Fatalf("AppendLog() error = %v", err)
			}
			if err := store.AppendLog("ns1", "op2", map[string]any{"k": "v2"}); err != nil {
				t.Fatalf("AppendLog() error = %v", err)
			}
			if err := store.AppendLog("other", "op3", nil); err != nil {
				t.Fatalf("AppendLog() error = %v", err)
			}

			entries, err := store.ReadLog("ns1", 0)
			if err != nil {
				t.Fatalf("ReadLog() error = %v", err)
			}
			if len(entries) != 2 {
				t.Fatalf("ReadLog() returned %d entries, want 2", len(entries))
			}
			if entries[0].Operation != "op1" || entries[1].Operation != "op2" {
				t.Errorf("entries out of order: %q, %q", entries[0].Operation, entries[1].Operation)
			}
			if entries[0].Seq >= entries[1].Seq {
				t.Errorf("sequence not monotonic: %d then %d", entries[0].Seq, entries[1].Seq)
			}
			if entries[0].Metadata["k"] != "v1" {
				t.Errorf("first entry metadata = %v", entries[0].Metadata)
			}
			if entries[0].ID == "" || entries[0].ID == entries[1].ID {
				t.Error("audit entries should carry distinct ids")
			}
		})
	}
}

func TestReadLogLimit(t *testing.T) {
	for name, store := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			for _, op := range []string{"a", "b", "c"} {
				if err := store.AppendLog("ns1", op, nil); err != nil {
					t.Fatalf("AppendLog() error = %v", err)
				}
			}

			entries, err := store.ReadLog("ns1", 2)
			if err != nil {
				t.Fatalf("ReadLog() error = %v", err)
			}
			if len(entries) != 2 {
				t.Fatalf("ReadLog(limit=2) returned %d entries", len(entries))
			}
			if entries[0].Operation != "a" || entries[1].Operation != "b" {
				t.Errorf("limited read out of order: %q, %q", entries[0].Operation, entries[1].Operation)
			}
		})
	}
}

func TestInvalidKeysRejected(t *testing.T) {
	for name, store := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := store.LoadContext("", core.MemorySession); err == nil {
				t.Error("LoadContext with empty namespace should fail")
			}
			if err := store.SaveResult("ns", sampleResult("x"), "weekly"); err == nil {
				t.Error("SaveResult with unknown level should fail")
			}
			if err := store.SaveResult("ns", nil, core.MemorySession); err == nil {
				t.Error("SaveResult with nil result should fail")
			}
			if err := store.AppendLog("ns", "", nil); err == nil {
				t.Error("AppendLog with empty operation should fail")
			}
		})
	}
}

func TestMemoryStoreCopiesResults(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	saved := sampleResult("narrative")
	if err := store.SaveResult("ns1", saved, core.MemorySession); err != nil {
		t.Fatalf("SaveResult() error = %v", err)
	}

	// Mutating the caller's copy must not change what a later load sees.
	saved.Summary = "mutated after save"
	saved.Metadata[core.MetaModel] = "mutated-model"

	loaded, err := store.LoadContext("ns1", core.MemorySession)
	if err != nil {
		t.Fatalf("LoadContext() error = %v", err)
	}
	if loaded.Summary == "mutated after save" {
		t.Error("stored result aliases the caller's value")
	}
	if loaded.Metadata[core.MetaModel] != "gpt-4o-mini" {
		t.Errorf("stored metadata aliases the caller's map: %v", loaded.Metadata)
	}

	// The loaded copy's metadata must not alias the stored instance either.
	loaded.Metadata["injected"] = true

	reloaded, err := store.LoadContext("ns1", core.MemorySession)
	if err != nil {
		t.Fatalf("LoadContext() error = %v", err)
	}
	if _, ok := reloaded.Metadata["injected"]; ok {
		t.Error("loaded metadata aliases the stored instance")
	}
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "summarion.db")

	store := NewSQLiteStore()
	if err := store.Initialize(dbPath); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if err := store.SaveResult("ns1", sampleResult("narrative"), core.MemoryCanonical); err != nil {
		t.Fatalf("SaveResult() error = %v", err)
	}
	if err := store.AppendLog("ns1", "summarize", map[string]any{"mode": "narrative"}); err != nil {
		t.Fatalf("AppendLog() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened := NewSQLiteStore()
	if err := reopened.Initialize(dbPath); err != nil {
		t.Fatalf("re-Initialize() error = %v", err)
	}
	defer reopened.Close()

	loaded, err := reopened.LoadContext("ns1", core.MemoryCanonical)
	if err != nil {
		t.Fatalf("LoadContext() after reopen error = %v", err)
	}
	if loaded.Mode != "narrative" {
		t.Errorf("reopened store returned %q", loaded.Mode)
	}

	entries, err := reopened.ReadLog("ns1", 0)
	if err != nil {
		t.Fatalf("ReadLog() after reopen error = %v", err)
	}
	if len(entries) != 1 || entries[0].Operation != "summarize" {
		t.Errorf("reopened audit log = %+v", entries)
	}
}
