// Package ledgerfile persists the contribution and execution ledgers as
// append-only JSON documents in a local data directory.
//
// Each document is {"version": 1, "records": [...]}. Mutations follow one
// discipline: acquire the ledger's advisory lock, read the document, append,
// write to a temp file, fsync, and atomically rename over the target. A
// crash mid-write never corrupts existing history, and concurrent callers
// (goroutines or processes) serialize on the lock.
package ledgerfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ecopool-network/ecopool/internal/domain"
	"github.com/ecopool-network/ecopool/internal/infra/runlock"
)

const (
	documentVersion = 1

	contributionsFile = "contributions.json"
	executionsFile    = "executions.json"

	contributionsLockKey = "ledger-contributions"
	executionsLockKey    = "ledger-executions"

	// defaultMutationWait bounds how long a mutation waits for the ledger
	// lock before failing with domain.ErrLockTimeout.
	defaultMutationWait = 10 * time.Second
)

// Store implements domain.ContributionStore and domain.ExecutionStore over
// JSON documents rooted at one directory.
type Store struct {
	dir     string
	locks   *runlock.Manager
	maxWait time.Duration
}

// Open creates (if needed) and opens the ledger directory.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}
	locks, err := runlock.NewManager(filepath.Join(dir, "locks"))
	if err != nil {
		return nil, err
	}
	locks.SetRetryInterval(25 * time.Millisecond)
	return &Store{dir: dir, locks: locks, maxWait: defaultMutationWait}, nil
}

// SetMutationWait overrides the bounded lock wait (test hook).
func (s *Store) SetMutationWait(d time.Duration) { s.maxWait = d }

// withExclusiveState runs fn while holding the named ledger lock.
// The lock is released on every exit path.
func (s *Store) withExclusiveState(key string, fn func() error) error {
	lock, err := s.locks.AcquireWait(context.Background(), key, s.maxWait)
	if err != nil {
		return fmt.Errorf("lock %s: %w", key, err)
	}
	defer lock.Release()
	return fn()
}

// writeAtomic replaces path with data via temp-file-plus-rename.
func (s *Store) writeAtomic(name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}

	f, err := os.CreateTemp(s.dir, "."+name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", name, err)
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write temp for %s: %w", name, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("sync temp for %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close temp for %s: %w", name, err)
	}
	if err := os.Rename(tmp, filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

// readDocument loads path into v; a missing file leaves v untouched so the
// caller starts from an empty document.
func (s *Store) readDocument(name string, v interface{}) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%s: %w: %v", name, domain.ErrLedgerCorrupted, err)
	}
	return nil
}
