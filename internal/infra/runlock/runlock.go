// Package runlock implements named mutual exclusion backed by lock files.
//
// A lock is one JSON file per key holding a unique token, the holder pid,
// and a lease expiry. The record is written to a temp file first and
// published with link(2), so the lock file appears atomically with its
// full payload and the filesystem arbitrates races; an expired lease is
// reclaimed by deleting the file and retrying. Release verifies the token
// first, so a holder whose lease was reclaimed cannot delete the new
// holder's lock.
package runlock

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ecopool-network/ecopool/internal/domain"
)

// Record is the on-disk lock file payload.
type Record struct {
	LockKey    string    `json:"lock_key"`
	Token      string    `json:"token"`
	PID        int       `json:"pid"`
	AcquiredAt time.Time `json:"acquired_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Manager hands out file-backed named locks under one directory.
type Manager struct {
	dir      string
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
}

const (
	// DefaultTTL bounds how long a crashed holder can wedge a key.
	DefaultTTL = 2 * time.Minute

	// DefaultRetryInterval paces AcquireWait polling.
	DefaultRetryInterval = 100 * time.Millisecond
)

// NewManager creates a lock manager rooted at dir.
func NewManager(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	return &Manager{
		dir:      dir,
		ttl:      DefaultTTL,
		interval: DefaultRetryInterval,
		now:      time.Now,
	}, nil
}

// SetTTL overrides the lease duration (test hook and config wiring).
func (m *Manager) SetTTL(ttl time.Duration) { m.ttl = ttl }

// SetRetryInterval overrides the AcquireWait polling interval.
func (m *Manager) SetRetryInterval(d time.Duration) { m.interval = d }

// SetNow overrides the clock (test hook).
func (m *Manager) SetNow(now func() time.Time) { m.now = now }

// lockPath maps a key like "2026-03:carbon" to a file path.
func (m *Manager) lockPath(key string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, key)
	return filepath.Join(m.dir, safe+".lock")
}

// Acquire takes the lock for key without waiting.
// Returns domain.ErrLockHeld when another holder has an unexpired lease.
func (m *Manager) Acquire(key string) (domain.NamedLock, error) {
	for attempt := 0; attempt < 2; attempt++ {
		lock, err := m.tryCreate(key)
		if err == nil {
			return lock, nil
		}
		if err != domain.ErrLockHeld {
			return nil, err
		}
		reclaimed, rerr := m.reclaimIfExpired(key)
		if rerr != nil {
			return nil, rerr
		}
		if !reclaimed {
			return nil, domain.ErrLockHeld
		}
		// Expired lease removed; loop once more to race for the key.
	}
	return nil, domain.ErrLockHeld
}

// AcquireWait retries Acquire on the configured interval until maxWait
// elapses, then returns domain.ErrLockTimeout.
func (m *Manager) AcquireWait(ctx context.Context, key string, maxWait time.Duration) (domain.NamedLock, error) {
	deadline := m.now().Add(maxWait)
	for {
		lock, err := m.Acquire(key)
		if err == nil {
			return lock, nil
		}
		if err != domain.ErrLockHeld {
			return nil, err
		}
		if !m.now().Before(deadline) {
			return nil, domain.ErrLockTimeout
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.interval):
		}
	}
}

// tryCreate attempts the create-if-absent write of a fresh lock record.
func (m *Manager) tryCreate(key string) (*Lock, error) {
	rec := Record{
		LockKey:    key,
		Token:      uuid.NewString(),
		PID:        os.Getpid(),
		AcquiredAt: m.now(),
		ExpiresAt:  m.now().Add(m.ttl),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal lock record: %w", err)
	}

	// Write the full record to a temp file, then publish it under the
	// key's path with a hard link. Link fails if the path exists, which
	// makes create-if-absent and write-the-payload one atomic step: a
	// contender can never observe a lock file without its record.
	tmp, err := os.CreateTemp(m.dir, ".pending-*")
	if err != nil {
		return nil, fmt.Errorf("create lock temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write lock record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close lock temp file: %w", err)
	}

	path := m.lockPath(key)
	if err := os.Link(tmpPath, path); err != nil {
		if os.IsExist(err) {
			return nil, domain.ErrLockHeld
		}
		return nil, fmt.Errorf("publish lock file: %w", err)
	}
	return &Lock{mgr: m, key: key, token: rec.Token, path: path}, nil
}

// reclaimIfExpired deletes the lock file when its lease has lapsed.
// Reports whether a reclamation happened.
func (m *Manager) reclaimIfExpired(key string) (bool, error) {
	path := m.lockPath(key)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Holder released between our create attempt and this read.
			return true, nil
		}
		return false, fmt.Errorf("read lock file: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		// An unparseable lock file names no valid holder, but a writer
		// outside this package could still be mid-flight. Treat it as
		// held until its age exceeds the lease, then reclaim.
		info, serr := os.Stat(path)
		if serr == nil && m.now().Sub(info.ModTime()) < m.ttl {
			return false, nil
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return false, fmt.Errorf("remove corrupt lock file: %w", err)
		}
		return true, nil
	}
	if m.now().Before(rec.ExpiresAt) {
		return false, nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return false, fmt.Errorf("reclaim expired lock: %w", err)
	}
	return true, nil
}

// Lock is one held lease. Implements domain.NamedLock.
type Lock struct {
	mgr   *Manager
	key   string
	token string
	path  string
}

// Token exposes the fencing token (diagnostics and tests).
func (l *Lock) Token() string { return l.token }

// Release removes the lock file, but only while our token still owns it.
func (l *Lock) Release() error {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // already reclaimed or released
		}
		return fmt.Errorf("read lock file: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil
	}
	if rec.Token != l.token {
		// Lease expired and another holder took over; their lock stands.
		return nil
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove lock file: %w", err)
	}
	return nil
}
