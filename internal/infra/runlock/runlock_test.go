package runlock

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/ecopool-network/ecopool/internal/domain"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func TestAcquireRelease(t *testing.T) {
	m := newTestManager(t)

	lock, err := m.Acquire("2026-03:carbon")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	if _, err := m.Acquire("2026-03:carbon"); err != domain.ErrLockHeld {
		t.Errorf("second Acquire error = %v, want ErrLockHeld", err)
	}

	// A different key is independent.
	other, err := m.Acquire("2026-03:biodiversity")
	if err != nil {
		t.Fatalf("Acquire other key: %v", err)
	}
	other.Release()

	if err := lock.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}

	// After release the key is free again.
	again, err := m.Acquire("2026-03:carbon")
	if err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
	again.Release()
}

func TestConcurrentAcquire_ExactlyOneWinner(t *testing.T) {
	m := newTestManager(t)

	const contenders = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	var won int
	var held []domain.NamedLock

	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lock, err := m.Acquire("2026-03:carbon")
			if err == nil {
				mu.Lock()
				won++
				held = append(held, lock)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if won != 1 {
		t.Errorf("%d contenders won the lock, want exactly 1", won)
	}
	for _, l := range held {
		l.Release()
	}
}

func TestExpiredLockReclaimed(t *testing.T) {
	m := newTestManager(t)
	m.SetTTL(50 * time.Millisecond)

	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m.SetNow(func() time.Time { return current })

	// First holder never releases.
	if _, err := m.Acquire("2026-03:carbon"); err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	// Before expiry the key stays held.
	if _, err := m.Acquire("2026-03:carbon"); err != domain.ErrLockHeld {
		t.Errorf("pre-expiry Acquire error = %v, want ErrLockHeld", err)
	}

	// Advance past the lease; the next contender reclaims.
	current = current.Add(time.Second)
	lock, err := m.Acquire("2026-03:carbon")
	if err != nil {
		t.Fatalf("Acquire after expiry: %v", err)
	}
	lock.Release()
}

func TestStaleReleaseDoesNotStealReclaimedLock(t *testing.T) {
	m := newTestManager(t)
	m.SetTTL(50 * time.Millisecond)

	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m.SetNow(func() time.Time { return current })

	stale, err := m.Acquire("2026-03:carbon")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	current = current.Add(time.Second)
	fresh, err := m.Acquire("2026-03:carbon")
	if err != nil {
		t.Fatalf("reclaim Acquire: %v", err)
	}

	// The stale holder's release must not cancel the fresh lease.
	if err := stale.Release(); err != nil {
		t.Fatalf("stale Release: %v", err)
	}
	if _, err := m.Acquire("2026-03:carbon"); err != domain.ErrLockHeld {
		t.Errorf("Acquire after stale release = %v, want ErrLockHeld (fresh lease intact)", err)
	}

	fresh.Release()
}

func TestAcquireWait(t *testing.T) {
	m := newTestManager(t)
	m.SetRetryInterval(5 * time.Millisecond)

	lock, err := m.Acquire("2026-03:carbon")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	// Release shortly after a waiter starts polling.
	go func() {
		time.Sleep(25 * time.Millisecond)
		lock.Release()
	}()

	waited, err := m.AcquireWait(context.Background(), "2026-03:carbon", time.Second)
	if err != nil {
		t.Fatalf("AcquireWait: %v", err)
	}
	waited.Release()
}

func TestAcquireWait_Timeout(t *testing.T) {
	m := newTestManager(t)
	m.SetRetryInterval(5 * time.Millisecond)

	lock, err := m.Acquire("2026-03:carbon")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer lock.Release()

	_, err = m.AcquireWait(context.Background(), "2026-03:carbon", 30*time.Millisecond)
	if err != domain.ErrLockTimeout {
		t.Errorf("AcquireWait error = %v, want ErrLockTimeout", err)
	}
}

func TestCorruptLockFileReclaimedOnlyWhenStale(t *testing.T) {
	m := newTestManager(t)

	lock, err := m.Acquire("2026-03:carbon")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	l := lock.(*Lock)
	if err := os.WriteFile(l.path, []byte("not json"), 0o644); err != nil {
		t.Fatalf("corrupt lock file: %v", err)
	}

	// A fresh unparseable file stays held: some writer may own it.
	if _, err := m.Acquire("2026-03:carbon"); err != domain.ErrLockHeld {
		t.Errorf("Acquire over fresh corrupt lock = %v, want ErrLockHeld", err)
	}

	// Once older than the lease it names no live holder and is reclaimed.
	old := time.Now().Add(-DefaultTTL - time.Minute)
	if err := os.Chtimes(l.path, old, old); err != nil {
		t.Fatalf("age lock file: %v", err)
	}
	fresh, err := m.Acquire("2026-03:carbon")
	if err != nil {
		t.Fatalf("Acquire over stale corrupt lock: %v", err)
	}
	fresh.Release()
}

func TestEmptyLockFileNotStolen(t *testing.T) {
	m := newTestManager(t)

	// A zero-byte lock file is what a non-atomic writer would expose
	// between create and payload write. It must read as held, never as
	// reclaimable, or two holders could race the ledger.
	if err := os.WriteFile(m.lockPath("2026-03:carbon"), nil, 0o644); err != nil {
		t.Fatalf("plant empty lock file: %v", err)
	}
	if _, err := m.Acquire("2026-03:carbon"); err != domain.ErrLockHeld {
		t.Errorf("Acquire over empty lock file = %v, want ErrLockHeld", err)
	}
}

func TestLockFileAppearsWithFullRecord(t *testing.T) {
	m := newTestManager(t)

	lock, err := m.Acquire("2026-03:carbon")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer lock.Release()
	l := lock.(*Lock)

	data, err := os.ReadFile(l.path)
	if err != nil {
		t.Fatalf("read lock file: %v", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		t.Fatalf("published lock file not parseable: %v", err)
	}
	if rec.Token != l.Token() || rec.LockKey != "2026-03:carbon" {
		t.Errorf("lock record = %+v, want token %q for key 2026-03:carbon", rec, l.Token())
	}

	// No pending temp files left behind after publication.
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.Name() != "2026-03_carbon.lock" {
			t.Errorf("leftover file %q in lock directory", e.Name())
		}
	}
}
