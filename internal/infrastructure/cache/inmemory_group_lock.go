package cache

import (
	"context"
	"sync"
	"time"

	"github.com/gearsync/backend/internal/domain/reconcile"
)

// lockEntry represents a held group lock with expiration
type lockEntry struct {
	expiresAt time.Time
}

// InMemoryGroupLock implements GroupLocker using an in-memory map.
// This is suitable for single-instance deployments and testing; locks do
// not coordinate across processes.
type InMemoryGroupLock struct {
	mu        sync.Mutex
	entries   map[string]lockEntry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryGroupLock creates a new in-memory group lock.
// It starts a background goroutine to clean up expired entries.
func NewInMemoryGroupLock() *InMemoryGroupLock {
	lock := &InMemoryGroupLock{
		entries:  make(map[string]lockEntry),
		stopChan: make(chan struct{}),
	}

	lock.wg.Add(1)
	go lock.cleanupLoop()

	return lock
}

// Acquire tries to take the lock for a group, returning true on success
func (l *InMemoryGroupLock) Acquire(ctx context.Context, group string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e, exists := l.entries[group]; exists {
		if time.Now().Before(e.expiresAt) {
			return false, nil
		}
		// Held lock expired, can be taken over
	}

	l.entries[group] = lockEntry{
		expiresAt: time.Now().Add(ttl),
	}
	return true, nil
}

// Release gives up the lock for a group
func (l *InMemoryGroupLock) Release(ctx context.Context, group string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.entries, group)
	return nil
}

// Close stops the cleanup goroutine and releases resources.
// Safe to call multiple times.
func (l *InMemoryGroupLock) Close() error {
	l.closeOnce.Do(func() {
		close(l.stopChan)
		l.wg.Wait()
	})
	return nil
}

// cleanupLoop periodically removes expired entries
func (l *InMemoryGroupLock) cleanupLoop() {
	defer l.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopChan:
			return
		case <-ticker.C:
			l.cleanup()
		}
	}
}

// cleanup removes expired entries
func (l *InMemoryGroupLock) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	for group, e := range l.entries {
		if now.After(e.expiresAt) {
			delete(l.entries, group)
		}
	}
}

var _ reconcile.GroupLocker = (*InMemoryGroupLock)(nil)
