package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/JonMunkholm/eleitores/internal/core"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory with a sliding TTL.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates an in-memory store. Sessions idle for longer than
// ttl are treated as gone.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Save stores s, replacing any previous version and resetting its TTL.
func (m *MemoryStore) Save(_ context.Context, s *core.ImportSession) error {
	data, err := encode(s)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.entries[s.ID] = memoryEntry{data: data, expiresAt: m.now().Add(m.ttl)}
	m.mu.Unlock()
	return nil
}

// Load returns a copy of the stored session.
func (m *MemoryStore) Load(_ context.Context, id string) (*core.ImportSession, error) {
	m.mu.RLock()
	e, ok := m.entries[id]
	m.mu.RUnlock()

	if !ok || !m.now().Before(e.expiresAt) {
		return nil, core.ErrSessionNotFound
	}
	return decode(e.data)
}

// Delete removes a session. Deleting an unknown id is not an error.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.entries, id)
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored sessions, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Sweep drops expired sessions and returns how many were removed.
func (m *MemoryStore) Sweep() int {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, id)
			removed++
		}
	}
	return removed
}

// RunJanitor sweeps expired sessions every interval until ctx is cancelled.
func (m *MemoryStore) RunJanitor(ctx context.Context, interval time.Duration) error {
	slog.Info("session janitor started", "interval", interval, "ttl", m.ttl)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session janitor stopped")
			return nil
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				slog.Info("expired import sessions removed", "count", n, "remaining", m.Len())
			}
		}
	}
}
