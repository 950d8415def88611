package query

import (
	"context"
	"sync"
	"time"
)

// IdempotencyStore records mutation outcomes so a retried input replays
// its first result instead of reaching the backend twice.
type IdempotencyStore interface {
	// Check returns the recorded outcome for key when present and unexpired.
	Check(ctx context.Context, key string) (payload []byte, seen bool, err error)
	// Record stores the outcome for key.
	Record(ctx context.Context, key string, payload []byte) error
}

type recordedOutcome struct {
	payload    []byte
	recordedAt time.Time
}

// MemoryIdempotencyStore keeps recorded outcomes in memory.
type MemoryIdempotencyStore struct {
	mu      sync.RWMutex
	entries map[string]recordedOutcome
	ttl     time.Duration
}

// NewMemoryIdempotencyStore creates an in-memory store whose entries
// expire after ttl.
func NewMemoryIdempotencyStore(ttl time.Duration) *MemoryIdempotencyStore {
	s := &MemoryIdempotencyStore{
		entries: make(map[string]recordedOutcome),
		ttl:     ttl,
	}
	// Background cleanup of expired entries
	go s.cleanup()
	return s
}

func (s *MemoryIdempotencyStore) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		s.mu.Lock()
		now := time.Now()
		for k, v := range s.entries {
			if now.Sub(v.recordedAt) > s.ttl {
				delete(s.entries, k)
			}
		}
		s.mu.Unlock()
	}
}

func (s *MemoryIdempotencyStore) Check(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	rec, ok := s.entries[key]
	s.mu.RUnlock()

	if ok && time.Since(rec.recordedAt) < s.ttl {
		return rec.payload, true, nil
	}
	return nil, false, nil
}

func (s *MemoryIdempotencyStore) Record(_ context.Context, key string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = recordedOutcome{payload: payload, recordedAt: time.Now()}
	return nil
}
