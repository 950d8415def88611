package query

import (
	"context"
	"sync"
	"time"
)

// StaleNever marks entries that stay fresh until explicitly invalidated.
// A zero StaleAfter refetches on every run, matching the behavior the
// dashboard expects for unconfigured queries.
const StaleNever time.Duration = -1

// Entry is one cached payload plus its freshness bookkeeping. Payload
// holds the marshaled view model so stores stay byte-oriented.
type Entry struct {
	Payload   []byte    `json:"payload"`
	FetchedAt time.Time `json:"fetched_at"`
	Stale     bool      `json:"stale"`
}

// Fresh reports whether the entry can be served without refetching.
func (e Entry) Fresh(staleAfter time.Duration, now time.Time) bool {
	if e.Stale {
		return false
	}
	if staleAfter < 0 {
		return true
	}
	return now.Sub(e.FetchedAt) < staleAfter
}

// Store is a cache backend. Implementations must be safe for concurrent
// use; the client layers its own ordering guarantees on top.
type Store interface {
	// Get returns the entry for key, reporting absence via ok.
	Get(ctx context.Context, key Key) (entry Entry, ok bool, err error)
	// Set writes the entry for key, replacing any previous one.
	Set(ctx context.Context, key Key, entry Entry) error
	// Invalidate marks the entry stale without dropping its payload,
	// forcing a refetch on the next read. Absent keys are a no-op.
	Invalidate(ctx context.Context, key Key) error
	// InvalidatePrefix marks every entry whose key starts with prefix stale.
	InvalidatePrefix(ctx context.Context, prefix Key) error
	// Delete removes the entry for key entirely.
	Delete(ctx context.Context, key Key) error
	// Clear drops every entry.
	Clear(ctx context.Context) error
}

type memoryRecord struct {
	key   Key
	entry Entry
}

// MemoryStore is the default in-process cache.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]memoryRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]memoryRecord)}
}

func (s *MemoryStore) Get(_ context.Context, key Key) (Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[key.Canonical()]
	if !ok {
		return Entry{}, false, nil
	}
	return rec.entry, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key Key, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key.Canonical()] = memoryRecord{key: key, entry: entry}
	return nil
}

func (s *MemoryStore) Invalidate(_ context.Context, key Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	canon := key.Canonical()
	if rec, ok := s.records[canon]; ok {
		rec.entry.Stale = true
		s.records[canon] = rec
	}
	return nil
}

func (s *MemoryStore) InvalidatePrefix(_ context.Context, prefix Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for canon, rec := range s.records {
		if rec.key.HasPrefix(prefix) {
			rec.entry.Stale = true
			s.records[canon] = rec
		}
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key.Canonical())
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]memoryRecord)
	return nil
}

// Len reports the number of stored entries. Test and CLI helper.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
