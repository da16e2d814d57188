package cache

import (
	"context"
	"encoding/json"
	"path"
	"sync"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/scoring"
)

type memoryEntry struct {
	payload []byte
	expires time.Time
}

// MemoryCache is a process-local CacheService and DraftStore. It backs tests and
// single-instance deployments without redis.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	drafts  map[uint]map[uint]scoring.Answer
	now     func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		drafts:  make(map[uint]map[uint]scoring.Answer),
		now:     time.Now,
	}
}

func (m *MemoryCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	entry := memoryEntry{payload: payload}
	if ttl > 0 {
		entry.expires = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[key] = entry
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache) Get(_ context.Context, key string, dest any) error {
	m.mu.Lock()
	entry, ok := m.entries[key]
	if ok && !entry.expires.IsZero() && m.now().After(entry.expires) {
		delete(m.entries, key)
		ok = false
	}
	m.mu.Unlock()
	if !ok {
		return ErrCacheMiss
	}
	return json.Unmarshal(entry.payload, dest)
}

func (m *MemoryCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// DeletePattern accepts the same glob syntax redis SCAN MATCH uses for * and ?
func (m *MemoryCache) DeletePattern(_ context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.entries {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.entries, key)
		}
	}
	return nil
}

func (m *MemoryCache) SaveDraftAnswer(_ context.Context, attemptID, questionID uint, answer scoring.Answer, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	draft, ok := m.drafts[attemptID]
	if !ok {
		draft = make(map[uint]scoring.Answer)
		m.drafts[attemptID] = draft
	}
	draft[questionID] = answer
	return nil
}

func (m *MemoryCache) LoadDraft(_ context.Context, attemptID uint) (map[uint]scoring.Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[uint]scoring.Answer, len(m.drafts[attemptID]))
	for id, ans := range m.drafts[attemptID] {
		out[id] = ans
	}
	return out, nil
}

func (m *MemoryCache) ClearDraft(_ context.Context, attemptID uint) error {
	m.mu.Lock()
	delete(m.drafts, attemptID)
	m.mu.Unlock()
	return nil
}
