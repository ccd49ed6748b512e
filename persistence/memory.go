package persistence

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// Memory keeps snapshots in process. Values are copied on save and load.
type Memory struct {
	mu     sync.RWMutex
	data   map[string][]byte
	maxAge time.Duration
}

func NewMemory(maxAge time.Duration) *Memory {
	return &Memory{data: make(map[string][]byte), maxAge: maxAge}
}

func (m *Memory) Save(_ context.Context, s *Snapshot) error {
	if err := s.Validate(); err != nil {
		return err
	}
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[s.SessionID] = b
	return nil
}

func (m *Memory) Load(ctx context.Context, sessionID string) (*Snapshot, error) {
	m.mu.RLock()
	b, ok := m.data[sessionID]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSnapshotNotFound
	}
	var s Snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	if err := checkFresh(&s, m.maxAge); err != nil {
		_ = m.Delete(ctx, sessionID)
		return nil, err
	}
	return &s, nil
}

func (m *Memory) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, sessionID)
	return nil
}

func (m *Memory) List(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
