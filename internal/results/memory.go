package results

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-memory Store for development/testing.
type MemoryStore struct {
	mu       sync.RWMutex
	runs     map[string]Run
	episodes map[string][]Episode
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore constructs a MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		runs:     make(map[string]Run),
		episodes: make(map[string][]Episode),
	}
}

func (m *MemoryStore) Init(context.Context) error { return nil }

func (m *MemoryStore) SaveRun(_ context.Context, run Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.runs[run.ID]; exists {
		return ErrConflict
	}
	m.runs[run.ID] = run
	return nil
}

func (m *MemoryStore) GetRun(_ context.Context, id string) (Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[id]
	if !ok {
		return Run{}, ErrNotFound
	}
	return run, nil
}

func (m *MemoryStore) AppendEpisode(_ context.Context, episode Episode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[episode.RunID]; !ok {
		return ErrNotFound
	}
	for _, existing := range m.episodes[episode.RunID] {
		if existing.Episode == episode.Episode {
			return ErrConflict
		}
	}
	m.episodes[episode.RunID] = append(m.episodes[episode.RunID], episode)
	return nil
}

func (m *MemoryStore) Episodes(_ context.Context, runID string) ([]Episode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.runs[runID]; !ok {
		return nil, ErrNotFound
	}
	out := append([]Episode(nil), m.episodes[runID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Episode < out[j].Episode })
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }
