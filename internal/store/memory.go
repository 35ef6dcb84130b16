package store

import (
	"context"
	"fmt"
	"sync"

	"brawl-tracker/internal/domain"
)

// Memory is an in-memory Store and Roster, used by tests and by local runs
// without spreadsheet credentials.
type Memory struct {
	mu      sync.RWMutex
	records []domain.MatchRecord
	roster  []domain.TrackedPlayer
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) ReadAll(ctx context.Context) ([]domain.MatchRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.MatchRecord, len(m.records))
	copy(out, m.records)
	return out, nil
}

func (m *Memory) Append(ctx context.Context, records []domain.MatchRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = append(m.records, records...)
	return nil
}

func (m *Memory) Overwrite(ctx context.Context, records []domain.MatchRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = make([]domain.MatchRecord, len(records))
	copy(m.records, records)
	return nil
}

func (m *Memory) DeleteAt(ctx context.Context, pos int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if pos < 0 || pos >= len(m.records) {
		return fmt.Errorf("%w: row position %d out of range", ErrUnavailable, pos)
	}
	m.records = append(m.records[:pos], m.records[pos+1:]...)
	return nil
}

func (m *Memory) Players(ctx context.Context) ([]domain.TrackedPlayer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.TrackedPlayer, len(m.roster))
	copy(out, m.roster)
	return out, nil
}

// SetRoster replaces the tracked-player list.
func (m *Memory) SetRoster(tags ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.roster = m.roster[:0]
	for _, tag := range tags {
		m.roster = append(m.roster, domain.TrackedPlayer{Tag: domain.CanonicalTag(tag)})
	}
}
