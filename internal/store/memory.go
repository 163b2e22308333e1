package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/atmx/ledger-engine/internal/model"
)

// MemoryStore implements Store with in-memory maps. Used for testing
// and development. Not suitable for production (no persistence).
type MemoryStore struct {
	mu      sync.RWMutex
	reports map[string]*model.Report
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		reports: make(map[string]*model.Report),
	}
}

func (s *MemoryStore) SaveReport(_ context.Context, r *model.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reports[r.ID]; ok {
		return fmt.Errorf("report %s already exists", r.ID)
	}
	s.reports[r.ID] = copyReport(r)
	return nil
}

func (s *MemoryStore) GetReport(_ context.Context, id string) (*model.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reports[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return copyReport(r), nil
}

func (s *MemoryStore) ListReports(_ context.Context) ([]model.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reports := make([]model.Report, 0, len(s.reports))
	for _, r := range s.reports {
		reports = append(reports, model.Report{ID: r.ID, GeneratedAt: r.GeneratedAt})
	}
	sort.Slice(reports, func(i, j int) bool {
		return reports[i].GeneratedAt.After(reports[j].GeneratedAt)
	})
	return reports, nil
}

func (s *MemoryStore) GetClientHistory(_ context.Context, client uint16) ([]model.AccountRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ordered := make([]*model.Report, 0, len(s.reports))
	for _, r := range s.reports {
		ordered = append(ordered, r)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].GeneratedAt.Before(ordered[j].GeneratedAt)
	})

	history := []model.AccountRow{}
	for _, r := range ordered {
		for _, row := range r.Rows {
			if row.Client == client {
				history = append(history, row)
				break
			}
		}
	}
	return history, nil
}

// copyReport isolates stored reports from caller mutation.
func copyReport(r *model.Report) *model.Report {
	c := *r
	c.Rows = make([]model.AccountRow, len(r.Rows))
	copy(c.Rows, r.Rows)
	return &c
}
