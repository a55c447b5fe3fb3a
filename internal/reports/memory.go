package reports

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/jonathan/ranking-reports/internal/types"
)

// MemoryStore keeps reports in process memory. Contents are lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	reports map[uuid.UUID]*types.Report
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{reports: make(map[uuid.UUID]*types.Report)}
}

// Create stores a copy of report.
func (s *MemoryStore) Create(_ context.Context, report *types.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.reports[report.ID]; exists {
		return fmt.Errorf("report %s already exists", report.ID)
	}
	s.reports[report.ID] = report.Clone()
	return nil
}

// Get returns a copy of the stored report.
func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (*types.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reports[id]
	if !ok {
		return nil, notFound(id)
	}
	return r.Clone(), nil
}

// Update applies fn under the store's write lock.
func (s *MemoryStore) Update(_ context.Context, id uuid.UUID, fn func(*types.Report) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.reports[id]
	if !ok {
		return notFound(id)
	}
	next, err := applyUpdate(current, fn)
	if err != nil {
		return err
	}
	s.reports[id] = next
	return nil
}

// ListByJob returns copies of the job's reports ordered by creation time.
func (s *MemoryStore) ListByJob(_ context.Context, jobID uuid.UUID) ([]types.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []types.Report{}
	for _, r := range s.reports {
		if r.JobID == jobID {
			result = append(result, *r.Clone())
		}
	}
	slices.SortFunc(result, func(a, b types.Report) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return result, nil
}

// ListGenerating returns the IDs of non-terminal reports.
func (s *MemoryStore) ListGenerating(_ context.Context) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := []uuid.UUID{}
	for id, r := range s.reports {
		if r.State == types.ReportGenerating {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
