package storage

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"janitor-hq/janitor/pkg/audit"
)

// MemoryStorage implements audit.Storage with an in-memory map. Records are
// lost when the process exits.
type MemoryStorage struct {
	records map[string]*audit.Record
	order   map[string]uint64
	seq     uint64
	mu      sync.RWMutex
}

// NewMemoryStorage creates a new in-memory storage backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		records: make(map[string]*audit.Record),
		order:   make(map[string]uint64),
	}
}

// Store persists a copy of record.
func (s *MemoryStorage) Store(ctx context.Context, record *audit.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[record.ID]; exists {
		return audit.NewStorageError("memory", "store", fmt.Errorf("duplicate record id %q", record.ID))
	}
	recordCopy := *record
	s.records[record.ID] = &recordCopy
	s.seq++
	s.order[record.ID] = s.seq
	return nil
}

// Query retrieves records matching the filters.
func (s *MemoryStorage) Query(ctx context.Context, query *audit.Query) ([]*audit.Record, error) {
	if query == nil {
		query = &audit.Query{}
	}
	if _, err := sortOrder(query); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := []*audit.Record{}
	for _, record := range s.records {
		if matchesQuery(record, query) {
			recordCopy := *record
			results = append(results, &recordCopy)
		}
	}

	desc := !strings.EqualFold(query.SortOrder, audit.SortAsc)
	slices.SortFunc(results, func(a, b *audit.Record) int {
		c := a.Timestamp.Compare(b.Timestamp)
		if c == 0 {
			c = cmp.Compare(s.order[a.ID], s.order[b.ID])
		}
		if desc {
			return -c
		}
		return c
	})

	start := query.Offset
	if start > len(results) {
		return []*audit.Record{}, nil
	}
	results = results[start:]
	if query.Limit > 0 && query.Limit < len(results) {
		results = results[:query.Limit]
	}
	return results, nil
}

// QueryStream streams the result of Query.
func (s *MemoryStorage) QueryStream(ctx context.Context, query *audit.Query) (<-chan *audit.Record, <-chan error, error) {
	records, err := s.Query(ctx, query)
	if err != nil {
		return nil, nil, err
	}

	recordsCh := make(chan *audit.Record, 100)
	errCh := make(chan error, 1)

	go func() {
		defer close(recordsCh)
		defer close(errCh)

		for _, record := range records {
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case recordsCh <- record:
			}
		}
	}()

	return recordsCh, errCh, nil
}

// Count returns the number of matching records.
func (s *MemoryStorage) Count(ctx context.Context, query *audit.Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, record := range s.records {
		if matchesQuery(record, query) {
			count++
		}
	}
	return count, nil
}

// Delete removes matching records.
func (s *MemoryStorage) Delete(ctx context.Context, query *audit.Query) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, record := range s.records {
		if matchesQuery(record, query) {
			delete(s.records, id)
			delete(s.order, id)
			deleted++
		}
	}
	return deleted, nil
}

// Close drops all records.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]*audit.Record)
	s.order = make(map[string]uint64)
	return nil
}

// Size returns the number of stored records.
func (s *MemoryStorage) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func matchesQuery(record *audit.Record, query *audit.Query) bool {
	if query == nil {
		return true
	}
	if query.StartTime != nil && record.Timestamp.Before(*query.StartTime) {
		return false
	}
	if query.EndTime != nil && record.Timestamp.After(*query.EndTime) {
		return false
	}
	if len(query.IDs) > 0 && !slices.Contains(query.IDs, record.ID) {
		return false
	}
	if query.RunID != "" && record.RunID != query.RunID {
		return false
	}
	if query.Pass != "" && record.Pass != query.Pass {
		return false
	}
	if query.Action != "" && record.Action != query.Action {
		return false
	}
	if query.ContentType != "" && record.ContentType != query.ContentType {
		return false
	}
	if query.ContentID != "" && record.ContentID != query.ContentID {
		return false
	}
	if query.DryRun != nil && record.DryRun != *query.DryRun {
		return false
	}
	switch query.Status {
	case audit.StatusSuccess:
		if !record.Success {
			return false
		}
	case audit.StatusError:
		if record.Success {
			return false
		}
	}
	return true
}
