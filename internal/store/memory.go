package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory implementation of [Store].
//
// Records are keyed by handle. Nothing survives the process.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]JobRecord
	now     func() time.Time
}

// NewMemoryStore creates an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]JobRecord),
		now:     time.Now,
	}
}

// Record stores rec, filling SubmittedAt and UpdatedAt when zero.
func (m *MemoryStore) Record(_ context.Context, rec JobRecord) error {
	now := m.now().UTC()
	if rec.SubmittedAt.IsZero() {
		rec.SubmittedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = rec.SubmittedAt
	}

	m.mu.Lock()
	m.records[rec.Handle] = rec
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) UpdateStatus(_ context.Context, handle, status, outputPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[handle]
	if !ok {
		return ErrNotFound
	}
	rec.Status = status
	if outputPath != "" {
		rec.OutputPath = outputPath
	}
	rec.UpdatedAt = m.now().UTC()
	m.records[handle] = rec
	return nil
}

func (m *MemoryStore) Get(_ context.Context, handle string) (JobRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[handle]
	if !ok {
		return JobRecord{}, ErrNotFound
	}
	return rec, nil
}

// List returns a snapshot; modifying it does not affect the store.
func (m *MemoryStore) List(_ context.Context, limit int) ([]JobRecord, error) {
	m.mu.RLock()
	records := make([]JobRecord, 0, len(m.records))
	for _, rec := range m.records {
		records = append(records, rec)
	}
	m.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		if records[i].SubmittedAt.Equal(records[j].SubmittedAt) {
			return records[i].Handle < records[j].Handle
		}
		return records[i].SubmittedAt.After(records[j].SubmittedAt)
	})

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }
