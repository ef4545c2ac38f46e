package repository

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/rioastal/wastesense/internal/domain"
)

// Memory keeps records in process, in insertion order. It backs the dev
// store driver and the package tests; semantics mirror the Postgres store.
type Memory struct {
	mu   sync.RWMutex
	ids  []string
	recs map[string]domain.Record
}

func NewMemory() *Memory {
	return &Memory{recs: make(map[string]domain.Record)}
}

func matches(rec domain.Record, sensor domain.Sensor) bool {
	switch sensor {
	case domain.SensorRain:
		return rec.Gvalue != nil
	case domain.SensorGas:
		return rec.Mvalue != nil
	}
	return true
}

func (m *Memory) List(_ context.Context, sensor domain.Sensor) ([]domain.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []domain.Record{}
	for _, id := range m.ids {
		if rec := m.recs[id]; matches(rec, sensor) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *Memory) Create(_ context.Context, f domain.Fields) (domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := domain.Record{
		ID:     uuid.NewString(),
		Gvalue: f.Gvalue,
		Gdate:  f.Gdate,
		Mvalue: f.Mvalue,
		Mdate:  f.Mdate,
	}
	m.ids = append(m.ids, rec.ID)
	m.recs[rec.ID] = rec
	return rec, nil
}

func (m *Memory) UpdateByID(_ context.Context, id string, f domain.Fields) (domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.recs[id]; !ok {
		return domain.Record{}, domain.ErrNotFound
	}
	rec := domain.Record{
		ID:     id,
		Gvalue: f.Gvalue,
		Gdate:  f.Gdate,
		Mvalue: f.Mvalue,
		Mdate:  f.Mdate,
	}
	m.recs[id] = rec
	return rec, nil
}

func (m *Memory) DeleteByID(_ context.Context, id string) (domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.recs[id]
	if !ok {
		return domain.Record{}, domain.ErrNotFound
	}
	delete(m.recs, id)
	m.removeID(id)
	return rec, nil
}

func (m *Memory) DeleteAll(_ context.Context, sensor domain.Sensor) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted int64
	kept := m.ids[:0]
	for _, id := range m.ids {
		if matches(m.recs[id], sensor) {
			delete(m.recs, id)
			deleted++
			continue
		}
		kept = append(kept, id)
	}
	m.ids = kept
	return deleted, nil
}

func (m *Memory) removeID(id string) {
	for i, v := range m.ids {
		if v == id {
			m.ids = append(m.ids[:i], m.ids[i+1:]...)
			return
		}
	}
}
