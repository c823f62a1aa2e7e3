package store

import (
	"context"
	"sort"
	"sync"

	"resumescreen/internal/types"
)

// Memory is an in-process Store.
type Memory struct {
	mu      sync.RWMutex
	details map[string]*types.ResumeDetail
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{details: make(map[string]*types.ResumeDetail)}
}

func (m *Memory) SaveDetail(ctx context.Context, detail *types.ResumeDetail) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.details[detail.ID] = cloneDetail(detail)
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (*types.ResumeDetail, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.details[id]
	if !ok {
		return nil, notFound(id)
	}
	return cloneDetail(d), nil
}

func (m *Memory) List(_ context.Context, f types.ListFilter) ([]types.ResumeRecord, error) {
	m.mu.RLock()
	out := make([]types.ResumeRecord, 0, len(m.details))
	for _, d := range m.details {
		if f.Status != "" && d.Status != f.Status {
			continue
		}
		if f.JDHash != "" && d.JDHash != f.JDHash {
			continue
		}
		out = append(out, cloneDetail(d).ResumeRecord)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].UploadTime.Equal(out[j].UploadTime) {
			return out[i].UploadTime.After(out[j].UploadTime)
		}
		return out[i].ID > out[j].ID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.details[id]; !ok {
		return notFound(id)
	}
	delete(m.details, id)
	return nil
}

func (m *Memory) Purge(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.details))
	m.details = make(map[string]*types.ResumeDetail)
	return n, nil
}

func (m *Memory) Close() error { return nil }
