package project

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory project repository useful for tests.
type MemoryRepo struct {
	mu       sync.Mutex
	projects map[string]Project
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{projects: make(map[string]Project)}
}

func (r *MemoryRepo) Save(ctx context.Context, p Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projects[p.ID] = p
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return Project{}, ErrNotFound
	}
	return p, nil
}

func (r *MemoryRepo) UpdateStatus(ctx context.Context, id string, from, to Status, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return ErrNotFound
	}
	if p.Status != from {
		return ErrInvalidTransition
	}
	p.Status = to
	p.UpdatedAt = updatedAt
	r.projects[id] = p
	return nil
}

func (r *MemoryRepo) ListByManager(ctx context.Context, managerID string) ([]Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Project
	for _, p := range r.projects {
		if p.ManagerID == managerID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
