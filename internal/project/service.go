package project

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("project: not found")
	ErrInvalidArgument   = errors.New("project: invalid argument")
	ErrInvalidTransition = errors.New("project: invalid status transition")
)

type Repository interface {
	Save(ctx context.Context, p Project) error
	Get(ctx context.Context, id string) (Project, error)
	UpdateStatus(ctx context.Context, id string, from, to Status, updatedAt time.Time) error
	ListByManager(ctx context.Context, managerID string) ([]Project, error)
}

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

func (s *Service) Create(ctx context.Context, name, managerID string) (Project, error) {
	if name == "" || managerID == "" {
		return Project{}, ErrInvalidArgument
	}
	now := s.clock().UTC()
	p := Project{
		ID:        uuid.NewString(),
		Name:      name,
		ManagerID: managerID,
		Status:    StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Save(ctx, p); err != nil {
		return Project{}, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id string) (Project, error) {
	if id == "" {
		return Project{}, ErrInvalidArgument
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) ListByManager(ctx context.Context, managerID string) ([]Project, error) {
	if managerID == "" {
		return nil, ErrInvalidArgument
	}
	return s.repo.ListByManager(ctx, managerID)
}

// Transition moves a project to the requested status if the edge is legal.
// The repository enforces the from-status on write, so a concurrent transition
// loses cleanly instead of skipping a state.
func (s *Service) Transition(ctx context.Context, id string, to Status) (Project, error) {
	if id == "" || !to.Valid() {
		return Project{}, ErrInvalidArgument
	}
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return Project{}, err
	}
	if !p.Status.CanTransition(to) {
		return Project{}, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, p.Status, to)
	}

	now := s.clock().UTC()
	if err := s.repo.UpdateStatus(ctx, id, p.Status, to, now); err != nil {
		return Project{}, err
	}
	p.Status = to
	p.UpdatedAt = now
	return p, nil
}
