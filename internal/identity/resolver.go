package identity

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("identity: not found")
	ErrUsernameTaken      = errors.New("identity: username already registered")
	ErrInvalidCredentials = errors.New("identity: invalid credentials")
	ErrInvalidArgument    = errors.New("identity: invalid argument")
)

// Source is one account partition's read surface.
// Implementations must be safe for concurrent use; many connections resolve at once.
type Source interface {
	Partition() Partition
	FindByUsername(ctx context.Context, username string) (Account, error)
	FindByID(ctx context.Context, id string) (Account, error)
}

// Store is a partition that also accepts registrations.
type Store interface {
	Source
	Create(ctx context.Context, a Account) error
}

// Resolver locates an account by username across the partition sources,
// probing them in the order given. First match wins.
type Resolver struct {
	sources []Source
}

// NewResolver orders the given sources by ProbeOrder. Sources for partitions
// outside the closed set are rejected.
func NewResolver(sources ...Source) (*Resolver, error) {
	byPartition := make(map[Partition]Source, len(sources))
	for _, s := range sources {
		p := s.Partition()
		if !p.Valid() {
			return nil, fmt.Errorf("identity: unknown partition %q", p)
		}
		if _, dup := byPartition[p]; dup {
			return nil, fmt.Errorf("identity: duplicate source for partition %q", p)
		}
		byPartition[p] = s
	}

	ordered := make([]Source, 0, len(byPartition))
	for _, p := range ProbeOrder {
		if s, ok := byPartition[p]; ok {
			ordered = append(ordered, s)
		}
	}
	if len(ordered) == 0 {
		return nil, errors.New("identity: at least one source is required")
	}
	return &Resolver{sources: ordered}, nil
}

// Resolve probes each partition in priority order and returns the first account
// whose username matches. ErrNotFound when no partition has the username.
func (r *Resolver) Resolve(ctx context.Context, username string) (Account, error) {
	if username == "" {
		return Account{}, ErrInvalidArgument
	}
	for _, s := range r.sources {
		a, err := s.FindByUsername(ctx, username)
		if err == nil {
			return a, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return Account{}, err
		}
	}
	return Account{}, ErrNotFound
}
