package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Service handles registration and credential checks over the partition stores.
type Service struct {
	resolver *Resolver
	stores   map[Partition]Store
	clock    func() time.Time
}

func NewService(resolver *Resolver, stores ...Store) *Service {
	m := make(map[Partition]Store, len(stores))
	for _, s := range stores {
		m[s.Partition()] = s
	}
	return &Service{resolver: resolver, stores: m, clock: time.Now}
}

// Register creates an account in the given partition.
// Username uniqueness is enforced globally: the resolver is probed across all
// partitions before the insert. This closes the historical gap where the same
// username could exist in two partitions and reads depended on probe order.
func (s *Service) Register(ctx context.Context, p Partition, username, rawPassword string) (Account, error) {
	if username == "" || rawPassword == "" {
		return Account{}, ErrInvalidArgument
	}
	store, ok := s.stores[p]
	if !ok {
		return Account{}, ErrInvalidArgument
	}

	if _, err := s.resolver.Resolve(ctx, username); err == nil {
		return Account{}, ErrUsernameTaken
	} else if !errors.Is(err, ErrNotFound) {
		return Account{}, err
	}

	hash, err := HashPassword(rawPassword)
	if err != nil {
		return Account{}, err
	}

	a := Account{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		Partition:    p,
		Roles:        []string{p.Role()},
		CreatedAt:    s.clock().UTC(),
	}
	if err := store.Create(ctx, a); err != nil {
		return Account{}, err
	}
	return a, nil
}

// Authenticate verifies a username/password pair against one partition.
// ErrInvalidCredentials covers both unknown username and wrong password so the
// response does not leak which one failed.
func (s *Service) Authenticate(ctx context.Context, p Partition, username, rawPassword string) (Account, error) {
	if username == "" || rawPassword == "" {
		return Account{}, ErrInvalidCredentials
	}
	store, ok := s.stores[p]
	if !ok {
		return Account{}, ErrInvalidArgument
	}

	a, err := store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Account{}, ErrInvalidCredentials
		}
		return Account{}, err
	}
	if !CheckPassword(a.PasswordHash, rawPassword) {
		return Account{}, ErrInvalidCredentials
	}
	return a, nil
}

// Resolver exposes the read-side resolver for collaborators (ws authenticator).
func (s *Service) Resolver() *Resolver { return s.resolver }
