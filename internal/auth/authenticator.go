package auth

import (
	"context"
	"errors"

	"github.com/deploy-ENV/GOVT-PROJECT-BACKEND/internal/identity"
)

var (
	ErrIdentityNotFound = errors.New("auth: identity not found")
	ErrTokenInvalid     = errors.New("auth: token validation failed")
)

// Authenticator turns a raw bearer token into a bound Principal.
// The same flow backs both the REST middleware and the websocket CONNECT
// interceptor, so the two surfaces cannot drift:
//
//  1. extract username (parse failure yields ErrTokenMalformed)
//  2. extract subject id (legacy token yields ErrSubjectMissing)
//  3. resolve username across the account partitions
//  4. validate signature/expiry against the resolved identity
//  5. build a Principal addressed by subject id, never username
type Authenticator struct {
	tokens   *Manager
	resolver *identity.Resolver
}

func NewAuthenticator(tokens *Manager, resolver *identity.Resolver) *Authenticator {
	return &Authenticator{tokens: tokens, resolver: resolver}
}

// Authenticate runs the full flow on an already-stripped bearer token.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (identity.Principal, error) {
	username, err := a.tokens.ExtractUsername(token)
	if err != nil {
		return identity.Principal{}, err
	}

	subjectID, err := a.tokens.ExtractSubjectID(token)
	if err != nil {
		return identity.Principal{}, err
	}

	account, err := a.resolver.Resolve(ctx, username)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return identity.Principal{}, ErrIdentityNotFound
		}
		return identity.Principal{}, err
	}

	if !a.tokens.Validate(token, account.Username) {
		return identity.Principal{}, ErrTokenInvalid
	}

	p := identity.NewPrincipal(account)
	// The token's subject id is authoritative for addressing; a mismatch with
	// the resolved account means the username was re-registered since issuance.
	if p.SubjectID != subjectID {
		return identity.Principal{}, ErrTokenInvalid
	}
	return p, nil
}
