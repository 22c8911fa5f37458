package auth

import (
	"context"
	"errors"

	"github.com/deploy-ENV/GOVT-PROJECT-BACKEND/internal/identity"
)

type ctxKey int

const ctxPrincipal ctxKey = iota

// WithPrincipal attaches the authenticated principal to a request context.
// The principal always travels explicitly; there is no process-wide holder.
func WithPrincipal(ctx context.Context, p identity.Principal) context.Context {
	return context.WithValue(ctx, ctxPrincipal, p)
}

// PrincipalFrom returns the bound principal, or an error if none is bound.
func PrincipalFrom(ctx context.Context) (identity.Principal, error) {
	if p, ok := ctx.Value(ctxPrincipal).(identity.Principal); ok && p.SubjectID != "" {
		return p, nil
	}
	return identity.Principal{}, errors.New("principal not in context")
}
