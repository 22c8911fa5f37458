package ws

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/deploy-ENV/GOVT-PROJECT-BACKEND/internal/auth"
	"github.com/deploy-ENV/GOVT-PROJECT-BACKEND/internal/stomp"
)

// FailureReason classifies why CONNECT authentication did not bind a principal.
type FailureReason string

const (
	FailureHeaderMissing    FailureReason = "auth_header_missing"
	FailureHeaderMalformed  FailureReason = "auth_header_malformed"
	FailureTokenMalformed   FailureReason = "token_malformed"
	FailureSubjectMissing   FailureReason = "identity_field_missing"
	FailureIdentityNotFound FailureReason = "identity_not_found"
	FailureTokenInvalid     FailureReason = "token_validation_failed"
)

// AuthFailure is the observable diagnostic for an absorbed auth failure.
type AuthFailure struct {
	Reason FailureReason
	Err    error
}

const authorizationHeader = "Authorization"
const bearerPrefix = "Bearer "

// Interceptor authenticates the connection's open control frame.
//
// Policy, deliberately: failures never close or reject the transport. The
// session just stays unauthenticated, the reason lands on the session's
// diagnostic record and in the log, and privileged operations downstream find
// no principal. Compatibility with the pre-existing client behavior depends on
// this.
type Interceptor struct {
	auth *auth.Authenticator
	log  *slog.Logger
}

func NewInterceptor(a *auth.Authenticator, log *slog.Logger) *Interceptor {
	if log == nil {
		log = slog.Default()
	}
	return &Interceptor{auth: a, log: log}
}

// OnConnect runs the authentication flow against a CONNECT frame and binds the
// resulting principal to the session. Runs at most once per connection; the
// session guarantees that.
func (i *Interceptor) OnConnect(ctx context.Context, s *Session, f *stomp.Frame) {
	log := i.log.With("conn_id", s.ID())

	header := f.Header(authorizationHeader)
	if header == "" {
		s.recordFailure(AuthFailure{Reason: FailureHeaderMissing})
		log.Warn("ws connect without authorization header")
		return
	}
	if !strings.HasPrefix(header, bearerPrefix) {
		s.recordFailure(AuthFailure{Reason: FailureHeaderMalformed})
		log.Warn("ws connect with malformed authorization header")
		return
	}
	token := strings.TrimPrefix(header, bearerPrefix)

	p, err := i.auth.Authenticate(ctx, token)
	if err != nil {
		failure := AuthFailure{Reason: classify(err), Err: err}
		s.recordFailure(failure)
		log.Warn("ws connect authentication failed", "reason", string(failure.Reason), "err", err)
		return
	}

	s.bind(p)
	log.Info("ws connect authenticated",
		"subject_id", p.SubjectID,
		"partition", string(p.Partition),
	)
}

func classify(err error) FailureReason {
	switch {
	case errors.Is(err, auth.ErrSubjectMissing):
		return FailureSubjectMissing
	case errors.Is(err, auth.ErrTokenMalformed):
		return FailureTokenMalformed
	case errors.Is(err, auth.ErrIdentityNotFound):
		return FailureIdentityNotFound
	default:
		return FailureTokenInvalid
	}
}
