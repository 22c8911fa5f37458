package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/deploy-ENV/GOVT-PROJECT-BACKEND/internal/chat"
)

// ErrNotAuthenticated: a chat frame arrived on a connection with no bound
// principal. The message is dropped, never forwarded with a claimed sender.
var ErrNotAuthenticated = errors.New("ws: connection not authenticated")

// Router receives inbound chat payloads after connection authentication and
// delegates to the message store.
type Router struct {
	svc *chat.Service
	log *slog.Logger
}

func NewRouter(svc *chat.Service, log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}
	return &Router{svc: svc, log: log}
}

// Route parses the payload and delivers it as the session's bound principal.
//
// The claimed senderId in the payload is never trusted: it is overwritten
// unconditionally with the principal's subject id before any processing.
// This is the boundary that prevents identity spoofing over the chat channel.
func (r *Router) Route(ctx context.Context, s *Session, payload []byte) error {
	p, ok := s.Principal()
	if !ok {
		r.log.Warn("dropping chat frame from unauthenticated connection", "conn_id", s.ID())
		return ErrNotAuthenticated
	}

	var m chat.Message
	if err := json.Unmarshal(payload, &m); err != nil {
		return fmt.Errorf("%w: %s", chat.ErrInvalidMessage, "bad payload")
	}

	m.SenderID = p.SubjectID

	_, err := r.svc.Deliver(ctx, m)
	return err
}
