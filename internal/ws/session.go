package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/deploy-ENV/GOVT-PROJECT-BACKEND/internal/chat"
	"github.com/deploy-ENV/GOVT-PROJECT-BACKEND/internal/identity"
	"github.com/deploy-ENV/GOVT-PROJECT-BACKEND/internal/push"
	"github.com/deploy-ENV/GOVT-PROJECT-BACKEND/internal/stomp"

	"github.com/google/uuid"
)

// State of one connection's authentication lifecycle.
// Unauthenticated, then Authenticated, then Closed; there is no way back from
// Authenticated to Unauthenticated within a connection's life.
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticated
	StateClosed
)

const (
	destSend  = "/app/chat.send"
	destQueue = "/user/queue/messages"
)

// Conn is the transport surface a session needs. *websocket.Conn satisfies it;
// tests substitute an in-memory pipe.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// textMessage mirrors websocket.TextMessage without importing gorilla here.
const textMessage = 1

// Session owns one persistent connection: the authentication state machine,
// the frame loop, and the subscription bridge to the delivery hub.
//
// The bound principal lives on the session and nowhere else. It is set at most
// once, by the CONNECT interceptor, and is immutable afterwards.
type Session struct {
	id           string
	conn         Conn
	log          *slog.Logger
	interceptor  *Interceptor
	router       *Router
	hub          *push.Hub
	writeTimeout time.Duration

	mu            sync.Mutex
	state         State
	principal     *identity.Principal
	failure       *AuthFailure
	authAttempted bool
	subCancel     func()

	outbound  chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func NewSession(conn Conn, interceptor *Interceptor, router *Router, hub *push.Hub, log *slog.Logger, writeTimeout time.Duration) *Session {
	id := uuid.NewString()
	if log == nil {
		log = slog.Default()
	}
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	return &Session{
		id:           id,
		conn:         conn,
		log:          log.With("conn_id", id),
		interceptor:  interceptor,
		router:       router,
		hub:          hub,
		writeTimeout: writeTimeout,
		outbound:     make(chan []byte, 32),
		done:         make(chan struct{}),
	}
}

func (s *Session) ID() string { return s.id }

// Principal returns the bound principal, if authentication succeeded.
func (s *Session) Principal() (identity.Principal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.principal == nil {
		return identity.Principal{}, false
	}
	return *s.principal, true
}

// Failure returns the recorded authentication failure, if any.
// This is the diagnostic surface: the transport stays open on auth failure,
// but the reason is observable here and in the logs.
func (s *Session) Failure() *AuthFailure {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failure
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// bind attaches the principal. First write wins; later calls are ignored.
func (s *Session) bind(p identity.Principal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.principal != nil || s.state == StateClosed {
		return
	}
	s.principal = &p
	s.state = StateAuthenticated
}

func (s *Session) recordFailure(f AuthFailure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failure == nil {
		s.failure = &f
	}
}

// markAuthAttempt returns true exactly once. Authentication runs on the first
// CONNECT frame only; anything after passes through unexamined.
func (s *Session) markAuthAttempt() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.authAttempted {
		return false
	}
	s.authAttempted = true
	return true
}

// Run drives the session until the transport closes or ctx is cancelled.
func (s *Session) Run(ctx context.Context) {
	go s.writeLoop()
	defer s.Close()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			s.log.Debug("read loop ended", "err", err)
			return
		}

		frame, err := stomp.Decode(raw)
		if err != nil {
			s.sendError("malformed frame", err.Error())
			continue
		}
		if !s.handleFrame(ctx, frame) {
			return
		}
	}
}

// handleFrame returns false when the session should terminate.
func (s *Session) handleFrame(ctx context.Context, f *stomp.Frame) bool {
	switch {
	case f.IsConnect():
		s.handleConnect(ctx, f)
	case f.Command == stomp.CommandSubscribe:
		s.handleSubscribe(f)
	case f.Command == stomp.CommandSend:
		s.handleSend(ctx, f)
	case f.Command == stomp.CommandDisconnect:
		return false
	}
	return true
}

func (s *Session) handleConnect(ctx context.Context, f *stomp.Frame) {
	if s.markAuthAttempt() {
		s.interceptor.OnConnect(ctx, s, f)
		// Auth failures never reject the transport: CONNECTED goes out either
		// way, and an unauthenticated session simply finds no principal later.
		s.enqueue(stomp.NewFrame(stomp.CommandConnected, nil).
			Set("version", "1.2").
			Encode())
	}
}

func (s *Session) handleSubscribe(f *stomp.Frame) {
	if f.Header("destination") != destQueue {
		return
	}
	p, ok := s.Principal()
	if !ok {
		// No bound principal: the subscription is a silent no-op.
		s.log.Warn("subscribe without principal ignored", "destination", destQueue)
		return
	}

	subID := f.Header("id")
	cancel := s.hub.Subscribe(p.SubjectID, func(m chat.Message) {
		body, err := json.Marshal(m)
		if err != nil {
			return
		}
		frame := stomp.NewFrame(stomp.CommandMessage, body).
			Set("destination", destQueue).
			Set("message-id", m.ID).
			Set("content-type", "application/json")
		if subID != "" {
			frame.Set("subscription", subID)
		}
		s.enqueue(frame.Encode())
	})

	s.mu.Lock()
	if s.subCancel != nil {
		s.subCancel()
	}
	s.subCancel = cancel
	s.mu.Unlock()
}

func (s *Session) handleSend(ctx context.Context, f *stomp.Frame) {
	if f.Header("destination") != destSend {
		return
	}
	if err := s.router.Route(ctx, s, f.Body); err != nil {
		switch {
		case errors.Is(err, ErrNotAuthenticated):
			s.sendError("not authenticated", "message dropped")
		case errors.Is(err, chat.ErrInvalidMessage):
			s.sendError("invalid message", "message dropped")
		default:
			s.log.Error("message delivery failed", "err", err)
			s.sendError("delivery failed", "message dropped")
		}
	}
}

func (s *Session) sendError(message, detail string) {
	s.enqueue(stomp.NewFrame(stomp.CommandError, []byte(detail)).
		Set("message", message).
		Encode())
}

func (s *Session) enqueue(raw []byte) {
	select {
	case s.outbound <- raw:
	case <-s.done:
	default:
		// Slow consumer: drop rather than block the hub or the read loop.
		s.log.Warn("outbound buffer full, dropping frame")
	}
}

func (s *Session) writeLoop() {
	for {
		select {
		case <-s.done:
			return
		case raw := <-s.outbound:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if err := s.conn.WriteMessage(textMessage, raw); err != nil {
				s.log.Debug("write failed", "err", err)
				s.Close()
				return
			}
		}
	}
}

// Close transitions to Closed, detaches the hub subscription, and closes the
// transport. Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.state = StateClosed
		cancel := s.subCancel
		s.subCancel = nil
		s.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		close(s.done)
		_ = s.conn.Close()
	})
}
