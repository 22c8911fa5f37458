package chat

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidMessage = errors.New("chat: sender, receiver and content are required")
)

// Repository is the message persistence surface.
// Implementations must return conversation queries ordered by timestamp ascending.
type Repository interface {
	Save(ctx context.Context, m Message) error
	SaveAll(ctx context.Context, ms []Message) error
	// FindBetween returns every message where one of a, b is the sender and
	// the other the receiver, timestamp ascending.
	FindBetween(ctx context.Context, a, b string, limit int) ([]Message, error)
	// FindUnread returns messages from senderID to receiverID in status SENT.
	FindUnread(ctx context.Context, senderID, receiverID string) ([]Message, error)
}

// Pusher delivers a stored message to the receiver's private channel.
type Pusher interface {
	PushToUser(ctx context.Context, receiverID string, m Message) error
}

// Service persists messages and forwards them to receivers.
//
// Deliver is at-least-once-stored, best-effort-pushed: persistence strictly
// precedes the push, and a failed push is logged but never undone — the
// receiver recovers missed messages via History on reconnect.
type Service struct {
	repo         Repository
	pusher       Pusher
	log          *slog.Logger
	historyLimit int

	clock func() time.Time

	// Timestamps are non-decreasing even if the wall clock steps back.
	mu     sync.Mutex
	lastTS int64
}

func NewService(repo Repository, pusher Pusher, log *slog.Logger, historyLimit int) *Service {
	if log == nil {
		log = slog.Default()
	}
	if historyLimit <= 0 {
		historyLimit = 500
	}
	return &Service{
		repo:         repo,
		pusher:       pusher,
		log:          log,
		historyLimit: historyLimit,
		clock:        time.Now,
	}
}

// Deliver validates, stamps, persists, and pushes one message.
// The returned message is the stored copy (id, timestamp, status assigned).
func (s *Service) Deliver(ctx context.Context, m Message) (Message, error) {
	if m.SenderID == "" || m.ReceiverID == "" || m.Content == "" {
		return Message{}, ErrInvalidMessage
	}

	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.Timestamp = s.nextTimestamp()
	m.Status = StatusSent

	// Durability precedes visibility: never push a message that is not stored.
	if err := s.repo.Save(ctx, m); err != nil {
		return Message{}, err
	}

	if s.pusher != nil {
		if err := s.pusher.PushToUser(ctx, m.ReceiverID, m); err != nil {
			s.log.Warn("push after persist failed",
				"message_id", m.ID,
				"receiver_id", m.ReceiverID,
				"err", err,
			)
		}
	}
	return m, nil
}

// MarkRead bulk-transitions SENT to READ for every message from senderID to
// receiverID. Idempotent: already-READ messages are not selected again.
// Messages arriving mid-operation may or may not be included; no lock is taken.
func (s *Service) MarkRead(ctx context.Context, senderID, receiverID string) error {
	if senderID == "" || receiverID == "" {
		return ErrInvalidMessage
	}

	unread, err := s.repo.FindUnread(ctx, senderID, receiverID)
	if err != nil {
		return err
	}
	if len(unread) == 0 {
		return nil
	}
	for i := range unread {
		unread[i].Status = StatusRead
	}
	return s.repo.SaveAll(ctx, unread)
}

// History returns the conversation between a and b, timestamp ascending.
func (s *Service) History(ctx context.Context, a, b string) ([]Message, error) {
	if a == "" || b == "" {
		return nil, ErrInvalidMessage
	}
	return s.repo.FindBetween(ctx, a, b, s.historyLimit)
}

func (s *Service) nextTimestamp() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts := s.clock().UnixMilli()
	if ts < s.lastTS {
		ts = s.lastTS
	}
	s.lastTS = ts
	return ts
}
