// Package push delivers stored chat messages to connected receivers.
// The Hub tracks local sessions; the RedisBridge fans out across instances.
package push

import (
	"context"
	"errors"
	"sync"

	"github.com/deploy-ENV/GOVT-PROJECT-BACKEND/internal/chat"
)

// ErrNotConnected: the receiver has no session on this instance.
// Best-effort semantics; callers log and move on.
var ErrNotConnected = errors.New("push: receiver not connected")

// Hub is the local registry of per-subject delivery callbacks.
// A subject may hold several sessions (multiple devices); each gets the push.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[int]func(chat.Message)
	nextID int
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[int]func(chat.Message))}
}

// Subscribe registers a delivery callback for subjectID and returns a cancel
// function. The callback must not block; session writers buffer internally.
func (h *Hub) Subscribe(subjectID string, fn func(chat.Message)) (cancel func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	if h.subs[subjectID] == nil {
		h.subs[subjectID] = make(map[int]func(chat.Message))
	}
	h.subs[subjectID][id] = fn

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs[subjectID], id)
		if len(h.subs[subjectID]) == 0 {
			delete(h.subs, subjectID)
		}
	}
}

// PushToUser hands the message to every local session of receiverID.
func (h *Hub) PushToUser(ctx context.Context, receiverID string, m chat.Message) error {
	h.mu.RLock()
	fns := make([]func(chat.Message), 0, len(h.subs[receiverID]))
	for _, fn := range h.subs[receiverID] {
		fns = append(fns, fn)
	}
	h.mu.RUnlock()

	if len(fns) == 0 {
		return ErrNotConnected
	}
	for _, fn := range fns {
		fn(m)
	}
	return nil
}

// Connected reports whether receiverID has at least one local session.
func (h *Hub) Connected(receiverID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[receiverID]) > 0
}
