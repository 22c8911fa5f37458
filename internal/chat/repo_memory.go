package chat

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory message repository useful for tests.
// It is not intended for production use.
type MemoryRepo struct {
	mu       sync.Mutex
	messages []Message
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) Save(ctx context.Context, m Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, m)
	return nil
}

func (r *MemoryRepo) SaveAll(ctx context.Context, ms []Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range ms {
		for i := range r.messages {
			if r.messages[i].ID == m.ID {
				r.messages[i] = m
				break
			}
		}
	}
	return nil
}

func (r *MemoryRepo) FindBetween(ctx context.Context, a, b string, limit int) ([]Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Message
	for _, m := range r.messages {
		if (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepo) FindUnread(ctx context.Context, senderID, receiverID string) ([]Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Message
	for _, m := range r.messages {
		if m.SenderID == senderID && m.ReceiverID == receiverID && m.Status == StatusSent {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out, nil
}

// All returns a copy of every stored message, insertion order.
func (r *MemoryRepo) All() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}
