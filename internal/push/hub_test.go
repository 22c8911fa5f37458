package push

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/deploy-ENV/GOVT-PROJECT-BACKEND/internal/chat"
)

func TestHub_PushReachesAllSessionsOfReceiver(t *testing.T) {
	h := NewHub()

	var mu sync.Mutex
	var got []string
	record := func(tag string) func(chat.Message) {
		return func(m chat.Message) {
			mu.Lock()
			got = append(got, tag+":"+m.ID)
			mu.Unlock()
		}
	}

	cancel1 := h.Subscribe("u2", record("a"))
	defer cancel1()
	cancel2 := h.Subscribe("u2", record("b"))
	defer cancel2()
	cancelOther := h.Subscribe("u3", record("other"))
	defer cancelOther()

	if err := h.PushToUser(context.Background(), "u2", chat.Message{ID: "m1"}); err != nil {
		t.Fatalf("push: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 {
		t.Fatalf("expected both u2 sessions to receive, got %v", got)
	}
	for _, g := range got {
		if g == "other:m1" {
			t.Fatalf("u3 must not receive u2's message")
		}
	}
}

func TestHub_NoReceiver(t *testing.T) {
	h := NewHub()
	err := h.PushToUser(context.Background(), "nobody", chat.Message{ID: "m1"})
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestHub_CancelStopsDelivery(t *testing.T) {
	h := NewHub()

	delivered := 0
	cancel := h.Subscribe("u2", func(chat.Message) { delivered++ })

	if err := h.PushToUser(context.Background(), "u2", chat.Message{ID: "m1"}); err != nil {
		t.Fatalf("push: %v", err)
	}
	cancel()
	if h.Connected("u2") {
		t.Fatalf("expected u2 disconnected after cancel")
	}
	if err := h.PushToUser(context.Background(), "u2", chat.Message{ID: "m2"}); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected after cancel, got %v", err)
	}
	if delivered != 1 {
		t.Fatalf("expected exactly one delivery, got %d", delivered)
	}
}
