package push

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/deploy-ENV/GOVT-PROJECT-BACKEND/internal/chat"

	"github.com/redis/go-redis/v9"
)

const channelPrefix = "chat:user:"

func channelFor(subjectID string) string { return channelPrefix + subjectID }

// RedisBridge is the cross-instance push path. Deliver publishes to the
// receiver's channel; every instance's Run loop feeds its local Hub, so the
// receiver gets the message no matter which instance holds its connection.
type RedisBridge struct {
	rdb *redis.Client
	hub *Hub
	log *slog.Logger
}

func NewRedisBridge(rdb *redis.Client, hub *Hub, log *slog.Logger) *RedisBridge {
	if log == nil {
		log = slog.Default()
	}
	return &RedisBridge{rdb: rdb, hub: hub, log: log}
}

// PushToUser publishes the stored message to the receiver's channel.
func (b *RedisBridge) PushToUser(ctx context.Context, receiverID string, m chat.Message) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, channelFor(receiverID), payload).Err()
}

// Run consumes the pattern subscription until ctx is cancelled.
// Call in a goroutine at startup.
func (b *RedisBridge) Run(ctx context.Context) error {
	ps := b.rdb.PSubscribe(ctx, channelPrefix+"*")
	defer ps.Close()

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.dispatch(ctx, msg)
		}
	}
}

func (b *RedisBridge) dispatch(ctx context.Context, msg *redis.Message) {
	subjectID := strings.TrimPrefix(msg.Channel, channelPrefix)
	if subjectID == "" || subjectID == msg.Channel {
		return
	}

	var m chat.Message
	if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
		b.log.Warn("discarding undecodable push payload", "channel", msg.Channel, "err", err)
		return
	}

	if err := b.hub.PushToUser(ctx, subjectID, m); err != nil && !errors.Is(err, ErrNotConnected) {
		b.log.Warn("local push failed", "receiver_id", subjectID, "err", err)
	}
}
