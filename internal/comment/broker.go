package comment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Channel is the Redis pub/sub channel carrying ids of videos whose
// comments changed.
const Channel = "reelfeed:comments"

// Publisher announces that the comments of a video changed.
type Publisher interface {
	Publish(ctx context.Context, videoID string) error
}

// Broker relays comment changes between server instances over Redis. Every
// instance runs Run; a change published anywhere reaches each local Hub.
type Broker struct {
	rdb *redis.Client
	hub *Hub
}

func NewBroker(rdb *redis.Client, hub *Hub) *Broker {
	return &Broker{rdb: rdb, hub: hub}
}

func (b *Broker) Publish(ctx context.Context, videoID string) error {
	if err := b.rdb.Publish(ctx, Channel, videoID).Err(); err != nil {
		return fmt.Errorf("publish comment change: %w", err)
	}
	return nil
}

// Run listens for changes until ctx is done. ready, when non-nil, is closed
// once the subscription is confirmed.
func (b *Broker) Run(ctx context.Context, ready chan<- struct{}) error {
	sub := b.rdb.Subscribe(ctx, Channel)
	defer func() { _ = sub.Close() }()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", Channel, err)
	}
	if ready != nil {
		close(ready)
	}
	slog.Info("comment broker: listening", "channel", Channel)

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			if err := b.hub.Notify(ctx, msg.Payload); err != nil {
				slog.Error("comment broker: notify failed", "video_id", msg.Payload, "error", err)
			}
		}
	}
}
