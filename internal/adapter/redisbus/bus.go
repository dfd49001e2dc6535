// Package redisbus carries catalog change events between processes over
// Redis pub/sub so every matcher drops its snapshot when the reference
// catalog changes.
package redisbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/heartmarshall/barcount-backend/internal/config"
)

// EventCatalogChanged is published after reference catalog writes.
const EventCatalogChanged = "catalog.changed"

// Event is the JSON payload sent on the channel.
type Event struct {
	Type  string    `json:"type"`
	Count int       `json:"count,omitempty"`
	At    time.Time `json:"at"`
}

type invalidator interface {
	Invalidate()
}

// Bus publishes and consumes catalog events on one channel.
type Bus struct {
	client  goredis.UniversalClient
	channel string
	log     *slog.Logger
}

// NewClient builds a Redis client from cfg and checks the connection.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// New creates a Bus on channel.
func New(client goredis.UniversalClient, channel string, logger *slog.Logger) *Bus {
	return &Bus{
		client:  client,
		channel: channel,
		log:     logger.With("adapter", "redisbus"),
	}
}

// PublishCatalogChanged announces that count reference products were written.
func (b *Bus) PublishCatalogChanged(ctx context.Context, count int) error {
	payload, err := json.Marshal(Event{Type: EventCatalogChanged, Count: count, At: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", b.channel, err)
	}
	return nil
}

// Subscribe invalidates target on every catalog change event until ctx is
// cancelled. It returns nil on cancellation.
func (b *Bus) Subscribe(ctx context.Context, target invalidator) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	// Wait for the subscription to be confirmed before reading messages.
	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("subscribe to %s: %w", b.channel, err)
	}
	b.log.InfoContext(ctx, "listening for catalog events", slog.String("channel", b.channel))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.handle(ctx, msg.Payload, target)
		}
	}
}

func (b *Bus) handle(ctx context.Context, payload string, target invalidator) {
	var evt Event
	if err := json.Unmarshal([]byte(payload), &evt); err != nil {
		b.log.WarnContext(ctx, "dropping malformed catalog event", slog.String("error", err.Error()))
		return
	}
	if evt.Type != EventCatalogChanged {
		return
	}

	target.Invalidate()
	b.log.InfoContext(ctx, "catalog snapshot invalidated", slog.Int("count", evt.Count))
}
