package events

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"
)

type RedisSink struct {
	rdb     *redis.Client
	channel string
}

func NewRedisSink(rdb *redis.Client, channel string) *RedisSink {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisSink{rdb: rdb, channel: channel}
}

func (s *RedisSink) Publish(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.rdb.Publish(ctx, s.channel, data).Err()
}

// Close is a no-op: the client is owned by main and closed there.
func (s *RedisSink) Close() error { return nil }

// SubscribeRedis blocks, dispatching every event on channel to handle until ctx ends.
func SubscribeRedis(ctx context.Context, rdb *redis.Client, channel string, handle Handler) {
	if channel == "" {
		channel = DefaultChannel
	}
	pubsub := rdb.Subscribe(ctx, channel)
	defer pubsub.Close()

	log.Println("[EVENTS] Subscribed to Redis channel:", channel)
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var e Event
			if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
				log.Printf("[EVENTS] Invalid event payload: %v", err)
				continue
			}
			handle(ctx, e)
		}
	}
}
