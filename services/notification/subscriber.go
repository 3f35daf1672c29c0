package notification

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// Subscription is one open subscription to a topic. Messages closes when the
// underlying connection is lost; the owner is expected to resubscribe.
type Subscription interface {
	Messages() <-chan []byte
	Close() error
}

// Subscriber opens subscriptions to notification topics.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string) (Subscription, error)
}

// RedisSubscriber implements Subscriber over Redis pub/sub.
type RedisSubscriber struct {
	Client *redis.Client
}

type redisSubscription struct {
	pubsub *redis.PubSub
	out    chan []byte
}

// Subscribe opens the topic and verifies the subscription before returning.
func (s *RedisSubscriber) Subscribe(ctx context.Context, topic string) (Subscription, error) {
	pubsub := s.Client.Subscribe(ctx, topic)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}

	sub := &redisSubscription{
		pubsub: pubsub,
		out:    make(chan []byte),
	}
	go func() {
		defer close(sub.out)
		for msg := range pubsub.Channel() {
			select {
			case sub.out <- []byte(msg.Payload):
			case <-ctx.Done():
				return
			}
		}
	}()
	return sub, nil
}

func (s *redisSubscription) Messages() <-chan []byte {
	return s.out
}

func (s *redisSubscription) Close() error {
	return s.pubsub.Close()
}
