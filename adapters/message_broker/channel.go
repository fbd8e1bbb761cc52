package message_broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/diet-coach/domain"
	"github.com/satriahrh/diet-coach/utils/log"
)

const subscriberBuffer = 100

type subscriber struct {
	ch chan domain.Message
}

// ChannelMessageBroker implements MessageBroker using Go channels. Every
// subscriber of a topic/routingKey gets its own buffered channel.
type ChannelMessageBroker struct {
	topics map[string]map[*subscriber]struct{}
	mu     sync.RWMutex
	closed bool
}

// NewChannelMessageBroker creates a new channel-based message broker
func NewChannelMessageBroker() *ChannelMessageBroker {
	return &ChannelMessageBroker{
		topics: make(map[string]map[*subscriber]struct{}),
	}
}

// makeKey creates a unique key for topic and routingKey
func makeKey(topic, routingKey string) string {
	return topic + ":" + routingKey
}

// Publish fans the message out to current subscribers. A subscriber whose
// buffer is full misses the message; publishing with no subscribers is a no-op.
func (b *ChannelMessageBroker) Publish(ctx context.Context, topic string, routingKey string, message []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return fmt.Errorf("message broker is closed")
	}

	msg := domain.Message{
		Topic:      topic,
		RoutingKey: routingKey,
		Payload:    message,
		Timestamp:  time.Now(),
	}

	subs := b.topics[makeKey(topic, routingKey)]
	dropped := 0
	for sub := range subs {
		select {
		case sub.ch <- msg:
		default:
			dropped++
		}
	}

	log.WithCtx(ctx).Debug("📤 Message published to topic",
		zap.String("topic", topic),
		zap.String("routingKey", routingKey),
		zap.Int("subscribers", len(subs)),
		zap.Int("dropped", dropped),
		zap.Int("payload_size", len(message)))
	if dropped > 0 {
		return fmt.Errorf("%d subscriber(s) of %s:%s are full", dropped, topic, routingKey)
	}
	return nil
}

// Subscribe listens for messages on a specific topic and routing key until ctx is done.
func (b *ChannelMessageBroker) Subscribe(ctx context.Context, topic string, routingKey string) (<-chan domain.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, fmt.Errorf("message broker is closed")
	}

	key := makeKey(topic, routingKey)
	sub := &subscriber{ch: make(chan domain.Message, subscriberBuffer)}
	if b.topics[key] == nil {
		b.topics[key] = make(map[*subscriber]struct{})
	}
	b.topics[key][sub] = struct{}{}

	go func() {
		<-ctx.Done()
		b.unsubscribe(key, sub)
	}()

	log.WithCtx(ctx).Info("📡 Subscribed to topic", zap.String("topic", topic), zap.String("routingKey", routingKey))
	return sub.ch, nil
}

func (b *ChannelMessageBroker) unsubscribe(key string, sub *subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.topics[key]
	if !ok {
		return
	}
	if _, ok := subs[sub]; !ok {
		return
	}
	delete(subs, sub)
	close(sub.ch)
	if len(subs) == 0 {
		delete(b.topics, key)
	}
}

// Close closes the message broker and all subscriber channels
func (b *ChannelMessageBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}

	b.closed = true

	for key, subs := range b.topics {
		for sub := range subs {
			close(sub.ch)
		}
		log.WithCtx(context.Background()).Debug("🔒 Closed topic channels", zap.String("key", key))
	}

	b.topics = make(map[string]map[*subscriber]struct{})

	log.WithCtx(context.Background()).Info("🔒 Message broker closed")
	return nil
}

// GetTopicCount returns the number of topics with at least one subscriber
func (b *ChannelMessageBroker) GetTopicCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics)
}

// IsClosed returns whether the broker is closed
func (b *ChannelMessageBroker) IsClosed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.closed
}
