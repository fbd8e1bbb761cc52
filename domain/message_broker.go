package domain

import (
	"context"
	"time"
)

const FoodRecordTopic = "food.records"

// MessageBroker defines the interface for message broker operations
type MessageBroker interface {
	// Publish delivers a message to every current subscriber of topic/routingKey.
	Publish(ctx context.Context, topic string, routingKey string, message []byte) error

	// Subscribe listens on topic/routingKey until ctx is done; the returned
	// channel is closed then.
	Subscribe(ctx context.Context, topic string, routingKey string) (<-chan Message, error)

	// Close closes the message broker connection
	Close() error
}

// Message represents a message received from the broker
type Message struct {
	Topic      string
	RoutingKey string
	Payload    []byte
	Timestamp  time.Time
}

type FoodRecordEventType string

const (
	FoodRecordAdded   FoodRecordEventType = "food_record_added"
	FoodRecordDeleted FoodRecordEventType = "food_record_deleted"
)

// FoodRecordEvent is published on FoodRecordTopic with the member id as routing key.
type FoodRecordEvent struct {
	Type      FoodRecordEventType `json:"type"`
	UserID    string              `json:"user_id"`
	RecordID  int64               `json:"record_id"`
	FoodID    int64               `json:"food_id,omitempty"`
	FoodName  string              `json:"food_name,omitempty"`
	Date      string              `json:"date,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
}
