package messaging

import (
	"context"
)

// Publisher publishes a message on a channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) error
}

// Broker is a Publisher that owns a connection.
type Broker interface {
	Publisher
	Close() error
}

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}
