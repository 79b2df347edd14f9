package messaging

import (
	"context"
)

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// Message is the envelope published on every channel.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Channels used by the hospital workflows.
const (
	ChannelAppointments = "hms.appointments"
	ChannelBilling      = "hms.billing"
	ChannelInventory    = "hms.inventory"
	ChannelEvents       = "hms.events"
)
