package pubsub

import (
	"context"
	"encoding/json"
)

// Event represents a pub/sub event
type Event struct {
	Topic   string          `json:"topic"`   // Subscription topic (e.g., "render_status", "frames")
	Type    string          `json:"type"`    // Event type (e.g., "loading", "rendering", "frame_ready", "ready")
	Data    json.RawMessage `json:"data"`    // Event payload
	Version int             `json:"version"` // Version number for ordering
}

// Subscription represents a client subscription to a topic
type Subscription interface {
	// Topic returns the subscription topic
	Topic() string

	// Events returns the channel events arrive on. The channel is
	// closed when the subscription or its publisher is closed.
	Events() <-chan Event

	// Close closes the subscription
	Close() error
}

// Publisher manages pub/sub subscriptions and event publishing
type Publisher interface {
	// Subscribe creates a new subscription to a topic.
	// Cancelling ctx closes the subscription.
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Publish sends an event to all subscribers of a topic
	Publish(topic string, eventType string, data interface{}) error

	// Close shuts down the publisher and all subscriptions
	Close() error
}

// RenderStatus represents the state of the frame rendering pipeline
type RenderStatus struct {
	State   string `json:"state"`   // loading, rendering, ready, failed
	Message string `json:"message"` // Human-readable status message
	Frame   int    `json:"frame"`   // Frames rendered so far (1-based)
	Total   int    `json:"total"`   // Total number of frames
}

// FrameData announces a newly rendered frame
type FrameData struct {
	Time  int `json:"time"`  // Tick the frame was computed for
	Done  int `json:"done"`  // Frames rendered so far
	Total int `json:"total"` // Total number of frames
}
