package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/ritzau/trustflow/pkg/logging"
)

// TopicConfig controls how many past events a topic retains for late
// subscribers.
type TopicConfig struct {
	BufferSize int  // Number of events to keep (0 disables replay)
	ReplayAll  bool // Replay the whole buffer instead of just the newest event
}

// subChanCap bounds how far a consumer may lag before events are
// dropped for it.
const subChanCap = 100

// topicState is everything the publisher tracks for one topic.
type topicState struct {
	config  TopicConfig
	version int
	buffer  []Event // most recent events, oldest first
	subs    map[*sseSubscription]struct{}
}

// SSEPublisher fans events out to buffered per-subscriber channels.
// All sends and the final close of a subscriber channel happen under
// the publisher lock. Closing a subscription closes its Events
// channel, so consumers can simply range over it.
type SSEPublisher struct {
	mu     sync.Mutex
	topics map[string]*topicState
	closed bool
}

// NewSSEPublisher creates an empty publisher. Topics are created on
// first use; ConfigureTopic only matters for topics that should replay
// history to late subscribers.
func NewSSEPublisher() *SSEPublisher {
	return &SSEPublisher{topics: make(map[string]*topicState)}
}

// topic returns the state for name, creating it if needed. Callers
// must hold p.mu.
func (p *SSEPublisher) topic(name string) *topicState {
	t := p.topics[name]
	if t == nil {
		t = &topicState{subs: make(map[*sseSubscription]struct{})}
		p.topics[name] = t
	}
	return t
}

// ConfigureTopic sets the replay behavior for a topic.
func (p *SSEPublisher) ConfigureTopic(name string, config TopicConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topic(name).config = config
}

// Subscribe registers a new subscriber and replays buffered history
// according to the topic configuration. Cancelling ctx closes the
// subscription.
func (p *SSEPublisher) Subscribe(ctx context.Context, name string) (Subscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, fmt.Errorf("publisher is closed")
	}

	t := p.topic(name)
	sub := &sseSubscription{
		topic:     name,
		events:    make(chan Event, subChanCap),
		publisher: p,
	}
	t.subs[sub] = struct{}{}

	replay := t.buffer
	if !t.config.ReplayAll && len(replay) > 1 {
		replay = replay[len(replay)-1:]
	}
	for _, event := range replay {
		if !sub.offer(event) {
			logging.Warn("could not replay event to new subscriber", "topic", name)
		}
	}
	if len(replay) > 0 {
		logging.Debug("replayed buffered events to new subscriber",
			"topic", name,
			"events", len(replay))
	}

	go func() {
		<-ctx.Done()
		sub.Close()
	}()

	return sub, nil
}

// Publish marshals data and fans it out to every subscriber of the
// topic. Events carry a per-topic version number so clients can detect
// gaps after a reconnect.
func (p *SSEPublisher) Publish(name string, eventType string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return fmt.Errorf("publisher is closed")
	}

	t := p.topic(name)
	t.version++
	event := Event{
		Topic:   name,
		Type:    eventType,
		Data:    jsonData,
		Version: t.version,
	}

	if t.config.BufferSize > 0 {
		t.buffer = append(t.buffer, event)
		if len(t.buffer) > t.config.BufferSize {
			t.buffer = t.buffer[len(t.buffer)-t.config.BufferSize:]
		}
	}

	for sub := range t.subs {
		if !sub.offer(event) {
			logging.Warn("subscription channel full, dropping event", "topic", name)
		}
	}

	return nil
}

// Close shuts down the publisher and closes every subscription.
func (p *SSEPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	for _, t := range p.topics {
		for sub := range t.subs {
			close(sub.events)
		}
		t.subs = make(map[*sseSubscription]struct{})
	}

	return nil
}

// unsubscribe detaches sub and closes its channel. Only the call that
// actually removes the subscription closes the channel, so it is safe
// to call more than once.
func (p *SSEPublisher) unsubscribe(sub *sseSubscription) {
	p.mu.Lock()
	defer p.mu.Unlock()

	t := p.topics[sub.topic]
	if t == nil {
		return
	}
	if _, ok := t.subs[sub]; !ok {
		return
	}
	delete(t.subs, sub)
	close(sub.events)
}

// sseSubscription is the publisher-side handle for one subscriber.
type sseSubscription struct {
	topic     string
	events    chan Event
	publisher *SSEPublisher
	once      sync.Once
}

// Topic returns the subscription topic.
func (s *sseSubscription) Topic() string {
	return s.topic
}

// Events returns the channel events arrive on. The channel is closed
// when the subscription or its publisher is closed.
func (s *sseSubscription) Events() <-chan Event {
	return s.events
}

// Close detaches the subscription from the publisher.
func (s *sseSubscription) Close() error {
	s.once.Do(func() { s.publisher.unsubscribe(s) })
	return nil
}

// offer hands an event to the subscriber without blocking. Slow
// consumers lose events rather than stalling the publisher.
func (s *sseSubscription) offer(event Event) bool {
	select {
	case s.events <- event:
		return true
	default:
		return false
	}
}

// WriteSSE writes an event to an SSE response writer.
// Format: "data: {json}\n\n"
func WriteSSE(w io.Writer, event Event) error {
	jsonData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = fmt.Fprintf(w, "data: %s\n\n", jsonData)
	return err
}
