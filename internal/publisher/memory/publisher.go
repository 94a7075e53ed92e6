// Package memory keeps acquisition events in process. It is used when no
// Pub/Sub topic is configured and in tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/hydavinci/formula-1-schedule/internal/f1"
)

// Publisher stores published payloads as JSON, the same bytes a Pub/Sub
// message would carry.
type Publisher struct {
	mu       sync.RWMutex
	messages []Message
}

// Message captures one publish call.
type Message struct {
	ID    string
	Topic string
	Data  []byte
}

// New returns a memory Publisher.
func New() *Publisher {
	return &Publisher{}
}

// Publish encodes payload and records it under a sequential ID.
func (p *Publisher) Publish(_ context.Context, topic string, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	id := fmt.Sprintf("memory-%d", len(p.messages)+1)
	p.messages = append(p.messages, Message{ID: id, Topic: topic, Data: data})
	return id, nil
}

// Messages returns a copy of the recorded publishes.
func (p *Publisher) Messages() []Message {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Message, len(p.messages))
	copy(out, p.messages)
	return out
}

// Events decodes every recorded message published to topic.
func (p *Publisher) Events(topic string) ([]f1.AcquisitionEvent, error) {
	var events []f1.AcquisitionEvent
	for _, m := range p.Messages() {
		if m.Topic != topic {
			continue
		}
		var ev f1.AcquisitionEvent
		if err := json.Unmarshal(m.Data, &ev); err != nil {
			return nil, fmt.Errorf("decode %s: %w", m.ID, err)
		}
		events = append(events, ev)
	}
	return events, nil
}
