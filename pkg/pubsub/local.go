package pubsub

import (
	"context"
	"sync"

	log "github.com/golang/glog"

	"github.com/w3licence/licence-gateway/pkg/model"
)

// NullPublisher drops events. Used when no project is configured.
type NullPublisher struct{}

// Publish implements model.EventPublisher
func (n *NullPublisher) Publish(ctx context.Context, event *model.GatewayEvent) error {
	log.V(2).Infof("Dropping %v event for %v", event.Type, event.CID)
	return nil
}

// MemoryPublisher keeps published events in memory
type MemoryPublisher struct {
	mutex  sync.Mutex
	events []*model.GatewayEvent
}

// Publish implements model.EventPublisher
func (m *MemoryPublisher) Publish(ctx context.Context, event *model.GatewayEvent) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.events = append(m.events, event)
	return nil
}

// Events returns the published events in order
func (m *MemoryPublisher) Events() []*model.GatewayEvent {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return append([]*model.GatewayEvent(nil), m.events...)
}

// EventsOfType returns the published events of one type
func (m *MemoryPublisher) EventsOfType(eventType model.GatewayEventType) []*model.GatewayEvent {
	events := []*model.GatewayEvent{}
	for _, event := range m.Events() {
		if event.Type == eventType {
			events = append(events, event)
		}
	}
	return events
}
