// Package events publishes instance lifecycle events on an in-process bus
// so side concerns (the audit journal) stay out of the workflows.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	gookitevent "github.com/gookit/event"

	"github.com/nikitaproks/vpn-bot/internal/shared/logger"
)

// Event types fired on the bus.
const (
	TypeInstanceCreated = "instance.created"
	TypeInstanceDeleted = "instance.deleted"
)

// InstanceEvent describes one provisioning-side effect.
type InstanceEvent struct {
	ID         string // event identity
	Type       string
	InstanceID int
	Region     string
	ChatID     int64
	At         time.Time
}

// Handler consumes instance events.
type Handler func(InstanceEvent)

// Bus wraps a gookit event manager.
type Bus struct {
	manager *gookitevent.Manager
	logger  *logger.Logger
}

// NewBus creates the bus.
func NewBus(log *logger.Logger) *Bus {
	return &Bus{
		manager: gookitevent.NewManager("vpn-bot"),
		logger:  log,
	}
}

// PublishCreated fires an instance.created event. Publishing is
// best-effort: listener errors are logged and never propagated to the
// workflow that caused the event.
func (b *Bus) PublishCreated(ctx context.Context, instanceID int, region string, chatID int64) {
	b.publish(ctx, InstanceEvent{
		ID:         uuid.NewString(),
		Type:       TypeInstanceCreated,
		InstanceID: instanceID,
		Region:     region,
		ChatID:     chatID,
		At:         time.Now().UTC(),
	})
}

// PublishDeleted fires an instance.deleted event.
func (b *Bus) PublishDeleted(ctx context.Context, instanceID int, chatID int64) {
	b.publish(ctx, InstanceEvent{
		ID:         uuid.NewString(),
		Type:       TypeInstanceDeleted,
		InstanceID: instanceID,
		ChatID:     chatID,
		At:         time.Now().UTC(),
	})
}

func (b *Bus) publish(ctx context.Context, ev InstanceEvent) {
	b.logger.DebugContext(ctx, "publishing event",
		"type", ev.Type, "event_id", ev.ID, "instance_id", ev.InstanceID)

	err, _ := b.manager.Fire(ev.Type, gookitevent.M{"payload": ev})
	if err != nil {
		b.logger.ErrorCtx(ctx, "event listener failed", err, "type", ev.Type, "event_id", ev.ID)
	}
}

// Subscribe registers a handler for one event type.
func (b *Bus) Subscribe(eventType string, handler Handler) {
	b.manager.On(eventType, gookitevent.ListenerFunc(func(e gookitevent.Event) error {
		payload, ok := e.Get("payload").(InstanceEvent)
		if !ok {
			b.logger.Warn("dropping event with unexpected payload", "type", e.Name())
			return nil
		}
		handler(payload)
		return nil
	}), gookitevent.Normal)
}

// SubscribeAll registers a handler for every instance lifecycle event type.
func (b *Bus) SubscribeAll(handler Handler) {
	b.Subscribe(TypeInstanceCreated, handler)
	b.Subscribe(TypeInstanceDeleted, handler)
}

// Close clears all listeners.
func (b *Bus) Close() error {
	b.manager.Clear()
	return nil
}
