package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikitaproks/vpn-bot/internal/shared/logger"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := NewBus(logger.NewDevelopment("events-test"))
	defer bus.Close()

	var got []InstanceEvent
	bus.SubscribeAll(func(ev InstanceEvent) {
		got = append(got, ev)
	})

	bus.PublishCreated(context.Background(), 42, "ap-south", 1)
	bus.PublishDeleted(context.Background(), 42, 1)

	require.Len(t, got, 2)

	created := got[0]
	assert.Equal(t, TypeInstanceCreated, created.Type)
	assert.Equal(t, 42, created.InstanceID)
	assert.Equal(t, "ap-south", created.Region)
	assert.Equal(t, int64(1), created.ChatID)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.At.IsZero())

	deleted := got[1]
	assert.Equal(t, TypeInstanceDeleted, deleted.Type)
	assert.Equal(t, 42, deleted.InstanceID)
	assert.NotEqual(t, created.ID, deleted.ID)
}

func TestBus_SubscribeSingleType(t *testing.T) {
	bus := NewBus(logger.NewDevelopment("events-test"))
	defer bus.Close()

	var created int
	bus.Subscribe(TypeInstanceCreated, func(ev InstanceEvent) {
		created++
	})

	bus.PublishCreated(context.Background(), 1, "eu-west", 9)
	bus.PublishDeleted(context.Background(), 1, 9)

	assert.Equal(t, 1, created)
}
