package guard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikitaproks/vpn-bot/internal/bot/transport"
	"github.com/nikitaproks/vpn-bot/internal/shared/logger"
)

type recordingResponder struct {
	texts map[int64][]string
}

func newRecordingResponder() *recordingResponder {
	return &recordingResponder{texts: make(map[int64][]string)}
}

func (r *recordingResponder) SendText(ctx context.Context, chatID int64, text string) error {
	r.texts[chatID] = append(r.texts[chatID], text)
	return nil
}

func (r *recordingResponder) SendChoices(ctx context.Context, chatID int64, text string, rows [][]transport.Choice) (int, error) {
	return 0, nil
}

func (r *recordingResponder) EditChoices(ctx context.Context, chatID int64, messageID int, text string, rows [][]transport.Choice) error {
	return nil
}

func (r *recordingResponder) RemovePrompt(ctx context.Context, chatID int64, messageID int) error {
	return nil
}

func (r *recordingResponder) AckCallback(ctx context.Context, callbackID string) error {
	return nil
}

func TestParseAllowList(t *testing.T) {
	ids, err := ParseAllowList("123, 456,789")
	require.NoError(t, err)
	assert.Equal(t, []int64{123, 456, 789}, ids)

	_, err = ParseAllowList("123,abc")
	assert.Error(t, err)

	_, err = ParseAllowList("")
	assert.Error(t, err)
}

func TestAllowList_Allows(t *testing.T) {
	allow := NewAllowList([]int64{1, 2})
	assert.True(t, allow.Allows(1))
	assert.False(t, allow.Allows(3))
	assert.Equal(t, 2, allow.Size())
}

func TestMiddleware_AuthorizedEventForwarded(t *testing.T) {
	allow := NewAllowList([]int64{1})
	responder := newRecordingResponder()

	var forwarded []transport.Event
	handler := Middleware(allow, responder, logger.NewDevelopment("guard-test"), func(ctx context.Context, ev transport.Event) {
		forwarded = append(forwarded, ev)
	})

	msg := transport.Message{Chat: 1, Text: "/spawn", Command: "spawn"}
	handler(context.Background(), msg)

	require.Len(t, forwarded, 1)
	assert.Equal(t, msg, forwarded[0])
	assert.Empty(t, responder.texts)
}

func TestMiddleware_UnauthorizedMessageRejected(t *testing.T) {
	allow := NewAllowList([]int64{1})
	responder := newRecordingResponder()

	handlerCalled := false
	handler := Middleware(allow, responder, logger.NewDevelopment("guard-test"), func(ctx context.Context, ev transport.Event) {
		handlerCalled = true
	})

	handler(context.Background(), transport.Message{Chat: 666, Text: "/spawn", Command: "spawn"})

	assert.False(t, handlerCalled, "workflow handler must never see unauthorized events")
	require.Len(t, responder.texts[666], 1)
	assert.Equal(t, RejectionNotice, responder.texts[666][0])
}

func TestMiddleware_UnauthorizedCallbackDroppedSilently(t *testing.T) {
	allow := NewAllowList([]int64{1})
	responder := newRecordingResponder()

	handlerCalled := false
	handler := Middleware(allow, responder, logger.NewDevelopment("guard-test"), func(ctx context.Context, ev transport.Event) {
		handlerCalled = true
	})

	handler(context.Background(), transport.Callback{Chat: 666, ID: "cb", Data: "confirm"})

	assert.False(t, handlerCalled)
	assert.Empty(t, responder.texts, "callbacks from unauthorized chats get no response")
}
