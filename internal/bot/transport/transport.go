// Package transport abstracts the chat transport: inbound events, outbound
// text, and selectable-choice prompts. Workflows depend only on the types
// and interfaces here, never on a concrete messenger.
package transport

import "context"

// Event is an inbound chat event. Implementations always carry the
// originating chat identity; events where it cannot be determined are
// dropped at the transport boundary and never constructed.
type Event interface {
	ChatID() int64
}

// Message is an inbound text message, possibly a command.
type Message struct {
	Chat    int64
	Text    string
	Command string // command name without the slash, empty otherwise
}

// ChatID returns the originating chat identity.
func (m Message) ChatID() int64 { return m.Chat }

// Callback is a choice selection on a previously sent prompt.
type Callback struct {
	Chat      int64
	MessageID int    // the prompt message carrying the choices
	ID        string // transport-unique identity of this selection
	Data      string // opaque choice payload
}

// ChatID returns the originating chat identity.
func (c Callback) ChatID() int64 { return c.Chat }

// Choice is one selectable option on a prompt.
type Choice struct {
	Label string
	Data  string
}

// Responder delivers outbound instructions to the chat transport.
type Responder interface {
	// SendText delivers a plain text message.
	SendText(ctx context.Context, chatID int64, text string) error

	// SendChoices delivers a prompt with selectable choices laid out in
	// rows, returning the prompt's message ID for later edits.
	SendChoices(ctx context.Context, chatID int64, text string, rows [][]Choice) (int, error)

	// EditChoices replaces the text and choices of an existing prompt.
	EditChoices(ctx context.Context, chatID int64, messageID int, text string, rows [][]Choice) error

	// RemovePrompt deletes a previously sent prompt.
	RemovePrompt(ctx context.Context, chatID int64, messageID int) error

	// AckCallback acknowledges a choice selection so the client stops
	// showing it as pending.
	AckCallback(ctx context.Context, callbackID string) error
}

// Handler processes one authorized inbound event.
type Handler func(ctx context.Context, event Event)
