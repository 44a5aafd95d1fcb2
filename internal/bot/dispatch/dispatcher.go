// Package dispatch delivers inbound events to the handler with a per-chat
// ordering guarantee: events from the same chat run strictly in order,
// while different chats are handled concurrently. This closes the race
// where a fast second command could observe a stale dialog session.
package dispatch

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/nikitaproks/vpn-bot/internal/bot/transport"
	"github.com/nikitaproks/vpn-bot/internal/shared/logger"
)

const mailboxBuffer = 16

// Dispatcher owns one FIFO mailbox goroutine per chat.
type Dispatcher struct {
	handler transport.Handler
	logger  *logger.Logger

	// mu guards the mailbox map and the closed flag. Sends hold the read
	// side so Stop, which closes every mailbox under the write side, can
	// never close a channel mid-send.
	mu        sync.RWMutex
	mailboxes map[int64]chan transport.Event
	closed    bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Dispatcher feeding events to handler.
func New(handler transport.Handler, log *logger.Logger) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		handler:   handler,
		logger:    log,
		mailboxes: make(map[int64]chan transport.Event),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Dispatch enqueues an event for its chat's mailbox, creating the mailbox
// on first use. Events arriving after Stop are dropped. Safe to call
// concurrently with Stop.
func (d *Dispatcher) Dispatch(event transport.Event) {
	box := d.mailbox(event.ChatID())
	if box == nil {
		d.logger.Debug("dropping event after shutdown", "chat_id", event.ChatID())
		return
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.logger.Debug("dropping event after shutdown", "chat_id", event.ChatID())
		return
	}

	select {
	case box <- event:
	case <-d.ctx.Done():
	}
}

// mailbox returns the chat's mailbox, creating it on first use. Returns
// nil once the dispatcher has been stopped.
func (d *Dispatcher) mailbox(chatID int64) chan transport.Event {
	d.mu.RLock()
	box, ok := d.mailboxes[chatID]
	closed := d.closed
	d.mu.RUnlock()
	if closed {
		return nil
	}
	if ok {
		return box
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	if box, ok := d.mailboxes[chatID]; ok {
		return box
	}

	box = make(chan transport.Event, mailboxBuffer)
	d.mailboxes[chatID] = box
	d.wg.Add(1)
	go d.run(chatID, box)
	return box
}

// run drains one chat's mailbox in order.
func (d *Dispatcher) run(chatID int64, box chan transport.Event) {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return
		case event, ok := <-box:
			if !ok {
				return
			}
			ctx := logger.WithChatID(d.ctx, chatID)
			ctx = logger.WithRequestID(ctx, uuid.NewString())
			d.handler(ctx, event)
		}
	}
}

// Stop rejects new events and waits for in-flight handlers to finish, or
// for ctx to expire.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	for _, box := range d.mailboxes {
		close(box)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		d.cancel()
		return ctx.Err()
	}

	d.cancel()
	return nil
}
