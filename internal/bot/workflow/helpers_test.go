package workflow

import (
	"context"
	"fmt"

	"github.com/nikitaproks/vpn-bot/internal/bot/dialog"
	"github.com/nikitaproks/vpn-bot/internal/bot/events"
	"github.com/nikitaproks/vpn-bot/internal/bot/transport"
	"github.com/nikitaproks/vpn-bot/internal/linode"
	"github.com/nikitaproks/vpn-bot/internal/shared/logger"
)

// fakeProvisioner scripts the provisioning service and records every call.
type fakeProvisioner struct {
	instances []linode.Instance
	listErr   error

	created    []linode.CreateOpts
	createResp *linode.Instance
	createErr  error

	deleted   []int
	deleteErr error
}

func (f *fakeProvisioner) CreateInstance(ctx context.Context, opts linode.CreateOpts) (*linode.Instance, error) {
	f.created = append(f.created, opts)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.createResp, nil
}

func (f *fakeProvisioner) ListInstances(ctx context.Context) ([]linode.Instance, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.instances, nil
}

func (f *fakeProvisioner) DeleteInstance(ctx context.Context, id int) error {
	f.deleted = append(f.deleted, id)
	return f.deleteErr
}

// sentPrompt is one recorded choice prompt or edit.
type sentPrompt struct {
	ChatID    int64
	MessageID int
	Text      string
	Rows      [][]transport.Choice
}

// fakeResponder records outbound instructions.
type fakeResponder struct {
	texts   []string
	prompts []sentPrompt
	edits   []sentPrompt
	removed []int
	acked   []string

	nextMessageID int
}

func (f *fakeResponder) SendText(ctx context.Context, chatID int64, text string) error {
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeResponder) SendChoices(ctx context.Context, chatID int64, text string, rows [][]transport.Choice) (int, error) {
	f.nextMessageID++
	f.prompts = append(f.prompts, sentPrompt{ChatID: chatID, MessageID: f.nextMessageID, Text: text, Rows: rows})
	return f.nextMessageID, nil
}

func (f *fakeResponder) EditChoices(ctx context.Context, chatID int64, messageID int, text string, rows [][]transport.Choice) error {
	f.edits = append(f.edits, sentPrompt{ChatID: chatID, MessageID: messageID, Text: text, Rows: rows})
	return nil
}

func (f *fakeResponder) RemovePrompt(ctx context.Context, chatID int64, messageID int) error {
	f.removed = append(f.removed, messageID)
	return nil
}

func (f *fakeResponder) AckCallback(ctx context.Context, callbackID string) error {
	f.acked = append(f.acked, callbackID)
	return nil
}

func (f *fakeResponder) lastText() string {
	if len(f.texts) == 0 {
		return ""
	}
	return f.texts[len(f.texts)-1]
}

// fixture wires both workflows and the router against fakes.
type fixture struct {
	provisioner *fakeProvisioner
	responder   *fakeResponder
	sessions    *dialog.Store
	bus         *events.Bus
	busEvents   []events.InstanceEvent
	router      *Router
	spawn       *Spawn
	delete      *Delete
}

func testConfig() Config {
	return Config{
		LabelPrefix:         "vpn-bot",
		MaxInstances:        3,
		StackScriptID:       12345,
		ShadowsocksPassword: "hunter2",
	}
}

func newFixture() *fixture {
	f := &fixture{
		provisioner: &fakeProvisioner{},
		responder:   &fakeResponder{},
		sessions:    dialog.NewStore(),
	}

	log := logger.NewDevelopment("workflow-test")
	cfg := testConfig()

	f.bus = events.NewBus(log)
	f.bus.SubscribeAll(func(ev events.InstanceEvent) {
		f.busEvents = append(f.busEvents, ev)
	})

	f.spawn = NewSpawn(f.provisioner, f.sessions, f.responder, f.bus, log, cfg)
	f.delete = NewDelete(f.provisioner, f.sessions, f.responder, f.bus, log, cfg)
	f.router = NewRouter(f.provisioner, f.sessions, f.responder, f.spawn, f.delete, log, cfg)
	return f
}

func ownedInstances(n int) []linode.Instance {
	instances := make([]linode.Instance, 0, n)
	for i := 0; i < n; i++ {
		instances = append(instances, linode.Instance{
			ID:     i + 1,
			Label:  fmt.Sprintf("vpn-bot-%d", i+1),
			Region: "ap-south",
			IPv4:   []string{fmt.Sprintf("10.0.0.%d", i+1)},
		})
	}
	return instances
}

func command(chat int64, name string) transport.Message {
	return transport.Message{Chat: chat, Text: "/" + name, Command: name}
}

func commandless(chat int64, text string) transport.Message {
	return transport.Message{Chat: chat, Text: text}
}

func choice(chat int64, messageID int, id, data string) transport.Callback {
	return transport.Callback{Chat: chat, MessageID: messageID, ID: id, Data: data}
}
