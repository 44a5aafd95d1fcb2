package workflow

import (
	"context"
	"strings"

	"github.com/nikitaproks/vpn-bot/internal/bot/dialog"
	"github.com/nikitaproks/vpn-bot/internal/bot/transport"
	"github.com/nikitaproks/vpn-bot/internal/shared/logger"
)

const helpText = "Hi there! /spawn to spawn a server. /list to list running servers. /delete to delete one."

// Router directs authorized inbound events to the right workflow handler
// based on the command or the chat's current dialog state.
type Router struct {
	provisioner Provisioner
	sessions    *dialog.Store
	responder   transport.Responder
	spawn       *Spawn
	delete      *Delete
	logger      *logger.Logger
	cfg         Config
}

// NewRouter creates the router with both workflows attached.
func NewRouter(provisioner Provisioner, sessions *dialog.Store, responder transport.Responder, spawn *Spawn, del *Delete, log *logger.Logger, cfg Config) *Router {
	return &Router{
		provisioner: provisioner,
		sessions:    sessions,
		responder:   responder,
		spawn:       spawn,
		delete:      del,
		logger:      log,
		cfg:         cfg,
	}
}

// Handle processes one authorized event. It never panics the process: all
// per-chat failures are logged and answered with a user-visible message by
// the workflow that hit them.
func (r *Router) Handle(ctx context.Context, event transport.Event) {
	switch ev := event.(type) {
	case transport.Message:
		r.handleMessage(ctx, ev)
	case transport.Callback:
		r.handleCallback(ctx, ev)
	default:
		r.logger.DebugContext(ctx, "ignoring unknown event type")
	}
}

func (r *Router) handleMessage(ctx context.Context, msg transport.Message) {
	switch msg.Command {
	case "start":
		if err := r.responder.SendText(ctx, msg.Chat, helpText); err != nil {
			r.logger.ErrorCtx(ctx, "failed to send help", err)
		}
	case "spawn":
		r.spawn.Start(logger.WithOperation(ctx, "spawn"), msg)
	case "list":
		r.handleList(logger.WithOperation(ctx, "list"), msg)
	case "delete":
		r.delete.Start(logger.WithOperation(ctx, "delete"), msg)
	default:
		// Plain text and unknown commands are ignored.
		r.logger.DebugContext(ctx, "ignoring message", "command", msg.Command)
	}
}

func (r *Router) handleCallback(ctx context.Context, cb transport.Callback) {
	if err := r.responder.AckCallback(ctx, cb.ID); err != nil {
		r.logger.WarnContext(ctx, "failed to ack callback", "error", err.Error())
	}

	sess := r.sessions.Get(cb.Chat)
	if sess == nil {
		// A press on a stale prompt after the flow ended; nothing to do.
		r.logger.DebugContext(ctx, "callback without active session", "data", cb.Data)
		return
	}

	switch sess.State {
	case dialog.StateSpawnRegion:
		r.spawn.HandleRegion(logger.WithOperation(ctx, "spawn"), cb, sess)
	case dialog.StateSpawnConfirm:
		r.spawn.HandleConfirm(logger.WithOperation(ctx, "spawn"), cb, sess)
	case dialog.StateDeleteSelect:
		r.delete.HandleSelect(logger.WithOperation(ctx, "delete"), cb, sess)
	case dialog.StateDeleteConfirm:
		r.delete.HandleConfirm(logger.WithOperation(ctx, "delete"), cb, sess)
	default:
		r.logger.WarnContext(ctx, "callback in unknown state", "state", string(sess.State))
	}
}

// handleList answers /list. Stateless: the dialog session is not touched.
func (r *Router) handleList(ctx context.Context, msg transport.Message) {
	instances, err := r.provisioner.ListInstances(ctx)
	if err != nil {
		r.logger.ErrorCtx(ctx, "failed to list instances", err)
		if sendErr := r.responder.SendText(ctx, msg.Chat, msgGenericFailure); sendErr != nil {
			r.logger.ErrorCtx(ctx, "failed to send message", sendErr)
		}
		return
	}

	var b strings.Builder
	b.WriteString(listHeader)
	for _, instance := range filterOwned(instances, r.cfg.LabelPrefix) {
		b.WriteString(instance.String())
		b.WriteString("\n\n")
	}

	if err := r.responder.SendText(ctx, msg.Chat, b.String()); err != nil {
		r.logger.ErrorCtx(ctx, "failed to send listing", err)
	}
}
