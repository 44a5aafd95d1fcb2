package workflow

import (
	"context"
	"fmt"

	"github.com/gookit/goutil/mathutil"

	"github.com/nikitaproks/vpn-bot/internal/bot/dialog"
	"github.com/nikitaproks/vpn-bot/internal/bot/events"
	"github.com/nikitaproks/vpn-bot/internal/bot/transport"
	"github.com/nikitaproks/vpn-bot/internal/shared/errors"
	"github.com/nikitaproks/vpn-bot/internal/shared/logger"
)

// Delete drives instance deletion: Idle -> SelectInstance -> Confirm -> Idle.
//
// Note the asymmetry with Spawn: "Back" at the confirmation step clears the
// whole session instead of returning to selection.
type Delete struct {
	provisioner Provisioner
	sessions    *dialog.Store
	responder   transport.Responder
	bus         *events.Bus
	logger      *logger.Logger
	cfg         Config
}

// NewDelete creates the delete workflow.
func NewDelete(provisioner Provisioner, sessions *dialog.Store, responder transport.Responder, bus *events.Bus, log *logger.Logger, cfg Config) *Delete {
	return &Delete{
		provisioner: provisioner,
		sessions:    sessions,
		responder:   responder,
		bus:         bus,
		logger:      log,
		cfg:         cfg,
	}
}

// Start handles /delete.
func (d *Delete) Start(ctx context.Context, msg transport.Message) {
	instances, err := d.provisioner.ListInstances(ctx)
	if err != nil {
		d.logger.ErrorCtx(ctx, "failed to list instances", err)
		d.sendText(ctx, msg.Chat, msgGenericFailure)
		return
	}

	owned := filterOwned(instances, d.cfg.LabelPrefix)
	if len(owned) == 0 {
		d.logger.InfoContext(ctx, "nothing to delete",
			"error", errors.ErrNothingToDelete.Error())
		d.sendText(ctx, msg.Chat, msgNothingToDelete)
		return
	}

	rows := make([][]transport.Choice, 0, len(owned)+1)
	for _, instance := range owned {
		rows = append(rows, []transport.Choice{{
			Label: fmt.Sprintf("%d %s", instance.ID, instance.Region),
			Data:  fmt.Sprintf("%d", instance.ID),
		}})
	}
	rows = append(rows, []transport.Choice{{Label: "Back", Data: ChoiceBack}})

	if _, err := d.responder.SendChoices(ctx, msg.Chat, msgChooseDelete, rows); err != nil {
		d.logger.ErrorCtx(ctx, "failed to send instance prompt", err)
		return
	}
	d.sessions.Begin(msg.Chat, dialog.StateDeleteSelect)
}

// HandleSelect handles a choice while the chat is at the SelectInstance step.
func (d *Delete) HandleSelect(ctx context.Context, cb transport.Callback, sess *dialog.Session) {
	if cb.Data == ChoiceBack {
		d.sessions.Clear(cb.Chat)
		d.removePrompt(ctx, cb)
		return
	}

	sess.Set(dialog.KeyInstance, cb.Data)
	sess.State = dialog.StateDeleteConfirm

	prompt := fmt.Sprintf("Do you confirm deletion of server ID %s?", cb.Data)
	if err := d.responder.EditChoices(ctx, cb.Chat, cb.MessageID, prompt, confirmRows()); err != nil {
		d.logger.ErrorCtx(ctx, "failed to render confirmation prompt", err)
	}
}

// HandleConfirm handles a choice while the chat is at the Confirm step.
func (d *Delete) HandleConfirm(ctx context.Context, cb transport.Callback, sess *dialog.Session) {
	switch cb.Data {
	case ChoiceBack:
		// Unlike Spawn, backing out of the confirmation abandons the
		// whole flow.
		d.sessions.Clear(cb.Chat)
		d.removePrompt(ctx, cb)

	case ChoiceConfirm:
		d.delete(ctx, cb, sess)
	}
}

func (d *Delete) delete(ctx context.Context, cb transport.Callback, sess *dialog.Session) {
	raw, ok := sess.Lookup(dialog.KeyInstance)
	if !ok {
		d.logger.ErrorCtx(ctx, "confirmation without instance",
			errors.NewSessionError(cb.Chat, string(sess.State), dialog.KeyInstance))
		d.sendText(ctx, cb.Chat, msgGenericFailure)
		return
	}

	id, err := mathutil.ToInt(raw)
	if err != nil {
		d.logger.ErrorCtx(ctx, "invalid instance ID in session", err, "raw", raw)
		d.sendText(ctx, cb.Chat, msgGenericFailure)
		return
	}

	if err := d.provisioner.DeleteInstance(ctx, id); err != nil {
		// Session stays as-is; Confirm can be pressed again to retry.
		d.logger.ErrorCtx(ctx, "instance deletion failed", err, "instance_id", id)
		d.sendText(ctx, cb.Chat, msgGenericFailure)
		return
	}

	d.sessions.Clear(cb.Chat)
	d.bus.PublishDeleted(ctx, id, cb.Chat)
	d.sendText(ctx, cb.Chat, fmt.Sprintf("Successfully deleted server ID %d", id))
}

func (d *Delete) sendText(ctx context.Context, chatID int64, text string) {
	if err := d.responder.SendText(ctx, chatID, text); err != nil {
		d.logger.ErrorCtx(ctx, "failed to send message", err, "chat_id", chatID)
	}
}

func (d *Delete) removePrompt(ctx context.Context, cb transport.Callback) {
	if err := d.responder.RemovePrompt(ctx, cb.Chat, cb.MessageID); err != nil {
		d.logger.ErrorCtx(ctx, "failed to remove prompt", err, "chat_id", cb.Chat)
	}
}
