package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/nikitaproks/vpn-bot/internal/bot/dialog"
	"github.com/nikitaproks/vpn-bot/internal/bot/events"
	"github.com/nikitaproks/vpn-bot/internal/bot/transport"
	"github.com/nikitaproks/vpn-bot/internal/linode"
	"github.com/nikitaproks/vpn-bot/internal/shared/errors"
	"github.com/nikitaproks/vpn-bot/internal/shared/logger"
)

// Spawn drives instance creation: Idle -> Region -> Confirm -> Idle.
type Spawn struct {
	provisioner Provisioner
	sessions    *dialog.Store
	responder   transport.Responder
	bus         *events.Bus
	logger      *logger.Logger
	cfg         Config
}

// NewSpawn creates the spawn workflow.
func NewSpawn(provisioner Provisioner, sessions *dialog.Store, responder transport.Responder, bus *events.Bus, log *logger.Logger, cfg Config) *Spawn {
	return &Spawn{
		provisioner: provisioner,
		sessions:    sessions,
		responder:   responder,
		bus:         bus,
		logger:      log,
		cfg:         cfg,
	}
}

// Start handles /spawn. The quota is enforced here, client-side: with
// MaxInstances owned instances already running the chat stays idle.
func (s *Spawn) Start(ctx context.Context, msg transport.Message) {
	instances, err := s.provisioner.ListInstances(ctx)
	if err != nil {
		s.logger.ErrorCtx(ctx, "failed to list instances", err)
		s.sendText(ctx, msg.Chat, msgGenericFailure)
		return
	}

	owned := filterOwned(instances, s.cfg.LabelPrefix)
	if len(owned) >= s.cfg.MaxInstances {
		s.logger.InfoContext(ctx, "spawn rejected",
			"owned", len(owned), "max", s.cfg.MaxInstances,
			"error", errors.ErrQuotaExceeded.Error())
		s.sendText(ctx, msg.Chat, fmt.Sprintf(
			"You can't spawn more than %d servers. Delete some with /delete", s.cfg.MaxInstances))
		return
	}

	if _, err := s.responder.SendChoices(ctx, msg.Chat, msgChooseRegion, regionRows()); err != nil {
		s.logger.ErrorCtx(ctx, "failed to send region prompt", err)
		return
	}
	s.sessions.Begin(msg.Chat, dialog.StateSpawnRegion)
}

// HandleRegion handles a choice while the chat is at the Region step.
func (s *Spawn) HandleRegion(ctx context.Context, cb transport.Callback, sess *dialog.Session) {
	if cb.Data == ChoiceBack {
		s.sessions.Clear(cb.Chat)
		s.removePrompt(ctx, cb)
		return
	}

	sess.Set(dialog.KeyRegion, cb.Data)
	sess.State = dialog.StateSpawnConfirm

	region, _ := linode.ParseRegion(cb.Data)
	prompt := fmt.Sprintf("Do you confirm server creation in %s?", region.Name())
	if err := s.responder.EditChoices(ctx, cb.Chat, cb.MessageID, prompt, confirmRows()); err != nil {
		s.logger.ErrorCtx(ctx, "failed to render confirmation prompt", err)
	}
}

// HandleConfirm handles a choice while the chat is at the Confirm step.
func (s *Spawn) HandleConfirm(ctx context.Context, cb transport.Callback, sess *dialog.Session) {
	switch cb.Data {
	case ChoiceBack:
		// Back from confirmation returns to region selection with the
		// previous choice discarded.
		sess.Delete(dialog.KeyRegion)
		sess.State = dialog.StateSpawnRegion
		if err := s.responder.EditChoices(ctx, cb.Chat, cb.MessageID, msgChooseRegion, regionRows()); err != nil {
			s.logger.ErrorCtx(ctx, "failed to render region prompt", err)
		}

	case ChoiceConfirm:
		s.create(ctx, cb, sess)
	}
}

func (s *Spawn) create(ctx context.Context, cb transport.Callback, sess *dialog.Session) {
	code, ok := sess.Lookup(dialog.KeyRegion)
	if !ok {
		// Should not happen under correct sequencing; the session is
		// deliberately left as-is so the failure is observable.
		s.logger.ErrorCtx(ctx, "confirmation without region",
			errors.NewSessionError(cb.Chat, string(sess.State), dialog.KeyRegion))
		s.sendText(ctx, cb.Chat, msgGenericFailure)
		return
	}
	region, _ := linode.ParseRegion(code)

	// The callback identity makes the label unique per confirmation.
	label := fmt.Sprintf("%s-%s", s.cfg.LabelPrefix, cb.ID)

	instance, err := s.provisioner.CreateInstance(ctx, linode.CreateOpts{
		Region:          region,
		Label:           label,
		Image:           s.cfg.Image,
		Plan:            s.cfg.Plan,
		StackScriptID:   s.cfg.StackScriptID,
		StackScriptData: linode.NewShadowsocksParams(s.cfg.ShadowsocksPassword),
	})
	if err != nil {
		// Raw response body ends up in the log via the error; the user
		// only sees the generic message. The session is unchanged, so
		// pressing Confirm again retries safely.
		s.logger.ErrorCtx(ctx, "instance creation failed", err, "region", region.Code())
		s.sendText(ctx, cb.Chat, msgGenericFailure)
		return
	}

	s.sessions.Clear(cb.Chat)
	s.bus.PublishCreated(ctx, instance.ID, instance.Region, cb.Chat)

	s.sendText(ctx, cb.Chat, fmt.Sprintf(
		"Successfully created server ID %d! Wait 3-5 minutes to start.\n%s",
		instance.ID, strings.Join(instance.IPv4, "\n")))
}

func (s *Spawn) sendText(ctx context.Context, chatID int64, text string) {
	if err := s.responder.SendText(ctx, chatID, text); err != nil {
		s.logger.ErrorCtx(ctx, "failed to send message", err, "chat_id", chatID)
	}
}

func (s *Spawn) removePrompt(ctx context.Context, cb transport.Callback) {
	if err := s.responder.RemovePrompt(ctx, cb.Chat, cb.MessageID); err != nil {
		s.logger.ErrorCtx(ctx, "failed to remove prompt", err, "chat_id", cb.Chat)
	}
}
