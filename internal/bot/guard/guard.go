// Package guard authorizes inbound chat events against a fixed allow-list
// before they reach any workflow handler.
package guard

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/nikitaproks/vpn-bot/internal/bot/transport"
	"github.com/nikitaproks/vpn-bot/internal/shared/errors"
	"github.com/nikitaproks/vpn-bot/internal/shared/logger"
)

// RejectionNotice is sent to unauthorized chats that have a response channel.
const RejectionNotice = "You are not allowed to use this bot."

// AllowList is the process-wide immutable set of authorized chat
// identities, loaded once at startup.
type AllowList struct {
	ids map[int64]struct{}
}

// NewAllowList builds an allow-list from chat IDs.
func NewAllowList(ids []int64) AllowList {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return AllowList{ids: set}
}

// ParseAllowList parses a comma-separated list of chat IDs.
func ParseAllowList(raw string) ([]int64, error) {
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, errors.NewConfigError("allowed_chat_ids",
				fmt.Sprintf("invalid chat ID %q", part), err)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, errors.NewConfigError("allowed_chat_ids", "no chat IDs configured", nil)
	}
	return ids, nil
}

// Allows reports whether the chat identity is authorized.
func (a AllowList) Allows(chatID int64) bool {
	_, ok := a.ids[chatID]
	return ok
}

// Size returns the number of authorized identities.
func (a AllowList) Size() int {
	return len(a.ids)
}

// Middleware wraps next so that every event is authorized first.
// Unauthorized messages get a fixed rejection notice; unauthorized choice
// selections are dropped silently. Either way the event never reaches next.
func Middleware(allow AllowList, responder transport.Responder, log *logger.Logger, next transport.Handler) transport.Handler {
	return func(ctx context.Context, event transport.Event) {
		chatID := event.ChatID()
		if allow.Allows(chatID) {
			next(ctx, event)
			return
		}

		log.WarnContext(ctx, "rejected event from unauthorized chat",
			"chat_id", chatID, "error", errors.ErrUnauthorizedChat.Error())

		if _, isMessage := event.(transport.Message); isMessage {
			if err := responder.SendText(ctx, chatID, RejectionNotice); err != nil {
				log.ErrorCtx(ctx, "failed to send rejection notice", err, "chat_id", chatID)
			}
		}
	}
}
