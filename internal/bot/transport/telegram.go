package transport

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/nikitaproks/vpn-bot/internal/shared/logger"
)

const defaultPollTimeoutSeconds = 30

// Telegram implements Responder over the Telegram Bot API and turns the
// long-poll update stream into Events.
type Telegram struct {
	bot         *tgbotapi.BotAPI
	logger      *logger.Logger
	pollTimeout int
}

// TelegramOption customizes a Telegram transport.
type TelegramOption func(*Telegram)

// WithPollTimeout overrides the long-poll timeout in seconds.
func WithPollTimeout(seconds int) TelegramOption {
	return func(t *Telegram) {
		if seconds > 0 {
			t.pollTimeout = seconds
		}
	}
}

// NewTelegram creates a Telegram transport authenticated with the given
// bot token.
func NewTelegram(token string, log *logger.Logger, opts ...TelegramOption) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Telegram: %w", err)
	}

	log.Info("connected to Telegram", "bot_username", bot.Self.UserName)

	t := &Telegram{
		bot:         bot,
		logger:      log,
		pollTimeout: defaultPollTimeoutSeconds,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Poll consumes updates and hands each mapped Event to deliver. It blocks
// until ctx is cancelled. Updates without a determinable chat identity are
// dropped here, before authorization or dispatch.
func (t *Telegram) Poll(ctx context.Context, deliver func(Event)) {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = t.pollTimeout

	updates := t.bot.GetUpdatesChan(cfg)
	defer t.bot.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			event, ok := mapUpdate(update)
			if !ok {
				t.logger.Debug("dropping update without chat identity", "update_id", update.UpdateID)
				continue
			}
			deliver(event)
		}
	}
}

// mapUpdate converts a raw update into an Event. The second return is false
// when the update carries no usable chat identity.
func mapUpdate(update tgbotapi.Update) (Event, bool) {
	switch {
	case update.Message != nil:
		msg := Message{
			Chat: update.Message.Chat.ID,
			Text: update.Message.Text,
		}
		if update.Message.IsCommand() {
			msg.Command = update.Message.Command()
		}
		return msg, true

	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil:
		cq := update.CallbackQuery
		return Callback{
			Chat:      cq.Message.Chat.ID,
			MessageID: cq.Message.MessageID,
			ID:        cq.ID,
			Data:      cq.Data,
		}, true

	default:
		return nil, false
	}
}

// SendText delivers a plain text message.
func (t *Telegram) SendText(ctx context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// SendChoices delivers a prompt with an inline keyboard.
func (t *Telegram) SendChoices(ctx context.Context, chatID int64, text string, rows [][]Choice) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = buildKeyboard(rows)

	sent, err := t.bot.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("failed to send prompt: %w", err)
	}
	return sent.MessageID, nil
}

// EditChoices replaces the text and keyboard of an existing prompt.
func (t *Telegram) EditChoices(ctx context.Context, chatID int64, messageID int, text string, rows [][]Choice) error {
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, buildKeyboard(rows))
	if _, err := t.bot.Send(edit); err != nil {
		return fmt.Errorf("failed to edit prompt: %w", err)
	}
	return nil
}

// RemovePrompt deletes a previously sent prompt message.
func (t *Telegram) RemovePrompt(ctx context.Context, chatID int64, messageID int) error {
	if _, err := t.bot.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		return fmt.Errorf("failed to delete prompt: %w", err)
	}
	return nil
}

// AckCallback answers a callback query so the client stops the spinner.
func (t *Telegram) AckCallback(ctx context.Context, callbackID string) error {
	if _, err := t.bot.Request(tgbotapi.NewCallback(callbackID, "")); err != nil {
		return fmt.Errorf("failed to answer callback: %w", err)
	}
	return nil
}

func buildKeyboard(rows [][]Choice) tgbotapi.InlineKeyboardMarkup {
	keyboard := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, choice := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(choice.Label, choice.Data))
		}
		keyboard = append(keyboard, buttons)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}
