package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Outgoing is one message to deliver: text, optional inline keyboard,
// optional Markdown formatting.
type Outgoing struct {
	ChatID   int64
	Text     string
	Keyboard *tgbotapi.InlineKeyboardMarkup
	Markdown bool
}

// Sender delivers outgoing messages. Delivery failure is reported as an
// error; it is logged by callers and never retried.
type Sender interface {
	Send(msg Outgoing) error
}

type apiSender struct {
	api *tgbotapi.BotAPI
	log *zap.Logger
}

func NewSender(api *tgbotapi.BotAPI, log *zap.Logger) Sender {
	return &apiSender{api: api, log: log}
}

func (s *apiSender) Send(msg Outgoing) error {
	out := tgbotapi.NewMessage(msg.ChatID, msg.Text)
	if msg.Keyboard != nil {
		out.ReplyMarkup = *msg.Keyboard
	}
	if msg.Markdown {
		out.ParseMode = tgbotapi.ModeMarkdown
	}
	if _, err := s.api.Send(out); err != nil {
		s.log.Warn("failed to send message", zap.Int64("chat_id", msg.ChatID), zap.Error(err))
		return err
	}
	return nil
}
