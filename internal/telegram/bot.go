package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Bot is the long-polling transport, used when no public URL is
// configured for a webhook.
type Bot struct {
	api        *tgbotapi.BotAPI
	dispatcher *Dispatcher
	log        *zap.Logger
}

func NewBot(api *tgbotapi.BotAPI, dispatcher *Dispatcher, log *zap.Logger) *Bot {
	return &Bot{api: api, dispatcher: dispatcher, log: log}
}

func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	u.AllowedUpdates = []string{"message", "callback_query"}

	updates := b.api.GetUpdatesChan(u)
	b.log.Info("long polling started", zap.String("username", b.api.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			b.dispatcher.HandleUpdate(ctx, upd)
		}
	}
}
