package bot

import (
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/masterbot/internal/event"
)

const (
	replyEventType = "reply"
	replyEventTTL  = time.Minute
)

// Replier sends a text reply into a chat. Sends are fire and forget, a
// failed delivery is logged once and never surfaces to the caller.
type Replier interface {
	Reply(chatID int64, replyToMessageID int, text string)
}

// ReplyEvent carries an outgoing reply through the event queue.
type ReplyEvent struct {
	*event.Base
	ChatID           int64
	ReplyToMessageID int
	Text             string
}

// QueueReplier enqueues replies onto the shared event bus.
type QueueReplier struct{}

func NewQueueReplier() *QueueReplier {
	return &QueueReplier{}
}

func (r *QueueReplier) Reply(chatID int64, replyToMessageID int, text string) {
	if text == "" {
		return
	}
	event.Bus.Enqueue(&ReplyEvent{
		Base:             event.CreateBase(replyEventType, time.Now().Add(replyEventTTL)),
		ChatID:           chatID,
		ReplyToMessageID: replyToMessageID,
		Text:             text,
	})
}

// RegisterReplySender subscribes the actual Telegram sender for queued
// replies. Call once at startup, before RunWorker drains the bus.
func RegisterReplySender(botAPI *api.BotAPI) {
	entry := log.WithField("context", "reply_sender")
	event.Subscribe(replyEventType, func(e event.Queueable) {
		re, ok := e.(*ReplyEvent)
		if !ok {
			e.Drop()
			return
		}
		defer re.Process()

		msg := api.NewMessage(re.ChatID, re.Text)
		if re.ReplyToMessageID != 0 {
			msg.ReplyParameters = api.ReplyParameters{
				ChatID:                   re.ChatID,
				MessageID:                re.ReplyToMessageID,
				AllowSendingWithoutReply: true,
			}
		}
		msg.DisableNotification = true
		if _, err := botAPI.Send(msg); err != nil {
			entry.WithField("error", err.Error()).Error("failed to send reply")
		}
	})
}
