package handlers

import (
	"strings"

	api "github.com/OvyFlash/telegram-bot-api"
)

// Request is the transient per-message view the moderation pipeline works
// on. It is built from an inbound message and discarded after handling.
type Request struct {
	ChatID    int64
	MessageID int
	Text      string
	LowerText string
	Sender    *api.User
	ReplyTo   *api.Message
	Entities  []api.MessageEntity
}

func NewRequest(m *api.Message) *Request {
	text := strings.TrimSpace(m.Text)
	return &Request{
		ChatID:    m.Chat.ID,
		MessageID: m.MessageID,
		Text:      text,
		LowerText: strings.ToLower(text),
		Sender:    m.From,
		ReplyTo:   m.ReplyToMessage,
		Entities:  m.Entities,
	}
}

// MentionsTrigger reports whether the message itself, or the message it
// replies to, contains the trigger word.
func (r *Request) MentionsTrigger(trigger string) bool {
	if strings.Contains(r.LowerText, trigger) {
		return true
	}
	if r.ReplyTo != nil && r.ReplyTo.Text != "" {
		return strings.Contains(strings.ToLower(r.ReplyTo.Text), trigger)
	}
	return false
}
