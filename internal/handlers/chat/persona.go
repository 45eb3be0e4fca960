package handlers

import (
	"context"
	"math/rand"
	"strings"

	api "github.com/OvyFlash/telegram-bot-api"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/masterbot/internal/adapters"
	"github.com/iamwavecut/masterbot/internal/adapters/llm"
	"github.com/iamwavecut/masterbot/internal/bot"
	"github.com/iamwavecut/masterbot/internal/config"
	moderation "github.com/iamwavecut/masterbot/internal/handlers/moderation"
)

// PersonaPrompt is the system prompt behind every generated reply.
const PersonaPrompt = "You are 'Master' — an 18-year-old girl. Speak sweetly, warmly, and naturally. " +
	"Use short, friendly sentences and mix simple Hindi phrases if it feels natural. " +
	"Avoid any content that is sexual, illegal, or harmful. Keep replies concise (1-4 sentences)."

var personaFallbacks = []string{
	"Hey! I'm Master — your friendly AI girl. 😊 How can I help you?",
	"Hi! I'm here and listening — tell me what's on your mind!",
	"Hello! Feeling cheerful today — ask me anything!",
	"Hi there — I'm Master. What would you like to do?",
}

// Persona answers conversational messages in character. Private chats get a
// reply to everything, groups only when the trigger word is involved. Works
// with or without a model behind it.
type Persona struct {
	cfg     config.Config
	model   adapters.LLM
	replier bot.Replier
}

func NewPersona(cfg config.Config, model adapters.LLM, replier bot.Replier) *Persona {
	p := &Persona{
		cfg:     cfg,
		model:   model,
		replier: replier,
	}
	if model == nil {
		p.getLogEntry().Info("no model configured, using local persona fallbacks")
	}
	return p
}

func (p *Persona) Handle(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) (bool, error) {
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	default:
	}

	if u.Message == nil || chat == nil || user == nil || user.IsBot {
		return true, nil
	}

	req := moderation.NewRequest(u.Message)
	if req.Text == "" {
		return true, nil
	}

	isPrivate := chat.Type == "private"
	if !isPrivate {
		if !chat.IsGroup() && !chat.IsSuperGroup() {
			return true, nil
		}
		if !req.MentionsTrigger(moderation.TriggerWord) {
			return true, nil
		}
	}

	p.replier.Reply(req.ChatID, req.MessageID, p.generateReply(ctx, req.Text))
	return false, nil
}

// generateReply asks the model first and falls back to canned heuristics on
// any failure, so the bot stays chatty when the model is down.
func (p *Persona) generateReply(ctx context.Context, text string) string {
	if p.model != nil {
		ctx, cancel := context.WithTimeout(ctx, p.cfg.LLM.RequestTimeout)
		defer cancel()

		resp, err := p.model.ChatCompletion(ctx, []llm.ChatCompletionMessage{
			{Role: llm.RoleUser, Content: text},
		})
		if err != nil {
			p.getLogEntry().WithField("error", err.Error()).Warn("model call failed")
		} else if len(resp.Choices) > 0 {
			if content := strings.TrimSpace(resp.Choices[0].Message.Content); content != "" {
				return content
			}
		}
	}
	return localReply(text)
}

func localReply(text string) string {
	lower := strings.ToLower(text)
	for _, kw := range []string{"how are you", "kya haal", "how r u", "kya haal hai"} {
		if strings.Contains(lower, kw) {
			return "I'm doing great — thank you for asking! 😊 What about you?"
		}
	}
	if strings.Contains(lower, "joke") {
		return "Why did the programmer go broke? Because he used up all his cache! 😅"
	}
	if strings.Contains(lower, "song") || strings.Contains(lower, "music") {
		return "I love music! Tell me the song name and I will pretend I'm playing it. 🎧"
	}
	return personaFallbacks[rand.Intn(len(personaFallbacks))]
}

func (p *Persona) getLogEntry() *log.Entry {
	return log.WithField("context", "persona")
}
