package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/masterbot/internal/bot"
	"github.com/iamwavecut/masterbot/internal/config"
	"github.com/iamwavecut/masterbot/internal/db"
	moderation "github.com/iamwavecut/masterbot/internal/handlers/moderation"
	"github.com/iamwavecut/masterbot/internal/i18n"
)

type restrictor interface {
	RestrictUser(ctx context.Context, chatID, userID int64, until time.Time) error
}

type banRegistry interface {
	SetGlobalBan(ctx context.Context, userID int64, banned bool) error
	GetUserByUsername(ctx context.Context, username string) (*db.UserMeta, error)
}

// Commands is the slash-command surface: greeting, owner ping, the
// escalating mute, the cosmetic soft ban and the owner-only global ban
// registry.
type Commands struct {
	cfg        config.Config
	gate       *moderation.PermissionGate
	escalation *moderation.EscalationStore
	actions    restrictor
	registry   banRegistry
	replier    bot.Replier
}

func NewCommands(
	cfg config.Config,
	gate *moderation.PermissionGate,
	escalation *moderation.EscalationStore,
	actions restrictor,
	registry banRegistry,
	replier bot.Replier,
) *Commands {
	return &Commands{
		cfg:        cfg,
		gate:       gate,
		escalation: escalation,
		actions:    actions,
		registry:   registry,
		replier:    replier,
	}
}

func (c *Commands) Handle(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) (bool, error) {
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	default:
	}

	if u.Message == nil || chat == nil || user == nil || user.IsBot || !u.Message.IsCommand() {
		return true, nil
	}

	msg := u.Message
	isGroup := chat.IsGroup() || chat.IsSuperGroup()
	lang := c.cfg.DefaultLanguage

	switch msg.Command() {
	case "start":
		name := user.FirstName
		if name == "" {
			name = "there"
		}
		c.reply(msg, fmt.Sprintf(i18n.Get(
			"Hi %s, I'm Master — a cute AI girl. 💕\n\n"+
				"• In private chat I can chat with you freely.\n"+
				"• In groups I only respond when someone mentions 'master' or replies to a 'master' message.\n"+
				"• Moderation (mute/unmute/ban/unban/kick) is available to group admins and owners.", lang), name))

	case "ping":
		if user.ID != c.cfg.OwnerID {
			return true, nil
		}
		c.reply(msg, i18n.Get("Pong! Bot owner verified.", lang))

	case "mute", "master_mute":
		if !isGroup {
			return true, nil
		}
		c.handleMute(ctx, msg, chat, user)

	case "softban", "master_ban":
		if !isGroup {
			return true, nil
		}
		if msg.ReplyToMessage == nil || msg.ReplyToMessage.From == nil {
			c.reply(msg, i18n.Get("Reply to a user to soft ban them.", lang))
			return false, nil
		}
		c.reply(msg, fmt.Sprintf(i18n.Get("%s is soft banned (no real ban, just for fun)!", lang),
			displayName(msg.ReplyToMessage.From)))

	case "gban", "global_ban":
		if isGroup {
			return true, nil
		}
		c.handleGlobalBan(ctx, msg, user, true)

	case "ungban":
		if isGroup {
			return true, nil
		}
		c.handleGlobalBan(ctx, msg, user, false)

	default:
		return true, nil
	}

	return false, nil
}

// handleMute applies the escalating mute to the replied-to user. The window
// grows with each recorded infraction until an apology resets it.
func (c *Commands) handleMute(ctx context.Context, msg *api.Message, chat *api.Chat, sender *api.User) {
	entry := c.getLogEntry().WithFields(log.Fields{"chat_id": chat.ID, "user_id": sender.ID})
	lang := c.cfg.DefaultLanguage

	if !c.gate.CanModerate(ctx, chat.ID, sender.ID) {
		c.reply(msg, i18n.Get("You are not allowed to perform moderation actions.", lang))
		return
	}
	if msg.ReplyToMessage == nil || msg.ReplyToMessage.From == nil {
		c.reply(msg, i18n.Get("Reply to a user to mute them.", lang))
		return
	}

	target := msg.ReplyToMessage.From
	duration := c.escalation.RecordInfraction(ctx, target.ID, chat.ID)
	if err := c.actions.RestrictUser(ctx, chat.ID, target.ID, time.Now().Add(duration)); err != nil {
		entry.WithFields(log.Fields{"target_id": target.ID, "error": err.Error()}).Error("cant mute user")
		c.reply(msg, i18n.Get("Mute failed.", lang))
		return
	}
	c.reply(msg, fmt.Sprintf(i18n.Get("%s is muted for %d minutes due to repeated spam.", lang),
		displayName(target), int(duration.Minutes())))
}

// handleGlobalBan flips the global ban flag for the replied-to user or an
// @username argument. Owner only, private chat only.
func (c *Commands) handleGlobalBan(ctx context.Context, msg *api.Message, sender *api.User, banned bool) {
	entry := c.getLogEntry().WithField("user_id", sender.ID)
	lang := c.cfg.DefaultLanguage

	if sender.ID != c.cfg.OwnerID {
		c.reply(msg, i18n.Get("Only bot owner can use this command.", lang))
		return
	}

	targetID, targetName := c.resolveBanTarget(ctx, msg)
	if targetID == 0 {
		c.reply(msg, i18n.Get("Reply to a user or pass their @username to global ban them.", lang))
		return
	}

	if err := c.registry.SetGlobalBan(ctx, targetID, banned); err != nil {
		entry.WithFields(log.Fields{"target_id": targetID, "error": err.Error()}).Error("cant update global ban")
		c.reply(msg, i18n.Get("Global ban update failed.", lang))
		return
	}
	if banned {
		c.reply(msg, fmt.Sprintf(i18n.Get("%s is globally banned from all groups.", lang), targetName))
	} else {
		c.reply(msg, fmt.Sprintf(i18n.Get("%s is no longer globally banned.", lang), targetName))
	}
}

func (c *Commands) resolveBanTarget(ctx context.Context, msg *api.Message) (int64, string) {
	if msg.ReplyToMessage != nil && msg.ReplyToMessage.From != nil {
		target := msg.ReplyToMessage.From
		return target.ID, displayName(target)
	}
	handle := strings.TrimPrefix(strings.TrimSpace(msg.CommandArguments()), "@")
	if handle == "" {
		return 0, ""
	}
	user, err := c.registry.GetUserByUsername(ctx, handle)
	if err != nil || user == nil {
		return 0, ""
	}
	return user.ID, user.DisplayName()
}

func (c *Commands) reply(msg *api.Message, text string) {
	c.replier.Reply(msg.Chat.ID, msg.MessageID, text)
}

func displayName(user *api.User) string {
	if user.FirstName != "" {
		return user.FirstName
	}
	return user.UserName
}

func (c *Commands) getLogEntry() *log.Entry {
	return log.WithField("context", "commands")
}
