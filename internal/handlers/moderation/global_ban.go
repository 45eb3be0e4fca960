package handlers

import (
	"context"
	"fmt"

	api "github.com/OvyFlash/telegram-bot-api"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/masterbot/internal/bot"
	"github.com/iamwavecut/masterbot/internal/db"
	"github.com/iamwavecut/masterbot/internal/i18n"
	"github.com/iamwavecut/masterbot/internal/observability"
)

type globalBanStore interface {
	IsGloballyBanned(ctx context.Context, userID int64) (bool, error)
	UpsertUser(ctx context.Context, user *db.UserMeta) error
	TouchChatMember(ctx context.Context, chatID, userID int64) error
}

type messageRemover interface {
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
}

// GlobalBanEnforcer runs on every group message, independent of trigger
// words and with no permission gate: a globally banned sender's message is
// deleted and a single notice posted. It also keeps the seen-users cache
// current, which feeds target resolution.
type GlobalBanEnforcer struct {
	store    globalBanStore
	remover  messageRemover
	replier  bot.Replier
	language string
}

func NewGlobalBanEnforcer(store globalBanStore, remover messageRemover, replier bot.Replier, language string) *GlobalBanEnforcer {
	return &GlobalBanEnforcer{
		store:    store,
		remover:  remover,
		replier:  replier,
		language: language,
	}
}

func (e *GlobalBanEnforcer) Handle(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) (bool, error) {
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	default:
	}

	if u.Message == nil || chat == nil || user == nil {
		return true, nil
	}
	if !chat.IsGroup() && !chat.IsSuperGroup() {
		return true, nil
	}

	entry := e.getLogEntry().WithFields(log.Fields{"chat_id": chat.ID, "user_id": user.ID})

	if !user.IsBot {
		if err := e.store.UpsertUser(ctx, userMetaFromAPI(user)); err != nil {
			entry.WithField("error", err.Error()).Warn("cant upsert seen user")
		} else if err := e.store.TouchChatMember(ctx, chat.ID, user.ID); err != nil {
			entry.WithField("error", err.Error()).Warn("cant touch chat member")
		}
	}

	banned, err := e.store.IsGloballyBanned(ctx, user.ID)
	if err != nil {
		entry.WithField("error", err.Error()).Error("cant check global ban")
		return true, nil
	}
	if !banned {
		return true, nil
	}

	if err := e.remover.DeleteMessage(ctx, chat.ID, u.Message.MessageID); err != nil {
		entry.WithField("error", err.Error()).Error("cant delete message of banned user")
	}
	name := user.FirstName
	if name == "" {
		name = user.UserName
	}
	e.replier.Reply(chat.ID, 0, fmt.Sprintf(
		i18n.Get("%s is globally banned from this group.", e.language), name))
	observability.RecordGlobalBanEnforcement()
	entry.Info("removed message of globally banned user")
	return false, nil
}

func (e *GlobalBanEnforcer) getLogEntry() *log.Entry {
	return log.WithField("context", "global_ban")
}
