package telegram

import (
	"context"
	"strings"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"

	errs "github.com/iamwavecut/masterbot/internal/errors"
)

// Operations provides the moderation-facing Telegram bot operations.
type Operations struct {
	bot *api.BotAPI
}

// NewOperations creates a new Operations instance
func NewOperations(bot *api.BotAPI) *Operations {
	return &Operations{bot: bot}
}

// DeleteMessage deletes a message from a chat
func (o *Operations) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	_, err := o.bot.Request(api.NewDeleteMessage(chatID, messageID))
	if err != nil {
		return errors.WithMessage(err, "cant delete message")
	}
	return nil
}

// BanUser bans a user from a chat
func (o *Operations) BanUser(ctx context.Context, chatID, userID int64) error {
	config := api.BanChatMemberConfig{
		ChatMemberConfig: api.ChatMemberConfig{
			ChatConfig: api.ChatConfig{
				ChatID: chatID,
			},
			UserID: userID,
		},
	}
	_, err := o.bot.Request(config)
	if err != nil {
		if strings.Contains(err.Error(), "not enough rights") {
			return errors.WithMessage(errs.ErrUnauthorized, "not enough rights to ban user")
		}
		return errors.WithMessage(err, "cant ban user")
	}
	return nil
}

// UnbanUser lifts a chat ban, allowing the user to rejoin
func (o *Operations) UnbanUser(ctx context.Context, chatID, userID int64) error {
	config := api.UnbanChatMemberConfig{
		ChatMemberConfig: api.ChatMemberConfig{
			ChatConfig: api.ChatConfig{
				ChatID: chatID,
			},
			UserID: userID,
		},
		OnlyIfBanned: true,
	}
	_, err := o.bot.Request(config)
	if err != nil {
		return errors.WithMessage(err, "cant unban user")
	}
	return nil
}

// RestrictUser revokes a user's send permissions until the given time
func (o *Operations) RestrictUser(ctx context.Context, chatID, userID int64, until time.Time) error {
	config := api.RestrictChatMemberConfig{
		ChatMemberConfig: api.ChatMemberConfig{
			ChatConfig: api.ChatConfig{
				ChatID: chatID,
			},
			UserID: userID,
		},
		UntilDate: until.Unix(),
		Permissions: &api.ChatPermissions{
			CanSendMessages:       false,
			CanSendAudios:         false,
			CanSendDocuments:      false,
			CanSendPhotos:         false,
			CanSendVideos:         false,
			CanSendVideoNotes:     false,
			CanSendVoiceNotes:     false,
			CanSendPolls:          false,
			CanSendOtherMessages:  false,
			CanAddWebPagePreviews: false,
		},
	}
	_, err := o.bot.Request(config)
	if err != nil {
		return errors.WithMessage(err, "cant restrict user")
	}
	return nil
}

// UnrestrictUser restores full send permissions unconditionally
func (o *Operations) UnrestrictUser(ctx context.Context, chatID, userID int64) error {
	config := api.RestrictChatMemberConfig{
		ChatMemberConfig: api.ChatMemberConfig{
			ChatConfig: api.ChatConfig{
				ChatID: chatID,
			},
			UserID: userID,
		},
		Permissions: &api.ChatPermissions{
			CanSendMessages:       true,
			CanSendAudios:         true,
			CanSendDocuments:      true,
			CanSendPhotos:         true,
			CanSendVideos:         true,
			CanSendVideoNotes:     true,
			CanSendVoiceNotes:     true,
			CanSendPolls:          true,
			CanSendOtherMessages:  true,
			CanAddWebPagePreviews: true,
		},
	}
	_, err := o.bot.Request(config)
	if err != nil {
		return errors.WithMessage(err, "cant unrestrict user")
	}
	return nil
}

// GetChatMember fetches a user's membership record in a chat
func (o *Operations) GetChatMember(ctx context.Context, chatID, userID int64) (*api.ChatMember, error) {
	member, err := o.bot.GetChatMember(api.GetChatMemberConfig{
		ChatConfigWithUser: api.ChatConfigWithUser{
			ChatConfig: api.ChatConfig{
				ChatID: chatID,
			},
			UserID: userID,
		},
	})
	if err != nil {
		return nil, errors.WithMessage(err, "cant get chat member")
	}
	return &member, nil
}
