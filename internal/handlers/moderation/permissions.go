package handlers

import (
	"context"

	api "github.com/OvyFlash/telegram-bot-api"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/masterbot/internal/config"
)

type membershipLookup interface {
	GetChatMember(ctx context.Context, chatID, userID int64) (*api.ChatMember, error)
}

// PermissionGate decides whether a user may invoke moderation actions in a
// chat. Lookup failures are fail-closed.
type PermissionGate struct {
	cfg     config.Config
	members membershipLookup
}

func NewPermissionGate(cfg config.Config, members membershipLookup) *PermissionGate {
	return &PermissionGate{
		cfg:     cfg,
		members: members,
	}
}

func (g *PermissionGate) CanModerate(ctx context.Context, chatID, userID int64) bool {
	if g.cfg.IsBotAdmin(userID) {
		return true
	}
	member, err := g.members.GetChatMember(ctx, chatID, userID)
	if err != nil {
		log.WithFields(log.Fields{
			"context": "permission_gate",
			"chat_id": chatID,
			"user_id": userID,
			"error":   err.Error(),
		}).Debug("member lookup failed, denying")
		return false
	}
	return isPrivilegedModerator(member)
}

func isPrivilegedModerator(member *api.ChatMember) bool {
	if member == nil {
		return false
	}
	if member.IsCreator() {
		return true
	}
	return member.IsAdministrator() && (member.CanRestrictMembers || member.CanPromoteMembers)
}
