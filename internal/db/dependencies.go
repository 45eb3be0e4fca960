package db

import (
	"context"
)

type Client interface {
	Close() error

	UpsertUser(ctx context.Context, user *UserMeta) error
	GetUserByUsername(ctx context.Context, username string) (*UserMeta, error)
	TouchChatMember(ctx context.Context, chatID, userID int64) error
	ListRecentMembers(ctx context.Context, chatID int64, limit int) ([]*UserMeta, error)

	GetInfraction(ctx context.Context, userID, chatID int64) (*Infraction, error)
	IncrementInfraction(ctx context.Context, userID, chatID int64) (int, error)
	ResetInfractions(ctx context.Context, userID, chatID int64) error

	SetGlobalBan(ctx context.Context, userID int64, banned bool) error
	IsGloballyBanned(ctx context.Context, userID int64) (bool, error)
}
