package db

import (
	"time"
)

type (
	// UserMeta is the locally cached profile of a user the bot has seen.
	// The Bot API cannot resolve arbitrary @usernames or enumerate chat
	// members, so handle resolution and member scans run against this cache.
	UserMeta struct {
		ID           int64  `db:"id"`
		FirstName    string `db:"first_name"`
		LastName     string `db:"last_name"`
		UserName     string `db:"username"`
		LanguageCode string `db:"language_code"`
		IsBot        bool   `db:"is_bot"`
	}

	// ChatMemberSeen records the last time a user posted in a chat.
	ChatMemberSeen struct {
		ChatID     int64     `db:"chat_id"`
		UserID     int64     `db:"user_id"`
		LastSeenAt time.Time `db:"last_seen_at"`
	}

	// Infraction tracks per-user-per-chat punished infractions. The count
	// never goes below zero and is only reset by an apology.
	Infraction struct {
		UserID    int64     `db:"user_id"`
		ChatID    int64     `db:"chat_id"`
		SpamCount int       `db:"spam_count"`
		UpdatedAt time.Time `db:"updated_at"`
	}

	// GlobalBan is a cross-chat enforcement flag, keyed by user only.
	GlobalBan struct {
		UserID    int64     `db:"user_id"`
		Banned    bool      `db:"banned"`
		CreatedAt time.Time `db:"created_at"`
	}
)

// DisplayName returns the best human-readable name for the user.
func (u *UserMeta) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	if u.UserName != "" {
		return u.UserName
	}
	return "user"
}
