package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iamwavecut/tool"
	"github.com/pkg/errors"

	"github.com/iamwavecut/masterbot/internal/db"
)

func (c *sqliteClient) UpsertUser(ctx context.Context, user *db.UserMeta) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	query := `
		INSERT INTO users (id, first_name, last_name, username, language_code, is_bot)
		VALUES (:id, :first_name, :last_name, :username, :language_code, :is_bot)
		ON CONFLICT(id) DO UPDATE SET
		first_name=excluded.first_name,
		last_name=excluded.last_name,
		username=excluded.username,
		language_code=excluded.language_code,
		is_bot=excluded.is_bot;
	`
	return tool.Err(c.db.NamedExecContext(ctx, query, user))
}

func (c *sqliteClient) GetUserByUsername(ctx context.Context, username string) (*db.UserMeta, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	username = strings.TrimPrefix(username, "@")
	user := &db.UserMeta{}
	err := c.db.GetContext(ctx, user,
		"SELECT id, first_name, last_name, username, language_code, is_bot FROM users WHERE username = ? COLLATE NOCASE",
		username,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (c *sqliteClient) TouchChatMember(ctx context.Context, chatID, userID int64) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	query := `
		INSERT INTO chat_members (chat_id, user_id, last_seen_at)
		VALUES (?, ?, ?)
		ON CONFLICT(chat_id, user_id) DO UPDATE SET last_seen_at=excluded.last_seen_at;
	`
	return tool.Err(c.db.ExecContext(ctx, query, chatID, userID, time.Now().UTC()))
}

func (c *sqliteClient) ListRecentMembers(ctx context.Context, chatID int64, limit int) ([]*db.UserMeta, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var users []*db.UserMeta
	query := `
		SELECT u.id, u.first_name, u.last_name, u.username, u.language_code, u.is_bot
		FROM chat_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.chat_id = ?
		ORDER BY m.last_seen_at DESC
		LIMIT ?;
	`
	if err := c.db.SelectContext(ctx, &users, query, chatID, limit); err != nil {
		return nil, err
	}
	return users, nil
}
