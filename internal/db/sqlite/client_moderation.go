package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/iamwavecut/tool"
	"github.com/pkg/errors"

	"github.com/iamwavecut/masterbot/internal/db"
)

func (c *sqliteClient) GetInfraction(ctx context.Context, userID, chatID int64) (*db.Infraction, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	infraction := &db.Infraction{}
	err := c.db.GetContext(ctx, infraction,
		"SELECT user_id, chat_id, spam_count, updated_at FROM infractions WHERE user_id = ? AND chat_id = ?",
		userID, chatID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return &db.Infraction{UserID: userID, ChatID: chatID}, nil
	}
	if err != nil {
		return nil, err
	}
	return infraction, nil
}

// IncrementInfraction bumps the stored count in a single upsert and returns
// the count after the increment. Concurrent calls for the same pair cannot
// both observe the same prior count.
func (c *sqliteClient) IncrementInfraction(ctx context.Context, userID, chatID int64) (int, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	query := `
		INSERT INTO infractions (user_id, chat_id, spam_count, updated_at)
		VALUES (?, ?, 1, ?)
		ON CONFLICT(user_id, chat_id) DO UPDATE SET
		spam_count = spam_count + 1,
		updated_at = excluded.updated_at
		RETURNING spam_count;
	`
	var count int
	if err := c.db.GetContext(ctx, &count, query, userID, chatID, time.Now().UTC()); err != nil {
		return 0, err
	}
	return count, nil
}

func (c *sqliteClient) ResetInfractions(ctx context.Context, userID, chatID int64) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	query := `
		INSERT INTO infractions (user_id, chat_id, spam_count, updated_at)
		VALUES (?, ?, 0, ?)
		ON CONFLICT(user_id, chat_id) DO UPDATE SET
		spam_count = 0,
		updated_at = excluded.updated_at;
	`
	return tool.Err(c.db.ExecContext(ctx, query, userID, chatID, time.Now().UTC()))
}

func (c *sqliteClient) SetGlobalBan(ctx context.Context, userID int64, banned bool) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	query := `
		INSERT INTO global_bans (user_id, banned, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET banned=excluded.banned;
	`
	return tool.Err(c.db.ExecContext(ctx, query, userID, banned, time.Now().UTC()))
}

func (c *sqliteClient) IsGloballyBanned(ctx context.Context, userID int64) (bool, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var banned bool
	err := c.db.GetContext(ctx, &banned, "SELECT banned FROM global_bans WHERE user_id = ?", userID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return banned, nil
}
