package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/pr-poehali-dev/telegram-copy-project/internal/database"
	"github.com/pr-poehali-dev/telegram-copy-project/internal/model"
)

type ChatRepository struct {
	db        database.Conn
	log       *slog.Logger
	maxUnread int
	now       func() time.Time
}

func NewChatRepository(db database.Conn, log *slog.Logger, maxUnread int, now func() time.Time) ChatRepository {
	return ChatRepository{db: db, log: log, maxUnread: maxUnread, now: now}
}

// unread は「自分以外が書いた全メッセージ数」（既読カーソルは存在しない）
const listChatsQuery = `
SELECT
	c.id,
	c.name,
	c.avatar,
	c.is_group,
	c.is_archived,
	(SELECT m.text FROM messages m WHERE m.chat_id = c.id ORDER BY m.created_at DESC, m.id DESC LIMIT 1) AS last_message,
	(SELECT MAX(m.created_at) FROM messages m WHERE m.chat_id = c.id) AS last_at,
	(SELECT COUNT(*) FROM messages m WHERE m.chat_id = c.id AND m.user_id <> ?) AS unread
FROM chats c
JOIN chat_members cm ON cm.chat_id = c.id AND cm.user_id = ?
ORDER BY last_at IS NULL, last_at DESC, c.id DESC`

// List returns every chat the user belongs to, latest activity first.
// Chats without messages come last.
func (r ChatRepository) List(ctx context.Context, currentUserID int64) ([]model.Chat, error) {
	rows, err := r.db.QueryContext(ctx, listChatsQuery, currentUserID, currentUserID)
	if err != nil {
		r.log.Error("repository: Failed to list chats", "error", err, "user_id", currentUserID)
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	defer rows.Close()

	chats := []model.Chat{}
	for rows.Next() {
		var (
			c           model.Chat
			lastMessage sql.NullString
			lastAt      sql.NullTime
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Avatar, &c.IsGroup, &c.IsArchived, &lastMessage, &lastAt, &c.Unread); err != nil {
			return nil, fmt.Errorf("failed to scan chat: %w", err)
		}
		if lastMessage.Valid {
			c.LastMessage = lo.ToPtr(lastMessage.String)
		}
		if lastAt.Valid {
			c.Time = lo.ToPtr(lastAt.Time.Format(model.TimeLayout))
		}
		c.Unread = min(c.Unread, r.maxUnread)
		chats = append(chats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chats: %w", err)
	}

	return chats, nil
}

// CreateGroup creates a group chat owned by the current user and returns its id.
// The creator is always an admin; listed members are admins when they appear in adminIDs.
func (r ChatRepository) CreateGroup(ctx context.Context, currentUserID int64, name string, memberIDs, adminIDs []int64) (int64, error) {
	now := r.now()
	members := lo.Without(lo.Uniq(memberIDs), currentUserID)

	var chatID int64
	err := database.WithTx(ctx, r.db, func(q database.Querier) error {
		res, err := q.ExecContext(ctx,
			"INSERT INTO chats (name, avatar, is_group, is_archived, created_at, updated_at) VALUES (?, ?, TRUE, FALSE, ?, ?)",
			name, GroupAvatar(name), now, now)
		if err != nil {
			return fmt.Errorf("failed to insert chat: %w", err)
		}
		if chatID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to retrieve chat id: %w", err)
		}

		if _, err := q.ExecContext(ctx,
			"INSERT INTO chat_members (chat_id, user_id, is_admin) VALUES (?, ?, TRUE)",
			chatID, currentUserID); err != nil {
			return fmt.Errorf("failed to add creator: %w", err)
		}

		for _, memberID := range members {
			if _, err := q.ExecContext(ctx,
				"INSERT INTO chat_members (chat_id, user_id, is_admin) VALUES (?, ?, ?)",
				chatID, memberID, lo.Contains(adminIDs, memberID)); err != nil {
				if isMissingReference(err) {
					return fmt.Errorf("user %d: %w", memberID, ErrNotFound)
				}
				return fmt.Errorf("failed to add member %d: %w", memberID, err)
			}
		}
		return nil
	})
	if err != nil {
		r.log.Error("repository: Failed to create group", "error", err, "name", name)
		return 0, err
	}

	r.log.Debug("repository: Group created", "chat_id", chatID, "members", len(members)+1)
	return chatID, nil
}

// SetArchived sets the archive flag. Repeating the call is harmless.
func (r ChatRepository) SetArchived(ctx context.Context, chatID int64, archived bool) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE chats SET is_archived = ? WHERE id = ?", archived, chatID); err != nil {
		r.log.Error("repository: Failed to archive chat", "error", err, "chat_id", chatID)
		return fmt.Errorf("failed to archive chat: %w", err)
	}
	return nil
}

// GroupAvatar is the first two characters of name, upper-cased.
func GroupAvatar(name string) string {
	runes := []rune(name)
	if len(runes) > 2 {
		runes = runes[:2]
	}
	return strings.ToUpper(string(runes))
}
