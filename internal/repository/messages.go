package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pr-poehali-dev/telegram-copy-project/internal/database"
	"github.com/pr-poehali-dev/telegram-copy-project/internal/model"
)

type MessageRepository struct {
	db          database.Conn
	log         *slog.Logger
	placeholder string
	now         func() time.Time
}

func NewMessageRepository(db database.Conn, log *slog.Logger, placeholder string, now func() time.Time) MessageRepository {
	return MessageRepository{db: db, log: log, placeholder: placeholder, now: now}
}

// List returns the whole history of a chat, oldest first, with reactions attached.
func (r MessageRepository) List(ctx context.Context, chatID, currentUserID int64) ([]model.Message, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, text, created_at, user_id, is_removed, edited_at FROM messages WHERE chat_id = ? ORDER BY created_at ASC, id ASC",
		chatID)
	if err != nil {
		r.log.Error("repository: Failed to list messages", "error", err, "chat_id", chatID)
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	messages := []model.Message{}
	index := make(map[int64]int)
	for rows.Next() {
		var (
			m         model.Message
			createdAt time.Time
			editedAt  sql.NullTime
		)
		if err := rows.Scan(&m.ID, &m.Text, &createdAt, &m.UserID, &m.IsRemoved, &editedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.Time = createdAt.Format(model.TimeLayout)
		if editedAt.Valid {
			m.EditedAt = &editedAt.Time
		}
		m.IsMine = m.UserID == currentUserID
		m.Reactions = []model.Reaction{}
		index[m.ID] = len(messages)
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	if len(messages) == 0 {
		return messages, nil
	}

	if err := r.attachReactions(ctx, chatID, messages, index); err != nil {
		return nil, err
	}
	return messages, nil
}

func (r MessageRepository) attachReactions(ctx context.Context, chatID int64, messages []model.Message, index map[int64]int) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT r.message_id, r.emoji, r.user_id
		FROM message_reactions r
		JOIN messages m ON m.id = r.message_id
		WHERE m.chat_id = ?
		ORDER BY r.id ASC`,
		chatID)
	if err != nil {
		r.log.Error("repository: Failed to list reactions", "error", err, "chat_id", chatID)
		return fmt.Errorf("failed to list reactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			messageID int64
			reaction  model.Reaction
		)
		if err := rows.Scan(&messageID, &reaction.Emoji, &reaction.UserID); err != nil {
			return fmt.Errorf("failed to scan reaction: %w", err)
		}
		// 取得後に投稿されたメッセージへのリアクションは無視
		if i, ok := index[messageID]; ok {
			messages[i].Reactions = append(messages[i].Reactions, reaction)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate reactions: %w", err)
	}
	return nil
}

// Send stores a message and bumps the chat's updated_at in the same transaction.
func (r MessageRepository) Send(ctx context.Context, chatID, authorID, currentUserID int64, text string) (model.Message, error) {
	now := r.now()

	var id int64
	err := database.WithTx(ctx, r.db, func(q database.Querier) error {
		res, err := q.ExecContext(ctx,
			"INSERT INTO messages (chat_id, user_id, text, created_at) VALUES (?, ?, ?, ?)",
			chatID, authorID, text, now)
		if err != nil {
			if isMissingReference(err) {
				return fmt.Errorf("chat %d: %w", chatID, ErrNotFound)
			}
			return fmt.Errorf("failed to insert message: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to retrieve message id: %w", err)
		}

		if _, err := q.ExecContext(ctx, "UPDATE chats SET updated_at = ? WHERE id = ?", now, chatID); err != nil {
			return fmt.Errorf("failed to touch chat: %w", err)
		}
		return nil
	})
	if err != nil {
		r.log.Error("repository: Failed to send message", "error", err, "chat_id", chatID)
		return model.Message{}, err
	}

	r.log.Debug("repository: Message sent", "id", id, "chat_id", chatID)
	return model.Message{
		ID:        id,
		Text:      text,
		Time:      now.Format(model.TimeLayout),
		UserID:    authorID,
		IsMine:    authorID == currentUserID,
		Reactions: []model.Reaction{},
	}, nil
}

// Edit replaces the text of the current user's message and stamps edited_at.
func (r MessageRepository) Edit(ctx context.Context, messageID, currentUserID int64, text string) (model.EditedMessage, error) {
	now := r.now()

	err := database.WithTx(ctx, r.db, func(q database.Querier) error {
		removed, err := lockOwnMessage(ctx, q, messageID, currentUserID)
		if err != nil {
			return err
		}
		if removed {
			return fmt.Errorf("message %d is removed: %w", messageID, ErrForbidden)
		}

		if _, err := q.ExecContext(ctx,
			"UPDATE messages SET text = ?, edited_at = ? WHERE id = ?",
			text, now, messageID); err != nil {
			return fmt.Errorf("failed to edit message: %w", err)
		}
		return nil
	})
	if err != nil {
		r.log.Warn("repository: Message not edited", "error", err, "id", messageID, "user_id", currentUserID)
		return model.EditedMessage{}, err
	}

	return model.EditedMessage{ID: messageID, Text: text, EditedAt: now}, nil
}

// Delete soft-deletes the current user's message: the row stays, its text becomes the placeholder.
func (r MessageRepository) Delete(ctx context.Context, messageID, currentUserID int64) error {
	err := database.WithTx(ctx, r.db, func(q database.Querier) error {
		if _, err := lockOwnMessage(ctx, q, messageID, currentUserID); err != nil {
			return err
		}

		if _, err := q.ExecContext(ctx,
			"UPDATE messages SET is_removed = TRUE, text = ? WHERE id = ?",
			r.placeholder, messageID); err != nil {
			return fmt.Errorf("failed to delete message: %w", err)
		}
		return nil
	})
	if err != nil {
		r.log.Warn("repository: Message not deleted", "error", err, "id", messageID, "user_id", currentUserID)
		return err
	}
	return nil
}

// lockOwnMessage locks the message row and checks that currentUserID wrote it.
func lockOwnMessage(ctx context.Context, q database.Querier, messageID, currentUserID int64) (removed bool, err error) {
	var authorID int64
	err = q.QueryRowContext(ctx,
		"SELECT user_id, is_removed FROM messages WHERE id = ? FOR UPDATE",
		messageID).Scan(&authorID, &removed)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("message %d: %w", messageID, ErrNotFound)
	}
	if err != nil {
		return false, fmt.Errorf("failed to load message: %w", err)
	}
	if authorID != currentUserID {
		return false, fmt.Errorf("message %d belongs to user %d: %w", messageID, authorID, ErrForbidden)
	}
	return removed, nil
}
