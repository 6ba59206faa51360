package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pr-poehali-dev/telegram-copy-project/internal/database"
)

type ReactionRepository struct {
	db  database.Conn
	log *slog.Logger
}

func NewReactionRepository(db database.Conn, log *slog.Logger) ReactionRepository {
	return ReactionRepository{db: db, log: log}
}

// Add records a reaction. Adding the same (message, user, emoji) twice is a no-op.
func (r ReactionRepository) Add(ctx context.Context, messageID, userID int64, emoji string) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO message_reactions (message_id, user_id, emoji) VALUES (?, ?, ?) ON DUPLICATE KEY UPDATE emoji = emoji",
		messageID, userID, emoji)
	if err != nil {
		if isMissingReference(err) {
			return fmt.Errorf("message %d: %w", messageID, ErrNotFound)
		}
		r.log.Error("repository: Failed to add reaction", "error", err, "message_id", messageID)
		return fmt.Errorf("failed to add reaction: %w", err)
	}
	return nil
}

// Remove deletes the reaction row so that it can be added again later.
func (r ReactionRepository) Remove(ctx context.Context, messageID, userID int64, emoji string) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM message_reactions WHERE message_id = ? AND user_id = ? AND emoji = ?",
		messageID, userID, emoji)
	if err != nil {
		r.log.Error("repository: Failed to remove reaction", "error", err, "message_id", messageID)
		return fmt.Errorf("failed to remove reaction: %w", err)
	}
	return nil
}
