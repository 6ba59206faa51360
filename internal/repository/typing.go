package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pr-poehali-dev/telegram-copy-project/internal/database"
)

// TypingRepository keeps one heartbeat row per (chat, user). Rows older than
// the window are ignored on read and overwritten by the next heartbeat; nothing purges them.
type TypingRepository struct {
	db     database.Conn
	log    *slog.Logger
	window time.Duration
	now    func() time.Time
}

func NewTypingRepository(db database.Conn, log *slog.Logger, window time.Duration, now func() time.Time) TypingRepository {
	return TypingRepository{db: db, log: log, window: window, now: now}
}

// Heartbeat marks userID as typing in chatID right now.
func (r TypingRepository) Heartbeat(ctx context.Context, chatID, userID int64) error {
	now := r.now()
	// MariaDB と MySQL 8.0.20+ の両方で通る形
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO typing_status (chat_id, user_id, updated_at) VALUES (?, ?, ?) ON DUPLICATE KEY UPDATE updated_at = ?",
		chatID, userID, now, now)
	if err != nil {
		if isMissingReference(err) {
			return fmt.Errorf("chat %d: %w", chatID, ErrNotFound)
		}
		r.log.Error("repository: Failed to store typing heartbeat", "error", err, "chat_id", chatID)
		return fmt.Errorf("failed to store typing heartbeat: %w", err)
	}
	return nil
}

// ListTyping returns the names of other users with a fresh heartbeat in chatID.
func (r TypingRepository) ListTyping(ctx context.Context, chatID, currentUserID int64) ([]string, error) {
	since := r.now().Add(-r.window)

	rows, err := r.db.QueryContext(ctx,
		`SELECT u.name
		FROM typing_status t
		JOIN users u ON u.id = t.user_id
		WHERE t.chat_id = ? AND t.user_id <> ? AND t.updated_at > ?
		ORDER BY u.name ASC`,
		chatID, currentUserID, since)
	if err != nil {
		r.log.Error("repository: Failed to list typing users", "error", err, "chat_id", chatID)
		return nil, fmt.Errorf("failed to list typing users: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan typing user: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate typing users: %w", err)
	}
	return names, nil
}
