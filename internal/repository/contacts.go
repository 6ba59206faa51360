package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pr-poehali-dev/telegram-copy-project/internal/database"
	"github.com/pr-poehali-dev/telegram-copy-project/internal/model"
)

type ContactRepository struct {
	db  database.Conn
	log *slog.Logger
}

func NewContactRepository(db database.Conn, log *slog.Logger) ContactRepository {
	return ContactRepository{db: db, log: log}
}

// List returns every user except the current one, by name.
func (r ContactRepository) List(ctx context.Context, currentUserID int64) ([]model.Contact, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, avatar, status FROM users WHERE id <> ? ORDER BY name ASC, id ASC",
		currentUserID)
	if err != nil {
		r.log.Error("repository: Failed to list contacts", "error", err)
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	contacts := []model.Contact{}
	for rows.Next() {
		var c model.Contact
		if err := rows.Scan(&c.ID, &c.Name, &c.Avatar, &c.Status); err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contacts: %w", err)
	}
	return contacts, nil
}
