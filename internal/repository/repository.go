package repository

import (
	"errors"
	"log/slog"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/pr-poehali-dev/telegram-copy-project/internal/database"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrForbidden = errors.New("operation not permitted")
)

// MySQL error 1452: a foreign key points at a row that does not exist.
const errNoReferencedRow = 1452

func isMissingReference(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == errNoReferencedRow
}

// Settings tunes repository behaviour. Zero values fall back to the defaults below.
type Settings struct {
	MaxUnread          int
	RemovedPlaceholder string
	TypingWindow       time.Duration
	Now                func() time.Time
}

const (
	DefaultMaxUnread          = 3
	DefaultRemovedPlaceholder = "Message deleted"
	DefaultTypingWindow       = 5 * time.Second
)

func (s Settings) withDefaults() Settings {
	if s.MaxUnread <= 0 {
		s.MaxUnread = DefaultMaxUnread
	}
	if s.RemovedPlaceholder == "" {
		s.RemovedPlaceholder = DefaultRemovedPlaceholder
	}
	if s.TypingWindow <= 0 {
		s.TypingWindow = DefaultTypingWindow
	}
	if s.Now == nil {
		s.Now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

// Repositories bundles every repository bound to one request's connection.
type Repositories struct {
	Chats     ChatRepository
	Messages  MessageRepository
	Reactions ReactionRepository
	Contacts  ContactRepository
	Typing    TypingRepository
}

// New binds all repositories to conn.
func New(conn database.Conn, log *slog.Logger, s Settings) Repositories {
	s = s.withDefaults()
	return Repositories{
		Chats:     NewChatRepository(conn, log, s.MaxUnread, s.Now),
		Messages:  NewMessageRepository(conn, log, s.RemovedPlaceholder, s.Now),
		Reactions: NewReactionRepository(conn, log),
		Contacts:  NewContactRepository(conn, log),
		Typing:    NewTypingRepository(conn, log, s.TypingWindow, s.Now),
	}
}
