package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"

	"github.com/pr-poehali-dev/telegram-copy-project/internal/model"
)

func TestReactionAdd_IsIdempotentUpsert(t *testing.T) {
	req := require.New(t)
	db, mock := newMock(t)

	for i := 0; i < 2; i++ {
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO message_reactions (message_id, user_id, emoji) VALUES (?, ?, ?) ON DUPLICATE KEY UPDATE emoji = emoji")).
			WithArgs(int64(1), int64(1), "👍").
			WillReturnResult(sqlmock.NewResult(0, 0))
	}

	repos := newRepos(db)
	req.NoError(repos.Reactions.Add(context.Background(), 1, 1, "👍"))
	req.NoError(repos.Reactions.Add(context.Background(), 1, 1, "👍"))
	req.NoError(mock.ExpectationsWereMet())
}

func TestReactionAdd_UnknownMessage(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO message_reactions")).
		WillReturnError(&mysql.MySQLError{Number: 1452})

	err := newRepos(db).Reactions.Add(context.Background(), 404, 1, "👍")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestReactionRemove_DeletesRow(t *testing.T) {
	req := require.New(t)
	db, mock := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM message_reactions WHERE message_id = ? AND user_id = ? AND emoji = ?")).
		WithArgs(int64(1), int64(1), "👍").
		WillReturnResult(sqlmock.NewResult(0, 1))

	req.NoError(newRepos(db).Reactions.Remove(context.Background(), 1, 1, "👍"))
	req.NoError(mock.ExpectationsWereMet())
}

func TestContactList_ExcludesCurrentUser(t *testing.T) {
	req := require.New(t)
	db, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, avatar, status FROM users WHERE id <> ? ORDER BY name ASC, id ASC")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "avatar", "status"}).
			AddRow(int64(3), "Anna Smirnova", "AS", "online").
			AddRow(int64(2), "Maria Ivanova", "MI", "last seen 2 hours ago"))

	contacts, err := newRepos(db).Contacts.List(context.Background(), 1)
	req.NoError(err)
	req.Equal([]model.Contact{
		{ID: 3, Name: "Anna Smirnova", Avatar: "AS", Status: "online"},
		{ID: 2, Name: "Maria Ivanova", Avatar: "MI", Status: "last seen 2 hours ago"},
	}, contacts)
	req.NoError(mock.ExpectationsWereMet())
}

func TestTypingHeartbeat_Upserts(t *testing.T) {
	req := require.New(t)
	db, mock := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO typing_status (chat_id, user_id, updated_at) VALUES (?, ?, ?) ON DUPLICATE KEY UPDATE updated_at = ?")).
		WithArgs(int64(5), int64(2), fixedNow, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 2))

	req.NoError(newRepos(db).Typing.Heartbeat(context.Background(), 5, 2))
	req.NoError(mock.ExpectationsWereMet())
}

func TestListTyping_UsesLivenessWindow(t *testing.T) {
	req := require.New(t)
	db, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM typing_status t")).
		WithArgs(int64(5), int64(1), fixedNow.Add(-DefaultTypingWindow)).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Maria Ivanova"))

	names, err := newRepos(db).Typing.ListTyping(context.Background(), 5, 1)
	req.NoError(err)
	req.Equal([]string{"Maria Ivanova"}, names)
	req.NoError(mock.ExpectationsWereMet())
}

func TestListTyping_NobodyTyping(t *testing.T) {
	req := require.New(t)
	db, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM typing_status t")).
		WillReturnRows(sqlmock.NewRows([]string{"name"}))

	names, err := newRepos(db).Typing.ListTyping(context.Background(), 5, 1)
	req.NoError(err)
	req.NotNil(names)
	req.Empty(names)
}
