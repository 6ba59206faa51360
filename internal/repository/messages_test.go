package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/pr-poehali-dev/telegram-copy-project/internal/model"
)

var messageColumns = []string{"id", "text", "created_at", "user_id", "is_removed", "edited_at"}

func TestMessageList_AttachesReactions(t *testing.T) {
	req := require.New(t)
	db, mock := newMock(t)

	edited := fixedNow.Add(time.Minute)
	mock.ExpectQuery(regexp.QuoteMeta("FROM messages WHERE chat_id = ? ORDER BY created_at ASC, id ASC")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(messageColumns).
			AddRow(int64(1), "Hi! How are you?", fixedNow, int64(2), false, nil).
			AddRow(int64(2), "Great", fixedNow.Add(time.Minute), int64(1), false, edited).
			AddRow(int64(3), "Message deleted", fixedNow.Add(2*time.Minute), int64(1), true, nil))
	mock.ExpectQuery(regexp.QuoteMeta("FROM message_reactions r")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"message_id", "emoji", "user_id"}).
			AddRow(int64(1), "👍", int64(1)).
			AddRow(int64(1), "❤️", int64(3)).
			AddRow(int64(42), "🔥", int64(2)))

	messages, err := newRepos(db).Messages.List(context.Background(), 5, 1)
	req.NoError(err)
	req.Len(messages, 3)

	req.False(messages[0].IsMine)
	req.Equal("14:23", messages[0].Time)
	req.Equal([]model.Reaction{{Emoji: "👍", UserID: 1}, {Emoji: "❤️", UserID: 3}}, messages[0].Reactions)

	req.True(messages[1].IsMine)
	req.NotNil(messages[1].EditedAt)
	req.True(edited.Equal(*messages[1].EditedAt))
	req.NotNil(messages[1].Reactions)
	req.Empty(messages[1].Reactions)

	req.True(messages[2].IsRemoved)
	req.Nil(messages[2].EditedAt)
	req.NoError(mock.ExpectationsWereMet())
}

func TestMessageList_EmptyChatSkipsReactions(t *testing.T) {
	req := require.New(t)
	db, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM messages WHERE chat_id = ?")).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows(messageColumns))

	messages, err := newRepos(db).Messages.List(context.Background(), 9, 1)
	req.NoError(err)
	req.NotNil(messages)
	req.Empty(messages)
	req.NoError(mock.ExpectationsWereMet())
}

func TestSend_InsertsAndTouchesChat(t *testing.T) {
	req := require.New(t)
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO messages (chat_id, user_id, text, created_at) VALUES (?, ?, ?, ?)")).
		WithArgs(int64(5), int64(1), "hi", fixedNow).
		WillReturnResult(sqlmock.NewResult(77, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE chats SET updated_at = ? WHERE id = ?")).
		WithArgs(fixedNow, int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	msg, err := newRepos(db).Messages.Send(context.Background(), 5, 1, 1, "hi")
	req.NoError(err)
	req.Equal(int64(77), msg.ID)
	req.Equal("hi", msg.Text)
	req.Equal("14:23", msg.Time)
	req.True(msg.IsMine)
	req.NotNil(msg.Reactions)
	req.Empty(msg.Reactions)
	req.NoError(mock.ExpectationsWereMet())
}

func TestSend_OnBehalfOfAnotherUserIsNotMine(t *testing.T) {
	req := require.New(t)
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO messages")).
		WithArgs(int64(5), int64(2), "hello", fixedNow).
		WillReturnResult(sqlmock.NewResult(78, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE chats SET updated_at")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	msg, err := newRepos(db).Messages.Send(context.Background(), 5, 2, 1, "hello")
	req.NoError(err)
	req.False(msg.IsMine)
	req.Equal(int64(2), msg.UserID)
}

func TestSend_RollsBackWhenTouchFails(t *testing.T) {
	req := require.New(t)
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO messages")).WillReturnResult(sqlmock.NewResult(79, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE chats SET updated_at")).WillReturnError(errors.New("lock wait timeout"))
	mock.ExpectRollback()

	_, err := newRepos(db).Messages.Send(context.Background(), 5, 1, 1, "hi")
	req.ErrorContains(err, "failed to touch chat")
	req.NoError(mock.ExpectationsWereMet())
}

func TestEdit_OwnMessage(t *testing.T) {
	req := require.New(t)
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT user_id, is_removed FROM messages WHERE id = ? FOR UPDATE")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "is_removed"}).AddRow(int64(1), false))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE messages SET text = ?, edited_at = ? WHERE id = ?")).
		WithArgs("fixed typo", fixedNow, int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	edited, err := newRepos(db).Messages.Edit(context.Background(), 3, 1, "fixed typo")
	req.NoError(err)
	req.Equal(model.EditedMessage{ID: 3, Text: "fixed typo", EditedAt: fixedNow}, edited)
	req.NoError(mock.ExpectationsWereMet())
}

func TestEdit_ForeignMessageIsForbidden(t *testing.T) {
	req := require.New(t)
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "is_removed"}).AddRow(int64(2), false))
	mock.ExpectRollback()

	_, err := newRepos(db).Messages.Edit(context.Background(), 3, 1, "hijack")
	req.ErrorIs(err, ErrForbidden)
	req.NoError(mock.ExpectationsWereMet())
}

func TestEdit_RemovedMessageIsForbidden(t *testing.T) {
	req := require.New(t)
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "is_removed"}).AddRow(int64(1), true))
	mock.ExpectRollback()

	_, err := newRepos(db).Messages.Edit(context.Background(), 3, 1, "resurrect")
	req.ErrorIs(err, ErrForbidden)
	req.NoError(mock.ExpectationsWereMet())
}

func TestEdit_MissingMessage(t *testing.T) {
	req := require.New(t)
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "is_removed"}))
	mock.ExpectRollback()

	_, err := newRepos(db).Messages.Edit(context.Background(), 404, 1, "anyone?")
	req.ErrorIs(err, ErrNotFound)
	req.NoError(mock.ExpectationsWereMet())
}

func TestDelete_SoftDeletesWithPlaceholder(t *testing.T) {
	req := require.New(t)
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(int64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "is_removed"}).AddRow(int64(1), false))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE messages SET is_removed = TRUE, text = ? WHERE id = ?")).
		WithArgs(DefaultRemovedPlaceholder, int64(8)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	req.NoError(newRepos(db).Messages.Delete(context.Background(), 8, 1))
	req.NoError(mock.ExpectationsWereMet())
}

func TestDelete_ForeignMessageIsForbidden(t *testing.T) {
	req := require.New(t)
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "is_removed"}).AddRow(int64(3), false))
	mock.ExpectRollback()

	err := newRepos(db).Messages.Delete(context.Background(), 8, 1)
	req.ErrorIs(err, ErrForbidden)
	req.NoError(mock.ExpectationsWereMet())
}
