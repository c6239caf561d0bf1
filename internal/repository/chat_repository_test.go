package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/gig-marketplace/internal/models"
)

func TestMessageRepository_Create_IncrementsUnread(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMessageRepository(db)

	convID := uuid.New()
	sender := uuid.New()
	other := uuid.New()
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO messages`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(uuid.New(), now, now))
	mock.ExpectExec(`UPDATE conversations\s+SET last_message_content`).
		WithArgs(convID, "Привет", sender, models.MessageTypeText, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`UPDATE conversation_participants SET unread_count = unread_count \+ 1`).
		WithArgs(convID, sender).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "unread_count"}).AddRow(other, 3))
	mock.ExpectCommit()

	msg := &models.Message{
		ConversationID: convID,
		SenderID:       sender,
		Content:        "Привет",
		MessageType:    models.MessageTypeText,
	}
	unread, err := repo.Create(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, 3, unread[other])
	assert.Equal(t, models.MessageStatusSent, msg.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageRepository_ToggleReaction_RemovesExisting(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMessageRepository(db)
	msgID := uuid.New()
	userID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM message_reactions`).
		WithArgs(msgID, userID, "👍").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT \* FROM message_reactions WHERE message_id = \$1`).
		WithArgs(msgID).
		WillReturnRows(sqlmock.NewRows([]string{"message_id", "user_id", "emoji", "created_at"}))
	mock.ExpectCommit()

	reactions, err := repo.ToggleReaction(context.Background(), msgID, userID, "👍")
	require.NoError(t, err)
	assert.Empty(t, reactions)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageRepository_ToggleReaction_AddsMissing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMessageRepository(db)
	msgID := uuid.New()
	userID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM message_reactions`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO message_reactions`).
		WithArgs(msgID, userID, "🔥").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT \* FROM message_reactions`).
		WillReturnRows(sqlmock.NewRows([]string{"message_id", "user_id", "emoji", "created_at"}).
			AddRow(msgID, userID, "🔥", time.Now()))
	mock.ExpectCommit()

	reactions, err := repo.ToggleReaction(context.Background(), msgID, userID, "🔥")
	require.NoError(t, err)
	require.Len(t, reactions, 1)
	assert.Equal(t, "🔥", reactions[0].Emoji)
}

func TestMessageRepository_SoftDelete_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMessageRepository(db)
	id := uuid.New()

	mock.ExpectExec(`UPDATE messages\s+SET is_deleted = TRUE`).
		WithArgs(id, models.DeletedMessageContent).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.SoftDelete(context.Background(), id), ErrMessageNotFound)
}

func TestConversationRepository_ListForUser_LoadsParticipants(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewConversationRepository(db)
	userID := uuid.New()
	other := uuid.New()
	convID := uuid.New()
	now := time.Now()
	content := "Готово"

	mock.ExpectQuery(`SELECT c\.\*, p\.unread_count\s+FROM conversations c`).
		WithArgs(userID, "%гото%").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "type", "status", "last_message_content", "last_message_sender_id", "last_message_at", "unread_count",
		}).AddRow(convID, models.ConversationTypeOrder, models.ConversationStatusActive, content, other, now, 2))
	mock.ExpectQuery(`SELECT conversation_id, user_id FROM conversation_participants`).
		WillReturnRows(sqlmock.NewRows([]string{"conversation_id", "user_id"}).
			AddRow(convID, userID).
			AddRow(convID, other))

	convs, err := repo.ListForUser(context.Background(), userID, "гото")
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, 2, convs[0].UnreadCount)
	assert.True(t, convs[0].HasParticipant(other))
	require.NotNil(t, convs[0].LastMessage)
	assert.Equal(t, content, convs[0].LastMessage.Content)
	assert.NoError(t, mock.ExpectationsWereMet())
}
