package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationRepository_List_UnreadOnly(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNotificationRepository(db)
	userID := uuid.New()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM notifications WHERE user_id = \$1 AND is_read = FALSE`).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(25))
	mock.ExpectQuery(`ORDER BY created_at DESC LIMIT \$2 OFFSET \$3`).
		WithArgs(userID, 20, 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "title", "message", "type", "is_read"}).
			AddRow(uuid.New(), userID, "New Message", "Привет", "message_received", false))

	items, total, err := repo.List(context.Background(), userID, 20, 20, true)
	require.NoError(t, err)
	assert.Equal(t, 25, total)
	assert.Len(t, items, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_MarkAsRead_OtherOwner(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNotificationRepository(db)
	id, userID := uuid.New(), uuid.New()

	mock.ExpectExec(`UPDATE notifications SET is_read = TRUE`).
		WithArgs(id, userID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.MarkAsRead(context.Background(), id, userID), ErrNotificationNotFound)
}

func TestNotificationRepository_DeleteOlderThan(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNotificationRepository(db)
	cutoff := time.Now().Add(-720 * time.Hour)

	mock.ExpectExec(`DELETE FROM notifications WHERE created_at < \$1`).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 7))

	n, err := repo.DeleteOlderThan(context.Background(), cutoff)
	require.NoError(t, err)
	assert.EqualValues(t, 7, n)
}
