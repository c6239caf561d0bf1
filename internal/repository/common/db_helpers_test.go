package common

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func TestWithTransaction_CommitsOnSuccess(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE t`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := WithTransaction(context.Background(), db, func(tx *sqlx.Tx) error {
		_, err := tx.Exec(`UPDATE t SET x = 1`)
		return err
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTransaction_ReturnsCallbackErrorUnwrapped(t *testing.T) {
	db, mock := newMock(t)
	sentinel := errors.New("stop")
	mock.ExpectBegin()
	mock.ExpectRollback()

	err := WithTransaction(context.Background(), db, func(tx *sqlx.Tx) error { return sentinel })
	assert.Same(t, sentinel, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchInserter_FlushesByBatchSize(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO items \(a, b\) VALUES \(\$1, \$2\), \(\$3, \$4\)`).
		WithArgs(1, "x", 2, "y").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`INSERT INTO items \(a, b\) VALUES \(\$1, \$2\)`).
		WithArgs(3, "z").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	inserter := NewBatchInserter(tx, `INSERT INTO items (a, b)`, 2, 2)
	require.NoError(t, inserter.Add(context.Background(), 1, "x"))
	require.NoError(t, inserter.Add(context.Background(), 2, "y"))
	require.NoError(t, inserter.Add(context.Background(), 3, "z"))
	require.NoError(t, inserter.Flush(context.Background()))
	require.NoError(t, tx.Commit())

	assert.Error(t, inserter.Add(context.Background(), 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pq.Error{Code: "23505"}))
	assert.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}))
	assert.True(t, IsForeignKeyViolation(&pq.Error{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("plain")))
}
