// Package common содержит общие для репозиториев запросы и работу с транзакциями.
package common

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Querier: общий набор методов *sqlx.DB и *sqlx.Tx.
type Querier interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// GetByID читает строку таблицы по первичному ключу.
// sql.ErrNoRows заменяется на notFoundErr.
func GetByID[T any](ctx context.Context, q Querier, table string, id interface{}, notFoundErr error) (*T, error) {
	return GetByField[T](ctx, q, table, "id", id, notFoundErr)
}

// GetByField читает одну строку по значению колонки. table и field
// подставляются в запрос как есть и должны приходить только из кода.
func GetByField[T any](ctx context.Context, q Querier, table, field string, value interface{}, notFoundErr error) (*T, error) {
	var row T
	query := "SELECT * FROM " + table + " WHERE " + field + " = $1"
	err := q.GetContext(ctx, &row, query, value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, notFoundErr
	case err != nil:
		return nil, fmt.Errorf("%s: select by %s: %w", table, field, err)
	}
	return &row, nil
}

// BatchInserter копит строки и вставляет их одним INSERT ... VALUES (...), (...).
type BatchInserter struct {
	tx        *sqlx.Tx
	prefix    string
	columns   int
	batchSize int
	pending   int
	args      []interface{}
}

// NewBatchInserter готовит вставку в рамках tx. prefix задаёт часть запроса до VALUES.
func NewBatchInserter(tx *sqlx.Tx, prefix string, columns, batchSize int) *BatchInserter {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &BatchInserter{
		tx:        tx,
		prefix:    prefix,
		columns:   columns,
		batchSize: batchSize,
		args:      make([]interface{}, 0, columns*batchSize),
	}
}

// Add ставит строку в очередь и сбрасывает пачку, когда она заполнена.
func (b *BatchInserter) Add(ctx context.Context, row ...interface{}) error {
	if len(row) != b.columns {
		return fmt.Errorf("batch insert: want %d values, got %d", b.columns, len(row))
	}
	b.args = append(b.args, row...)
	b.pending++
	if b.pending < b.batchSize {
		return nil
	}
	return b.Flush(ctx)
}

// Flush вставляет накопленные строки. Пустая очередь ничего не делает.
func (b *BatchInserter) Flush(ctx context.Context) error {
	if b.pending == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(b.prefix)
	sb.WriteString(" VALUES ")
	n := 1
	for row := 0; row < b.pending; row++ {
		if row > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for col := 0; col < b.columns; col++ {
			if col > 0 {
				sb.WriteString(", ")
			}
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			n++
		}
		sb.WriteByte(')')
	}

	if _, err := b.tx.ExecContext(ctx, sb.String(), b.args...); err != nil {
		return fmt.Errorf("batch insert: %w", err)
	}
	b.args = b.args[:0]
	b.pending = 0
	return nil
}

// WithTransaction выполняет fn в транзакции. Ошибка fn возвращается без обёртки,
// чтобы вызывающий мог сравнить её с errors.Is или по указателю.
func WithTransaction(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
