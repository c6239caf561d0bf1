// Package db подключает PostgreSQL и применяет миграции схемы.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Pool задаёт параметры пула соединений.
type Pool struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
	MaxIdleTime time.Duration
}

// DefaultPool подходит для одного экземпляра API.
var DefaultPool = Pool{
	MaxOpen:     50,
	MaxIdle:     10,
	MaxLifetime: 30 * time.Minute,
	MaxIdleTime: 5 * time.Minute,
}

// NewPostgres открывает пул и проверяет соединение. Без pool используется DefaultPool.
func NewPostgres(ctx context.Context, dsn string, pool ...Pool) (*sqlx.DB, error) {
	cfg := DefaultPool
	if len(pool) > 0 {
		cfg = pool[0]
	}

	conn, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	conn.SetMaxOpenConns(cfg.MaxOpen)
	conn.SetMaxIdleConns(cfg.MaxIdle)
	conn.SetConnMaxLifetime(cfg.MaxLifetime)
	conn.SetConnMaxIdleTime(cfg.MaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return conn, nil
}
