package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// OpenPostgresHistory подключается к Postgres по dsn и готовит журнал.
func OpenPostgresHistory(ctx context.Context, dsn string) (*SQLHistory, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	h, err := NewSQLHistory(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return h, nil
}
