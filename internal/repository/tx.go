package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// execer - общий знаменатель *sql.DB и *sql.Tx для statement-хелперов,
// которые должны работать и автономно, и внутри транзакции
type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

// WithTx выполняет fn внутри транзакции: commit при nil, rollback при
// ошибке или панике.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
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
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
