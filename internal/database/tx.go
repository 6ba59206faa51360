package database

import (
	"context"
	"fmt"
)

// WithTx runs fn inside a transaction on conn. The transaction is committed
// when fn returns nil and rolled back when it returns an error or panics.
func WithTx(ctx context.Context, conn Conn, fn func(q Querier) error) (err error) {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
