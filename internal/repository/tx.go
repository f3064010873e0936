package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-realtime-api/internal/outbox"
)

type txKey struct{}

// TxManager runs units of work in a database transaction and releases their staged
// broadcasts after commit.
type TxManager struct {
	db         *sqlx.DB
	dispatcher *outbox.Dispatcher
	logger     *zap.Logger
}

// NewTxManager constructs a TxManager.
func NewTxManager(db *sqlx.DB, dispatcher *outbox.Dispatcher, logger *zap.Logger) *TxManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TxManager{db: db, dispatcher: dispatcher, logger: logger}
}

// WithinTx runs fn with a transaction and an outbox batch bound to ctx. Staged
// messages are dispatched only when fn succeeds and the commit goes through. Nested
// calls join the outer unit of work.
func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := txFromContext(ctx); ok {
		return fn(ctx)
	}

	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	txCtx, batch := outbox.WithBatch(context.WithValue(ctx, txKey{}, tx))
	if err = fn(txCtx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			m.logger.Warn("rollback failed", zap.Error(rbErr))
		}
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	m.dispatcher.Dispatch(batch.Messages())
	return nil
}

func txFromContext(ctx context.Context) (*sqlx.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(*sqlx.Tx)
	return tx, ok && tx != nil
}

// executor returns the transaction bound to ctx, or db when there is none.
func executor(ctx context.Context, db *sqlx.DB) sqlx.ExtContext {
	if tx, ok := txFromContext(ctx); ok {
		return tx
	}
	return db
}
