package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"
)

type contextKey int

const transactionKey contextKey = iota

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// getDB returns the transaction carried by ctx, or db when there is none.
func getDB(ctx context.Context, db *sql.DB) querier {
	if tx, ok := ctx.Value(transactionKey).(*sql.Tx); ok && tx != nil {
		return tx
	}
	return db
}

// TxManager runs functions inside a database transaction. Repositories
// pick the transaction up from the context.
type TxManager struct {
	db  *sql.DB
	log *logrus.Entry
}

func NewTxManager(db *sql.DB, log *logrus.Entry) *TxManager {
	return &TxManager{db: db, log: log}
}

// WithinTx commits when fn returns nil and rolls back otherwise.
// Nested calls join the outer transaction.
func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(transactionKey).(*sql.Tx); ok {
		return fn(ctx)
	}

	txn, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer txn.Rollback() // no-op after commit

	if err := fn(context.WithValue(ctx, transactionKey, txn)); err != nil {
		m.log.WithError(err).Debug("Transaction rolled back")
		return err
	}

	if err := txn.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
