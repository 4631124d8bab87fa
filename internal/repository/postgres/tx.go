package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"rental/internal/repository"
)

// TxManager is a PostgreSQL implementation of repository.TxManager.
type TxManager struct {
	db *sql.DB
}

// NewTxManager creates a new PostgreSQL transaction manager.
func NewTxManager(db *sql.DB) *TxManager {
	return &TxManager{db: db}
}

// WithinTx runs fn inside a single database transaction. The transaction is
// rolled back when fn returns an error or panics, committed otherwise.
func (m *TxManager) WithinTx(ctx context.Context, fn func(tx repository.OrderTx) error) (err error) {
	sqlTx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = sqlTx.Rollback()
		}
	}()

	if err = fn(&orderTx{tx: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// orderTx bundles transaction-scoped repositories.
type orderTx struct {
	tx *sql.Tx
}

func (t *orderTx) Orders() repository.OrderRepository {
	return NewOrderRepositoryWithTx(t.tx)
}

func (t *orderTx) Rejections() repository.RejectionRepository {
	return NewRejectionRepositoryWithTx(t.tx)
}

// LockVehicle takes a row-level lock on the vehicle, serializing concurrent
// bookings for it until the transaction resolves.
func (t *orderTx) LockVehicle(ctx context.Context, vehicleID string) error {
	var id string
	err := t.tx.QueryRowContext(ctx, `SELECT id FROM vehicles WHERE id = $1 FOR UPDATE`, vehicleID).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return repository.ErrNotFound
		}
		return err
	}
	return nil
}

// Ensure interfaces are satisfied.
var (
	_ repository.TxManager = (*TxManager)(nil)
	_ repository.OrderTx   = (*orderTx)(nil)
)
