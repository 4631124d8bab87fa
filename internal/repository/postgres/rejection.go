package postgres

import (
	"context"
	"database/sql"
	"errors"

	"rental/internal/domain"
	"rental/internal/repository"
)

// RejectionRepository is a PostgreSQL implementation of repository.RejectionRepository.
type RejectionRepository struct {
	q Querier
}

// NewRejectionRepository creates a new PostgreSQL rejection repository.
func NewRejectionRepository(db *sql.DB) *RejectionRepository {
	return &RejectionRepository{q: db}
}

// NewRejectionRepositoryWithTx creates a rejection repository using a transaction.
func NewRejectionRepositoryWithTx(tx *sql.Tx) *RejectionRepository {
	return &RejectionRepository{q: tx}
}

// Create persists a new rejection record.
func (r *RejectionRepository) Create(ctx context.Context, rejection *domain.OrderRejection) error {
	query := `
		INSERT INTO order_rejections (order_id, reason, created_at)
		VALUES ($1, $2, $3)
	`

	_, err := r.q.ExecContext(ctx, query,
		rejection.OrderID,
		rejection.Reason,
		rejection.CreatedAt,
	)

	return err
}

// GetByOrderID retrieves the rejection record for an order.
func (r *RejectionRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.OrderRejection, error) {
	query := `
		SELECT order_id, reason, created_at
		FROM order_rejections WHERE order_id = $1
	`

	var rejection domain.OrderRejection
	err := r.q.QueryRowContext(ctx, query, orderID).Scan(
		&rejection.OrderID,
		&rejection.Reason,
		&rejection.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &rejection, nil
}

// Ensure RejectionRepository implements repository.RejectionRepository.
var _ repository.RejectionRepository = (*RejectionRepository)(nil)
