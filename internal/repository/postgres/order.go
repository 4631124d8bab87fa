package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"rental/internal/domain"
	"rental/internal/repository"
)

const orderColumns = `id, vehicle_id, user_id, rental_start, rental_end, total_amount, currency, status, created_at, updated_at, confirmed_at, canceled_at, started_at, completed_at, overdue_notified_at, reminder_sent_at`

// OrderRepository is a PostgreSQL implementation of repository.OrderRepository.
type OrderRepository struct {
	q Querier
}

// NewOrderRepository creates a new PostgreSQL order repository.
func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{q: db}
}

// NewOrderRepositoryWithTx creates an order repository using a transaction.
func NewOrderRepositoryWithTx(tx *sql.Tx) *OrderRepository {
	return &OrderRepository{q: tx}
}

// Create persists a new order.
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.q.ExecContext(ctx, query,
		order.ID,
		order.VehicleID,
		order.UserID,
		order.RentalStart,
		order.RentalEnd,
		order.TotalAmount,
		order.Currency,
		order.Status,
		order.CreatedAt,
		order.UpdatedAt,
		nullTime(order.ConfirmedAt),
		nullTime(order.CanceledAt),
		nullTime(order.StartedAt),
		nullTime(order.CompletedAt),
		nullTime(order.OverdueNotifiedAt),
		nullTime(order.ReminderSentAt),
	)

	return err
}

// GetByID retrieves an order by ID.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return order, nil
}

// Update updates an existing order.
func (r *OrderRepository) Update(ctx context.Context, order *domain.Order) error {
	query := `
		UPDATE orders
		SET status = $1, updated_at = $2, confirmed_at = $3, canceled_at = $4, started_at = $5, completed_at = $6, overdue_notified_at = $7, reminder_sent_at = $8
		WHERE id = $9
	`

	result, err := r.q.ExecContext(ctx, query,
		order.Status,
		order.UpdatedAt,
		nullTime(order.ConfirmedAt),
		nullTime(order.CanceledAt),
		nullTime(order.StartedAt),
		nullTime(order.CompletedAt),
		nullTime(order.OverdueNotifiedAt),
		nullTime(order.ReminderSentAt),
		order.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// GetByStatus retrieves all orders in the given status.
func (r *OrderRepository) GetByStatus(ctx context.Context, status domain.OrderStatus) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE status = $1 ORDER BY created_at DESC`
	return r.queryOrders(ctx, query, status)
}

// GetByUserID retrieves all orders placed by the given user.
func (r *OrderRepository) GetByUserID(ctx context.Context, userID string) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`
	return r.queryOrders(ctx, query, userID)
}

// GetBlockingByVehicleID retrieves all orders that reserve the vehicle's
// calendar.
func (r *OrderRepository) GetBlockingByVehicleID(ctx context.Context, vehicleID string) ([]*domain.Order, error) {
	query := `
		SELECT ` + orderColumns + ` FROM orders
		WHERE vehicle_id = $1 AND status IN ($2, $3, $4)
		ORDER BY rental_start
	`
	return r.queryOrders(ctx, query, vehicleID,
		domain.OrderStatusPending, domain.OrderStatusConfirmed, domain.OrderStatusActive)
}

// GetPendingStartingBefore retrieves PENDING orders whose rental start falls
// before the deadline.
func (r *OrderRepository) GetPendingStartingBefore(ctx context.Context, deadline time.Time) ([]*domain.Order, error) {
	query := `
		SELECT ` + orderColumns + ` FROM orders
		WHERE status = $1 AND rental_start <= $2
		ORDER BY rental_start
	`
	return r.queryOrders(ctx, query, domain.OrderStatusPending, deadline)
}

// GetOverdue retrieves blocking orders whose rental end has passed and that
// have not been flagged yet.
func (r *OrderRepository) GetOverdue(ctx context.Context, now time.Time) ([]*domain.Order, error) {
	query := `
		SELECT ` + orderColumns + ` FROM orders
		WHERE status IN ($1, $2, $3) AND rental_end < $4 AND overdue_notified_at IS NULL
		ORDER BY rental_end
	`
	return r.queryOrders(ctx, query,
		domain.OrderStatusPending, domain.OrderStatusConfirmed, domain.OrderStatusActive, now)
}

// MarkOverdueNotified records the overdue notification timestamp. The
// IS NULL guard keeps the side effect at-most-once under sweep re-runs.
func (r *OrderRepository) MarkOverdueNotified(ctx context.Context, orderID string, at time.Time) (bool, error) {
	query := `UPDATE orders SET overdue_notified_at = $1 WHERE id = $2 AND overdue_notified_at IS NULL`

	result, err := r.q.ExecContext(ctx, query, at, orderID)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected == 1, nil
}

// GetReminderDue retrieves CONFIRMED orders starting within [from, until]
// that have not received a reminder yet.
func (r *OrderRepository) GetReminderDue(ctx context.Context, from, until time.Time) ([]*domain.Order, error) {
	query := `
		SELECT ` + orderColumns + ` FROM orders
		WHERE status = $1 AND rental_start >= $2 AND rental_start <= $3 AND reminder_sent_at IS NULL
		ORDER BY rental_start
	`
	return r.queryOrders(ctx, query, domain.OrderStatusConfirmed, from, until)
}

// MarkReminderSent records the reminder timestamp, at-most-once.
func (r *OrderRepository) MarkReminderSent(ctx context.Context, orderID string, at time.Time) (bool, error) {
	query := `UPDATE orders SET reminder_sent_at = $1 WHERE id = $2 AND reminder_sent_at IS NULL`

	result, err := r.q.ExecContext(ctx, query, at, orderID)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected == 1, nil
}

// queryOrders runs a multi-row order query and scans the results.
func (r *OrderRepository) queryOrders(ctx context.Context, query string, args ...any) ([]*domain.Order, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanOrder scans a single order row.
func scanOrder(row rowScanner) (*domain.Order, error) {
	var order domain.Order
	var confirmedAt, canceledAt, startedAt, completedAt, overdueAt, reminderAt sql.NullTime

	err := row.Scan(
		&order.ID,
		&order.VehicleID,
		&order.UserID,
		&order.RentalStart,
		&order.RentalEnd,
		&order.TotalAmount,
		&order.Currency,
		&order.Status,
		&order.CreatedAt,
		&order.UpdatedAt,
		&confirmedAt,
		&canceledAt,
		&startedAt,
		&completedAt,
		&overdueAt,
		&reminderAt,
	)
	if err != nil {
		return nil, err
	}

	if confirmedAt.Valid {
		order.ConfirmedAt = confirmedAt.Time
	}
	if canceledAt.Valid {
		order.CanceledAt = canceledAt.Time
	}
	if startedAt.Valid {
		order.StartedAt = startedAt.Time
	}
	if completedAt.Valid {
		order.CompletedAt = completedAt.Time
	}
	if overdueAt.Valid {
		order.OverdueNotifiedAt = overdueAt.Time
	}
	if reminderAt.Valid {
		order.ReminderSentAt = reminderAt.Time
	}

	return &order, nil
}

// nullTime converts a zero time to a SQL NULL.
func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

// Ensure OrderRepository implements repository.OrderRepository.
var _ repository.OrderRepository = (*OrderRepository)(nil)
