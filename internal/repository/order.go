package repository

import (
	"context"
	"time"

	"rental/internal/domain"
)

// OrderRepository defines the persistence operations for orders.
type OrderRepository interface {
	// Create persists a new order.
	Create(ctx context.Context, order *domain.Order) error

	// GetByID retrieves an order by ID.
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// Update updates an existing order.
	Update(ctx context.Context, order *domain.Order) error

	// GetByStatus retrieves all orders in the given status.
	GetByStatus(ctx context.Context, status domain.OrderStatus) ([]*domain.Order, error)

	// GetByUserID retrieves all orders placed by the given user.
	GetByUserID(ctx context.Context, userID string) ([]*domain.Order, error)

	// GetBlockingByVehicleID retrieves all orders that reserve the vehicle's
	// calendar (PENDING, CONFIRMED or ACTIVE).
	GetBlockingByVehicleID(ctx context.Context, vehicleID string) ([]*domain.Order, error)

	// GetPendingStartingBefore retrieves PENDING orders whose rental start
	// falls before the given deadline. Used by the auto-confirm sweep.
	GetPendingStartingBefore(ctx context.Context, deadline time.Time) ([]*domain.Order, error)

	// GetOverdue retrieves blocking orders whose rental end has passed and
	// that have not yet been flagged as overdue.
	GetOverdue(ctx context.Context, now time.Time) ([]*domain.Order, error)

	// MarkOverdueNotified records that the overdue notification for an order
	// was sent. Returns false when the flag was already set, so the
	// side effect stays at-most-once.
	MarkOverdueNotified(ctx context.Context, orderID string, at time.Time) (bool, error)

	// GetReminderDue retrieves CONFIRMED orders starting within the window
	// that have not yet received a reminder.
	GetReminderDue(ctx context.Context, from, until time.Time) ([]*domain.Order, error)

	// MarkReminderSent records that the reminder for an order was sent.
	// Returns false when the flag was already set.
	MarkReminderSent(ctx context.Context, orderID string, at time.Time) (bool, error)
}

// RejectionRepository defines the persistence operations for order rejections.
type RejectionRepository interface {
	// Create persists a new rejection record.
	Create(ctx context.Context, rejection *domain.OrderRejection) error

	// GetByOrderID retrieves the rejection record for an order.
	GetByOrderID(ctx context.Context, orderID string) (*domain.OrderRejection, error)
}
