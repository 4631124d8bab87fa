package domain

import "time"

// OrderStatus represents the current status of a rental order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusRejected  OrderStatus = "REJECTED"
	OrderStatusCanceled  OrderStatus = "CANCELED"
	OrderStatusActive    OrderStatus = "ACTIVE"
	OrderStatusCompleted OrderStatus = "COMPLETED"
)

// AllowedTransitions encodes the order state machine as a directed graph.
// REJECTED, CANCELED and COMPLETED are terminal.
var AllowedTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusRejected, OrderStatusCanceled},
	OrderStatusConfirmed: {OrderStatusActive, OrderStatusCanceled, OrderStatusCompleted},
	OrderStatusActive:    {OrderStatusCompleted},
	OrderStatusRejected:  {},
	OrderStatusCanceled:  {},
	OrderStatusCompleted: {},
}

// CanTransition reports whether from -> to is a legal state change.
func CanTransition(from, to OrderStatus) bool {
	for _, s := range AllowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// BlockingStatuses are the statuses that reserve a vehicle's calendar.
var BlockingStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusActive,
}

// IsBlocking reports whether an order in this status reserves the vehicle.
func (s OrderStatus) IsBlocking() bool {
	for _, b := range BlockingStatuses {
		if s == b {
			return true
		}
	}
	return false
}

// Order represents a rental booking for a vehicle over a half-open
// [RentalStart, RentalEnd) interval.
type Order struct {
	ID          string
	VehicleID   string
	UserID      string
	RentalStart time.Time
	RentalEnd   time.Time
	TotalAmount float64 // Computed at creation; immutable once persisted
	Currency    string
	Status      OrderStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ConfirmedAt time.Time
	CanceledAt  time.Time
	StartedAt   time.Time
	CompletedAt time.Time

	// Sweep bookkeeping. Both are written at most once.
	OverdueNotifiedAt time.Time
	ReminderSentAt    time.Time
}

// OrderRejection records why a pending order was rejected.
// Exactly one per rejected order; immutable after creation.
type OrderRejection struct {
	OrderID   string
	Reason    string
	CreatedAt time.Time
}
