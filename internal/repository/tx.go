package repository

import "context"

// OrderTx bundles the repositories that participate in an order-mutating
// transaction.
type OrderTx interface {
	Orders() OrderRepository
	Rejections() RejectionRepository

	// LockVehicle takes an exclusive lock on the vehicle row for the
	// duration of the transaction, serializing concurrent bookings for the
	// same vehicle.
	LockVehicle(ctx context.Context, vehicleID string) error
}

// TxManager runs a function inside a single atomic transaction: either all
// writes made through the OrderTx apply, or none do.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(tx OrderTx) error) error
}
