package service

import "errors"

var (
	// ErrVehicleNotFound is returned when the referenced vehicle does not exist.
	ErrVehicleNotFound = errors.New("vehicle not found")

	// ErrOrderNotFound is returned when the referenced order does not exist.
	ErrOrderNotFound = errors.New("order not found")

	// ErrVehicleUnavailable is returned when the requested interval overlaps
	// an existing blocking order for the vehicle.
	ErrVehicleUnavailable = errors.New("vehicle unavailable for requested interval")

	// ErrOrderCreationFailed is returned when persisting a new order fails.
	ErrOrderCreationFailed = errors.New("order creation failed")

	// ErrCancellationWindowClosed is returned when a cancellation is
	// attempted less than the configured window before the rental start.
	ErrCancellationWindowClosed = errors.New("cancellation window closed")

	// ErrInvalidOrderState is returned when a transition is attempted from a
	// state that does not allow it.
	ErrInvalidOrderState = errors.New("invalid order state for requested transition")

	// ErrNotAuthorized is returned when the acting user is not the order owner.
	ErrNotAuthorized = errors.New("user not authorized for this order")

	// ErrPaymentInitiationFailed is returned when the payment provider could
	// not be reached at order creation.
	ErrPaymentInitiationFailed = errors.New("payment initiation failed")

	// ErrInvalidVehicleID is returned when the vehicle ID is empty.
	ErrInvalidVehicleID = errors.New("invalid vehicle id")

	// ErrInvalidOrderID is returned when the order ID is empty.
	ErrInvalidOrderID = errors.New("invalid order id")

	// ErrInvalidUserID is returned when the user ID is empty.
	ErrInvalidUserID = errors.New("invalid user id")

	// ErrInvalidPaymentID is returned when the payment ID is empty.
	ErrInvalidPaymentID = errors.New("invalid payment id")

	// ErrInvalidPaymentAmount is returned when the payment amount is invalid.
	ErrInvalidPaymentAmount = errors.New("invalid payment amount")

	// ErrInvalidRejectionReason is returned when a rejection has no reason.
	ErrInvalidRejectionReason = errors.New("rejection reason required")

	// ErrInvalidVehicleData is returned when vehicle fields fail validation.
	ErrInvalidVehicleData = errors.New("invalid vehicle data")
)
