package domain

// PaymentStatus represents the current status of a payment.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusSuccess PaymentStatus = "SUCCESS"
	PaymentStatusFailed  PaymentStatus = "FAILED"
)

// Payment represents a payment initiated for an order.
type Payment struct {
	ID             string
	OrderID        string
	UserID         string
	Amount         float64
	Status         PaymentStatus
	CheckoutRef    string // Reference returned by the payment provider
	IdempotencyKey string
}
