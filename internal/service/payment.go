package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"rental/internal/domain"
	"rental/internal/repository"
)

// PaymentProvider is the interface for the external payment service.
type PaymentProvider interface {
	// CreateCheckout opens a checkout session for the given amount and
	// returns the provider's checkout reference.
	CreateCheckout(ctx context.Context, userID string, amount float64, orderID string) (string, error)
}

// MockPaymentProvider is a mock implementation of PaymentProvider.
type MockPaymentProvider struct{}

// NewMockPaymentProvider creates a new mock payment provider.
func NewMockPaymentProvider() *MockPaymentProvider {
	return &MockPaymentProvider{}
}

// CreateCheckout simulates opening a checkout session. Always succeeds.
func (p *MockPaymentProvider) CreateCheckout(ctx context.Context, userID string, amount float64, orderID string) (string, error) {
	return "checkout-" + uuid.New().String(), nil
}

// PaymentService handles payment initiation for orders.
type PaymentService struct {
	paymentRepo repository.PaymentRepository
	provider    PaymentProvider
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(paymentRepo repository.PaymentRepository, provider PaymentProvider) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		provider:    provider,
	}
}

// InitiatePayment opens a checkout for an order, exactly once per order.
// Repeat calls for the same order return the existing payment (idempotent).
func (s *PaymentService) InitiatePayment(ctx context.Context, userID string, amount float64, orderID string) (*domain.Payment, error) {
	if orderID == "" {
		return nil, ErrInvalidOrderID
	}
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	if amount < 0 {
		return nil, ErrInvalidPaymentAmount
	}

	// One payment per order.
	idempotencyKey := fmt.Sprintf("payment:%s", orderID)

	existingPayment, err := s.paymentRepo.GetByIdempotencyKey(ctx, idempotencyKey)
	if err != nil {
		return nil, err
	}

	if existingPayment != nil {
		return existingPayment, nil
	}

	checkoutRef, err := s.provider.CreateCheckout(ctx, userID, amount, orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentInitiationFailed, err)
	}

	payment := &domain.Payment{
		ID:             uuid.New().String(),
		OrderID:        orderID,
		UserID:         userID,
		Amount:         amount,
		Status:         domain.PaymentStatusPending,
		CheckoutRef:    checkoutRef,
		IdempotencyKey: idempotencyKey,
	}

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, err
	}

	return payment, nil
}

// GetPayment retrieves a payment by ID.
func (s *PaymentService) GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	if paymentID == "" {
		return nil, ErrInvalidPaymentID
	}

	return s.paymentRepo.GetByID(ctx, paymentID)
}
