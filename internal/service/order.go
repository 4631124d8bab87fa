package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"rental/internal/domain"
	"rental/internal/pricing"
	redisstore "rental/internal/redis"
	"rental/internal/repository"
)

// bookingLockTTL bounds how long a per-vehicle booking lock can outlive a
// crashed request.
const bookingLockTTL = 10 * time.Second

// PaymentInitiator defines the payment-initiation contract.
// This interface allows for testing with mock implementations.
type PaymentInitiator interface {
	InitiatePayment(ctx context.Context, userID string, amount float64, orderID string) (*domain.Payment, error)
}

// Ensure PaymentService implements PaymentInitiator.
var _ PaymentInitiator = (*PaymentService)(nil)

// OrderService owns the order state machine and coordinates pricing,
// availability, persistence, payment initiation and notifications.
type OrderService struct {
	vehicleRepo         repository.VehicleRepository
	orderRepo           repository.OrderRepository
	txManager           repository.TxManager
	calculator          *pricing.Calculator
	paymentService      PaymentInitiator
	notificationService *NotificationService
	lockStore           redisstore.LockStoreInterface
	cacheStore          redisstore.CacheStoreInterface
	cancellationWindow  time.Duration
	now                 func() time.Time
}

// NewOrderService creates a new OrderService. lockStore and cacheStore are
// optional; clock defaults to time.Now when nil.
func NewOrderService(
	vehicleRepo repository.VehicleRepository,
	orderRepo repository.OrderRepository,
	txManager repository.TxManager,
	calculator *pricing.Calculator,
	paymentService PaymentInitiator,
	notificationService *NotificationService,
	lockStore redisstore.LockStoreInterface,
	cacheStore redisstore.CacheStoreInterface,
	cancellationWindow time.Duration,
	clock func() time.Time,
) *OrderService {
	if clock == nil {
		clock = time.Now
	}
	return &OrderService{
		vehicleRepo:         vehicleRepo,
		orderRepo:           orderRepo,
		txManager:           txManager,
		calculator:          calculator,
		paymentService:      paymentService,
		notificationService: notificationService,
		lockStore:           lockStore,
		cacheStore:          cacheStore,
		cancellationWindow:  cancellationWindow,
		now:                 clock,
	}
}

// CreateOrderRequest contains the parameters for creating an order.
type CreateOrderRequest struct {
	VehicleID   string
	UserID      string
	RentalStart time.Time
	RentalEnd   time.Time
}

// CreateOrderResponse contains the result of creating an order.
type CreateOrderResponse struct {
	Order   *domain.Order
	Payment *domain.Payment
}

// CreateOrder prices the requested interval, persists a PENDING order and
// initiates payment. The availability invariant is enforced at commit time:
// inside the transaction the vehicle row is locked and the conflict check is
// re-run, so of two concurrent bookings for overlapping intervals at most
// one can succeed.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResponse, error) {
	if req.VehicleID == "" {
		return nil, ErrInvalidVehicleID
	}
	if req.UserID == "" {
		return nil, ErrInvalidUserID
	}
	if !req.RentalEnd.After(req.RentalStart) {
		return nil, pricing.ErrInvalidInterval
	}

	vehicle, err := s.vehicleRepo.GetByID(ctx, req.VehicleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrVehicleNotFound
		}
		return nil, err
	}

	totalAmount, err := s.calculator.Price(vehicle.Tariff, req.RentalStart, req.RentalEnd)
	if err != nil {
		return nil, err
	}

	// Best-effort distributed lock narrows the race window across
	// instances; the transaction below is the actual guard.
	if s.lockStore != nil {
		acquired, lockErr := s.lockStore.AcquireVehicleLock(ctx, req.VehicleID, bookingLockTTL)
		if lockErr == nil {
			if !acquired {
				return nil, ErrVehicleUnavailable
			}
			defer func() {
				_ = s.lockStore.ReleaseVehicleLock(ctx, req.VehicleID)
			}()
		}
	}

	now := s.now()
	order := &domain.Order{
		ID:          uuid.New().String(),
		VehicleID:   req.VehicleID,
		UserID:      req.UserID,
		RentalStart: req.RentalStart,
		RentalEnd:   req.RentalEnd,
		TotalAmount: totalAmount,
		Currency:    vehicle.Currency,
		Status:      domain.OrderStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.txManager.WithinTx(ctx, func(tx repository.OrderTx) error {
		if err := tx.LockVehicle(ctx, req.VehicleID); err != nil {
			return err
		}

		blocking, err := tx.Orders().GetBlockingByVehicleID(ctx, req.VehicleID)
		if err != nil {
			return err
		}

		if hasConflict(blocking, Interval{Start: req.RentalStart, End: req.RentalEnd}, "") {
			return ErrVehicleUnavailable
		}

		return tx.Orders().Create(ctx, order)
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrVehicleUnavailable):
			return nil, ErrVehicleUnavailable
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrVehicleNotFound
		default:
			return nil, fmt.Errorf("%w: %v", ErrOrderCreationFailed, err)
		}
	}

	// Payment initiation happens after the order is committed. A failure
	// here must not leave the order silently blocking the calendar.
	var payment *domain.Payment
	if s.paymentService != nil {
		payment, err = s.paymentService.InitiatePayment(ctx, req.UserID, totalAmount, order.ID)
		if err != nil {
			if rejectErr := s.rejectPersisted(ctx, order, "payment initiation failed"); rejectErr != nil {
				return nil, fmt.Errorf("%w: %v (order %s left pending: %v)", ErrPaymentInitiationFailed, err, order.ID, rejectErr)
			}
			return nil, fmt.Errorf("%w: %v", ErrPaymentInitiationFailed, err)
		}

		if s.notificationService != nil {
			_ = s.notificationService.NotifyPaymentRequired(ctx, order, payment)
		}
	}

	return &CreateOrderResponse{Order: order, Payment: payment}, nil
}

// Quote is a non-persisted price and availability answer for an interval.
type Quote struct {
	VehicleID   string
	RentalStart time.Time
	RentalEnd   time.Time
	Amount      float64
	Currency    string
	Available   bool
}

// QuotePrice prices an interval against the vehicle's tariff and reports
// availability. The amount is recomputed on every call, never cached.
func (s *OrderService) QuotePrice(ctx context.Context, vehicleID string, start, end time.Time) (*Quote, error) {
	if vehicleID == "" {
		return nil, ErrInvalidVehicleID
	}
	if end.Before(start) {
		return nil, pricing.ErrInvalidInterval
	}

	vehicle, err := s.vehicleByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	amount, err := s.calculator.Price(vehicle.Tariff, start, end)
	if err != nil {
		return nil, err
	}

	blocking, err := s.orderRepo.GetBlockingByVehicleID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	return &Quote{
		VehicleID:   vehicleID,
		RentalStart: start,
		RentalEnd:   end,
		Amount:      amount,
		Currency:    vehicle.Currency,
		Available:   !hasConflict(blocking, Interval{Start: start, End: end}, ""),
	}, nil
}

// ConfirmOrder transitions a PENDING order to CONFIRMED.
func (s *OrderService) ConfirmOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status != domain.OrderStatusPending {
		return nil, ErrInvalidOrderState
	}

	now := s.now()
	order.Status = domain.OrderStatusConfirmed
	order.ConfirmedAt = now
	order.UpdatedAt = now

	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, err
	}

	if s.notificationService != nil {
		_ = s.notificationService.NotifyOrderConfirmed(ctx, order)
	}

	return order, nil
}

// RejectOrder transitions a PENDING order to REJECTED and records the
// rejection reason. Both writes happen in one transaction.
func (s *OrderService) RejectOrder(ctx context.Context, orderID, reason string) (*domain.Order, error) {
	if orderID == "" {
		return nil, ErrInvalidOrderID
	}
	if reason == "" {
		return nil, ErrInvalidRejectionReason
	}

	var rejected *domain.Order
	err := s.txManager.WithinTx(ctx, func(tx repository.OrderTx) error {
		order, err := tx.Orders().GetByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrOrderNotFound
			}
			return err
		}

		if order.Status != domain.OrderStatusPending {
			return ErrInvalidOrderState
		}

		now := s.now()
		order.Status = domain.OrderStatusRejected
		order.UpdatedAt = now

		if err := tx.Orders().Update(ctx, order); err != nil {
			return err
		}

		if err := tx.Rejections().Create(ctx, &domain.OrderRejection{
			OrderID:   order.ID,
			Reason:    reason,
			CreatedAt: now,
		}); err != nil {
			return err
		}

		rejected = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.notificationService != nil {
		_ = s.notificationService.NotifyOrderRejected(ctx, rejected, reason)
	}

	return rejected, nil
}

// CancelOrder transitions a PENDING or CONFIRMED order to CANCELED.
// Cancellation is only allowed strictly more than the configured window
// before the rental start.
func (s *OrderService) CancelOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !domain.CanTransition(order.Status, domain.OrderStatusCanceled) {
		return nil, ErrInvalidOrderState
	}

	now := s.now()
	if !now.Before(order.RentalStart.Add(-s.cancellationWindow)) {
		return nil, ErrCancellationWindowClosed
	}

	order.Status = domain.OrderStatusCanceled
	order.CanceledAt = now
	order.UpdatedAt = now

	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, err
	}

	if s.notificationService != nil {
		_ = s.notificationService.NotifyOrderCanceled(ctx, order)
	}

	return order, nil
}

// StartOrder transitions a CONFIRMED order to ACTIVE when the renter
// unlocks the vehicle.
func (s *OrderService) StartOrder(ctx context.Context, orderID, userID string) (*domain.Order, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.UserID != userID {
		return nil, ErrNotAuthorized
	}

	if order.Status != domain.OrderStatusConfirmed {
		return nil, ErrInvalidOrderState
	}

	now := s.now()
	order.Status = domain.OrderStatusActive
	order.StartedAt = now
	order.UpdatedAt = now

	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, err
	}

	if s.notificationService != nil {
		_ = s.notificationService.NotifyOrderStarted(ctx, order)
	}

	return order, nil
}

// CompleteOrder transitions a CONFIRMED or ACTIVE order to COMPLETED.
// Only the order's owner may complete it.
func (s *OrderService) CompleteOrder(ctx context.Context, orderID, userID string) (*domain.Order, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.UserID != userID {
		return nil, ErrNotAuthorized
	}

	if !domain.CanTransition(order.Status, domain.OrderStatusCompleted) {
		return nil, ErrInvalidOrderState
	}

	now := s.now()
	order.Status = domain.OrderStatusCompleted
	order.CompletedAt = now
	order.UpdatedAt = now

	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, err
	}

	if s.notificationService != nil {
		_ = s.notificationService.NotifyOrderCompleted(ctx, order)
	}

	return order, nil
}

// GetOrder retrieves an order by ID.
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.getOrder(ctx, orderID)
}

// GetOrdersByStatus retrieves all orders in the given status.
func (s *OrderService) GetOrdersByStatus(ctx context.Context, status domain.OrderStatus) ([]*domain.Order, error) {
	return s.orderRepo.GetByStatus(ctx, status)
}

// GetOrdersByUser retrieves all orders placed by a user.
func (s *OrderService) GetOrdersByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	return s.orderRepo.GetByUserID(ctx, userID)
}

func (s *OrderService) getOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	if orderID == "" {
		return nil, ErrInvalidOrderID
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

// rejectPersisted rejects an already-committed order, outside the caller's
// failed flow. Used when payment initiation fails after commit.
func (s *OrderService) rejectPersisted(ctx context.Context, order *domain.Order, reason string) error {
	return s.txManager.WithinTx(ctx, func(tx repository.OrderTx) error {
		now := s.now()
		order.Status = domain.OrderStatusRejected
		order.UpdatedAt = now

		if err := tx.Orders().Update(ctx, order); err != nil {
			return err
		}
		return tx.Rejections().Create(ctx, &domain.OrderRejection{
			OrderID:   order.ID,
			Reason:    reason,
			CreatedAt: now,
		})
	})
}

// vehicleByID reads a vehicle through the cache when one is configured.
func (s *OrderService) vehicleByID(ctx context.Context, vehicleID string) (*domain.Vehicle, error) {
	if s.cacheStore != nil {
		cached, err := s.cacheStore.GetVehicle(ctx, vehicleID)
		if err == nil && cached != nil {
			if vehicle, ok := vehicleFromCache(cached); ok {
				return vehicle, nil
			}
		}
	}

	vehicle, err := s.vehicleRepo.GetByID(ctx, vehicleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrVehicleNotFound
		}
		return nil, err
	}

	if s.cacheStore != nil {
		_ = s.cacheStore.SetVehicle(ctx, vehicleToCache(vehicle))
	}

	return vehicle, nil
}

func vehicleToCache(v *domain.Vehicle) *redisstore.CachedVehicle {
	tariff := make([]float64, 0, domain.TariffRows*domain.TariffBands)
	for row := 0; row < domain.TariffRows; row++ {
		for col := 0; col < domain.TariffBands; col++ {
			tariff = append(tariff, v.Tariff[row][col])
		}
	}
	return &redisstore.CachedVehicle{
		ID:           v.ID,
		Name:         v.Name,
		LicensePlate: v.LicensePlate,
		Tariff:       tariff,
		PricePerDay:  v.PricePerDay,
		Currency:     v.Currency,
		Status:       string(v.Status),
	}
}

func vehicleFromCache(c *redisstore.CachedVehicle) (*domain.Vehicle, bool) {
	if len(c.Tariff) != domain.TariffRows*domain.TariffBands {
		return nil, false
	}

	vehicle := &domain.Vehicle{
		ID:           c.ID,
		Name:         c.Name,
		LicensePlate: c.LicensePlate,
		PricePerDay:  c.PricePerDay,
		Currency:     c.Currency,
		Status:       domain.VehicleStatus(c.Status),
	}
	for i, price := range c.Tariff {
		vehicle.Tariff[i/domain.TariffBands][i%domain.TariffBands] = price
	}
	return vehicle, true
}
