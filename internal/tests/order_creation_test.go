package tests

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"rental/internal/domain"
	"rental/internal/pricing"
	"rental/internal/service"
)

// testClock is a fixed instant all lifecycle tests run against.
// 2026-03-02 is a Monday.
var testClock = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testClock }

// testEnv bundles the mocks behind an OrderService wired for tests.
type testEnv struct {
	Vehicles   *MockVehicleRepository
	Orders     *MockOrderRepository
	Rejections *MockRejectionRepository
	Payments   *MockPaymentRepository
	TxManager  *MockTxManager
	Service    *service.OrderService
}

// newTestEnv builds an OrderService against in-memory repositories. provider
// may be nil for a provider that always succeeds.
func newTestEnv(provider service.PaymentProvider) *testEnv {
	vehicles := NewMockVehicleRepository()
	orders := NewMockOrderRepository()
	rejections := NewMockRejectionRepository()
	payments := NewMockPaymentRepository()
	txManager := NewMockTxManager(orders, rejections)

	if provider == nil {
		provider = service.NewMockPaymentProvider()
	}
	paymentService := service.NewPaymentService(payments, provider)

	orderService := service.NewOrderService(
		vehicles,
		orders,
		txManager,
		pricing.NewCalculator(0),
		paymentService,
		nil, // notifications
		nil, // lock store
		nil, // cache store
		24*time.Hour,
		fixedClock,
	)

	return &testEnv{
		Vehicles:   vehicles,
		Orders:     orders,
		Rejections: rejections,
		Payments:   payments,
		TxManager:  txManager,
		Service:    orderService,
	}
}

func addTestVehicle(env *testEnv, id string, hourlyPrice float64) {
	env.Vehicles.AddVehicle(&domain.Vehicle{
		ID:           id,
		Name:         "Test Van",
		LicensePlate: "B-RT 1234",
		Tariff:       domain.Uniform(hourlyPrice),
		PricePerDay:  hourlyPrice * 24,
		Currency:     "EUR",
		Status:       domain.VehicleStatusActive,
	})
}

// ──────────────────────────────────────────────
// 1. ORDER CREATION
// ──────────────────────────────────────────────

func TestOrderCreation_ValidInput_Succeeds(t *testing.T) {
	t.Parallel()

	env := newTestEnv(nil)
	addTestVehicle(env, "vehicle-1", 10)

	resp, err := env.Service.CreateOrder(context.Background(), service.CreateOrderRequest{
		VehicleID:   "vehicle-1",
		UserID:      "user-1",
		RentalStart: testClock.Add(26 * time.Hour), // Tuesday 10:00
		RentalEnd:   testClock.Add(30 * time.Hour), // Tuesday 14:00
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if resp == nil || resp.Order == nil {
		t.Fatal("expected order to be created")
	}
	if resp.Order.ID == "" {
		t.Error("expected order ID to be set")
	}
	if resp.Order.Status != domain.OrderStatusPending {
		t.Errorf("expected status PENDING, got %s", resp.Order.Status)
	}

	// 4 hours at 10/h uniform tariff.
	if resp.Order.TotalAmount != 40 {
		t.Errorf("expected total 40, got %v", resp.Order.TotalAmount)
	}

	if resp.Payment == nil {
		t.Fatal("expected payment to be initiated")
	}
	if resp.Payment.OrderID != resp.Order.ID {
		t.Errorf("expected payment for order %s, got %s", resp.Order.ID, resp.Payment.OrderID)
	}
	if resp.Payment.CheckoutRef == "" {
		t.Error("expected checkout reference to be set")
	}
}

func TestOrderCreation_UnknownVehicle_Fails(t *testing.T) {
	t.Parallel()

	env := newTestEnv(nil)

	_, err := env.Service.CreateOrder(context.Background(), service.CreateOrderRequest{
		VehicleID:   "missing",
		UserID:      "user-1",
		RentalStart: testClock.Add(24 * time.Hour),
		RentalEnd:   testClock.Add(28 * time.Hour),
	})
	if !errors.Is(err, service.ErrVehicleNotFound) {
		t.Fatalf("expected ErrVehicleNotFound, got: %v", err)
	}
}

func TestOrderCreation_EndBeforeStart_Fails(t *testing.T) {
	t.Parallel()

	env := newTestEnv(nil)
	addTestVehicle(env, "vehicle-1", 10)

	_, err := env.Service.CreateOrder(context.Background(), service.CreateOrderRequest{
		VehicleID:   "vehicle-1",
		UserID:      "user-1",
		RentalStart: testClock.Add(28 * time.Hour),
		RentalEnd:   testClock.Add(24 * time.Hour),
	})
	if !errors.Is(err, pricing.ErrInvalidInterval) {
		t.Fatalf("expected ErrInvalidInterval, got: %v", err)
	}
}

func TestOrderCreation_OverlappingInterval_Fails(t *testing.T) {
	t.Parallel()

	env := newTestEnv(nil)
	addTestVehicle(env, "vehicle-1", 10)

	env.Orders.AddOrder(&domain.Order{
		ID:          "existing",
		VehicleID:   "vehicle-1",
		UserID:      "user-2",
		RentalStart: testClock.Add(24 * time.Hour),
		RentalEnd:   testClock.Add(48 * time.Hour),
		Status:      domain.OrderStatusConfirmed,
	})

	_, err := env.Service.CreateOrder(context.Background(), service.CreateOrderRequest{
		VehicleID:   "vehicle-1",
		UserID:      "user-1",
		RentalStart: testClock.Add(36 * time.Hour),
		RentalEnd:   testClock.Add(60 * time.Hour),
	})
	if !errors.Is(err, service.ErrVehicleUnavailable) {
		t.Fatalf("expected ErrVehicleUnavailable, got: %v", err)
	}
}

func TestOrderCreation_TouchingInterval_Succeeds(t *testing.T) {
	t.Parallel()

	env := newTestEnv(nil)
	addTestVehicle(env, "vehicle-1", 10)

	env.Orders.AddOrder(&domain.Order{
		ID:          "existing",
		VehicleID:   "vehicle-1",
		UserID:      "user-2",
		RentalStart: testClock.Add(24 * time.Hour),
		RentalEnd:   testClock.Add(48 * time.Hour),
		Status:      domain.OrderStatusConfirmed,
	})

	// Back-to-back with the existing booking: intervals are half-open, so
	// a start equal to the previous end does not conflict.
	resp, err := env.Service.CreateOrder(context.Background(), service.CreateOrderRequest{
		VehicleID:   "vehicle-1",
		UserID:      "user-1",
		RentalStart: testClock.Add(48 * time.Hour),
		RentalEnd:   testClock.Add(52 * time.Hour),
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if resp.Order.Status != domain.OrderStatusPending {
		t.Errorf("expected status PENDING, got %s", resp.Order.Status)
	}
}

func TestOrderCreation_TerminalOrdersDoNotBlock(t *testing.T) {
	t.Parallel()

	env := newTestEnv(nil)
	addTestVehicle(env, "vehicle-1", 10)

	for _, status := range []domain.OrderStatus{
		domain.OrderStatusCanceled,
		domain.OrderStatusRejected,
		domain.OrderStatusCompleted,
	} {
		env.Orders.AddOrder(&domain.Order{
			ID:          "terminal-" + string(status),
			VehicleID:   "vehicle-1",
			UserID:      "user-2",
			RentalStart: testClock.Add(24 * time.Hour),
			RentalEnd:   testClock.Add(48 * time.Hour),
			Status:      status,
		})
	}

	_, err := env.Service.CreateOrder(context.Background(), service.CreateOrderRequest{
		VehicleID:   "vehicle-1",
		UserID:      "user-1",
		RentalStart: testClock.Add(24 * time.Hour),
		RentalEnd:   testClock.Add(48 * time.Hour),
	})
	if err != nil {
		t.Fatalf("expected terminal orders not to block, got: %v", err)
	}
}

func TestOrderCreation_ConcurrentSameInterval_OnlyOneWins(t *testing.T) {
	t.Parallel()

	env := newTestEnv(nil)
	addTestVehicle(env, "vehicle-1", 10)

	req := service.CreateOrderRequest{
		VehicleID:   "vehicle-1",
		RentalStart: testClock.Add(24 * time.Hour),
		RentalEnd:   testClock.Add(48 * time.Hour),
	}

	const racers = 2
	results := make(chan error, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		userID := "user-a"
		if i == 1 {
			userID = "user-b"
		}
		go func(userID string) {
			defer wg.Done()
			r := req
			r.UserID = userID
			_, err := env.Service.CreateOrder(context.Background(), r)
			results <- err
		}(userID)
	}
	wg.Wait()
	close(results)

	var successes, conflicts int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, service.ErrVehicleUnavailable):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if successes != 1 || conflicts != 1 {
		t.Fatalf("expected exactly one success and one conflict, got %d successes, %d conflicts", successes, conflicts)
	}
}

func TestOrderCreation_PaymentFailure_RejectsOrder(t *testing.T) {
	t.Parallel()

	provider := &FailingPaymentProvider{}
	env := newTestEnv(provider)
	addTestVehicle(env, "vehicle-1", 10)

	_, err := env.Service.CreateOrder(context.Background(), service.CreateOrderRequest{
		VehicleID:   "vehicle-1",
		UserID:      "user-1",
		RentalStart: testClock.Add(24 * time.Hour),
		RentalEnd:   testClock.Add(48 * time.Hour),
	})
	if !errors.Is(err, service.ErrPaymentInitiationFailed) {
		t.Fatalf("expected ErrPaymentInitiationFailed, got: %v", err)
	}

	// The committed order must not keep blocking the calendar.
	orders, listErr := env.Orders.GetByStatus(context.Background(), domain.OrderStatusRejected)
	if listErr != nil {
		t.Fatalf("listing rejected orders: %v", listErr)
	}
	if len(orders) != 1 {
		t.Fatalf("expected 1 rejected order, got %d", len(orders))
	}

	rejection, rejErr := env.Rejections.GetByOrderID(context.Background(), orders[0].ID)
	if rejErr != nil {
		t.Fatalf("expected rejection record, got: %v", rejErr)
	}
	if rejection.Reason != "payment initiation failed" {
		t.Errorf("unexpected rejection reason: %q", rejection.Reason)
	}
}

// ──────────────────────────────────────────────
// 2. PRICE QUOTES
// ──────────────────────────────────────────────

func TestQuotePrice_RecomputesFromTariff(t *testing.T) {
	t.Parallel()

	env := newTestEnv(nil)

	// Nights are cheap, days are expensive.
	tariff := domain.Uniform(5)
	for row := 0; row < domain.TariffRows; row++ {
		tariff[row][2] = 20 // [12-18)
	}
	env.Vehicles.AddVehicle(&domain.Vehicle{
		ID:       "vehicle-1",
		Name:     "Test Van",
		Tariff:   tariff,
		Currency: "EUR",
		Status:   domain.VehicleStatusActive,
	})

	// Monday 10:00 - 14:00: two hours at 5, two at 20.
	quote, err := env.Service.QuotePrice(
		context.Background(),
		"vehicle-1",
		time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC),
	)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if quote.Amount != 50 {
		t.Errorf("expected amount 50, got %v", quote.Amount)
	}
	if !quote.Available {
		t.Error("expected vehicle to be available")
	}
}

func TestQuotePrice_ReportsConflicts(t *testing.T) {
	t.Parallel()

	env := newTestEnv(nil)
	addTestVehicle(env, "vehicle-1", 10)

	env.Orders.AddOrder(&domain.Order{
		ID:          "existing",
		VehicleID:   "vehicle-1",
		UserID:      "user-2",
		RentalStart: testClock.Add(24 * time.Hour),
		RentalEnd:   testClock.Add(48 * time.Hour),
		Status:      domain.OrderStatusPending,
	})

	quote, err := env.Service.QuotePrice(context.Background(), "vehicle-1", testClock.Add(30*time.Hour), testClock.Add(36*time.Hour))
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if quote.Available {
		t.Error("expected quote to report the conflict")
	}
}
