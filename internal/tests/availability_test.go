package tests

import (
	"context"
	"testing"
	"time"

	"rental/internal/domain"
	"rental/internal/service"
)

func newAvailabilityEnv() (*MockVehicleRepository, *MockOrderRepository, *service.AvailabilityService) {
	vehicles := NewMockVehicleRepository()
	orders := NewMockOrderRepository()
	vehicles.AddVehicle(&domain.Vehicle{
		ID:       "vehicle-1",
		Name:     "Test Van",
		Tariff:   domain.Uniform(10),
		Currency: "EUR",
		Status:   domain.VehicleStatusActive,
	})
	return vehicles, orders, service.NewAvailabilityService(vehicles, orders)
}

func TestIsAvailable_NoBookings_True(t *testing.T) {
	t.Parallel()

	_, _, availability := newAvailabilityEnv()

	available, err := availability.IsAvailable(context.Background(), "vehicle-1", testClock, testClock.Add(24*time.Hour), "")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !available {
		t.Error("expected vehicle to be available")
	}
}

func TestIsAvailable_OverlapCases(t *testing.T) {
	t.Parallel()

	// Existing booking occupies [24h, 48h) relative to testClock.
	testCases := []struct {
		name          string
		start, end    time.Duration
		wantAvailable bool
	}{
		{name: "entirely before", start: 0, end: 24 * time.Hour, wantAvailable: true},
		{name: "entirely after", start: 48 * time.Hour, end: 72 * time.Hour, wantAvailable: true},
		{name: "overlapping the start", start: 12 * time.Hour, end: 30 * time.Hour, wantAvailable: false},
		{name: "overlapping the end", start: 40 * time.Hour, end: 60 * time.Hour, wantAvailable: false},
		{name: "fully inside", start: 30 * time.Hour, end: 36 * time.Hour, wantAvailable: false},
		{name: "fully covering", start: 12 * time.Hour, end: 60 * time.Hour, wantAvailable: false},
		{name: "identical", start: 24 * time.Hour, end: 48 * time.Hour, wantAvailable: false},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, orders, availability := newAvailabilityEnv()
			orders.AddOrder(&domain.Order{
				ID:          "existing",
				VehicleID:   "vehicle-1",
				UserID:      "user-2",
				RentalStart: testClock.Add(24 * time.Hour),
				RentalEnd:   testClock.Add(48 * time.Hour),
				Status:      domain.OrderStatusConfirmed,
			})

			available, err := availability.IsAvailable(context.Background(), "vehicle-1", testClock.Add(tc.start), testClock.Add(tc.end), "")
			if err != nil {
				t.Fatalf("expected no error, got: %v", err)
			}
			if available != tc.wantAvailable {
				t.Errorf("expected available=%v, got %v", tc.wantAvailable, available)
			}
		})
	}
}

func TestIsAvailable_OnlyBlockingStatusesCount(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		status        domain.OrderStatus
		wantAvailable bool
	}{
		{status: domain.OrderStatusPending, wantAvailable: false},
		{status: domain.OrderStatusConfirmed, wantAvailable: false},
		{status: domain.OrderStatusActive, wantAvailable: false},
		{status: domain.OrderStatusRejected, wantAvailable: true},
		{status: domain.OrderStatusCanceled, wantAvailable: true},
		{status: domain.OrderStatusCompleted, wantAvailable: true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(string(tc.status), func(t *testing.T) {
			t.Parallel()

			_, orders, availability := newAvailabilityEnv()
			orders.AddOrder(&domain.Order{
				ID:          "existing",
				VehicleID:   "vehicle-1",
				UserID:      "user-2",
				RentalStart: testClock,
				RentalEnd:   testClock.Add(24 * time.Hour),
				Status:      tc.status,
			})

			available, err := availability.IsAvailable(context.Background(), "vehicle-1", testClock, testClock.Add(24*time.Hour), "")
			if err != nil {
				t.Fatalf("expected no error, got: %v", err)
			}
			if available != tc.wantAvailable {
				t.Errorf("status %s: expected available=%v, got %v", tc.status, tc.wantAvailable, available)
			}
		})
	}
}

func TestIsAvailable_ExcludesOwnOrder(t *testing.T) {
	t.Parallel()

	_, orders, availability := newAvailabilityEnv()
	orders.AddOrder(&domain.Order{
		ID:          "mine",
		VehicleID:   "vehicle-1",
		UserID:      "user-1",
		RentalStart: testClock,
		RentalEnd:   testClock.Add(24 * time.Hour),
		Status:      domain.OrderStatusConfirmed,
	})

	available, err := availability.IsAvailable(context.Background(), "vehicle-1", testClock, testClock.Add(24*time.Hour), "mine")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !available {
		t.Error("expected own order to be excluded from the conflict check")
	}
}

func TestBookedIntervals_ReturnsBlockingOnly(t *testing.T) {
	t.Parallel()

	_, orders, availability := newAvailabilityEnv()
	orders.AddOrder(&domain.Order{
		ID:          "blocking",
		VehicleID:   "vehicle-1",
		RentalStart: testClock,
		RentalEnd:   testClock.Add(24 * time.Hour),
		Status:      domain.OrderStatusConfirmed,
	})
	orders.AddOrder(&domain.Order{
		ID:          "canceled",
		VehicleID:   "vehicle-1",
		RentalStart: testClock.Add(48 * time.Hour),
		RentalEnd:   testClock.Add(72 * time.Hour),
		Status:      domain.OrderStatusCanceled,
	})

	intervals, err := availability.BookedIntervals(context.Background(), "vehicle-1")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(intervals) != 1 {
		t.Fatalf("expected 1 booked interval, got %d", len(intervals))
	}
	if !intervals[0].Start.Equal(testClock) {
		t.Errorf("unexpected interval start: %v", intervals[0].Start)
	}
}
