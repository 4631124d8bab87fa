package service

import (
	"context"
	"time"

	"rental/internal/domain"
	"rental/internal/pricing"
	"rental/internal/repository"
)

// Interval is a half-open [Start, End) time range.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two half-open intervals overlap:
// [s1,e1) and [s2,e2) overlap iff s1 < e2 && s2 < e1. Intervals that merely
// touch do not overlap.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

// AvailabilityService checks vehicle calendars for booking conflicts.
type AvailabilityService struct {
	vehicleRepo repository.VehicleRepository
	orderRepo   repository.OrderRepository
}

// NewAvailabilityService creates a new AvailabilityService.
func NewAvailabilityService(
	vehicleRepo repository.VehicleRepository,
	orderRepo repository.OrderRepository,
) *AvailabilityService {
	return &AvailabilityService{
		vehicleRepo: vehicleRepo,
		orderRepo:   orderRepo,
	}
}

// IsAvailable reports whether the vehicle is free over [start, end).
// excludeOrderID, when non-empty, removes that order's own interval from the
// conflict set — used when re-checking availability for an order update.
func (s *AvailabilityService) IsAvailable(ctx context.Context, vehicleID string, start, end time.Time, excludeOrderID string) (bool, error) {
	if vehicleID == "" {
		return false, ErrInvalidVehicleID
	}
	if end.Before(start) {
		return false, pricing.ErrInvalidInterval
	}

	if _, err := s.vehicleRepo.GetByID(ctx, vehicleID); err != nil {
		if err == repository.ErrNotFound {
			return false, ErrVehicleNotFound
		}
		return false, err
	}

	blocking, err := s.orderRepo.GetBlockingByVehicleID(ctx, vehicleID)
	if err != nil {
		return false, err
	}

	return !hasConflict(blocking, Interval{Start: start, End: end}, excludeOrderID), nil
}

// BookedIntervals returns the intervals of all blocking orders for a
// vehicle, including the currently ongoing one.
func (s *AvailabilityService) BookedIntervals(ctx context.Context, vehicleID string) ([]Interval, error) {
	if vehicleID == "" {
		return nil, ErrInvalidVehicleID
	}

	if _, err := s.vehicleRepo.GetByID(ctx, vehicleID); err != nil {
		if err == repository.ErrNotFound {
			return nil, ErrVehicleNotFound
		}
		return nil, err
	}

	blocking, err := s.orderRepo.GetBlockingByVehicleID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	intervals := make([]Interval, 0, len(blocking))
	for _, order := range blocking {
		intervals = append(intervals, Interval{Start: order.RentalStart, End: order.RentalEnd})
	}
	return intervals, nil
}

// hasConflict reports whether the candidate interval overlaps any of the
// given orders, skipping the excluded order.
func hasConflict(orders []*domain.Order, candidate Interval, excludeOrderID string) bool {
	for _, order := range orders {
		if excludeOrderID != "" && order.ID == excludeOrderID {
			continue
		}
		booked := Interval{Start: order.RentalStart, End: order.RentalEnd}
		if candidate.Overlaps(booked) {
			return true
		}
	}
	return false
}
