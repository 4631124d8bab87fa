package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"rental/internal/domain"
	redisstore "rental/internal/redis"
	"rental/internal/repository"
)

// VehicleService handles fleet management.
type VehicleService struct {
	vehicleRepo repository.VehicleRepository
	cacheStore  redisstore.CacheStoreInterface
}

// NewVehicleService creates a new VehicleService. cacheStore is optional.
func NewVehicleService(vehicleRepo repository.VehicleRepository, cacheStore redisstore.CacheStoreInterface) *VehicleService {
	return &VehicleService{
		vehicleRepo: vehicleRepo,
		cacheStore:  cacheStore,
	}
}

// CreateVehicleRequest contains the parameters for registering a vehicle.
type CreateVehicleRequest struct {
	Name         string
	LicensePlate string
	Tariff       *domain.TariffMatrix // nil means uniform PricePerDay/24
	PricePerDay  float64
	Currency     string
}

// CreateVehicle registers a new vehicle in the fleet.
func (s *VehicleService) CreateVehicle(ctx context.Context, req CreateVehicleRequest) (*domain.Vehicle, error) {
	if req.Name == "" || req.LicensePlate == "" {
		return nil, fmt.Errorf("%w: name and license plate are required", ErrInvalidVehicleData)
	}
	if req.PricePerDay < 0 {
		return nil, fmt.Errorf("%w: price per day must be non-negative", ErrInvalidVehicleData)
	}
	if req.Currency == "" {
		req.Currency = "EUR"
	}

	var tariff domain.TariffMatrix
	if req.Tariff != nil {
		if err := req.Tariff.Validate(); err != nil {
			return nil, err
		}
		tariff = *req.Tariff
	} else {
		tariff = domain.Uniform(req.PricePerDay / 24)
	}

	vehicle := &domain.Vehicle{
		ID:           uuid.New().String(),
		Name:         req.Name,
		LicensePlate: req.LicensePlate,
		Tariff:       tariff,
		PricePerDay:  req.PricePerDay,
		Currency:     req.Currency,
		Status:       domain.VehicleStatusActive,
		CreatedAt:    time.Now(),
	}

	if err := s.vehicleRepo.Create(ctx, vehicle); err != nil {
		return nil, err
	}
	return vehicle, nil
}

// GetVehicle retrieves a vehicle by ID.
func (s *VehicleService) GetVehicle(ctx context.Context, vehicleID string) (*domain.Vehicle, error) {
	if vehicleID == "" {
		return nil, ErrInvalidVehicleID
	}

	vehicle, err := s.vehicleRepo.GetByID(ctx, vehicleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrVehicleNotFound
		}
		return nil, err
	}
	return vehicle, nil
}

// ListVehicles retrieves all vehicles in the fleet.
func (s *VehicleService) ListVehicles(ctx context.Context) ([]*domain.Vehicle, error) {
	return s.vehicleRepo.GetAll(ctx)
}

// UpdateTariff replaces a vehicle's tariff matrix. Orders priced under the
// old matrix keep their stored totals.
func (s *VehicleService) UpdateTariff(ctx context.Context, vehicleID string, tariff domain.TariffMatrix) (*domain.Vehicle, error) {
	if err := tariff.Validate(); err != nil {
		return nil, err
	}

	vehicle, err := s.GetVehicle(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	vehicle.Tariff = tariff
	if err := s.vehicleRepo.Update(ctx, vehicle); err != nil {
		return nil, err
	}

	// Quotes read through the cache; drop the stale entry.
	if s.cacheStore != nil {
		_ = s.cacheStore.InvalidateVehicle(ctx, vehicleID)
	}

	return vehicle, nil
}

// SetVehicleStatus changes a vehicle's fleet status.
func (s *VehicleService) SetVehicleStatus(ctx context.Context, vehicleID string, status domain.VehicleStatus) (*domain.Vehicle, error) {
	switch status {
	case domain.VehicleStatusActive, domain.VehicleStatusMaintenance, domain.VehicleStatusRetired:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidVehicleData, status)
	}

	vehicle, err := s.GetVehicle(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	vehicle.Status = status
	if err := s.vehicleRepo.Update(ctx, vehicle); err != nil {
		return nil, err
	}

	if s.cacheStore != nil {
		_ = s.cacheStore.InvalidateVehicle(ctx, vehicleID)
	}

	return vehicle, nil
}
