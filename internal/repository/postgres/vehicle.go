package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"rental/internal/domain"
	"rental/internal/repository"
)

// VehicleRepository is a PostgreSQL implementation of repository.VehicleRepository.
// The tariff matrix is stored as a flat 28-element double precision array,
// row-major (Mon band 0 .. Sun band 3).
type VehicleRepository struct {
	q Querier
}

// NewVehicleRepository creates a new PostgreSQL vehicle repository.
func NewVehicleRepository(db *sql.DB) *VehicleRepository {
	return &VehicleRepository{q: db}
}

// NewVehicleRepositoryWithTx creates a vehicle repository using a transaction.
func NewVehicleRepositoryWithTx(tx *sql.Tx) *VehicleRepository {
	return &VehicleRepository{q: tx}
}

// Create persists a new vehicle.
func (r *VehicleRepository) Create(ctx context.Context, vehicle *domain.Vehicle) error {
	query := `
		INSERT INTO vehicles (id, name, license_plate, tariff_matrix, price_per_day, currency, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.q.ExecContext(ctx, query,
		vehicle.ID,
		vehicle.Name,
		vehicle.LicensePlate,
		pq.Array(flattenTariff(vehicle.Tariff)),
		vehicle.PricePerDay,
		vehicle.Currency,
		vehicle.Status,
		vehicle.CreatedAt,
	)

	return err
}

// GetByID retrieves a vehicle by ID.
func (r *VehicleRepository) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	query := `
		SELECT id, name, license_plate, tariff_matrix, price_per_day, currency, status, created_at
		FROM vehicles WHERE id = $1
	`

	vehicle, err := r.scanVehicle(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return vehicle, nil
}

// GetAll retrieves all vehicles.
func (r *VehicleRepository) GetAll(ctx context.Context) ([]*domain.Vehicle, error) {
	query := `
		SELECT id, name, license_plate, tariff_matrix, price_per_day, currency, status, created_at
		FROM vehicles ORDER BY created_at DESC
	`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []*domain.Vehicle
	for rows.Next() {
		vehicle, err := r.scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, vehicle)
	}
	return vehicles, rows.Err()
}

// Update updates an existing vehicle.
func (r *VehicleRepository) Update(ctx context.Context, vehicle *domain.Vehicle) error {
	query := `
		UPDATE vehicles
		SET name = $1, license_plate = $2, tariff_matrix = $3, price_per_day = $4, currency = $5, status = $6
		WHERE id = $7
	`

	result, err := r.q.ExecContext(ctx, query,
		vehicle.Name,
		vehicle.LicensePlate,
		pq.Array(flattenTariff(vehicle.Tariff)),
		vehicle.PricePerDay,
		vehicle.Currency,
		vehicle.Status,
		vehicle.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *VehicleRepository) scanVehicle(row rowScanner) (*domain.Vehicle, error) {
	var vehicle domain.Vehicle
	var tariff []float64

	err := row.Scan(
		&vehicle.ID,
		&vehicle.Name,
		&vehicle.LicensePlate,
		pq.Array(&tariff),
		&vehicle.PricePerDay,
		&vehicle.Currency,
		&vehicle.Status,
		&vehicle.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	matrix, err := unflattenTariff(tariff)
	if err != nil {
		return nil, err
	}
	vehicle.Tariff = matrix

	return &vehicle, nil
}

func flattenTariff(m domain.TariffMatrix) []float64 {
	flat := make([]float64, 0, domain.TariffRows*domain.TariffBands)
	for row := 0; row < domain.TariffRows; row++ {
		for col := 0; col < domain.TariffBands; col++ {
			flat = append(flat, m[row][col])
		}
	}
	return flat
}

func unflattenTariff(flat []float64) (domain.TariffMatrix, error) {
	var m domain.TariffMatrix
	if len(flat) != domain.TariffRows*domain.TariffBands {
		return m, fmt.Errorf("tariff matrix has %d elements, want %d", len(flat), domain.TariffRows*domain.TariffBands)
	}
	for i, v := range flat {
		m[i/domain.TariffBands][i%domain.TariffBands] = v
	}
	return m, nil
}

// Ensure VehicleRepository implements repository.VehicleRepository.
var _ repository.VehicleRepository = (*VehicleRepository)(nil)
