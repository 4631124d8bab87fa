package domain

import (
	"errors"
	"time"
)

// VehicleStatus represents the current status of a vehicle in the fleet.
type VehicleStatus string

const (
	VehicleStatusActive      VehicleStatus = "ACTIVE"
	VehicleStatusMaintenance VehicleStatus = "MAINTENANCE"
	VehicleStatusRetired     VehicleStatus = "RETIRED"
)

// Band boundaries for the tariff matrix: four fixed 6-hour windows per day.
const (
	TariffRows  = 7 // Mon..Sun
	TariffBands = 4 // [00-06) [06-12) [12-18) [18-24)
)

// TariffMatrix holds per-hour prices by weekday (row, Monday = 0) and
// 6-hour band (column).
type TariffMatrix [TariffRows][TariffBands]float64

// ErrInvalidTariffMatrix is returned when a tariff matrix contains a
// negative price.
var ErrInvalidTariffMatrix = errors.New("tariff matrix contains negative price")

// Validate checks that every cell holds a non-negative price.
func (m TariffMatrix) Validate() error {
	for row := 0; row < TariffRows; row++ {
		for col := 0; col < TariffBands; col++ {
			if m[row][col] < 0 {
				return ErrInvalidTariffMatrix
			}
		}
	}
	return nil
}

// Uniform returns a tariff matrix with the same hourly price in every cell.
func Uniform(hourlyPrice float64) TariffMatrix {
	var m TariffMatrix
	for row := 0; row < TariffRows; row++ {
		for col := 0; col < TariffBands; col++ {
			m[row][col] = hourlyPrice
		}
	}
	return m
}

// Vehicle represents a rentable vehicle in the fleet.
// The tariff matrix is owned by the fleet admin and read-only to the
// pricing engine.
type Vehicle struct {
	ID           string
	Name         string
	LicensePlate string
	Tariff       TariffMatrix
	PricePerDay  float64 // Fallback day rate shown in listings
	Currency     string
	Status       VehicleStatus
	CreatedAt    time.Time
}
