package pricing

import (
	"errors"
	"time"

	"rental/internal/domain"
)

// ErrInvalidInterval is returned when the rental end precedes the start.
var ErrInvalidInterval = errors.New("invalid interval: end before start")

// BandDuration is the width of one tariff band.
const BandDuration = 6 * time.Hour

// Calculator prices rental intervals against a vehicle's tariff matrix.
//
// Instants are normalized by adding a fixed UTC offset and then treated as
// UTC clock time. DST transitions are deliberately ignored: the tariff tables
// the fleet operates on are defined against a fixed offset.
type Calculator struct {
	offset time.Duration
}

// NewCalculator creates a Calculator using the given fixed UTC offset for
// wall-clock normalization.
func NewCalculator(offset time.Duration) *Calculator {
	return &Calculator{offset: offset}
}

// Allocate computes, for the half-open interval [start, end), the number of
// hours falling into each (weekday, band) cell across every calendar day the
// interval spans. A zero-duration interval yields the all-zero matrix.
func (c *Calculator) Allocate(start, end time.Time) ([domain.TariffRows][domain.TariffBands]float64, error) {
	var hours [domain.TariffRows][domain.TariffBands]float64

	if end.Before(start) {
		return hours, ErrInvalidInterval
	}

	s := c.normalize(start)
	e := c.normalize(end)

	// Walk calendar days from start's day until the cursor passes end.
	day := time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, time.UTC)
	for day.Before(e) {
		row := weekdayRow(day)
		for col := 0; col < domain.TariffBands; col++ {
			bandStart := day.Add(time.Duration(col) * BandDuration)
			bandEnd := bandStart.Add(BandDuration)

			lo := maxTime(s, bandStart)
			hi := minTime(e, bandEnd)
			if hi.After(lo) {
				hours[row][col] += hi.Sub(lo).Hours()
			}
		}
		day = day.AddDate(0, 0, 1)
	}

	return hours, nil
}

// Price returns the total price for renting over [start, end) at the given
// tariff: the elementwise product of the tariff matrix and the allocated
// hour matrix, summed. Deterministic and pure given its inputs.
func (c *Calculator) Price(tariff domain.TariffMatrix, start, end time.Time) (float64, error) {
	hours, err := c.Allocate(start, end)
	if err != nil {
		return 0, err
	}

	var total float64
	for row := 0; row < domain.TariffRows; row++ {
		for col := 0; col < domain.TariffBands; col++ {
			total += tariff[row][col] * hours[row][col]
		}
	}
	return total, nil
}

// normalize shifts an instant by the fixed offset and reinterprets it as UTC
// clock time, so day and band boundaries fall on local midnights.
func (c *Calculator) normalize(t time.Time) time.Time {
	return t.UTC().Add(c.offset)
}

// weekdayRow maps a day to a tariff row with Monday = 0 and Sunday = 6.
func weekdayRow(day time.Time) int {
	return (int(day.Weekday()) + 6) % 7
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
