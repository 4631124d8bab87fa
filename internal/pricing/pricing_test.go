package pricing

import (
	"math"
	"testing"
	"time"

	"rental/internal/domain"
)

const epsilon = 1e-9

// mustDate builds a UTC instant for the given clock time.
func mustDate(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, time.UTC)
}

func TestAllocate_SingleBandInterval(t *testing.T) {
	t.Parallel()

	// Monday 2024-01-08, 13:00-16:30 sits fully inside band [12,18).
	calc := NewCalculator(0)
	start := mustDate(2024, time.January, 8, 13, 0)
	end := mustDate(2024, time.January, 8, 16, 30)

	hours, err := calc.Allocate(start, end)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	for row := 0; row < domain.TariffRows; row++ {
		for col := 0; col < domain.TariffBands; col++ {
			want := 0.0
			if row == 0 && col == 2 {
				want = 3.5
			}
			if math.Abs(hours[row][col]-want) > epsilon {
				t.Errorf("hours[%d][%d] = %v, want %v", row, col, hours[row][col], want)
			}
		}
	}
}

func TestAllocate_FullDaySumsTo24(t *testing.T) {
	t.Parallel()

	// Exactly one full Wednesday.
	calc := NewCalculator(0)
	start := mustDate(2024, time.January, 10, 0, 0)
	end := mustDate(2024, time.January, 11, 0, 0)

	hours, err := calc.Allocate(start, end)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	var daySum, total float64
	for col := 0; col < domain.TariffBands; col++ {
		daySum += hours[2][col] // Wednesday row
	}
	for row := 0; row < domain.TariffRows; row++ {
		for col := 0; col < domain.TariffBands; col++ {
			total += hours[row][col]
		}
	}

	if math.Abs(daySum-24) > epsilon {
		t.Errorf("Wednesday row sums to %v, want 24", daySum)
	}
	if math.Abs(total-24) > epsilon {
		t.Errorf("matrix sums to %v, want 24", total)
	}
}

func TestAllocate_ZeroDurationInterval(t *testing.T) {
	t.Parallel()

	calc := NewCalculator(0)
	at := mustDate(2024, time.January, 8, 13, 0)

	hours, err := calc.Allocate(at, at)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	for row := 0; row < domain.TariffRows; row++ {
		for col := 0; col < domain.TariffBands; col++ {
			if hours[row][col] != 0 {
				t.Fatalf("hours[%d][%d] = %v, want 0", row, col, hours[row][col])
			}
		}
	}
}

func TestAllocate_EndBeforeStart(t *testing.T) {
	t.Parallel()

	calc := NewCalculator(0)
	start := mustDate(2024, time.January, 8, 13, 0)
	end := start.Add(-time.Hour)

	if _, err := calc.Allocate(start, end); err != ErrInvalidInterval {
		t.Errorf("expected ErrInvalidInterval, got: %v", err)
	}
}

func TestAllocate_SundayWrapsToLastRow(t *testing.T) {
	t.Parallel()

	// Sunday 2024-01-14, 07:00-08:00 must land in row 6, band [6,12).
	calc := NewCalculator(0)
	start := mustDate(2024, time.January, 14, 7, 0)
	end := mustDate(2024, time.January, 14, 8, 0)

	hours, err := calc.Allocate(start, end)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if math.Abs(hours[6][1]-1) > epsilon {
		t.Errorf("hours[6][1] = %v, want 1", hours[6][1])
	}
}

func TestAllocate_MultiDaySpan(t *testing.T) {
	t.Parallel()

	// Friday 22:00 through Sunday 03:00: 2h Fri band 3, 24h Sat, 3h Sun band 0.
	calc := NewCalculator(0)
	start := mustDate(2024, time.January, 12, 22, 0)
	end := mustDate(2024, time.January, 14, 3, 0)

	hours, err := calc.Allocate(start, end)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	checks := []struct {
		row, col int
		want     float64
	}{
		{4, 3, 2}, // Friday [18,24)
		{5, 0, 6}, // Saturday, all bands full
		{5, 1, 6},
		{5, 2, 6},
		{5, 3, 6},
		{6, 0, 3}, // Sunday [0,6)
	}

	for _, c := range checks {
		if math.Abs(hours[c.row][c.col]-c.want) > epsilon {
			t.Errorf("hours[%d][%d] = %v, want %v", c.row, c.col, hours[c.row][c.col], c.want)
		}
	}
}

func TestAllocate_OffsetShiftsBandBoundary(t *testing.T) {
	t.Parallel()

	// 04:30-05:30 UTC with a +2h offset is 06:30-07:30 local, so the hour
	// lands entirely in band [6,12) instead of straddling [0,6).
	calc := NewCalculator(2 * time.Hour)
	start := mustDate(2024, time.January, 8, 4, 30)
	end := mustDate(2024, time.January, 8, 5, 30)

	hours, err := calc.Allocate(start, end)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if math.Abs(hours[0][1]-1) > epsilon {
		t.Errorf("hours[0][1] = %v, want 1", hours[0][1])
	}
	if hours[0][0] != 0 {
		t.Errorf("hours[0][0] = %v, want 0", hours[0][0])
	}
}

func TestPrice_UniformTariff(t *testing.T) {
	t.Parallel()

	// Monday 10:00-14:00 at 10/hour everywhere: 2h in [6,12) + 2h in
	// [12,18) = 40.
	calc := NewCalculator(0)
	tariff := domain.Uniform(10)
	start := mustDate(2024, time.January, 8, 10, 0)
	end := mustDate(2024, time.January, 8, 14, 0)

	price, err := calc.Price(tariff, start, end)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if math.Abs(price-40) > epsilon {
		t.Errorf("price = %v, want 40", price)
	}
}

func TestPrice_BandSpecificTariff(t *testing.T) {
	t.Parallel()

	// Night hours cost 5, morning hours cost 20; Tuesday 05:00-07:00.
	calc := NewCalculator(0)
	var tariff domain.TariffMatrix
	tariff[1][0] = 5
	tariff[1][1] = 20

	start := mustDate(2024, time.January, 9, 5, 0)
	end := mustDate(2024, time.January, 9, 7, 0)

	price, err := calc.Price(tariff, start, end)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if math.Abs(price-25) > epsilon {
		t.Errorf("price = %v, want 25", price)
	}
}

func TestPrice_ZeroDurationIsFree(t *testing.T) {
	t.Parallel()

	calc := NewCalculator(0)
	at := mustDate(2024, time.January, 8, 10, 0)

	price, err := calc.Price(domain.Uniform(10), at, at)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if price != 0 {
		t.Errorf("price = %v, want 0", price)
	}
}

func TestPrice_InvalidInterval(t *testing.T) {
	t.Parallel()

	calc := NewCalculator(0)
	start := mustDate(2024, time.January, 8, 10, 0)

	if _, err := calc.Price(domain.Uniform(10), start, start.Add(-time.Minute)); err != ErrInvalidInterval {
		t.Errorf("expected ErrInvalidInterval, got: %v", err)
	}
}
