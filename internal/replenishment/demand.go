package replenishment

import (
	"slices"

	"github.com/andresuchdata/restock/internal/domain"
)

// MedianDailySales returns the median quantity across the observations.
// Duplicate days are kept as separate samples. Empty history yields 0.
func MedianDailySales(history []domain.SalesObservation) float64 {
	if len(history) == 0 {
		return 0
	}

	quantities := make([]float64, len(history))
	for i, obs := range history {
		quantities[i] = obs.Quantity
	}
	slices.Sort(quantities)

	n := len(quantities)
	if n%2 == 1 {
		return quantities[n/2]
	}
	return (quantities[n/2-1] + quantities[n/2]) / 2.0
}

// TrailingWindow keeps the observations dated within the `days` calendar days
// that end the day before asOf.
func TrailingWindow(history []domain.SalesObservation, asOf domain.Date, days int) []domain.SalesObservation {
	if days <= 0 {
		return nil
	}
	from := asOf.AddDays(-days)
	to := asOf.AddDays(-1)

	out := make([]domain.SalesObservation, 0, len(history))
	for _, obs := range history {
		if obs.Date.Before(from) || obs.Date.After(to) {
			continue
		}
		out = append(out, obs)
	}
	return out
}
