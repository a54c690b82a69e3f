package replenishment

import (
	"github.com/andresuchdata/restock/internal/domain"
	"github.com/shopspring/decimal"
)

// InTransitStock sums the quantities of arrivals still en route on asOf.
// Records for other products must be filtered out by the caller.
func InTransitStock(arrivals []domain.ArrivalRecord, asOf domain.Date) float64 {
	return inTransit(arrivals, asOf).InexactFloat64()
}

func inTransit(arrivals []domain.ArrivalRecord, asOf domain.Date) decimal.Decimal {
	total := decimal.Zero
	for _, a := range arrivals {
		if !a.InTransitOn(asOf) || a.Quantity <= 0 {
			continue
		}
		total = total.Add(decimal.NewFromFloat(a.Quantity))
	}
	return total
}
