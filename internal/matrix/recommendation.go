package matrix

import (
	"math"

	"github.com/andresuchdata/restock/internal/domain"
)

var recommendationHeader = []string{
	"Product Code",
	"Product Name",
	"Unit",
	"Current Stock",
	"Median Daily Sales",
	"Reference Days",
	"Estimated Sales",
	"In Transit",
	"Order Quantity",
	"Specification",
	"Cases",
	"Message",
}

// RecommendationGrid lays calculation results out as a flat sheet. Values are
// rounded here, at presentation, and nowhere earlier.
func RecommendationGrid(results []domain.OrderCalculationResult) Grid {
	grid := make(Grid, 0, len(results)+1)
	grid = append(grid, append([]string(nil), recommendationHeader...))

	for _, r := range results {
		cases := ""
		if r.Specification > 0 {
			cases = FormatQuantity(roundFloat(r.OrderQuantity/r.Specification, 2))
		}
		spec := ""
		if r.Specification > 0 {
			spec = FormatQuantity(r.Specification)
		}

		grid = append(grid, []string{
			r.ProductCode,
			r.ProductName,
			r.Unit,
			FormatQuantity(roundFloat(r.CurrentStock, 2)),
			FormatQuantity(roundFloat(r.MedianDailySales, 2)),
			FormatQuantity(float64(r.ReferenceDays)),
			FormatQuantity(roundFloat(r.EstimatedSales, 2)),
			FormatQuantity(roundFloat(r.InTransitStock, 2)),
			FormatQuantity(roundFloat(r.OrderQuantity, 2)),
			spec,
			cases,
			r.Message,
		})
	}
	return grid
}

// roundFloat rounds v to the given number of decimals.
func roundFloat(v float64, decimals int) float64 {
	if decimals <= 0 {
		return math.Round(v)
	}

	factor := math.Pow(10, float64(decimals))
	return math.Round(v*factor) / factor
}
