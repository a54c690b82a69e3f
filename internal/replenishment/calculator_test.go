package replenishment

import (
	"testing"
	"time"

	"github.com/andresuchdata/restock/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestCalculate(t *testing.T) {
	today := domain.NewDate(2024, time.June, 10)
	p1 := domain.Product{ID: 1, Code: "P1", Name: "Product one", ReferenceDays: 5}
	history := sales(today, 100, 120, 150)

	t.Run("orders the shortfall", func(t *testing.T) {
		req := domain.OrderCalculationRequest{ProductID: 1, CurrentStock: ptr(200.0), ReferenceDays: 5, AsOfDate: today}
		res := Calculate(req, Inputs{Product: p1, History: history})

		assert.Equal(t, 120.0, res.MedianDailySales)
		assert.Equal(t, 600.0, res.EstimatedSales)
		assert.Equal(t, 0.0, res.InTransitStock)
		assert.Equal(t, 400.0, res.OrderQuantity)
		assert.Empty(t, res.Message)
		assert.Nil(t, res.ExpectedDate)
		assert.Equal(t, "P1", res.ProductCode)
		assert.Equal(t, 200.0, res.CurrentStock)
		assert.Equal(t, 5, res.ReferenceDays)
		assert.Equal(t, 3, res.SalesDays)
	})

	t.Run("sufficient stock", func(t *testing.T) {
		req := domain.OrderCalculationRequest{ProductID: 1, CurrentStock: ptr(700.0), ReferenceDays: 5, AsOfDate: today}
		res := Calculate(req, Inputs{Product: p1, History: history})

		assert.Equal(t, 0.0, res.OrderQuantity)
		assert.Equal(t, domain.MessageNoReplenishment, res.Message)
	})

	t.Run("in-transit stock reduces the order", func(t *testing.T) {
		arrivals := []domain.ArrivalRecord{
			{ProductID: 1, Quantity: 50, OrderDate: today.AddDays(-1), ExpectedDate: today.AddDays(1), Status: domain.ArrivalPending},
			{ProductID: 1, Quantity: 70, OrderDate: today.AddDays(-3), ExpectedDate: today.AddDays(-1), Status: domain.ArrivalPending},
			{ProductID: 1, Quantity: 90, OrderDate: today.AddDays(-1), ExpectedDate: today.AddDays(1), Status: domain.ArrivalArrived},
		}
		req := domain.OrderCalculationRequest{ProductID: 1, CurrentStock: ptr(200.0), ReferenceDays: 5, AsOfDate: today}
		res := Calculate(req, Inputs{Product: p1, History: history, Arrivals: arrivals})

		assert.Equal(t, 50.0, res.InTransitStock)
		assert.Equal(t, 350.0, res.OrderQuantity)
	})

	t.Run("no history", func(t *testing.T) {
		req := domain.OrderCalculationRequest{ProductID: 1, CurrentStock: ptr(0.0), ReferenceDays: 5, AsOfDate: today}
		res := Calculate(req, Inputs{Product: p1})

		assert.Equal(t, 0.0, res.MedianDailySales)
		assert.Equal(t, 0.0, res.OrderQuantity)
		assert.Equal(t, domain.MessageInsufficientHistory, res.Message)
	})

	t.Run("fractional quantities keep precision", func(t *testing.T) {
		hist := sales(today, 0.1, 0.1, 0.1)
		req := domain.OrderCalculationRequest{ProductID: 1, CurrentStock: ptr(0.1), ReferenceDays: 3, AsOfDate: today}
		res := Calculate(req, Inputs{Product: p1, History: hist})

		assert.Equal(t, res.MedianDailySales*3, res.EstimatedSales)
		assert.InDelta(t, 0.2, res.OrderQuantity, 1e-12)
	})
}

func TestCalculateNeverNegative(t *testing.T) {
	today := domain.NewDate(2024, time.June, 10)
	p := domain.Product{ID: 9, Code: "X"}
	for _, stock := range []float64{0, 1, 59.9, 60, 60.1, 1e9} {
		for _, days := range []int{1, 5, 30} {
			req := domain.OrderCalculationRequest{ProductID: 9, CurrentStock: ptr(stock), ReferenceDays: days, AsOfDate: today}
			res := Calculate(req, Inputs{Product: p, History: sales(today, 2, 3, 4)})
			assert.GreaterOrEqual(t, res.OrderQuantity, 0.0)
			assert.Equal(t, res.MedianDailySales*float64(days), res.EstimatedSales)
		}
	}
}

func TestResolve(t *testing.T) {
	p := domain.Product{ID: 3, CurrentStock: 12, ReferenceDays: 7}

	got := Resolve(domain.OrderCalculationRequest{ProductID: 3}, p, 5)
	require.NotNil(t, got.CurrentStock)
	assert.Equal(t, 12.0, *got.CurrentStock)
	assert.Equal(t, 7, got.ReferenceDays)

	got = Resolve(domain.OrderCalculationRequest{ProductID: 3, CurrentStock: ptr(0.0), ReferenceDays: 2}, p, 5)
	assert.Equal(t, 0.0, *got.CurrentStock)
	assert.Equal(t, 2, got.ReferenceDays)

	got = Resolve(domain.OrderCalculationRequest{ProductID: 3}, domain.Product{}, 0)
	assert.Equal(t, domain.DefaultReferenceDays, got.ReferenceDays)
}

func TestUnavailable(t *testing.T) {
	today := domain.NewDate(2024, time.June, 10)
	res := Unavailable(domain.OrderCalculationRequest{ProductID: 4, ReferenceDays: 5, AsOfDate: today})
	assert.Equal(t, int64(4), res.ProductID)
	assert.Equal(t, 0.0, res.OrderQuantity)
	assert.Equal(t, domain.MessageProductUnavailable, res.Message)
}
