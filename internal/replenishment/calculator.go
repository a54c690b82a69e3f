package replenishment

import (
	"github.com/andresuchdata/restock/internal/domain"
	"github.com/shopspring/decimal"
)

// Inputs is everything the calculator needs for one product. History is
// expected to be already narrowed to the window the caller wants to use.
type Inputs struct {
	Product  domain.Product
	History  []domain.SalesObservation
	Arrivals []domain.ArrivalRecord
}

// Resolve fills request fields the caller left unset from the product,
// then from fallbackDays.
func Resolve(req domain.OrderCalculationRequest, product domain.Product, fallbackDays int) domain.OrderCalculationRequest {
	if req.CurrentStock == nil {
		stock := product.CurrentStock
		req.CurrentStock = &stock
	}
	if req.ReferenceDays <= 0 {
		req.ReferenceDays = product.ReferenceDays
	}
	if req.ReferenceDays <= 0 {
		req.ReferenceDays = fallbackDays
	}
	if req.ReferenceDays <= 0 {
		req.ReferenceDays = domain.DefaultReferenceDays
	}
	return req
}

// Calculate produces the order recommendation for a single product.
// The request must already be resolved.
func Calculate(req domain.OrderCalculationRequest, in Inputs) domain.OrderCalculationResult {
	var currentStock float64
	if req.CurrentStock != nil {
		currentStock = *req.CurrentStock
	}

	median := MedianDailySales(in.History)
	estimated := median * float64(req.ReferenceDays)
	inTransitQty := inTransit(in.Arrivals, req.AsOfDate)

	netNeed := decimal.NewFromFloat(estimated).
		Sub(decimal.NewFromFloat(currentStock)).
		Sub(inTransitQty)
	orderQty := decimal.Max(decimal.Zero, netNeed)

	result := domain.OrderCalculationResult{
		ProductID:        in.Product.ID,
		ProductCode:      in.Product.Code,
		ProductName:      in.Product.Name,
		Unit:             in.Product.Unit,
		Specification:    in.Product.Specification,
		MedianDailySales: median,
		EstimatedSales:   estimated,
		InTransitStock:   inTransitQty.InexactFloat64(),
		OrderQuantity:    orderQty.InexactFloat64(),
		CurrentStock:     currentStock,
		ReferenceDays:    req.ReferenceDays,
		AsOfDate:         req.AsOfDate,
		SalesDays:        len(in.History),
	}
	if result.ProductID == 0 {
		result.ProductID = req.ProductID
	}

	if orderQty.IsZero() {
		result.OrderQuantity = 0
		if len(in.History) == 0 {
			result.Message = domain.MessageInsufficientHistory
		} else {
			result.Message = domain.MessageNoReplenishment
		}
	}

	return result
}

// Unavailable is the zero-demand result used when a product's inputs could
// not be loaded. It never carries an order quantity.
func Unavailable(req domain.OrderCalculationRequest) domain.OrderCalculationResult {
	var currentStock float64
	if req.CurrentStock != nil {
		currentStock = *req.CurrentStock
	}
	return domain.OrderCalculationResult{
		ProductID:     req.ProductID,
		CurrentStock:  currentStock,
		ReferenceDays: req.ReferenceDays,
		AsOfDate:      req.AsOfDate,
		Message:       domain.MessageProductUnavailable,
	}
}
