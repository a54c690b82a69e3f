package domain

// Explanation markers attached to zero-quantity recommendations.
const (
	MessageNoReplenishment     = "no replenishment needed, stock sufficient"
	MessageInsufficientHistory = "insufficient sales history, set the order quantity manually"
	MessageProductUnavailable  = "product could not be resolved, demand treated as zero"
)

// OrderCalculationRequest asks for one product's recommendation. Nil
// CurrentStock and zero ReferenceDays fall back to the product's own values.
// InTransitStock is accepted for compatibility and always recomputed.
type OrderCalculationRequest struct {
	ProductID      int64    `json:"product_id"`
	CurrentStock   *float64 `json:"current_stock,omitempty"`
	ReferenceDays  int      `json:"reference_days,omitempty"`
	InTransitStock *float64 `json:"in_transit_stock,omitempty"`
	AsOfDate       Date     `json:"as_of_date"`
}

type OrderCalculationResult struct {
	ProductID        int64   `json:"product_id"`
	ProductCode      string  `json:"product_code"`
	ProductName      string  `json:"product_name"`
	Unit             string  `json:"unit,omitempty"`
	Specification    float64 `json:"specification,omitempty"`
	MedianDailySales float64 `json:"median_daily_sales"`
	EstimatedSales   float64 `json:"estimated_sales"`
	InTransitStock   float64 `json:"in_transit_stock"`
	OrderQuantity    float64 `json:"order_quantity"`
	ExpectedDate     *Date   `json:"expected_date"`
	Message          string  `json:"message,omitempty"`
	Error            string  `json:"error,omitempty"`
	CurrentStock     float64 `json:"current_stock"`
	ReferenceDays    int     `json:"reference_days"`
	AsOfDate         Date    `json:"as_of_date"`
	SalesDays        int     `json:"sales_days"`
}

// CalculateOrdersRequest is a batch of per-product requests. AsOfDate
// applies to items that leave their own date unset.
type CalculateOrdersRequest struct {
	AsOfDate Date                      `json:"as_of_date"`
	Items    []OrderCalculationRequest `json:"items"`
}
