package domain

import (
	"regexp"
	"strconv"
	"time"
)

// DefaultReferenceDays is the horizon used when neither the request nor the
// product carries one.
const DefaultReferenceDays = 5

// Product is a catalog entry. The core only reads products.
type Product struct {
	ID            int64     `json:"id" db:"id"`
	Code          string    `json:"code" db:"code"`
	Name          string    `json:"name" db:"name"`
	Unit          string    `json:"unit" db:"unit"`
	Specification float64   `json:"specification" db:"specification"`
	Description   string    `json:"description" db:"description"`
	ReferenceDays int       `json:"reference_days" db:"reference_days"`
	CurrentStock  float64   `json:"current_stock" db:"current_stock"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

var leadTimePattern = regexp.MustCompile(`(?i)T\+(\d+)`)

// LeadTimeDays extracts the delivery lead time from a "T+n" marker in the
// description. Products without a marker report ok=false.
func (p Product) LeadTimeDays() (days int, ok bool) {
	match := leadTimePattern.FindStringSubmatch(p.Description)
	if match == nil {
		return 0, false
	}
	n, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// SalesObservation is one dated sales quantity for a product.
type SalesObservation struct {
	ID        int64   `json:"id" db:"id"`
	ProductID int64   `json:"product_id" db:"product_id"`
	Date      Date    `json:"date" db:"sale_date"`
	Quantity  float64 `json:"quantity" db:"quantity"`
}

// SalesFilter narrows sales queries; zero values mean "no bound".
type SalesFilter struct {
	ProductIDs []int64
	From       Date
	To         Date
}
