// Package matrix pivots dated per-product quantities to and from the wide
// spreadsheet layout: one row per product code, one column per date.
package matrix

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/andresuchdata/restock/internal/domain"
)

// DefaultRowLabel heads the product-code column.
const DefaultRowLabel = "Product Code"

// ErrInvalidHeader rejects a whole import: without a valid date header no
// cell can be interpreted.
var ErrInvalidHeader = errors.New("invalid matrix header")

// Grid is a rectangular-ish table of cell text. Rows may be ragged.
type Grid [][]string

// Record is one normalized cell of the matrix.
type Record struct {
	ProductCode string      `json:"product_code"`
	Date        domain.Date `json:"date"`
	Quantity    float64     `json:"quantity"`
}

// RowError describes a row (or a single cell within it) that was skipped.
// Row is the 1-based spreadsheet row number.
type RowError struct {
	Row     int    `json:"row"`
	Code    string `json:"code,omitempty"`
	Column  string `json:"column,omitempty"`
	Message string `json:"message"`
}

func (e RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("row %d (%s, %s): %s", e.Row, e.Code, e.Column, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// ParseHeaderDate reads a header cell as a calendar day in one of the
// layouts accepted by domain.ParseDate.
func ParseHeaderDate(cell string) (domain.Date, error) {
	d, err := domain.ParseDate(strings.TrimSpace(cell))
	if err != nil {
		return domain.Date{}, fmt.Errorf("%w: %q is not a date", ErrInvalidHeader, cell)
	}
	return d, nil
}

// FormatQuantity renders the shortest decimal text that parses back to q.
func FormatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
