package matrix

import (
	"fmt"
	"strings"
)

// StockColumn heads the second column of a stock sheet.
const StockColumn = "Current Stock"

// StockLevel is one row of a stock sheet.
type StockLevel struct {
	ProductCode string  `json:"product_code"`
	Quantity    float64 `json:"quantity"`
}

type StockResult struct {
	Levels []StockLevel `json:"levels"`
	Errors []RowError   `json:"errors"`
}

// ImportStock reads a two-column sheet of product code and current stock.
// The header must name both columns; a code listed twice keeps its last value.
func ImportStock(grid Grid, codes CodeResolver) (StockResult, error) {
	if len(grid) == 0 {
		return StockResult{}, fmt.Errorf("%w: empty sheet", ErrInvalidHeader)
	}
	header := grid[0]
	if cell(header, 0) == "" {
		return StockResult{}, fmt.Errorf("%w: missing product code label in column A", ErrInvalidHeader)
	}
	if !strings.EqualFold(cell(header, 1), StockColumn) {
		return StockResult{}, fmt.Errorf("%w: column B must be %q, got %q", ErrInvalidHeader, StockColumn, cell(header, 1))
	}

	result := StockResult{Levels: []StockLevel{}, Errors: []RowError{}}
	index := make(map[string]int)
	for r := 1; r < len(grid); r++ {
		row := grid[r]
		rowNum := r + 1
		if blankRow(row) {
			continue
		}

		code := cell(row, 0)
		switch {
		case code == "":
			result.Errors = append(result.Errors, RowError{Row: rowNum, Message: "missing product code"})
			continue
		case codes != nil && !codes.HasCode(code):
			result.Errors = append(result.Errors, RowError{Row: rowNum, Code: code, Message: "unknown product code"})
			continue
		}

		qty, err := parseQuantity(cell(row, 1))
		if err != nil {
			result.Errors = append(result.Errors, RowError{Row: rowNum, Code: code, Column: StockColumn, Message: err.Error()})
			continue
		}

		if i, dup := index[code]; dup {
			result.Levels[i].Quantity = qty
			continue
		}
		index[code] = len(result.Levels)
		result.Levels = append(result.Levels, StockLevel{ProductCode: code, Quantity: qty})
	}
	return result, nil
}
