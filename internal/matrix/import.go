package matrix

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/andresuchdata/restock/internal/domain"
)

// CodeResolver reports whether a product code is known.
type CodeResolver interface {
	HasCode(code string) bool
}

// CodeSet is an in-memory CodeResolver.
type CodeSet map[string]struct{}

func NewCodeSet(codes ...string) CodeSet {
	set := make(CodeSet, len(codes))
	for _, c := range codes {
		set[c] = struct{}{}
	}
	return set
}

func (s CodeSet) HasCode(code string) bool {
	_, ok := s[code]
	return ok
}

type ImportResult struct {
	Records []Record   `json:"records"`
	Errors  []RowError `json:"errors"`
}

// Import normalizes a grid. A malformed header fails with ErrInvalidHeader;
// problems confined to a row or cell are collected in Errors and the rest of
// the grid is still read. A nil resolver accepts every code.
func Import(grid Grid, codes CodeResolver) (ImportResult, error) {
	dates, err := parseHeader(grid)
	if err != nil {
		return ImportResult{}, err
	}

	result := ImportResult{
		Records: make([]Record, 0, len(grid)*len(dates)),
		Errors:  []RowError{},
	}

	for r := 1; r < len(grid); r++ {
		row := grid[r]
		rowNum := r + 1
		if blankRow(row) {
			continue
		}

		code := cell(row, 0)
		if code == "" {
			result.Errors = append(result.Errors, RowError{Row: rowNum, Message: "missing product code"})
			continue
		}
		if codes != nil && !codes.HasCode(code) {
			result.Errors = append(result.Errors, RowError{Row: rowNum, Code: code, Message: "unknown product code"})
			continue
		}

		for c := 1; c < len(row); c++ {
			raw := cell(row, c)
			if raw == "" {
				continue
			}
			if c > len(dates) {
				result.Errors = append(result.Errors, RowError{
					Row: rowNum, Code: code, Column: columnName(c),
					Message: "value outside the dated columns",
				})
				continue
			}

			day := dates[c-1]
			qty, err := parseQuantity(raw)
			if err != nil {
				result.Errors = append(result.Errors, RowError{
					Row: rowNum, Code: code, Column: day.String(), Message: err.Error(),
				})
				continue
			}
			result.Records = append(result.Records, Record{ProductCode: code, Date: day, Quantity: qty})
		}
	}

	return result, nil
}

func parseHeader(grid Grid) ([]domain.Date, error) {
	if len(grid) == 0 {
		return nil, fmt.Errorf("%w: empty sheet", ErrInvalidHeader)
	}

	header := grid[0]
	if strings.TrimSpace(cell(header, 0)) == "" {
		return nil, fmt.Errorf("%w: missing product code label in column A", ErrInvalidHeader)
	}
	last := len(header) - 1
	for last > 0 && strings.TrimSpace(header[last]) == "" {
		last--
	}
	if last < 1 {
		return nil, fmt.Errorf("%w: no date columns", ErrInvalidHeader)
	}

	dates := make([]domain.Date, 0, last)
	seen := make(map[domain.Date]int, last)
	for i := 1; i <= last; i++ {
		d, err := ParseHeaderDate(header[i])
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", columnName(i), err)
		}
		if prev, dup := seen[d]; dup {
			return nil, fmt.Errorf("%w: date %s repeated in columns %s and %s",
				ErrInvalidHeader, d, columnName(prev), columnName(i))
		}
		seen[d] = i
		dates = append(dates, d)
	}
	return dates, nil
}

func parseQuantity(raw string) (float64, error) {
	q, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(q) || math.IsInf(q, 0) {
		return 0, fmt.Errorf("%q is not a number", raw)
	}
	if q < 0 {
		return 0, fmt.Errorf("negative quantity %s", raw)
	}
	return q, nil
}

// columnName turns a 0-based index into a spreadsheet column letter.
func columnName(i int) string {
	name := ""
	for n := i + 1; n > 0; n = (n - 1) / 26 {
		name = string(rune('A'+(n-1)%26)) + name
	}
	return name
}
