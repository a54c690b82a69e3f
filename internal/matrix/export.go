package matrix

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/andresuchdata/restock/internal/domain"
)

type cellKey struct {
	code string
	day  domain.Date
}

// Export pivots records into a grid. Codes keep their first-seen order,
// dates are sorted ascending, cells with no record stay blank, and
// duplicate (code, date) records are summed.
func Export(records []Record, rowLabel string) Grid {
	if rowLabel == "" {
		rowLabel = DefaultRowLabel
	}

	var (
		codes  []string
		dates  []domain.Date
		seenC  = make(map[string]struct{})
		seenD  = make(map[domain.Date]struct{})
		values = make(map[cellKey]float64, len(records))
	)

	for _, r := range records {
		if _, ok := seenC[r.ProductCode]; !ok {
			seenC[r.ProductCode] = struct{}{}
			codes = append(codes, r.ProductCode)
		}
		if _, ok := seenD[r.Date]; !ok {
			seenD[r.Date] = struct{}{}
			dates = append(dates, r.Date)
		}
		values[cellKey{r.ProductCode, r.Date}] += r.Quantity
	}

	slices.SortFunc(dates, func(a, b domain.Date) int { return a.Compare(b.Time) })

	grid := make(Grid, 0, len(codes)+1)
	header := make([]string, 0, len(dates)+1)
	header = append(header, rowLabel)
	for _, d := range dates {
		header = append(header, d.String())
	}
	grid = append(grid, header)

	for _, code := range codes {
		row := make([]string, len(dates)+1)
		row[0] = code
		for i, d := range dates {
			if q, ok := values[cellKey{code, d}]; ok {
				row[i+1] = FormatQuantity(q)
			}
		}
		grid = append(grid, row)
	}

	return grid
}

// Template is an empty grid with one row per code and one column per day,
// starting at start. Filled in and uploaded, it imports like any export.
func Template(codes []string, start domain.Date, days int, rowLabel string) Grid {
	if rowLabel == "" {
		rowLabel = DefaultRowLabel
	}

	header := make([]string, 0, days+1)
	header = append(header, rowLabel)
	for i := 0; i < days; i++ {
		header = append(header, start.AddDays(i).String())
	}

	grid := make(Grid, 0, len(codes)+1)
	grid = append(grid, header)
	for _, code := range codes {
		row := make([]string, days+1)
		row[0] = code
		grid = append(grid, row)
	}
	return grid
}

// ExportFilename builds "<prefix>_YYYYMMDD_HHMMSS.<ext>".
func ExportFilename(prefix string, now time.Time, ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	return fmt.Sprintf("%s_%s.%s", prefix, now.Format("20060102_150405"), ext)
}
