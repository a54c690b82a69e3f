package matrix

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/andresuchdata/restock/internal/domain"
	"github.com/xuri/excelize/v2"
)

const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

var ErrUnsupportedFile = errors.New("unsupported file type")

// FormatFromFilename picks the codec from a file extension.
func FormatFromFilename(name string) (string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w %q, expected .xlsx or .csv", ErrUnsupportedFile, filepath.Ext(name))
	}
}

// ReadGrid decodes r according to the extension of name.
func ReadGrid(name string, r io.Reader) (Grid, error) {
	format, err := FormatFromFilename(name)
	if err != nil {
		return nil, err
	}
	if format == FormatCSV {
		return ReadCSV(r)
	}
	return ReadXLSX(r)
}

// Date-typed header cells read back as Excel serial day numbers. Only
// serials landing in this year range are taken as dates; anything else is
// left as typed and rejected by the header check.
const (
	minHeaderYear = 1990
	maxHeaderYear = 2100
)

// ReadXLSX reads the first sheet. Cell values are read raw so numbers are not
// locale-formatted; serial dates in the header row become YYYY-MM-DD.
func ReadXLSX(r io.Reader) (Grid, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx file has no sheets")
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from sheet %s: %w", sheets[0], err)
	}
	if len(rows) > 0 {
		normalizeSerialDates(rows[0])
	}
	return Grid(rows), nil
}

func normalizeSerialDates(header []string) {
	for i := 1; i < len(header); i++ {
		serial, err := strconv.ParseFloat(strings.TrimSpace(header[i]), 64)
		if err != nil || serial < 1 {
			continue
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil || t.Year() < minHeaderYear || t.Year() > maxHeaderYear {
			continue
		}
		header[i] = domain.DateOf(t).String()
	}
}

// WriteXLSX writes the grid to a single sheet. The header row and the first
// column stay text; numeric data cells are stored as numbers.
func WriteXLSX(w io.Writer, sheet string, grid Grid) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheet == "" {
		sheet = "Sheet1"
	}
	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			return fmt.Errorf("failed to name sheet %s: %w", sheet, err)
		}
	}

	for r, row := range grid {
		values := make([]interface{}, len(row))
		for c, v := range row {
			values[c] = v
			if r == 0 || c == 0 || v == "" {
				continue
			}
			if n, err := strconv.ParseFloat(v, 64); err == nil {
				values[c] = n
			}
		}

		addr, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, addr, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", r+1, err)
		}
	}

	if len(grid) > 0 {
		if err := f.SetColWidth(sheet, "A", "A", 18); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write xlsx: %w", err)
	}
	return nil
}

func ReadCSV(r io.Reader) (Grid, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return Grid(rows), nil
}

func WriteCSV(w io.Writer, grid Grid) error {
	writer := csv.NewWriter(w)
	if err := writer.WriteAll(grid); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}
