package matrix

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/andresuchdata/restock/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var (
	d1 = domain.NewDate(2024, time.January, 1)
	d2 = domain.NewDate(2024, time.January, 2)
	d3 = domain.NewDate(2024, time.January, 10)
)

func TestExport(t *testing.T) {
	records := []Record{
		{ProductCode: "B", Date: d3, Quantity: 4},
		{ProductCode: "A", Date: d1, Quantity: 1.5},
		{ProductCode: "B", Date: d1, Quantity: 0},
		{ProductCode: "A", Date: d1, Quantity: 2},
	}

	grid := Export(records, "Code")

	require.Len(t, grid, 3)
	assert.Equal(t, []string{"Code", "2024-01-01", "2024-01-10"}, grid[0])
	assert.Equal(t, []string{"B", "0", "4"}, grid[1])
	assert.Equal(t, []string{"A", "3.5", ""}, grid[2])
}

func TestExportEmpty(t *testing.T) {
	grid := Export(nil, "")
	assert.Equal(t, Grid{{DefaultRowLabel}}, grid)
}

func TestExportImportRoundTrip(t *testing.T) {
	records := []Record{
		{ProductCode: "P1", Date: d1, Quantity: 100},
		{ProductCode: "P1", Date: d3, Quantity: 0},
		{ProductCode: "P2", Date: d2, Quantity: 0.1},
		{ProductCode: "P2", Date: d3, Quantity: 123456.789},
		{ProductCode: "P3", Date: d1, Quantity: 1e-7},
	}

	grid := Export(records, DefaultRowLabel)
	got, err := Import(grid, NewCodeSet("P1", "P2", "P3"))
	require.NoError(t, err)
	assert.Empty(t, got.Errors)
	assert.ElementsMatch(t, records, got.Records)
}

func TestImport(t *testing.T) {
	grid := Grid{
		{"Code", "2024-01-01", "2024/1/2", ""},
		{"P1", "10", "", ""},
		{"GHOST", "5", "5"},
		{"", "", ""},
		{"P2", "abc", "-3", "9"},
		{"", "7"},
		{"P3", " 2.5 ", "0"},
	}

	got, err := Import(grid, NewCodeSet("P1", "P2", "P3"))
	require.NoError(t, err)

	assert.Equal(t, []Record{
		{ProductCode: "P1", Date: d1, Quantity: 10},
		{ProductCode: "P3", Date: d1, Quantity: 2.5},
		{ProductCode: "P3", Date: d2, Quantity: 0},
	}, got.Records)

	require.Len(t, got.Errors, 5)
	assert.Equal(t, RowError{Row: 3, Code: "GHOST", Message: "unknown product code"}, got.Errors[0])
	assert.Equal(t, 5, got.Errors[1].Row)
	assert.Equal(t, "2024-01-01", got.Errors[1].Column)
	assert.Equal(t, "2024-01-02", got.Errors[2].Column)
	assert.Contains(t, got.Errors[2].Message, "negative")
	assert.Equal(t, "D", got.Errors[3].Column)
	assert.Equal(t, RowError{Row: 6, Message: "missing product code"}, got.Errors[4])
}

func TestImportNilResolverAcceptsAll(t *testing.T) {
	got, err := Import(Grid{{"Code", "2024-01-01"}, {"ANY", "1"}}, nil)
	require.NoError(t, err)
	assert.Len(t, got.Records, 1)
}

func TestImportRejectsBadHeader(t *testing.T) {
	tests := map[string]Grid{
		"empty":          {},
		"no dates":       {{"Code"}},
		"not a date":     {{"Code", "2024-01-01", "January"}, {"P1", "1", "2"}},
		"interior blank": {{"Code", "2024-01-01", "", "2024-01-03"}},
		"repeated date":  {{"Code", "2024-01-01", "2024/01/01"}},
		"number":         {{"Code", "2024-06-01", "12"}, {"P1", "5", "7"}},
		"serial number":  {{"Code", "45292"}, {"P1", "5"}},
		"blank label":    {{"", "2024-06-01"}, {"P1", "5"}},
	}
	for name, grid := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Import(grid, nil)
			assert.ErrorIs(t, err, ErrInvalidHeader)
		})
	}
}

func TestReadXLSXSerialDateHeader(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Code", 45292, 12}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"P1", 5, 7}))
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	grid, err := ReadXLSX(&buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"Code", "2024-01-01", "12"}, grid[0])

	_, err = Import(grid, nil)
	assert.ErrorIs(t, err, ErrInvalidHeader)
}

func TestReadCSVNumericHeaderRejected(t *testing.T) {
	grid, err := ReadCSV(strings.NewReader("Product Code,2024-06-01,12\nP1,5,7\n"))
	require.NoError(t, err)

	_, err = Import(grid, nil)
	assert.ErrorIs(t, err, ErrInvalidHeader)
}

func TestExportFilename(t *testing.T) {
	now := time.Date(2024, time.March, 7, 9, 5, 3, 0, time.UTC)
	assert.Equal(t, "sales_20240307_090503.xlsx", ExportFilename("sales", now, ".xlsx"))
	assert.Equal(t, "arrivals_20240307_090503.csv", ExportFilename("arrivals", now, "csv"))
}

func TestXLSXRoundTrip(t *testing.T) {
	records := []Record{
		{ProductCode: "P1", Date: d1, Quantity: 12},
		{ProductCode: "P2", Date: d2, Quantity: 0.25},
	}
	grid := Export(records, DefaultRowLabel)

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, "sales", grid))

	back, err := ReadGrid("sales.xlsx", &buf)
	require.NoError(t, err)

	got, err := Import(back, nil)
	require.NoError(t, err)
	assert.Empty(t, got.Errors)
	assert.ElementsMatch(t, records, got.Records)
}

func TestCSVRoundTrip(t *testing.T) {
	grid := Export([]Record{{ProductCode: "P1", Date: d1, Quantity: 3}}, DefaultRowLabel)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, grid))

	back, err := ReadGrid("sales.csv", bytes.NewReader(append([]byte("\ufeff"), buf.Bytes()...)))
	require.NoError(t, err)
	assert.Equal(t, grid, back)
}

func TestReadGridRejectsUnknownExtension(t *testing.T) {
	_, err := ReadGrid("sales.pdf", bytes.NewReader(nil))
	assert.Error(t, err)
}

func TestRecommendationGrid(t *testing.T) {
	grid := RecommendationGrid([]domain.OrderCalculationResult{
		{ProductCode: "P1", ProductName: "One", Unit: "pcs", CurrentStock: 200, MedianDailySales: 120,
			ReferenceDays: 5, EstimatedSales: 600, OrderQuantity: 400, Specification: 24},
		{ProductCode: "P2", ProductName: "Two", OrderQuantity: 0, Message: domain.MessageNoReplenishment},
	})

	require.Len(t, grid, 3)
	assert.Equal(t, "Cases", grid[0][10])
	assert.Equal(t, "400", grid[1][8])
	assert.Equal(t, "24", grid[1][9])
	assert.Equal(t, "16.67", grid[1][10])
	assert.Equal(t, "", grid[2][10])
	assert.Equal(t, domain.MessageNoReplenishment, grid[2][11])
}

func TestTemplate(t *testing.T) {
	grid := Template([]string{"P1", "P2"}, domain.NewDate(2024, time.June, 29), 3, "")

	assert.Equal(t, Grid{
		{DefaultRowLabel, "2024-06-29", "2024-06-30", "2024-07-01"},
		{"P1", "", "", ""},
		{"P2", "", "", ""},
	}, grid)

	got, err := Import(grid, NewCodeSet("P1", "P2"))
	require.NoError(t, err)
	assert.Empty(t, got.Records)
	assert.Empty(t, got.Errors)
}

func TestImportStock(t *testing.T) {
	grid := Grid{
		{"Code", "current stock"},
		{"P1", "10"},
		{"GHOST", "5"},
		{"P2", "abc"},
		{"", ""},
		{"P3", "-1"},
		{"P1", "12.5"},
	}

	got, err := ImportStock(grid, NewCodeSet("P1", "P2", "P3"))
	require.NoError(t, err)
	assert.Equal(t, []StockLevel{{ProductCode: "P1", Quantity: 12.5}}, got.Levels)
	require.Len(t, got.Errors, 3)
	assert.Equal(t, RowError{Row: 3, Code: "GHOST", Message: "unknown product code"}, got.Errors[0])
	assert.Equal(t, 4, got.Errors[1].Row)
	assert.Contains(t, got.Errors[2].Message, "negative")
}

func TestImportStockRejectsBadHeader(t *testing.T) {
	tests := map[string]Grid{
		"empty":         {},
		"blank label":   {{"", StockColumn}},
		"wrong column":  {{"Code", "2024-06-01"}, {"P1", "5"}},
		"missing stock": {{"Code"}},
	}
	for name, grid := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ImportStock(grid, nil)
			assert.ErrorIs(t, err, ErrInvalidHeader)
		})
	}
}
