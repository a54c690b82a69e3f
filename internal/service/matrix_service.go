package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/andresuchdata/restock/internal/domain"
	"github.com/andresuchdata/restock/internal/matrix"
	"github.com/andresuchdata/restock/internal/repository"
	"github.com/andresuchdata/restock/internal/storage"
	"github.com/rs/zerolog/log"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeCSV  = "text/csv"

	exportArchivePrefix = "exports/"

	DefaultTemplateDays = 7
	maxTemplateDays     = 366
)

var ErrUnsupportedFormat = errors.New("unsupported export format")

// ImportSummary reports how many cells were written and which rows were skipped.
type ImportSummary struct {
	Imported int               `json:"imported"`
	Errors   []matrix.RowError `json:"errors"`
}

// ExportFile is a rendered spreadsheet ready to be sent or stored.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

type MatrixService struct {
	products repository.ProductRepository
	sales    repository.SalesRepository
	arrivals repository.ArrivalRepository
	storage  storage.ObjectStorage
	now      func() time.Time
}

func NewMatrixService(
	products repository.ProductRepository,
	sales repository.SalesRepository,
	arrivals repository.ArrivalRepository,
	objectStorage storage.ObjectStorage,
) *MatrixService {
	if objectStorage == nil {
		objectStorage = storage.NewNoopStorage()
	}
	return &MatrixService{
		products: products,
		sales:    sales,
		arrivals: arrivals,
		storage:  objectStorage,
		now:      time.Now,
	}
}

// ImportSales writes every populated cell as the sales quantity of that
// product and day, replacing what was stored before.
func (s *MatrixService) ImportSales(ctx context.Context, grid matrix.Grid) (*ImportSummary, error) {
	byCode, result, err := s.importGrid(ctx, grid)
	if err != nil {
		return nil, err
	}

	obs := make([]domain.SalesObservation, 0, len(result.Records))
	for _, rec := range result.Records {
		obs = append(obs, domain.SalesObservation{
			ProductID: byCode[rec.ProductCode].ID,
			Date:      rec.Date,
			Quantity:  rec.Quantity,
		})
	}

	written, err := s.sales.Upsert(ctx, obs)
	if err != nil {
		return nil, fmt.Errorf("import sales: %w", err)
	}

	log.Info().Int("imported", written).Int("row_errors", len(result.Errors)).Msg("sales matrix imported")
	return &ImportSummary{Imported: written, Errors: result.Errors}, nil
}

// ImportArrivals reads header dates as expected dates. Each cell is added to
// the pending arrival ordered lead-time days earlier, where the lead time
// comes from the product's T+n marker. Zero cells order nothing and are skipped.
func (s *MatrixService) ImportArrivals(ctx context.Context, grid matrix.Grid) (*ImportSummary, error) {
	byCode, result, err := s.importGrid(ctx, grid)
	if err != nil {
		return nil, err
	}

	recs := make([]domain.ArrivalRecord, 0, len(result.Records))
	for _, rec := range result.Records {
		if rec.Quantity == 0 {
			continue
		}
		product := byCode[rec.ProductCode]
		leadTime, _ := product.LeadTimeDays()
		recs = append(recs, domain.ArrivalRecord{
			ProductID:    product.ID,
			ProductCode:  product.Code,
			ProductName:  product.Name,
			Quantity:     rec.Quantity,
			OrderDate:    rec.Date.AddDays(-leadTime),
			ExpectedDate: rec.Date,
			Status:       domain.ArrivalPending,
		})
	}

	written, err := s.arrivals.AccumulatePending(ctx, recs)
	if err != nil {
		return nil, fmt.Errorf("import arrivals: %w", err)
	}

	log.Info().Int("imported", written).Int("row_errors", len(result.Errors)).Msg("arrival matrix imported")
	return &ImportSummary{Imported: written, Errors: result.Errors}, nil
}

// ImportStock sets each listed product's current stock from a two-column
// sheet. Unknown codes and bad values are reported per row.
func (s *MatrixService) ImportStock(ctx context.Context, grid matrix.Grid) (*ImportSummary, error) {
	byCode, known, err := s.resolveCodes(ctx, grid)
	if err != nil {
		return nil, err
	}

	result, err := matrix.ImportStock(grid, known)
	if err != nil {
		return nil, err
	}

	stock := make(map[int64]float64, len(result.Levels))
	for _, lvl := range result.Levels {
		stock[byCode[lvl.ProductCode].ID] = lvl.Quantity
	}

	updated, err := s.products.UpdateStock(ctx, stock)
	if err != nil {
		return nil, fmt.Errorf("import stock: %w", err)
	}

	log.Info().Int("updated", updated).Int("row_errors", len(result.Errors)).Msg("stock sheet imported")
	return &ImportSummary{Imported: updated, Errors: result.Errors}, nil
}

func (s *MatrixService) importGrid(ctx context.Context, grid matrix.Grid) (map[string]*domain.Product, matrix.ImportResult, error) {
	byCode, known, err := s.resolveCodes(ctx, grid)
	if err != nil {
		return nil, matrix.ImportResult{}, err
	}

	result, err := matrix.Import(grid, known)
	if err != nil {
		return nil, matrix.ImportResult{}, err
	}
	return byCode, result, nil
}

// resolveCodes looks up the products named in the first column below the header.
func (s *MatrixService) resolveCodes(ctx context.Context, grid matrix.Grid) (map[string]*domain.Product, matrix.CodeSet, error) {
	codes := make([]string, 0, len(grid))
	for i := 1; i < len(grid); i++ {
		if len(grid[i]) > 0 {
			if code := strings.TrimSpace(grid[i][0]); code != "" {
				codes = append(codes, code)
			}
		}
	}

	byCode, err := s.products.GetByCodes(ctx, codes)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve product codes: %w", err)
	}

	known := make(matrix.CodeSet, len(byCode))
	for code := range byCode {
		known[code] = struct{}{}
	}
	return byCode, known, nil
}

func (s *MatrixService) ExportSales(ctx context.Context, filter domain.SalesFilter, format string) (*ExportFile, error) {
	rows, err := s.sales.ListRecords(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("export sales: %w", err)
	}

	records := make([]matrix.Record, 0, len(rows))
	for _, r := range rows {
		records = append(records, matrix.Record{ProductCode: r.ProductCode, Date: r.Date, Quantity: r.Quantity})
	}

	return s.export(ctx, "sales", matrix.Export(records, matrix.DefaultRowLabel), format)
}

// ExportArrivals pivots arrivals by expected date, matching the layout
// ImportArrivals reads.
func (s *MatrixService) ExportArrivals(ctx context.Context, filter domain.ArrivalFilter, format string) (*ExportFile, error) {
	recs, err := s.arrivals.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("export arrivals: %w", err)
	}

	records := make([]matrix.Record, 0, len(recs))
	for _, r := range recs {
		records = append(records, matrix.Record{ProductCode: r.ProductCode, Date: r.ExpectedDate, Quantity: r.Quantity})
	}

	return s.export(ctx, "arrivals", matrix.Export(records, matrix.DefaultRowLabel), format)
}

func (s *MatrixService) ExportRecommendations(ctx context.Context, results []domain.OrderCalculationResult, format string) (*ExportFile, error) {
	return s.export(ctx, "replenishment", matrix.RecommendationGrid(results), format)
}

// SalesTemplate is a blank sales sheet listing every product over days days
// from start (today when zero). Templates are not archived.
func (s *MatrixService) SalesTemplate(ctx context.Context, start domain.Date, days int, format string) (*ExportFile, error) {
	if days == 0 {
		days = DefaultTemplateDays
	}
	if days < 0 || days > maxTemplateDays {
		return nil, fmt.Errorf("%w: template days %d, expected 1 to %d", domain.ErrInvalidQuantity, days, maxTemplateDays)
	}
	if start.IsZero() {
		start = domain.DateOf(s.now())
	}

	products, err := s.products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("sales template: %w", err)
	}
	codes := make([]string, 0, len(products))
	for _, p := range products {
		codes = append(codes, p.Code)
	}

	return s.render("sales_template", matrix.Template(codes, start, days, matrix.DefaultRowLabel), format)
}

// export renders the grid and archives a copy when object storage is on.
func (s *MatrixService) export(ctx context.Context, name string, grid matrix.Grid, format string) (*ExportFile, error) {
	file, err := s.render(name, grid, format)
	if err != nil {
		return nil, err
	}

	if s.storage.Enabled() {
		key := exportArchivePrefix + file.Filename
		if err := s.storage.UploadObject(ctx, key, file.Data, file.ContentType); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("failed to archive export")
		}
	}
	return file, nil
}

func (s *MatrixService) render(name string, grid matrix.Grid, format string) (*ExportFile, error) {
	if format == "" {
		format = matrix.FormatXLSX
	}

	var (
		buf         bytes.Buffer
		contentType string
	)
	switch format {
	case matrix.FormatXLSX:
		if err := matrix.WriteXLSX(&buf, name, grid); err != nil {
			return nil, err
		}
		contentType = contentTypeXLSX
	case matrix.FormatCSV:
		if err := matrix.WriteCSV(&buf, grid); err != nil {
			return nil, err
		}
		contentType = contentTypeCSV
	default:
		return nil, fmt.Errorf("%w %q", ErrUnsupportedFormat, format)
	}

	return &ExportFile{
		Filename:    matrix.ExportFilename(name, s.now(), format),
		ContentType: contentType,
		Data:        buf.Bytes(),
	}, nil
}
