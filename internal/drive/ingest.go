package drive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/andresuchdata/restock/internal/matrix"
	"github.com/andresuchdata/restock/internal/service"
	"github.com/rs/zerolog/log"
)

var (
	ErrFolderNotFound = errors.New("drive folder not found")
	ErrUnknownKind    = errors.New("unknown matrix kind, expected sales or arrivals")
)

// Kind selects which matrix import a Drive file is fed to.
type Kind string

const (
	KindSales    Kind = "sales"
	KindArrivals Kind = "arrivals"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindSales, KindArrivals:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Source is the subset of the Drive client ingestion needs.
type Source interface {
	ListFiles(ctx context.Context, folderID string) ([]*File, error)
	GetFile(ctx context.Context, fileID string) (*File, error)
	DownloadFile(ctx context.Context, file *File, w io.Writer) error
}

// Importer runs the matrix imports.
type Importer interface {
	ImportSales(ctx context.Context, grid matrix.Grid) (*service.ImportSummary, error)
	ImportArrivals(ctx context.Context, grid matrix.Grid) (*service.ImportSummary, error)
}

type IngestService struct {
	source   Source
	importer Importer
}

func NewIngestService(source Source, importer Importer) *IngestService {
	return &IngestService{
		source:   source,
		importer: importer,
	}
}

// FileResult is the outcome of ingesting one Drive file.
type FileResult struct {
	File    *File                  `json:"file"`
	Summary *service.ImportSummary `json:"summary,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

// IngestFile downloads a single sales or arrivals matrix and imports it.
func (s *IngestService) IngestFile(ctx context.Context, kind Kind, fileID string) (*FileResult, error) {
	file, err := s.source.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	summary, err := s.ingest(ctx, kind, file)
	if err != nil {
		return nil, err
	}
	return &FileResult{File: file, Summary: summary}, nil
}

// IngestFolder imports every .csv, .xlsx or Google Sheet in the folder.
// A file that fails is reported in its result and does not stop the rest.
func (s *IngestService) IngestFolder(ctx context.Context, kind Kind, folderID string) ([]FileResult, error) {
	files, err := s.source.ListFiles(ctx, folderID)
	if err != nil {
		return nil, err
	}

	results := make([]FileResult, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		if f.IsFolder() || !isMatrixFile(f) {
			continue
		}

		summary, err := s.ingest(ctx, kind, f)
		res := FileResult{File: f, Summary: summary}
		if err != nil {
			log.Warn().Err(err).Str("file", f.Name).Str("kind", string(kind)).Msg("drive ingest failed")
			res.Error = err.Error()
		}
		results = append(results, res)
	}
	return results, nil
}

func (s *IngestService) ingest(ctx context.Context, kind Kind, file *File) (*service.ImportSummary, error) {
	name := gridName(file)
	if _, err := matrix.FormatFromFilename(name); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := s.source.DownloadFile(ctx, file, &buf); err != nil {
		return nil, err
	}

	grid, err := matrix.ReadGrid(name, &buf)
	if err != nil {
		return nil, err
	}

	var summary *service.ImportSummary
	switch kind {
	case KindSales:
		summary, err = s.importer.ImportSales(ctx, grid)
	case KindArrivals:
		summary, err = s.importer.ImportArrivals(ctx, grid)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("ingest %s: %w", file.Name, err)
	}

	log.Info().
		Str("file", file.Name).
		Str("kind", string(kind)).
		Int("imported", summary.Imported).
		Int("row_errors", len(summary.Errors)).
		Msg("drive file ingested")
	return summary, nil
}

// gridName is the name used to pick a codec; exported Sheets arrive as xlsx.
func gridName(f *File) string {
	if f.IsSheet() {
		return f.Name + ".xlsx"
	}
	return f.Name
}

func isMatrixFile(f *File) bool {
	_, err := matrix.FormatFromFilename(gridName(f))
	return err == nil
}
