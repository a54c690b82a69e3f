package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/andresuchdata/restock/internal/domain"
	"github.com/andresuchdata/restock/internal/matrix"
	"github.com/andresuchdata/restock/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type MatrixService interface {
	ImportSales(ctx context.Context, grid matrix.Grid) (*service.ImportSummary, error)
	ImportArrivals(ctx context.Context, grid matrix.Grid) (*service.ImportSummary, error)
	ImportStock(ctx context.Context, grid matrix.Grid) (*service.ImportSummary, error)
	SalesTemplate(ctx context.Context, start domain.Date, days int, format string) (*service.ExportFile, error)
	ExportSales(ctx context.Context, filter domain.SalesFilter, format string) (*service.ExportFile, error)
	ExportArrivals(ctx context.Context, filter domain.ArrivalFilter, format string) (*service.ExportFile, error)
	ExportRecommendations(ctx context.Context, results []domain.OrderCalculationResult, format string) (*service.ExportFile, error)
}

var _ MatrixService = (*service.MatrixService)(nil)

type MatrixHandler struct {
	service MatrixService
}

func NewMatrixHandler(service MatrixService) *MatrixHandler {
	return &MatrixHandler{service: service}
}

func (h *MatrixHandler) ImportSales(c *gin.Context) {
	h.importFile(c, h.service.ImportSales)
}

func (h *MatrixHandler) ImportArrivals(c *gin.Context) {
	h.importFile(c, h.service.ImportArrivals)
}

func (h *MatrixHandler) ImportStock(c *gin.Context) {
	h.importFile(c, h.service.ImportStock)
}

func (h *MatrixHandler) importFile(c *gin.Context, run func(context.Context, matrix.Grid) (*service.ImportSummary, error)) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided"})
		return
	}

	f, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to open uploaded file"})
		return
	}
	defer f.Close()

	grid, err := matrix.ReadGrid(header.Filename, f)
	if err != nil {
		log.Warn().Err(err).Str("filename", header.Filename).Msg("rejected matrix upload")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summary, err := run(c.Request.Context(), grid)
	if err != nil {
		respondError(c, err, "failed to import file")
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *MatrixHandler) ExportSales(c *gin.Context) {
	filter, err := parseSalesFilter(c)
	if err != nil {
		respondError(c, err, "invalid filter")
		return
	}

	file, err := h.service.ExportSales(c.Request.Context(), filter, c.DefaultQuery("format", matrix.FormatXLSX))
	if err != nil {
		respondError(c, err, "failed to export sales")
		return
	}
	sendFile(c, file)
}

func (h *MatrixHandler) ExportArrivals(c *gin.Context) {
	filter, err := parseArrivalFilter(c)
	if err != nil {
		respondError(c, err, "invalid filter")
		return
	}

	file, err := h.service.ExportArrivals(c.Request.Context(), filter, c.DefaultQuery("format", matrix.FormatXLSX))
	if err != nil {
		respondError(c, err, "failed to export arrivals")
		return
	}
	sendFile(c, file)
}

func (h *MatrixHandler) SalesTemplate(c *gin.Context) {
	start, err := queryDate(c, "from")
	if err != nil {
		respondError(c, err, "invalid start date")
		return
	}
	days := 0
	if raw := c.Query("days"); raw != "" {
		if days, err = strconv.Atoi(raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid days"})
			return
		}
	}

	file, err := h.service.SalesTemplate(c.Request.Context(), start, days, c.DefaultQuery("format", matrix.FormatXLSX))
	if err != nil {
		respondError(c, err, "failed to build sales template")
		return
	}
	sendFile(c, file)
}
