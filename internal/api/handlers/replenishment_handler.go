package handlers

import (
	"context"
	"net/http"

	"github.com/andresuchdata/restock/internal/domain"
	"github.com/andresuchdata/restock/internal/matrix"
	"github.com/andresuchdata/restock/internal/service"
	"github.com/gin-gonic/gin"
)

type ReplenishmentService interface {
	Calculate(ctx context.Context, req domain.CalculateOrdersRequest) []domain.OrderCalculationResult
	CommitArrival(ctx context.Context, req domain.CommitArrivalRequest) (*domain.ArrivalRecord, bool, error)
}

var _ ReplenishmentService = (*service.ReplenishmentService)(nil)

type ReplenishmentHandler struct {
	service ReplenishmentService
	matrix  MatrixService
}

func NewReplenishmentHandler(service ReplenishmentService, matrixService MatrixService) *ReplenishmentHandler {
	return &ReplenishmentHandler{service: service, matrix: matrixService}
}

// Calculate returns one recommendation per requested item, in request order.
func (h *ReplenishmentHandler) Calculate(c *gin.Context) {
	var req domain.CalculateOrdersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	if len(req.Items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "items must not be empty"})
		return
	}

	c.JSON(http.StatusOK, h.service.Calculate(c.Request.Context(), req))
}

// Commit records a recommendation as a pending arrival. Repeating the same
// (product, order date) corrects the existing record.
func (h *ReplenishmentHandler) Commit(c *gin.Context) {
	var req domain.CommitArrivalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	rec, created, err := h.service.CommitArrival(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "failed to commit arrival")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, rec)
}

// Export calculates the batch and returns it as a recommendation sheet.
func (h *ReplenishmentHandler) Export(c *gin.Context) {
	var req domain.CalculateOrdersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	results := h.service.Calculate(c.Request.Context(), req)
	file, err := h.matrix.ExportRecommendations(c.Request.Context(), results, c.DefaultQuery("format", matrix.FormatXLSX))
	if err != nil {
		respondError(c, err, "failed to export recommendations")
		return
	}
	sendFile(c, file)
}
