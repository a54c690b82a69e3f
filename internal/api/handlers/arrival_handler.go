package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/andresuchdata/restock/internal/domain"
	"github.com/andresuchdata/restock/internal/service"
	"github.com/gin-gonic/gin"
)

type ArrivalService interface {
	List(ctx context.Context, filter domain.ArrivalFilter) ([]domain.ArrivalRecord, error)
	Get(ctx context.Context, id int64) (*domain.ArrivalRecord, error)
	FindPending(ctx context.Context, productID int64, orderDate domain.Date) (*domain.ArrivalRecord, bool, error)
	Update(ctx context.Context, id int64, upd domain.ArrivalUpdate) (*domain.ArrivalRecord, error)
	Delete(ctx context.Context, id int64) error
	DeleteMany(ctx context.Context, ids []int64) (int64, error)
}

var _ ArrivalService = (*service.ArrivalService)(nil)

type ArrivalHandler struct {
	service ArrivalService
}

func NewArrivalHandler(service ArrivalService) *ArrivalHandler {
	return &ArrivalHandler{service: service}
}

func (h *ArrivalHandler) List(c *gin.Context) {
	filter, err := parseArrivalFilter(c)
	if err != nil {
		respondError(c, err, "invalid filter")
		return
	}

	recs, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "failed to fetch arrivals")
		return
	}
	c.JSON(http.StatusOK, recs)
}

func (h *ArrivalHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	rec, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "failed to fetch arrival")
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Check tells a client whether committing (product_id, order_date) would
// update an existing pending arrival or create a new one.
func (h *ArrivalHandler) Check(c *gin.Context) {
	ids, err := queryIDs(c, "product_id")
	if err == nil && len(ids) != 1 {
		err = fmt.Errorf("%w: exactly one product_id is required", domain.ErrMissingProduct)
	}
	if err != nil {
		respondError(c, err, "invalid product")
		return
	}
	orderDate, err := queryDate(c, "order_date")
	if err != nil {
		respondError(c, err, "invalid order date")
		return
	}

	rec, found, err := h.service.FindPending(c.Request.Context(), ids[0], orderDate)
	if err != nil {
		respondError(c, err, "failed to check arrival")
		return
	}
	c.JSON(http.StatusOK, gin.H{"exists": found, "arrival": rec})
}

func (h *ArrivalHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var upd domain.ArrivalUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	rec, err := h.service.Update(c.Request.Context(), id, upd)
	if err != nil {
		respondError(c, err, "failed to update arrival")
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *ArrivalHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err, "failed to delete arrival")
		return
	}
	c.Status(http.StatusNoContent)
}

type batchDeleteRequest struct {
	IDs []int64 `json:"ids" binding:"required"`
}

func (h *ArrivalHandler) BatchDelete(c *gin.Context) {
	var req batchDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	deleted, err := h.service.DeleteMany(c.Request.Context(), req.IDs)
	if err != nil {
		respondError(c, err, "failed to delete arrivals")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}
