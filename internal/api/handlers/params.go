package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/andresuchdata/restock/internal/domain"
	"github.com/andresuchdata/restock/internal/matrix"
	"github.com/andresuchdata/restock/internal/repository"
	"github.com/andresuchdata/restock/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// respondError maps err to a status code. Server-side failures are logged
// and answered with fallback so internals do not leak to the client.
func respondError(c *gin.Context, err error, fallback string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg(fallback)
		c.JSON(status, gin.H{"error": fallback})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case domain.IsValidation(err),
		errors.Is(err, matrix.ErrInvalidHeader),
		errors.Is(err, matrix.ErrUnsupportedFile),
		errors.Is(err, service.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrCommitConflict), errors.Is(err, repository.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// queryList supports both ?k=a&k=b and ?k=a,b.
func queryList(c *gin.Context, key string) []string {
	var out []string
	for _, v := range c.QueryArray(key) {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func queryIDs(c *gin.Context, key string) ([]int64, error) {
	raw := queryList(c, key)
	ids := make([]int64, 0, len(raw))
	for _, v := range raw {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("%w: invalid %s %q", domain.ErrMissingProduct, key, v)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func queryDate(c *gin.Context, key string) (domain.Date, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return domain.Date{}, nil
	}
	d, err := domain.ParseDate(raw)
	if err != nil {
		return domain.Date{}, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func parseSalesFilter(c *gin.Context) (domain.SalesFilter, error) {
	var (
		filter domain.SalesFilter
		err    error
	)
	if filter.ProductIDs, err = queryIDs(c, "product_id"); err != nil {
		return filter, err
	}
	if filter.From, err = queryDate(c, "from"); err != nil {
		return filter, err
	}
	if filter.To, err = queryDate(c, "to"); err != nil {
		return filter, err
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.To.Before(filter.From) {
		return filter, fmt.Errorf("%w: to is before from", domain.ErrInvalidDate)
	}
	return filter, nil
}

func parseArrivalFilter(c *gin.Context) (domain.ArrivalFilter, error) {
	var (
		filter domain.ArrivalFilter
		err    error
	)
	if filter.ProductIDs, err = queryIDs(c, "product_id"); err != nil {
		return filter, err
	}
	filter.ProductCode = strings.TrimSpace(c.Query("product_code"))
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		if filter.Status, err = domain.ParseArrivalStatus(raw); err != nil {
			return filter, err
		}
	}
	for key, dst := range map[string]*domain.Date{
		"order_from":    &filter.OrderFrom,
		"order_to":      &filter.OrderTo,
		"expected_from": &filter.ExpectedFrom,
		"expected_to":   &filter.ExpectedTo,
	} {
		if *dst, err = queryDate(c, key); err != nil {
			return filter, err
		}
	}
	return filter, nil
}

func sendFile(c *gin.Context, file *service.ExportFile) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
