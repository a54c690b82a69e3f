package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/andresuchdata/restock/internal/api/handlers"
	"github.com/andresuchdata/restock/internal/api/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Services struct {
	Replenishment handlers.ReplenishmentService
	Arrival       handlers.ArrivalService
	Matrix        handlers.MatrixService
	DB            Pinger
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	if services == nil {
		services = &Services{}
	}
	router.GET("/health", healthHandler(services.DB))

	apiGroup := router.Group("/api/v1")

	if services.Replenishment != nil {
		h := handlers.NewReplenishmentHandler(services.Replenishment, services.Matrix)
		group := apiGroup.Group("/replenishment")
		{
			group.POST("/calculate", h.Calculate)
			group.POST("/commit", h.Commit)
			if services.Matrix != nil {
				group.POST("/export", h.Export)
			}
		}
	}

	arrivalGroup := apiGroup.Group("/arrivals")
	if services.Arrival != nil {
		h := handlers.NewArrivalHandler(services.Arrival)
		arrivalGroup.GET("", h.List)
		arrivalGroup.GET("/check", h.Check)
		arrivalGroup.GET("/:id", h.Get)
		arrivalGroup.PUT("/:id", h.Update)
		arrivalGroup.DELETE("/:id", h.Delete)
		arrivalGroup.POST("/batch-delete", h.BatchDelete)
	}

	if services.Matrix != nil {
		h := handlers.NewMatrixHandler(services.Matrix)
		salesGroup := apiGroup.Group("/sales")
		{
			salesGroup.GET("/export", h.ExportSales)
			salesGroup.GET("/template", h.SalesTemplate)
			salesGroup.POST("/import", h.ImportSales)
		}
		apiGroup.POST("/products/stock/import", h.ImportStock)
		arrivalGroup.GET("/export", h.ExportArrivals)
		arrivalGroup.POST("/import", h.ImportArrivals)
	}

	return router
}

func healthHandler(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "database unreachable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
