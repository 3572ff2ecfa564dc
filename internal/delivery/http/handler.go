package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/AxelPerrin/TP-ADMINISTRATION-BDD/internal/domain"
	"github.com/AxelPerrin/TP-ADMINISTRATION-BDD/internal/pkg/logger"
)

const (
	serviceName    = "foodfacts-api"
	serviceVersion = "1.0.0"
)

// CatalogService is the read side used by the API
type CatalogService interface {
	ListItems(ctx context.Context, filter domain.ItemFilter) (*domain.ItemPage, error)
	GetItem(ctx context.Context, id int64) (*domain.ItemDetail, error)
	Stats(ctx context.Context) (*domain.CatalogStats, error)
}

// HealthChecker reports whether the database answers
type HealthChecker interface {
	Check(ctx context.Context) error
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	catalog CatalogService
	health  HealthChecker
	log     *logger.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(catalog CatalogService, health HealthChecker, baseLog *logger.Logger) *Handler {
	return &Handler{
		catalog: catalog,
		health:  health,
		log:     baseLog.With("component", "Handler"),
	}
}

// listItemsQuery binds the query string of GET /api/v1/items
type listItemsQuery struct {
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Category   string `form:"category"`
	Brand      string `form:"brand"`
	Nutriscore string `form:"nutriscore" binding:"omitempty,oneof=a b c d e A B C D E"`
	MinQuality *int   `form:"min_quality" binding:"omitempty,min=0,max=100"`
}

// HealthCheck returns the health status of the API and its database
func (h *Handler) HealthCheck(c *gin.Context) {
	body := gin.H{
		"status":   "healthy",
		"service":  serviceName,
		"version":  serviceVersion,
		"database": "ok",
	}

	if h.health != nil {
		if err := h.health.Check(c.Request.Context()); err != nil {
			h.log.Warn("Health check failed", "error", err)
			body["status"] = "degraded"
			body["database"] = err.Error()
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
	}

	c.JSON(http.StatusOK, body)
}

// ListItems returns one page of products, best quality score first
func (h *Handler) ListItems(c *gin.Context) {
	if h.catalog == nil {
		h.notConfigured(c)
		return
	}

	var query listItemsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}

	page, err := h.catalog.ListItems(c.Request.Context(), domain.ItemFilter{
		Page:       query.Page,
		PageSize:   query.PageSize,
		Category:   query.Category,
		Brand:      query.Brand,
		Nutriscore: query.Nutriscore,
		MinQuality: query.MinQuality,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// GetItem returns one product with its nutrition facts
func (h *Handler) GetItem(c *gin.Context) {
	if h.catalog == nil {
		h.notConfigured(c)
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "item id must be a positive integer"})
		return
	}

	item, err := h.catalog.GetItem(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

// Stats returns catalog aggregates
func (h *Handler) Stats(c *gin.Context) {
	if h.catalog == nil {
		h.notConfigured(c)
		return
	}

	stats, err := h.catalog.Stats(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) notConfigured(c *gin.Context) {
	c.JSON(http.StatusNotImplemented, gin.H{"error": "catalog service not configured"})
}

// writeError maps domain errors to HTTP statuses
func (h *Handler) writeError(c *gin.Context, err error) {
	_ = c.Error(err)

	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "request timed out"})
	default:
		h.log.Error("Catalog request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
