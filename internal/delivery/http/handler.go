package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/pricelens/backend/internal/domain"
	"github.com/pricelens/backend/internal/infrastructure/sink"
	"github.com/pricelens/backend/internal/usecase"
)

const serviceVersion = "1.0.0"

// Comparer runs a comparison over an API request
type Comparer interface {
	Compare(ctx context.Context, request *domain.ComparisonRequest) (*domain.Report, error)
}

// HistoryReader looks up the recorded best prices of a product code
type HistoryReader interface {
	PriceHistory(ctx context.Context, category, code string) ([]sink.PricePoint, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	comparisons Comparer
	history     HistoryReader
	logger      zerolog.Logger
}

// NewHandler creates a new HTTP handler. Either dependency may be nil, in
// which case its endpoints answer 501.
func NewHandler(comparisons Comparer, history HistoryReader, logger zerolog.Logger) *Handler {
	return &Handler{
		comparisons: comparisons,
		history:     history,
		logger:      logger,
	}
}

// ComparisonResponse is a report plus its human-readable summary
type ComparisonResponse struct {
	*domain.Report
	Summary []string `json:"summary"`
}

// HistoryResponse lists the recorded prices of one normalized code
type HistoryResponse struct {
	Category string            `json:"category"`
	Code     string            `json:"code"`
	Points   []sink.PricePoint `json:"points"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "pricelens-backend",
		"version": serviceVersion,
	})
}

// CreateComparison handles ad-hoc comparison requests
func (h *Handler) CreateComparison(c *gin.Context) {
	if h.comparisons == nil {
		c.JSON(http.StatusNotImplemented, gin.H{
			"error": "Comparison service not configured",
		})
		return
	}

	var req domain.ComparisonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": "Request body too large",
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	report, err := h.comparisons.Compare(c.Request.Context(), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, ComparisonResponse{
		Report:  report,
		Summary: usecase.FormatSummary(report),
	})
}

// GetPriceHistory returns the best-price history of a product code
func (h *Handler) GetPriceHistory(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotImplemented, gin.H{
			"error": "Price history not configured",
		})
		return
	}

	category := strings.TrimSpace(c.Param("category"))
	code := strings.TrimSpace(c.Param("code"))
	if category == "" || code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "category and code are required"})
		return
	}

	points, err := h.history.PriceHistory(c.Request.Context(), category, code)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if len(points) == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "No price history for this product",
		})
		return
	}

	c.JSON(http.StatusOK, HistoryResponse{
		Category: category,
		Code:     strings.ToLower(code),
		Points:   points,
	})
}

// handleError maps domain errors to HTTP status codes
func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Request cancelled",
		})
	default:
		h.logger.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
	}
}
