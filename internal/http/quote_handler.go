package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"premium-estimator/internal/domain"
	"premium-estimator/internal/features"
	"premium-estimator/internal/model"
	"premium-estimator/internal/service"
)

// QuoteHandler mantiene dependencias para los endpoints de cotizacion.
type QuoteHandler struct {
	logger *zap.Logger
	quotes *service.QuoteService
}

func NewQuoteHandler(logger *zap.Logger, quotes *service.QuoteService) *QuoteHandler {
	return &QuoteHandler{
		logger: logger,
		quotes: quotes,
	}
}

type columnView struct {
	Name  string            `json:"name"`
	Type  domain.ColumnType `json:"type"`
	Value any               `json:"value"`
}

// CreateQuote maneja POST /v1/quotes.
func (h *QuoteHandler) CreateQuote(c *gin.Context) {
	raw, ok := h.bindAttributes(c)
	if !ok {
		return
	}

	quote, err := h.quotes.Estimate(c.Request.Context(), c.ClientIP(), raw)
	if err != nil {
		h.writeError(c, err, "could not estimate premium")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"quote": quote})
}

// DeriveFeatures maneja POST /v1/features.
func (h *QuoteHandler) DeriveFeatures(c *gin.Context) {
	raw, ok := h.bindAttributes(c)
	if !ok {
		return
	}

	derived, record, err := h.quotes.Derive(c.Request.Context(), raw)
	if err != nil {
		h.writeError(c, err, "could not derive features")
		return
	}

	columns := make([]columnView, len(record))
	for i, f := range record {
		columns[i] = columnView{Name: f.Name, Type: f.Type, Value: f.Value()}
	}
	c.JSON(http.StatusOK, gin.H{
		"features": derived,
		"columns":  columns,
		"digest":   record.Digest(),
	})
}

// GetQuote maneja GET /v1/quotes/:id.
func (h *QuoteHandler) GetQuote(c *gin.Context) {
	quote, err := h.quotes.GetQuote(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrQuoteNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "quote not found"})
		case errors.Is(err, service.ErrAuditDisabled):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "quote audit log not configured"})
		default:
			h.logger.Error("get quote failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load quote"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"quote": quote})
}

// ListQuotes maneja GET /v1/quotes.
func (h *QuoteHandler) ListQuotes(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	quotes, err := h.quotes.RecentQuotes(c.Request.Context(), limit)
	if err != nil {
		if errors.Is(err, service.ErrAuditDisabled) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "quote audit log not configured"})
			return
		}
		h.logger.Error("list quotes failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list quotes"})
		return
	}
	if quotes == nil {
		quotes = []domain.Quote{}
	}
	c.JSON(http.StatusOK, gin.H{"quotes": quotes})
}

// GetModel maneja GET /v1/model.
func (h *QuoteHandler) GetModel(c *gin.Context) {
	a := h.quotes.Artifact()
	c.JSON(http.StatusOK, gin.H{
		"name":       a.Name,
		"version":    a.Version,
		"trained_at": a.TrainedAt,
		"estimator":  a.Estimator.Kind,
		"schema":     a.Schema,
	})
}

// GetProfile maneja GET /v1/profile. Expone lo necesario para armar el formulario.
func (h *QuoteHandler) GetProfile(c *gin.Context) {
	p := h.quotes.Profile()
	c.JSON(http.StatusOK, gin.H{
		"name":             p.Name,
		"model_version":    p.ModelVersion,
		"location":         p.Location,
		"bounds":           p.Bounds,
		"vocabularies":     p.Vocabularies,
		"exercise_options": p.ExerciseOptions(),
		"feedback_policy":  p.Feedback.Policy,
	})
}

func (h *QuoteHandler) bindAttributes(c *gin.Context) (domain.RawAttributes, bool) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid quote request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return domain.RawAttributes{}, false
	}
	raw, err := req.toAttributes()
	if err != nil {
		h.writeError(c, err, "invalid request")
		return domain.RawAttributes{}, false
	}
	return raw, true
}

func (h *QuoteHandler) writeError(c *gin.Context, err error, fallback string) {
	var vErr *features.ValidationError
	var uErr *features.UnmappedCategoryError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": vErr.Error(),
			"kind":  "validation",
			"field": vErr.Field,
			"value": vErr.Value,
		})
	case errors.As(err, &uErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": uErr.Error(),
			"kind":  "unmapped_category",
			"field": uErr.Field,
			"value": uErr.Value,
		})
	case errors.Is(err, service.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
	case errors.Is(err, model.ErrSchemaMismatch):
		h.logger.Error("feature record does not match model schema", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "model schema mismatch"})
	default:
		h.logger.Error(fallback, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
