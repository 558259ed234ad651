package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"premium-estimator/internal/domain"
	"premium-estimator/internal/features"
	"premium-estimator/internal/metrics"
	"premium-estimator/internal/model"
	"premium-estimator/internal/repository"
)

var (
	ErrRateLimited   = errors.New("rate limited")
	ErrQuoteNotFound = errors.New("quote not found")
	ErrAuditDisabled = errors.New("quote audit log not configured")
)

const anonymousClient = "anonymous"

// QuoteService orquesta derivacion, cache y prediccion de una cotizacion.
// Cada llamada arma sus propios atributos y features; solo el adapter, la cache
// y el limiter se comparten entre solicitudes.
type QuoteService struct {
	logger    *zap.Logger
	deriver   *features.Deriver
	predictor model.Predictor
	quotes    repository.QuoteRepository
	cache     EstimateCache
	cacheTTL  time.Duration
	limiter   QuoteRateLimiter
	now       func() time.Time
}

// NewQuoteService arma el servicio. quotes puede ser nil: en ese caso no hay registro de auditoria.
func NewQuoteService(logger *zap.Logger, deriver *features.Deriver, predictor model.Predictor, quotes repository.QuoteRepository) *QuoteService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deriver == nil {
		deriver = features.NewDeriver(nil)
	}
	return &QuoteService{
		logger:    logger,
		deriver:   deriver,
		predictor: predictor,
		quotes:    quotes,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithCache habilita la cache de estimaciones con el TTL dado.
func (s *QuoteService) WithCache(cache EstimateCache, ttl time.Duration) *QuoteService {
	s.cache = cache
	s.cacheTTL = ttl
	return s
}

func (s *QuoteService) WithRateLimiter(limiter QuoteRateLimiter) *QuoteService {
	s.limiter = limiter
	return s
}

// WithClock reemplaza el reloj usado para las features temporales.
func (s *QuoteService) WithClock(now func() time.Time) *QuoteService {
	if now != nil {
		s.now = now
	}
	return s
}

func (s *QuoteService) Profile() *features.Profile {
	return s.deriver.Profile()
}

func (s *QuoteService) Artifact() *model.Artifact {
	return s.predictor.Artifact()
}

// Derive calcula las features de raw y verifica que el registro calce con el artefacto.
func (s *QuoteService) Derive(ctx context.Context, raw domain.RawAttributes) (domain.DerivedFeatures, domain.FeatureRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.DerivedFeatures{}, nil, err
	}
	derived, err := s.deriver.Derive(raw, s.now())
	if err != nil {
		s.countDerivationError(err)
		return domain.DerivedFeatures{}, nil, err
	}
	record := derived.Record()
	if err := s.predictor.Check(record); err != nil {
		return domain.DerivedFeatures{}, nil, err
	}
	return derived, record, nil
}

// Estimate devuelve la prima estimada para raw. clientKey identifica al llamador para el rate limit.
func (s *QuoteService) Estimate(ctx context.Context, clientKey string, raw domain.RawAttributes) (domain.Quote, error) {
	clientKey, err := s.admit(clientKey)
	if err != nil {
		return domain.Quote{}, err
	}

	_, record, err := s.Derive(ctx, raw)
	if err != nil {
		metrics.QuotesTotal.WithLabelValues(outcomeOf(err)).Inc()
		return domain.Quote{}, err
	}
	return s.price(ctx, clientKey, record)
}

// EstimateRecord cotiza un registro ya obtenido con Derive, sin volver a derivarlo.
func (s *QuoteService) EstimateRecord(ctx context.Context, clientKey string, record domain.FeatureRecord) (domain.Quote, error) {
	clientKey, err := s.admit(clientKey)
	if err != nil {
		return domain.Quote{}, err
	}
	return s.price(ctx, clientKey, record)
}

func (s *QuoteService) admit(clientKey string) (string, error) {
	clientKey = strings.TrimSpace(clientKey)
	if clientKey == "" {
		clientKey = anonymousClient
	}
	if s.limiter != nil && !s.limiter.Allow(clientKey) {
		metrics.QuotesTotal.WithLabelValues(metrics.OutcomeRateLimited).Inc()
		return clientKey, ErrRateLimited
	}
	return clientKey, nil
}

func (s *QuoteService) price(ctx context.Context, clientKey string, record domain.FeatureRecord) (domain.Quote, error) {
	artifact := s.predictor.Artifact()
	digest := record.Digest()
	cacheKey := EstimateCacheKey(artifact.Version, digest)

	premium, cached := s.lookupCache(cacheKey)
	if !cached {
		var err error
		start := time.Now()
		premium, err = s.predictor.Predict(ctx, record)
		metrics.PredictionDuration.WithLabelValues(artifact.Version).Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.QuotesTotal.WithLabelValues(outcomeOf(err)).Inc()
			s.logger.Error("prediction failed", zap.String("model_version", artifact.Version), zap.Error(err))
			return domain.Quote{}, err
		}
		s.storeCache(cacheKey, premium)
	}

	quote := domain.Quote{
		ID:            uuid.NewString(),
		Premium:       premium,
		ModelName:     artifact.Name,
		ModelVersion:  artifact.Version,
		Profile:       s.deriver.Profile().Name,
		FeatureDigest: digest,
		ClientKey:     clientKey,
		Cached:        cached,
		CreatedAt:     s.now().UTC(),
	}

	if s.quotes != nil {
		if err := s.quotes.Create(ctx, quote); err != nil {
			s.logger.Warn("quote audit write failed", zap.String("quote_id", quote.ID), zap.Error(err))
		}
	}

	metrics.QuotesTotal.WithLabelValues(metrics.OutcomeOK).Inc()
	return quote, nil
}

// GetQuote busca una cotizacion en el registro de auditoria.
func (s *QuoteService) GetQuote(ctx context.Context, id string) (domain.Quote, error) {
	if s.quotes == nil {
		return domain.Quote{}, ErrAuditDisabled
	}
	id = strings.TrimSpace(id)
	if _, err := uuid.Parse(id); err != nil {
		return domain.Quote{}, ErrQuoteNotFound
	}
	q, err := s.quotes.GetByID(ctx, id)
	if errors.Is(err, repository.ErrQuoteNotFound) {
		return domain.Quote{}, ErrQuoteNotFound
	}
	return q, err
}

func (s *QuoteService) RecentQuotes(ctx context.Context, limit int) ([]domain.Quote, error) {
	if s.quotes == nil {
		return nil, ErrAuditDisabled
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.quotes.ListRecent(ctx, limit)
}

func (s *QuoteService) lookupCache(key string) (float64, bool) {
	if s.cache == nil {
		return 0, false
	}
	v, ok, err := s.cache.Get(key)
	if err != nil {
		s.logger.Warn("estimate cache read failed", zap.Error(err))
		metrics.EstimateCache.WithLabelValues("error").Inc()
		return 0, false
	}
	if !ok {
		metrics.EstimateCache.WithLabelValues("miss").Inc()
		return 0, false
	}
	metrics.EstimateCache.WithLabelValues("hit").Inc()
	return v, true
}

func (s *QuoteService) storeCache(key string, premium float64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(key, premium, s.cacheTTL); err != nil {
		s.logger.Warn("estimate cache write failed", zap.Error(err))
	}
}

func (s *QuoteService) countDerivationError(err error) {
	var vErr *features.ValidationError
	var uErr *features.UnmappedCategoryError
	switch {
	case errors.As(err, &vErr):
		metrics.DerivationErrors.WithLabelValues("validation", vErr.Field).Inc()
	case errors.As(err, &uErr):
		metrics.DerivationErrors.WithLabelValues("unmapped_category", uErr.Field).Inc()
	}
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, features.ErrValidation), errors.Is(err, features.ErrUnmappedCategory):
		return metrics.OutcomeRejected
	case errors.Is(err, model.ErrSchemaMismatch):
		return metrics.OutcomeSchemaMismatch
	default:
		return metrics.OutcomeError
	}
}
