package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"premium-estimator/internal/domain"
	"premium-estimator/internal/features"
	"premium-estimator/internal/model"
	"premium-estimator/internal/repository"
)

var fixedNow = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

func baseAttributes() domain.RawAttributes {
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	return domain.RawAttributes{
		Age: 35, Gender: "Male", AnnualIncome: 50000, MaritalStatus: "Married",
		NumberOfDependents: 1, EducationLevel: "Graduate", Occupation: "Salaried",
		HealthScore: 70, Location: "Urban", PolicyType: "Standard", PreviousClaims: 0,
		VehicleAge: 5, CreditScore: 650, InsuranceDuration: 1, SmokingStatus: "No",
		ExerciseFrequency: "Weekly", PropertyType: "Owned", PolicyStartDate: &start,
	}
}

// stubPredictor devuelve la cantidad de columnas recibidas como prima.
type stubPredictor struct {
	artifact *model.Artifact
	calls    int
	checks   int
	checkErr error
	err      error
}

func (p *stubPredictor) Predict(_ context.Context, record domain.FeatureRecord) (float64, error) {
	p.calls++
	if p.err != nil {
		return 0, p.err
	}
	return float64(len(record)), nil
}

func (p *stubPredictor) Check(domain.FeatureRecord) error {
	p.checks++
	return p.checkErr
}

func (p *stubPredictor) Artifact() *model.Artifact { return p.artifact }

type mockQuoteRepo struct {
	created []domain.Quote
	byID    map[string]domain.Quote
	err     error
}

func (m *mockQuoteRepo) Create(_ context.Context, q domain.Quote) error {
	if m.err != nil {
		return m.err
	}
	m.created = append(m.created, q)
	return nil
}

func (m *mockQuoteRepo) GetByID(_ context.Context, id string) (domain.Quote, error) {
	q, ok := m.byID[id]
	if !ok {
		return domain.Quote{}, repository.ErrQuoteNotFound
	}
	return q, nil
}

func (m *mockQuoteRepo) ListRecent(_ context.Context, limit int) ([]domain.Quote, error) {
	if len(m.created) > limit {
		return m.created[:limit], nil
	}
	return m.created, nil
}

func newTestService(pred *stubPredictor, repo repository.QuoteRepository) *QuoteService {
	if pred.artifact == nil {
		pred.artifact = &model.Artifact{Name: "stub", Version: "v1"}
	}
	return NewQuoteService(zap.NewNop(), features.NewDeriver(nil), pred, repo).
		WithClock(func() time.Time { return fixedNow })
}

func TestQuoteService_Estimate(t *testing.T) {
	pred := &stubPredictor{}
	repo := &mockQuoteRepo{}
	svc := newTestService(pred, repo)

	quote, err := svc.Estimate(context.Background(), "10.0.0.1", baseAttributes())
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if quote.Premium != 34 {
		t.Fatalf("expected premium 34 (one per column), got %v", quote.Premium)
	}
	if quote.ModelName != "stub" || quote.ModelVersion != "v1" || quote.Profile != "default" {
		t.Fatalf("unexpected quote metadata: %+v", quote)
	}
	if len(quote.FeatureDigest) != 64 {
		t.Fatalf("expected sha256 hex digest, got %q", quote.FeatureDigest)
	}
	if !quote.CreatedAt.Equal(fixedNow) {
		t.Fatalf("expected injected clock, got %v", quote.CreatedAt)
	}
	if len(repo.created) != 1 || repo.created[0].ID != quote.ID || repo.created[0].ClientKey != "10.0.0.1" {
		t.Fatalf("expected audit record, got %+v", repo.created)
	}
}

func TestQuoteService_EstimateUsesCache(t *testing.T) {
	pred := &stubPredictor{}
	svc := newTestService(pred, nil).WithCache(NewMemoryEstimateCache(), time.Minute)

	first, err := svc.Estimate(context.Background(), "c1", baseAttributes())
	if err != nil {
		t.Fatalf("first estimate: %v", err)
	}
	second, err := svc.Estimate(context.Background(), "c2", baseAttributes())
	if err != nil {
		t.Fatalf("second estimate: %v", err)
	}
	if pred.calls != 1 {
		t.Fatalf("expected one prediction, got %d", pred.calls)
	}
	if first.Cached || !second.Cached {
		t.Fatalf("expected only second quote cached: %v %v", first.Cached, second.Cached)
	}
	if first.Premium != second.Premium || first.FeatureDigest != second.FeatureDigest {
		t.Fatalf("cached quote differs: %+v vs %+v", first, second)
	}
	if first.ID == second.ID {
		t.Fatalf("expected distinct quote ids")
	}

	other := baseAttributes()
	other.Age = 36
	if _, err := svc.Estimate(context.Background(), "c1", other); err != nil {
		t.Fatalf("third estimate: %v", err)
	}
	if pred.calls != 2 {
		t.Fatalf("expected cache miss for different attributes, got %d calls", pred.calls)
	}
}

func TestQuoteService_RateLimited(t *testing.T) {
	pred := &stubPredictor{}
	svc := newTestService(pred, nil).WithRateLimiter(NewQuoteRateLimiter(time.Minute, 1))

	if _, err := svc.Estimate(context.Background(), "c1", baseAttributes()); err != nil {
		t.Fatalf("first estimate: %v", err)
	}
	_, err := svc.Estimate(context.Background(), "c1", baseAttributes())
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if _, err := svc.Estimate(context.Background(), "c2", baseAttributes()); err != nil {
		t.Fatalf("other client should pass: %v", err)
	}
}

func TestQuoteService_RejectsBeforePredicting(t *testing.T) {
	pred := &stubPredictor{}
	repo := &mockQuoteRepo{}
	svc := newTestService(pred, repo)

	bad := baseAttributes()
	bad.ExerciseFrequency = "Occasional"
	_, err := svc.Estimate(context.Background(), "c1", bad)
	if !errors.Is(err, features.ErrUnmappedCategory) {
		t.Fatalf("expected unmapped category, got %v", err)
	}

	bad = baseAttributes()
	bad.Age = 17
	_, err = svc.Estimate(context.Background(), "c1", bad)
	var vErr *features.ValidationError
	if !errors.As(err, &vErr) || vErr.Field != features.FieldAge {
		t.Fatalf("expected age validation error, got %v", err)
	}
	if pred.calls != 0 || len(repo.created) != 0 {
		t.Fatalf("expected no prediction nor audit, got %d calls %d records", pred.calls, len(repo.created))
	}
}

func TestQuoteService_SchemaMismatch(t *testing.T) {
	pred := &stubPredictor{checkErr: &model.SchemaMismatchError{Missing: []string{"Customer Feedback"}}}
	svc := newTestService(pred, nil)

	_, err := svc.Estimate(context.Background(), "c1", baseAttributes())
	if !errors.Is(err, model.ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
	if pred.calls != 0 {
		t.Fatalf("predict must not run on a mismatched record")
	}
}

func TestQuoteService_AuditFailureIsNotReturned(t *testing.T) {
	svc := newTestService(&stubPredictor{}, &mockQuoteRepo{err: errors.New("db down")})
	if _, err := svc.Estimate(context.Background(), "c1", baseAttributes()); err != nil {
		t.Fatalf("audit failure should be logged only, got %v", err)
	}
}

func TestQuoteService_PredictorFailure(t *testing.T) {
	svc := newTestService(&stubPredictor{err: errors.New("sidecar down")}, nil)
	if _, err := svc.Estimate(context.Background(), "c1", baseAttributes()); err == nil {
		t.Fatalf("expected predictor error")
	}
}

func TestQuoteService_Derive(t *testing.T) {
	svc := newTestService(&stubPredictor{}, nil)
	derived, record, err := svc.Derive(context.Background(), baseAttributes())
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if derived.PolicyAgeDays != 69 {
		t.Fatalf("expected 69 policy days at injected clock, got %d", derived.PolicyAgeDays)
	}
	if len(record) != 34 {
		t.Fatalf("expected 34 columns, got %d", len(record))
	}
}

func TestQuoteService_EstimateRecordSkipsSecondDerivation(t *testing.T) {
	pred := &stubPredictor{}
	svc := newTestService(pred, nil)

	_, record, err := svc.Derive(context.Background(), baseAttributes())
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	quote, err := svc.EstimateRecord(context.Background(), "cli", record)
	if err != nil {
		t.Fatalf("estimate record: %v", err)
	}
	if pred.checks != 1 || pred.calls != 1 {
		t.Fatalf("expected one schema check and one prediction, got %d checks %d calls", pred.checks, pred.calls)
	}
	if quote.Premium != 34 || quote.FeatureDigest != record.Digest() || quote.ClientKey != "cli" {
		t.Fatalf("unexpected quote: %+v", quote)
	}
}

func TestQuoteService_EstimateRecordRateLimited(t *testing.T) {
	pred := &stubPredictor{}
	svc := newTestService(pred, nil).WithRateLimiter(NewQuoteRateLimiter(time.Minute, 1))

	_, record, err := svc.Derive(context.Background(), baseAttributes())
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if _, err := svc.EstimateRecord(context.Background(), "cli", record); err != nil {
		t.Fatalf("first estimate: %v", err)
	}
	if _, err := svc.EstimateRecord(context.Background(), "cli", record); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected rate limited, got %v", err)
	}
	if pred.calls != 1 {
		t.Fatalf("expected a single prediction, got %d", pred.calls)
	}
}

func TestQuoteService_GetQuote(t *testing.T) {
	id := "7d0f3a52-5a3e-4f6c-9d0b-3f0b2f9e8a11"
	repo := &mockQuoteRepo{byID: map[string]domain.Quote{id: {ID: id, Premium: 10}}}
	svc := newTestService(&stubPredictor{}, repo)

	q, err := svc.GetQuote(context.Background(), id)
	if err != nil || q.Premium != 10 {
		t.Fatalf("expected stored quote, got %+v %v", q, err)
	}
	if _, err := svc.GetQuote(context.Background(), "not-a-uuid"); !errors.Is(err, ErrQuoteNotFound) {
		t.Fatalf("expected not found for malformed id, got %v", err)
	}
	if _, err := svc.GetQuote(context.Background(), "2b1c0a8e-0d7e-4b7a-8f45-2f6f4c8e9d10"); !errors.Is(err, ErrQuoteNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	noAudit := newTestService(&stubPredictor{}, nil)
	if _, err := noAudit.GetQuote(context.Background(), id); !errors.Is(err, ErrAuditDisabled) {
		t.Fatalf("expected audit disabled, got %v", err)
	}
}
