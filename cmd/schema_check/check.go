package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"premium-estimator/internal/domain"
	"premium-estimator/internal/features"
	"premium-estimator/internal/model"
	"premium-estimator/internal/service"
)

// Expectation es el resultado esperado de un escenario.
type Expectation string

const (
	ExpectOK       Expectation = "ok"
	ExpectRejected Expectation = "validation"
	ExpectUnmapped Expectation = "unmapped_category"
	ExpectMismatch Expectation = "schema_mismatch"
)

// Scenario es un caso de prueba del par perfil/artefacto.
type Scenario struct {
	Name       string         `yaml:"name"`
	Overrides  map[string]any `yaml:"overrides"`
	Expect     Expectation    `yaml:"expect"`
	MinPremium *float64       `yaml:"min_premium"`
	MaxPremium *float64       `yaml:"max_premium"`
}

type checkResult struct {
	Scenario Scenario
	Premium  float64
	Got      Expectation
	Err      error
	Passed   bool
	Detail   string
}

// baseAttributes replica los valores iniciales del formulario.
func baseAttributes() domain.RawAttributes {
	return domain.RawAttributes{
		Age: 35, Gender: "Male", AnnualIncome: 50000, MaritalStatus: "Married",
		NumberOfDependents: 1, EducationLevel: "Graduate", Occupation: "Salaried",
		HealthScore: 70, Location: "Urban", PolicyType: "Standard", PreviousClaims: 0,
		VehicleAge: 5, CreditScore: 650, InsuranceDuration: 1, SmokingStatus: "No",
		ExerciseFrequency: "Weekly", PropertyType: "Owned",
	}
}

func defaultScenarios() []Scenario {
	return []Scenario{
		{Name: "base", Expect: ExpectOK},
		{Name: "youngest applicant", Overrides: map[string]any{features.FieldAge: 18}, Expect: ExpectOK},
		{Name: "oldest applicant", Overrides: map[string]any{features.FieldAge: 100}, Expect: ExpectOK},
		{Name: "smoker with claims", Overrides: map[string]any{features.FieldSmokingStatus: "Yes", features.FieldPreviousClaims: 3}, Expect: ExpectOK},
		{Name: "low credit", Overrides: map[string]any{features.FieldCreditScore: 300}, Expect: ExpectOK},
		{Name: "under age", Overrides: map[string]any{features.FieldAge: 17}, Expect: ExpectRejected},
		{Name: "unknown exercise", Overrides: map[string]any{features.FieldExerciseFrequency: "Occasional"}, Expect: ExpectUnmapped},
	}
}

// loadScenarios lee escenarios YAML; cada uno parte de baseAttributes con sus overrides.
func loadScenarios(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc struct {
		Scenarios []Scenario `yaml:"scenarios"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse scenarios: %w", err)
	}
	if len(doc.Scenarios) == 0 {
		return nil, errors.New("scenario file has no scenarios")
	}
	for i := range doc.Scenarios {
		if doc.Scenarios[i].Expect == "" {
			doc.Scenarios[i].Expect = ExpectOK
		}
	}
	return doc.Scenarios, nil
}

func (sc Scenario) attributes() (domain.RawAttributes, error) {
	raw := baseAttributes()
	for field, v := range sc.Overrides {
		if err := applyOverride(&raw, field, v); err != nil {
			return raw, fmt.Errorf("scenario %q: %w", sc.Name, err)
		}
	}
	return raw, nil
}

func applyOverride(raw *domain.RawAttributes, field string, v any) error {
	num := func() (float64, error) {
		switch n := v.(type) {
		case int:
			return float64(n), nil
		case float64:
			return n, nil
		default:
			return 0, fmt.Errorf("%s: expected number, got %T", field, v)
		}
	}
	text := func() (string, error) {
		s, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("%s: expected string, got %T", field, v)
		}
		return s, nil
	}

	var err error
	var f float64
	var s string
	switch field {
	case features.FieldAge:
		f, err = num()
		raw.Age = int(f)
	case features.FieldAnnualIncome:
		raw.AnnualIncome, err = num()
	case features.FieldNumberOfDependents:
		f, err = num()
		raw.NumberOfDependents = int(f)
	case features.FieldHealthScore:
		raw.HealthScore, err = num()
	case features.FieldPreviousClaims:
		f, err = num()
		raw.PreviousClaims = int(f)
	case features.FieldVehicleAge:
		f, err = num()
		raw.VehicleAge = int(f)
	case features.FieldCreditScore:
		f, err = num()
		raw.CreditScore = int(f)
	case features.FieldInsuranceDuration:
		f, err = num()
		raw.InsuranceDuration = int(f)
	case features.FieldGender:
		raw.Gender, err = text()
	case features.FieldMaritalStatus:
		raw.MaritalStatus, err = text()
	case features.FieldEducationLevel:
		raw.EducationLevel, err = text()
	case features.FieldOccupation:
		raw.Occupation, err = text()
	case features.FieldLocation:
		raw.Location, err = text()
	case features.FieldPolicyType:
		raw.PolicyType, err = text()
	case features.FieldSmokingStatus:
		raw.SmokingStatus, err = text()
	case features.FieldExerciseFrequency:
		raw.ExerciseFrequency, err = text()
	case features.FieldPropertyType:
		raw.PropertyType, err = text()
	case features.FieldCustomerFeedback:
		raw.CustomerFeedback, err = text()
	case features.FieldPolicyStartDate:
		if s, err = text(); err == nil {
			var t time.Time
			if t, err = time.Parse(domain.DateLayout, s); err == nil {
				raw.PolicyStartDate = &t
			}
		}
	default:
		err = fmt.Errorf("unknown field %q", field)
	}
	return err
}

// evaluateScenario cotiza un escenario y compara el resultado con lo esperado.
func evaluateScenario(ctx context.Context, svc *service.QuoteService, sc Scenario) checkResult {
	res := checkResult{Scenario: sc}
	raw, err := sc.attributes()
	if err != nil {
		res.Err = err
		res.Detail = err.Error()
		return res
	}

	quote, err := svc.Estimate(ctx, "schema-check", raw)
	res.Err = err
	res.Got = classify(err)
	res.Premium = quote.Premium

	if res.Got != sc.Expect {
		res.Detail = fmt.Sprintf("expected %s, got %s", sc.Expect, res.Got)
		if err != nil {
			res.Detail += ": " + err.Error()
		}
		return res
	}
	if sc.Expect == ExpectOK {
		if sc.MinPremium != nil && quote.Premium < *sc.MinPremium {
			res.Detail = fmt.Sprintf("premium %.2f below %.2f", quote.Premium, *sc.MinPremium)
			return res
		}
		if sc.MaxPremium != nil && quote.Premium > *sc.MaxPremium {
			res.Detail = fmt.Sprintf("premium %.2f above %.2f", quote.Premium, *sc.MaxPremium)
			return res
		}
		if quote.Premium < 0 {
			res.Detail = fmt.Sprintf("negative premium %.2f", quote.Premium)
			return res
		}
	}
	res.Passed = true
	return res
}

func classify(err error) Expectation {
	switch {
	case err == nil:
		return ExpectOK
	case errors.Is(err, features.ErrValidation):
		return ExpectRejected
	case errors.Is(err, features.ErrUnmappedCategory):
		return ExpectUnmapped
	case errors.Is(err, model.ErrSchemaMismatch):
		return ExpectMismatch
	default:
		return Expectation("error")
	}
}
