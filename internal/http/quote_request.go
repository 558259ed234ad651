package http

import (
	"math"
	"strings"
	"time"

	"premium-estimator/internal/domain"
	"premium-estimator/internal/features"
)

// quoteRequest es el cuerpo de POST /v1/quotes y /v1/features. Los campos son punteros
// para distinguir un atributo ausente de un cero.
type quoteRequest struct {
	Age                *float64 `json:"age"`
	Gender             *string  `json:"gender"`
	AnnualIncome       *float64 `json:"annual_income"`
	MaritalStatus      *string  `json:"marital_status"`
	NumberOfDependents *float64 `json:"number_of_dependents"`
	EducationLevel     *string  `json:"education_level"`
	Occupation         *string  `json:"occupation"`
	HealthScore        *float64 `json:"health_score"`
	Location           *string  `json:"location"`
	PolicyType         *string  `json:"policy_type"`
	PreviousClaims     *float64 `json:"previous_claims"`
	VehicleAge         *float64 `json:"vehicle_age"`
	CreditScore        *float64 `json:"credit_score"`
	InsuranceDuration  *float64 `json:"insurance_duration"`
	SmokingStatus      *string  `json:"smoking_status"`
	ExerciseFrequency  *string  `json:"exercise_frequency"`
	PropertyType       *string  `json:"property_type"`
	PolicyStartDate    *string  `json:"policy_start_date"`
	CustomerFeedback   *string  `json:"customer_feedback"`
}

func (r quoteRequest) toAttributes() (domain.RawAttributes, error) {
	var raw domain.RawAttributes

	wholes := []struct {
		field string
		in    *float64
		out   *int
	}{
		{features.FieldAge, r.Age, &raw.Age},
		{features.FieldNumberOfDependents, r.NumberOfDependents, &raw.NumberOfDependents},
		{features.FieldPreviousClaims, r.PreviousClaims, &raw.PreviousClaims},
		{features.FieldVehicleAge, r.VehicleAge, &raw.VehicleAge},
		{features.FieldCreditScore, r.CreditScore, &raw.CreditScore},
		{features.FieldInsuranceDuration, r.InsuranceDuration, &raw.InsuranceDuration},
	}
	for _, w := range wholes {
		if w.in == nil {
			return raw, missingField(w.field)
		}
		v := *w.in
		if v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
			return raw, &features.ValidationError{Field: w.field, Value: v, Reason: "must be a whole number"}
		}
		*w.out = int(v)
	}

	reals := []struct {
		field string
		in    *float64
		out   *float64
	}{
		{features.FieldAnnualIncome, r.AnnualIncome, &raw.AnnualIncome},
		{features.FieldHealthScore, r.HealthScore, &raw.HealthScore},
	}
	for _, f := range reals {
		if f.in == nil {
			return raw, missingField(f.field)
		}
		*f.out = *f.in
	}

	texts := []struct {
		field string
		in    *string
		out   *string
	}{
		{features.FieldGender, r.Gender, &raw.Gender},
		{features.FieldMaritalStatus, r.MaritalStatus, &raw.MaritalStatus},
		{features.FieldEducationLevel, r.EducationLevel, &raw.EducationLevel},
		{features.FieldOccupation, r.Occupation, &raw.Occupation},
		{features.FieldLocation, r.Location, &raw.Location},
		{features.FieldPolicyType, r.PolicyType, &raw.PolicyType},
		{features.FieldSmokingStatus, r.SmokingStatus, &raw.SmokingStatus},
		{features.FieldExerciseFrequency, r.ExerciseFrequency, &raw.ExerciseFrequency},
		{features.FieldPropertyType, r.PropertyType, &raw.PropertyType},
	}
	for _, f := range texts {
		if f.in == nil {
			return raw, missingField(f.field)
		}
		*f.out = *f.in
	}

	if r.CustomerFeedback != nil {
		raw.CustomerFeedback = *r.CustomerFeedback
	}

	if r.PolicyStartDate != nil && strings.TrimSpace(*r.PolicyStartDate) != "" {
		start, err := parseStartDate(*r.PolicyStartDate)
		if err != nil {
			return raw, &features.ValidationError{Field: features.FieldPolicyStartDate, Value: *r.PolicyStartDate, Reason: "expected YYYY-MM-DD or RFC 3339 date"}
		}
		raw.PolicyStartDate = &start
	}

	return raw, nil
}

// parseStartDate acepta una fecha de calendario o un timestamp RFC 3339; solo importa el dia.
func parseStartDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(domain.DateLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func missingField(field string) error {
	return &features.ValidationError{Field: field, Reason: "required field missing"}
}
