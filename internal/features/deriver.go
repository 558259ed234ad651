package features

import (
	"fmt"
	"math"
	"strings"
	"time"

	"premium-estimator/internal/domain"
)

// Deriver transforma atributos crudos en el registro de features del modelo.
// Es una funcion pura: la hora actual siempre llega como parametro.
type Deriver struct {
	profile *Profile
}

// NewDeriver construye un Deriver; con profile nil usa DefaultProfile.
func NewDeriver(profile *Profile) *Deriver {
	if profile == nil {
		profile = DefaultProfile()
	}
	return &Deriver{profile: profile}
}

func (d *Deriver) Profile() *Profile {
	return d.profile
}

// Derive valida raw contra el perfil y calcula las features derivadas respecto de now.
func (d *Deriver) Derive(raw domain.RawAttributes, now time.Time) (domain.DerivedFeatures, error) {
	clean, err := d.validate(raw)
	if err != nil {
		return domain.DerivedFeatures{}, err
	}

	out := domain.DerivedFeatures{Raw: clean}

	today := civilDate(now.In(d.profile.location()))
	start := today
	if clean.PolicyStartDate != nil {
		start = civilDate(*clean.PolicyStartDate)
	}
	out.PolicyStartYear = start.Year()
	out.PolicyStartMonth = int(start.Month())
	out.PolicyStartDay = start.Day()
	out.PolicyAgeDays = max(0, daysBetween(start, today))
	out.DaysSincePolicyStart = out.PolicyAgeDays

	group, ok := ageGroup(clean.Age)
	if !ok {
		return domain.DerivedFeatures{}, &ValidationError{Field: FieldAge, Value: clean.Age, Reason: "outside age groups 18-100"}
	}
	out.AgeGroup = group

	bracket, ok := incomeBracket(clean.AnnualIncome)
	if !ok {
		return domain.DerivedFeatures{}, &ValidationError{Field: FieldAnnualIncome, Value: clean.AnnualIncome, Reason: "outside income brackets"}
	}
	out.IncomeBracket = bracket

	category, ok := creditCategory(clean.CreditScore)
	if !ok {
		return domain.DerivedFeatures{}, &ValidationError{Field: FieldCreditScore, Value: clean.CreditScore, Reason: "outside credit categories"}
	}
	out.CreditCategory = category

	out.DependentsGroup = dependentsGroup(clean.NumberOfDependents)

	out.AgeXHealth = float64(clean.Age) * clean.HealthScore
	out.CreditScoreXPrevClaims = clean.CreditScore * clean.PreviousClaims
	out.IncomeXCredit = clean.AnnualIncome * float64(clean.CreditScore)

	out.IsSmoker = flag(strings.EqualFold(strings.TrimSpace(clean.SmokingStatus), "Yes"))
	out.LowCreditScore = flag(clean.CreditScore < 600)
	out.MultipleClaims = flag(clean.PreviousClaims > 2)

	name, score, ok := lookupScore(d.profile.ExerciseScores, clean.ExerciseFrequency)
	if !ok {
		return domain.DerivedFeatures{}, &UnmappedCategoryError{Field: FieldExerciseFrequency, Value: clean.ExerciseFrequency, Table: "exercise_scores"}
	}
	out.Raw.ExerciseFrequency = name
	out.ExerciseFreqScore = score

	feedback, err := d.feedbackScore(clean.CustomerFeedback)
	if err != nil {
		return domain.DerivedFeatures{}, err
	}
	out.CustomerFeedbackScore = feedback

	return out, nil
}

func (d *Deriver) feedbackScore(answer string) (int, error) {
	fb := d.profile.Feedback
	switch fb.Policy {
	case FeedbackConstant:
		return *fb.Value, nil
	case FeedbackMapped:
		if strings.TrimSpace(answer) == "" {
			return 0, missing(FieldCustomerFeedback)
		}
		_, score, ok := lookupScore(fb.Scores, answer)
		if !ok {
			return 0, &UnmappedCategoryError{Field: FieldCustomerFeedback, Value: answer, Table: "feedback.scores"}
		}
		return score, nil
	default:
		return 0, &ValidationError{Field: FieldCustomerFeedback, Value: string(fb.Policy), Reason: "profile has no usable feedback policy"}
	}
}

// validate devuelve una copia de raw con los enums normalizados a la grafia del vocabulario.
func (d *Deriver) validate(raw domain.RawAttributes) (domain.RawAttributes, error) {
	p := d.profile

	ints := []struct {
		field    string
		value    int
		positive bool
	}{
		{FieldAge, raw.Age, true},
		{FieldNumberOfDependents, raw.NumberOfDependents, false},
		{FieldPreviousClaims, raw.PreviousClaims, false},
		{FieldVehicleAge, raw.VehicleAge, false},
		{FieldCreditScore, raw.CreditScore, false},
		{FieldInsuranceDuration, raw.InsuranceDuration, true},
	}
	for _, f := range ints {
		if f.value < 0 {
			return raw, &ValidationError{Field: f.field, Value: f.value, Reason: "must not be negative"}
		}
		if f.positive && f.value == 0 {
			return raw, &ValidationError{Field: f.field, Value: f.value, Reason: "must be positive"}
		}
		if err := p.checkBounds(f.field, float64(f.value), f.value); err != nil {
			return raw, err
		}
	}

	floats := []struct {
		field string
		value float64
	}{
		{FieldAnnualIncome, raw.AnnualIncome},
		{FieldHealthScore, raw.HealthScore},
	}
	for _, f := range floats {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return raw, &ValidationError{Field: f.field, Value: f.value, Reason: "must be a finite number"}
		}
		if f.value < 0 {
			return raw, &ValidationError{Field: f.field, Value: f.value, Reason: "must not be negative"}
		}
		if err := p.checkBounds(f.field, f.value, f.value); err != nil {
			return raw, err
		}
	}

	enums := []struct {
		field string
		value *string
	}{
		{FieldGender, &raw.Gender},
		{FieldMaritalStatus, &raw.MaritalStatus},
		{FieldEducationLevel, &raw.EducationLevel},
		{FieldOccupation, &raw.Occupation},
		{FieldLocation, &raw.Location},
		{FieldPolicyType, &raw.PolicyType},
		{FieldSmokingStatus, &raw.SmokingStatus},
		{FieldPropertyType, &raw.PropertyType},
	}
	for _, f := range enums {
		if strings.TrimSpace(*f.value) == "" {
			return raw, missing(f.field)
		}
		canon, ok := p.canonical(f.field, *f.value)
		if !ok {
			return raw, &ValidationError{Field: f.field, Value: *f.value, Reason: "not in vocabulary"}
		}
		*f.value = canon
	}

	if strings.TrimSpace(raw.ExerciseFrequency) == "" {
		return raw, missing(FieldExerciseFrequency)
	}

	if fb := strings.TrimSpace(raw.CustomerFeedback); fb != "" {
		canon, ok := p.canonical(FieldCustomerFeedback, fb)
		if !ok {
			return raw, &ValidationError{Field: FieldCustomerFeedback, Value: raw.CustomerFeedback, Reason: "not in vocabulary"}
		}
		raw.CustomerFeedback = canon
	}

	return raw, nil
}

func (p *Profile) checkBounds(field string, v float64, shown any) error {
	b, ok := p.Bounds[field]
	if !ok || b.contains(v) {
		return nil
	}
	return &ValidationError{Field: field, Value: shown, Reason: fmt.Sprintf("outside bounds [%g, %g]", b.Min, b.Max)}
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween cuenta dias enteros entre dos medianoches UTC sin pasar por time.Duration.
func daysBetween(from, to time.Time) int {
	return int((to.Unix() - from.Unix()) / 86400)
}
