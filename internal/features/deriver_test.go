package features

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"premium-estimator/internal/domain"
)

var fixedNow = time.Date(2024, time.March, 10, 15, 30, 0, 0, time.UTC)

func baseRaw() domain.RawAttributes {
	return domain.RawAttributes{
		Age:                35,
		Gender:             "Male",
		AnnualIncome:       50000,
		MaritalStatus:      "Married",
		NumberOfDependents: 1,
		EducationLevel:     "Graduate",
		Occupation:         "Salaried",
		HealthScore:        70,
		Location:           "Urban",
		PolicyType:         "Standard",
		PreviousClaims:     0,
		VehicleAge:         5,
		CreditScore:        650,
		InsuranceDuration:  1,
		SmokingStatus:      "No",
		ExerciseFrequency:  "Weekly",
		PropertyType:       "Owned",
	}
}

func TestDeriveEndToEndScenario(t *testing.T) {
	d := NewDeriver(nil)

	got, err := d.Derive(baseRaw(), fixedNow)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}

	want := domain.DerivedFeatures{
		Raw:                    baseRaw(),
		PolicyStartYear:        2024,
		PolicyStartMonth:       3,
		PolicyStartDay:         10,
		PolicyAgeDays:          0,
		DaysSincePolicyStart:   0,
		CustomerFeedbackScore:  1,
		AgeGroup:               "31–45",
		IncomeBracket:          "Median",
		CreditCategory:         2,
		DependentsGroup:        "Few",
		AgeXHealth:             2450,
		CreditScoreXPrevClaims: 0,
		IncomeXCredit:          32500000,
		IsSmoker:               0,
		LowCreditScore:         0,
		MultipleClaims:         0,
		ExerciseFreqScore:      3,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("derived features mismatch (-want +got):\n%s", diff)
	}

	record := got.Record()
	if len(record) != 34 {
		t.Fatalf("expected 34 columns, got %d", len(record))
	}
}

func TestDeriveIsDeterministic(t *testing.T) {
	d := NewDeriver(nil)
	raw := baseRaw()
	start := time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC)
	raw.PolicyStartDate = &start

	first, err := d.Derive(raw, fixedNow)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	second, err := d.Derive(raw, fixedNow)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("derive not deterministic:\n%s", diff)
	}
	if first.Record().Digest() != second.Record().Digest() {
		t.Fatalf("record digest differs between identical calls")
	}
}

func TestAgeGroupBoundaries(t *testing.T) {
	cases := map[int]string{
		18:  AgeGroupYoung,
		30:  AgeGroupYoung,
		31:  AgeGroupAdult,
		45:  AgeGroupAdult,
		46:  AgeGroupMiddle,
		60:  AgeGroupMiddle,
		61:  AgeGroupSenior,
		100: AgeGroupSenior,
	}
	d := NewDeriver(nil)
	for age, want := range cases {
		raw := baseRaw()
		raw.Age = age
		got, err := d.Derive(raw, fixedNow)
		if err != nil {
			t.Fatalf("age %d: %v", age, err)
		}
		if got.AgeGroup != want {
			t.Fatalf("age %d: expected %q, got %q", age, want, got.AgeGroup)
		}
	}
}

func TestAgeOutsideGroupsIsValidationError(t *testing.T) {
	profile := DefaultProfile()
	profile.Bounds[FieldAge] = Bounds{Min: 0, Max: 120}
	d := NewDeriver(profile)

	for _, age := range []int{17, 101} {
		raw := baseRaw()
		raw.Age = age
		_, err := d.Derive(raw, fixedNow)
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("age %d: expected ValidationError, got %v", age, err)
		}
		if vErr.Field != FieldAge {
			t.Fatalf("age %d: expected field %q, got %q", age, FieldAge, vErr.Field)
		}
	}
}

func TestCreditCategoryBoundaries(t *testing.T) {
	cases := []struct {
		score int
		want  int
		low   int
	}{
		{score: 300, want: 0, low: 1},
		{score: 399, want: 0, low: 1},
		{score: 400, want: 1, low: 1},
		{score: 599, want: 1, low: 1},
		{score: 600, want: 2, low: 0},
		{score: 799, want: 2, low: 0},
		{score: 800, want: 3, low: 0},
		{score: 900, want: 3, low: 0},
	}
	d := NewDeriver(nil)
	for _, tc := range cases {
		raw := baseRaw()
		raw.CreditScore = tc.score
		got, err := d.Derive(raw, fixedNow)
		if err != nil {
			t.Fatalf("credit %d: %v", tc.score, err)
		}
		if got.CreditCategory != tc.want {
			t.Fatalf("credit %d: expected category %d, got %d", tc.score, tc.want, got.CreditCategory)
		}
		if got.LowCreditScore != tc.low {
			t.Fatalf("credit %d: expected low flag %d, got %d", tc.score, tc.low, got.LowCreditScore)
		}
	}
}

func TestIncomeBracketBoundaries(t *testing.T) {
	cases := map[float64]string{
		0:       IncomeLow,
		29999:   IncomeLow,
		30000:   IncomeMedian,
		59999.5: IncomeMedian,
		60000:   IncomeHigh,
		100000:  IncomeVeryHigh,
		5000000: IncomeVeryHigh,
	}
	d := NewDeriver(nil)
	for income, want := range cases {
		raw := baseRaw()
		raw.AnnualIncome = income
		got, err := d.Derive(raw, fixedNow)
		if err != nil {
			t.Fatalf("income %v: %v", income, err)
		}
		if got.IncomeBracket != want {
			t.Fatalf("income %v: expected %q, got %q", income, want, got.IncomeBracket)
		}
	}
}

func TestDependentsGroup(t *testing.T) {
	cases := map[int]string{0: DependentsNone, 1: DependentsFew, 2: DependentsFew, 3: DependentsMany, 10: DependentsMany}
	d := NewDeriver(nil)
	for n, want := range cases {
		raw := baseRaw()
		raw.NumberOfDependents = n
		got, err := d.Derive(raw, fixedNow)
		if err != nil {
			t.Fatalf("dependents %d: %v", n, err)
		}
		if got.DependentsGroup != want {
			t.Fatalf("dependents %d: expected %q, got %q", n, want, got.DependentsGroup)
		}
	}
}

func TestFlagsAndCrossTerms(t *testing.T) {
	d := NewDeriver(nil)

	raw := baseRaw()
	raw.Age = 40
	raw.HealthScore = 50
	raw.PreviousClaims = 3
	raw.CreditScore = 599
	raw.SmokingStatus = "yes"
	got, err := d.Derive(raw, fixedNow)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if got.AgeXHealth != 2000 {
		t.Fatalf("expected age_x_health 2000, got %v", got.AgeXHealth)
	}
	if got.CreditScoreXPrevClaims != 1797 {
		t.Fatalf("expected credit_x_claims 1797, got %d", got.CreditScoreXPrevClaims)
	}
	if got.MultipleClaims != 1 || got.LowCreditScore != 1 || got.IsSmoker != 1 {
		t.Fatalf("unexpected flags: multiple=%d low=%d smoker=%d", got.MultipleClaims, got.LowCreditScore, got.IsSmoker)
	}
	if got.Raw.SmokingStatus != "Yes" {
		t.Fatalf("expected smoking status canonicalised to Yes, got %q", got.Raw.SmokingStatus)
	}

	raw.PreviousClaims = 2
	got, err = d.Derive(raw, fixedNow)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if got.MultipleClaims != 0 {
		t.Fatalf("expected multiple_claims 0 for 2 claims, got %d", got.MultipleClaims)
	}

	raw = baseRaw()
	raw.AnnualIncome = 5000000
	raw.CreditScore = 900
	got, err = d.Derive(raw, fixedNow)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if got.IncomeXCredit != 4.5e9 {
		t.Fatalf("expected income_x_credit 4.5e9, got %v", got.IncomeXCredit)
	}
}

func TestExerciseMapping(t *testing.T) {
	d := NewDeriver(nil)

	for value, want := range map[string]int{"Daily": 4, "Never": 0, "rarely": 1} {
		raw := baseRaw()
		raw.ExerciseFrequency = value
		got, err := d.Derive(raw, fixedNow)
		if err != nil {
			t.Fatalf("exercise %q: %v", value, err)
		}
		if got.ExerciseFreqScore != want {
			t.Fatalf("exercise %q: expected %d, got %d", value, want, got.ExerciseFreqScore)
		}
	}

	raw := baseRaw()
	raw.ExerciseFrequency = "Occasional"
	_, err := d.Derive(raw, fixedNow)
	var uErr *UnmappedCategoryError
	if !errors.As(err, &uErr) {
		t.Fatalf("expected UnmappedCategoryError, got %v", err)
	}
	if uErr.Field != FieldExerciseFrequency || uErr.Value != "Occasional" {
		t.Fatalf("unexpected error detail: %+v", uErr)
	}
	if !errors.Is(err, ErrUnmappedCategory) {
		t.Fatalf("expected errors.Is ErrUnmappedCategory")
	}
}

func TestExerciseTableFromProfile(t *testing.T) {
	profile := DefaultProfile()
	profile.ExerciseScores = map[string]int{"Daily": 3, "Weekly": 2, "Occasional": 1, "Never": 0}
	d := NewDeriver(profile)

	raw := baseRaw()
	raw.ExerciseFrequency = "Occasional"
	got, err := d.Derive(raw, fixedNow)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if got.ExerciseFreqScore != 1 {
		t.Fatalf("expected 1, got %d", got.ExerciseFreqScore)
	}

	raw.ExerciseFrequency = "Monthly"
	if _, err := d.Derive(raw, fixedNow); !errors.Is(err, ErrUnmappedCategory) {
		t.Fatalf("expected unmapped Monthly, got %v", err)
	}
}

func TestPolicyStartDate(t *testing.T) {
	d := NewDeriver(nil)

	raw := baseRaw()
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	raw.PolicyStartDate = &start
	got, err := d.Derive(raw, fixedNow)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if got.PolicyStartYear != 2024 || got.PolicyStartMonth != 1 || got.PolicyStartDay != 1 {
		t.Fatalf("unexpected start components: %d-%d-%d", got.PolicyStartYear, got.PolicyStartMonth, got.PolicyStartDay)
	}
	// 31 (enero) + 29 (febrero bisiesto) + 9
	if got.PolicyAgeDays != 69 || got.DaysSincePolicyStart != 69 {
		t.Fatalf("expected 69 days, got %d/%d", got.PolicyAgeDays, got.DaysSincePolicyStart)
	}

	future := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)
	raw.PolicyStartDate = &future
	got, err = d.Derive(raw, fixedNow)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if got.PolicyAgeDays != 0 {
		t.Fatalf("expected future start to clamp to 0, got %d", got.PolicyAgeDays)
	}

	// Mas de 292 anios: fuera del rango de time.Duration.
	old := time.Date(1700, time.January, 1, 0, 0, 0, 0, time.UTC)
	raw.PolicyStartDate = &old
	got, err = d.Derive(raw, fixedNow)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if got.PolicyAgeDays != 118407 || got.DaysSincePolicyStart != 118407 {
		t.Fatalf("expected 118407 days, got %d/%d", got.PolicyAgeDays, got.DaysSincePolicyStart)
	}
	if got.PolicyStartYear != 1700 {
		t.Fatalf("expected start year 1700, got %d", got.PolicyStartYear)
	}
}

func TestTodayUsesProfileLocation(t *testing.T) {
	profile := DefaultProfile()
	profile.Location = "America/New_York"
	if err := profile.Validate(); err != nil {
		t.Skipf("tzdata not available: %v", err)
	}
	d := NewDeriver(profile)

	now := time.Date(2024, time.March, 10, 2, 0, 0, 0, time.UTC)
	got, err := d.Derive(baseRaw(), now)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if got.PolicyStartDay != 9 {
		t.Fatalf("expected local calendar day 9, got %d", got.PolicyStartDay)
	}
}

func TestFeedbackMappedPolicy(t *testing.T) {
	profile := DefaultProfile()
	profile.Feedback = FeedbackConfig{Policy: FeedbackMapped, Scores: map[string]int{"Poor": 0, "Average": 1, "Good": 2}}
	d := NewDeriver(profile)

	raw := baseRaw()
	raw.CustomerFeedback = "good"
	got, err := d.Derive(raw, fixedNow)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if got.CustomerFeedbackScore != 2 {
		t.Fatalf("expected 2, got %d", got.CustomerFeedbackScore)
	}

	raw.CustomerFeedback = "Excellent"
	if _, err := d.Derive(raw, fixedNow); !errors.Is(err, ErrUnmappedCategory) {
		t.Fatalf("expected Excellent to be unmapped, got %v", err)
	}

	raw.CustomerFeedback = ""
	_, err = d.Derive(raw, fixedNow)
	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.Field != FieldCustomerFeedback {
		t.Fatalf("expected missing customer_feedback, got %v", err)
	}
}

func TestValidationErrors(t *testing.T) {
	d := NewDeriver(nil)
	cases := []struct {
		name   string
		mutate func(*domain.RawAttributes)
		field  string
	}{
		{"missing gender", func(r *domain.RawAttributes) { r.Gender = "" }, FieldGender},
		{"unknown location", func(r *domain.RawAttributes) { r.Location = "Suburban" }, FieldLocation},
		{"age above bounds", func(r *domain.RawAttributes) { r.Age = 101 }, FieldAge},
		{"negative claims", func(r *domain.RawAttributes) { r.PreviousClaims = -1 }, FieldPreviousClaims},
		{"credit below bounds", func(r *domain.RawAttributes) { r.CreditScore = 250 }, FieldCreditScore},
		{"zero duration", func(r *domain.RawAttributes) { r.InsuranceDuration = 0 }, FieldInsuranceDuration},
		{"health above bounds", func(r *domain.RawAttributes) { r.HealthScore = 100.5 }, FieldHealthScore},
		{"missing exercise", func(r *domain.RawAttributes) { r.ExerciseFrequency = " " }, FieldExerciseFrequency},
		{"unknown feedback word", func(r *domain.RawAttributes) { r.CustomerFeedback = "Meh" }, FieldCustomerFeedback},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := baseRaw()
			tc.mutate(&raw)
			_, err := d.Derive(raw, fixedNow)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if vErr.Field != tc.field {
				t.Fatalf("expected field %q, got %q", tc.field, vErr.Field)
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected errors.Is ErrValidation")
			}
		})
	}
}

func TestDeriveCanonicalisesEnums(t *testing.T) {
	d := NewDeriver(nil)
	raw := baseRaw()
	raw.Gender = " female "
	raw.Location = "semi-urban"
	got, err := d.Derive(raw, fixedNow)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if got.Raw.Gender != "Female" || got.Raw.Location != "Semi-Urban" {
		t.Fatalf("expected canonical spelling, got %q / %q", got.Raw.Gender, got.Raw.Location)
	}
}
