package domain

import "time"

// DateLayout es el formato de calendario aceptado para fechas de inicio de poliza.
const DateLayout = "2006-01-02"

// RawAttributes agrupa los atributos del cliente tal como los captura el formulario.
// Un valor por solicitud; no se persiste.
type RawAttributes struct {
	Age                int        `json:"age"`
	Gender             string     `json:"gender"`
	AnnualIncome       float64    `json:"annual_income"`
	MaritalStatus      string     `json:"marital_status"`
	NumberOfDependents int        `json:"number_of_dependents"`
	EducationLevel     string     `json:"education_level"`
	Occupation         string     `json:"occupation"`
	HealthScore        float64    `json:"health_score"`
	Location           string     `json:"location"`
	PolicyType         string     `json:"policy_type"`
	PreviousClaims     int        `json:"previous_claims"`
	VehicleAge         int        `json:"vehicle_age"`
	CreditScore        int        `json:"credit_score"`
	InsuranceDuration  int        `json:"insurance_duration"`
	SmokingStatus      string     `json:"smoking_status"`
	ExerciseFrequency  string     `json:"exercise_frequency"`
	PropertyType       string     `json:"property_type"`
	PolicyStartDate    *time.Time `json:"policy_start_date,omitempty"`
	CustomerFeedback   string     `json:"customer_feedback,omitempty"`
}

// DerivedFeatures contiene los atributos originales mas los campos calculados
// que el modelo espera como entrada.
type DerivedFeatures struct {
	Raw RawAttributes `json:"raw"`

	PolicyStartYear       int `json:"policy_start_year"`
	PolicyStartMonth      int `json:"policy_start_month"`
	PolicyStartDay        int `json:"policy_start_day"`
	PolicyAgeDays         int `json:"policy_age_days"`
	DaysSincePolicyStart  int `json:"days_since_policy_start"`
	CustomerFeedbackScore int `json:"customer_feedback_score"`

	AgeGroup        string `json:"age_group"`
	IncomeBracket   string `json:"income_bracket"`
	CreditCategory  int    `json:"credit_category"`
	DependentsGroup string `json:"dependents_group"`

	AgeXHealth             float64 `json:"age_x_health"`
	CreditScoreXPrevClaims int     `json:"credit_score_x_prev_claims"`
	IncomeXCredit          float64 `json:"income_x_credit"`

	IsSmoker          int `json:"is_smoker"`
	LowCreditScore    int `json:"low_credit_score"`
	MultipleClaims    int `json:"multiple_claims"`
	ExerciseFreqScore int `json:"exercise_freq_score"`
}

// Record arma el registro de columnas en el orden con el que se entreno el modelo.
func (d DerivedFeatures) Record() FeatureRecord {
	r := d.Raw
	return FeatureRecord{
		num(ColAge, float64(r.Age)),
		cat(ColGender, r.Gender),
		num(ColAnnualIncome, r.AnnualIncome),
		cat(ColMaritalStatus, r.MaritalStatus),
		num(ColNumberOfDependents, float64(r.NumberOfDependents)),
		cat(ColEducationLevel, r.EducationLevel),
		cat(ColOccupation, r.Occupation),
		num(ColHealthScore, r.HealthScore),
		cat(ColLocation, r.Location),
		cat(ColPolicyType, r.PolicyType),
		num(ColPreviousClaims, float64(r.PreviousClaims)),
		num(ColVehicleAge, float64(r.VehicleAge)),
		num(ColCreditScore, float64(r.CreditScore)),
		num(ColInsuranceDuration, float64(r.InsuranceDuration)),
		cat(ColSmokingStatus, r.SmokingStatus),
		cat(ColExerciseFrequency, r.ExerciseFrequency),
		cat(ColPropertyType, r.PropertyType),

		num(ColPolicyStartYear, float64(d.PolicyStartYear)),
		num(ColPolicyStartMonth, float64(d.PolicyStartMonth)),
		num(ColPolicyStartDay, float64(d.PolicyStartDay)),
		num(ColPolicyAgeDays, float64(d.PolicyAgeDays)),
		num(ColDaysSincePolicyStart, float64(d.DaysSincePolicyStart)),
		num(ColCustomerFeedbackScore, float64(d.CustomerFeedbackScore)),

		cat(ColAgeGroup, d.AgeGroup),
		cat(ColIncomeBracket, d.IncomeBracket),
		num(ColCreditCategory, float64(d.CreditCategory)),
		cat(ColDependentsGroup, d.DependentsGroup),
		num(ColAgeXHealth, d.AgeXHealth),
		num(ColCreditScoreXPrevClaims, float64(d.CreditScoreXPrevClaims)),
		num(ColIsSmoker, float64(d.IsSmoker)),
		num(ColLowCreditScore, float64(d.LowCreditScore)),
		num(ColMultipleClaims, float64(d.MultipleClaims)),
		num(ColExerciseFreqScore, float64(d.ExerciseFreqScore)),
		num(ColIncomeXCredit, d.IncomeXCredit),
	}
}

func num(name string, v float64) Feature {
	return Feature{Name: name, Type: ColumnNumeric, Number: v}
}

func cat(name, v string) Feature {
	return Feature{Name: name, Type: ColumnCategorical, Text: v}
}
