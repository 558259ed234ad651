package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// Nombres de columna del esquema de entrenamiento.
const (
	ColAge                = "Age"
	ColGender             = "Gender"
	ColAnnualIncome       = "Annual Income"
	ColMaritalStatus      = "Marital Status"
	ColNumberOfDependents = "Number of Dependents"
	ColEducationLevel     = "Education Level"
	ColOccupation         = "Occupation"
	ColHealthScore        = "Health Score"
	ColLocation           = "Location"
	ColPolicyType         = "Policy Type"
	ColPreviousClaims     = "Previous Claims"
	ColVehicleAge         = "Vehicle Age"
	ColCreditScore        = "Credit Score"
	ColInsuranceDuration  = "Insurance Duration"
	ColSmokingStatus      = "Smoking Status"
	ColExerciseFrequency  = "Exercise Frequency"
	ColPropertyType       = "Property Type"

	ColPolicyStartYear       = "Policy Start Year"
	ColPolicyStartMonth      = "Policy Start Month"
	ColPolicyStartDay        = "Policy Start Day"
	ColPolicyAgeDays         = "Policy Age (Days)"
	ColDaysSincePolicyStart  = "Days_Since_Policy_Start"
	ColCustomerFeedbackScore = "Customer_Feedback_Score"

	ColAgeGroup               = "Age Group"
	ColIncomeBracket          = "Income_Bracket"
	ColCreditCategory         = "Credit_Category"
	ColDependentsGroup        = "Dependents_Group"
	ColAgeXHealth             = "Age_x_Health"
	ColCreditScoreXPrevClaims = "CreditScore_x_PrevClaims"
	ColIsSmoker               = "Is_Smoker"
	ColLowCreditScore         = "Low_Credit_Score"
	ColMultipleClaims         = "Multiple_Claims"
	ColExerciseFreqScore      = "Exercise_Freq_Score"
	ColIncomeXCredit          = "Income_x_Credit"
)

// ColumnType indica como el modelo interpreta una columna.
type ColumnType string

const (
	ColumnNumeric     ColumnType = "numeric"
	ColumnCategorical ColumnType = "categorical"
)

// Feature es una celda del registro final: numerica o categorica.
type Feature struct {
	Name   string
	Type   ColumnType
	Number float64
	Text   string
}

// Value devuelve el valor nativo de la celda (float64 o string).
func (f Feature) Value() any {
	if f.Type == ColumnCategorical {
		return f.Text
	}
	return f.Number
}

// FeatureRecord es el registro ordenado que consume el modelo.
type FeatureRecord []Feature

// Digest calcula un SHA-256 estable del registro; sirve como clave de cache y de auditoria.
func (r FeatureRecord) Digest() string {
	var b strings.Builder
	for _, f := range r {
		b.WriteString(f.Name)
		b.WriteByte('=')
		if f.Type == ColumnCategorical {
			b.WriteString(strconv.Quote(f.Text))
		} else {
			b.WriteString(strconv.FormatFloat(f.Number, 'g', -1, 64))
		}
		b.WriteByte('\n')
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
