package features

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Claves de atributo, iguales a los nombres JSON del formulario.
const (
	FieldAge                = "age"
	FieldGender             = "gender"
	FieldAnnualIncome       = "annual_income"
	FieldMaritalStatus      = "marital_status"
	FieldNumberOfDependents = "number_of_dependents"
	FieldEducationLevel     = "education_level"
	FieldOccupation         = "occupation"
	FieldHealthScore        = "health_score"
	FieldLocation           = "location"
	FieldPolicyType         = "policy_type"
	FieldPreviousClaims     = "previous_claims"
	FieldVehicleAge         = "vehicle_age"
	FieldCreditScore        = "credit_score"
	FieldInsuranceDuration  = "insurance_duration"
	FieldSmokingStatus      = "smoking_status"
	FieldExerciseFrequency  = "exercise_frequency"
	FieldPropertyType       = "property_type"
	FieldPolicyStartDate    = "policy_start_date"
	FieldCustomerFeedback   = "customer_feedback"
)

// FeedbackPolicy define como se obtiene Customer_Feedback_Score.
type FeedbackPolicy string

const (
	FeedbackConstant FeedbackPolicy = "constant"
	FeedbackMapped   FeedbackPolicy = "mapped"
)

type Bounds struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

func (b Bounds) contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

type FeedbackConfig struct {
	Policy FeedbackPolicy `yaml:"policy" json:"policy"`
	Value  *int           `yaml:"value,omitempty" json:"value,omitempty"`
	Scores map[string]int `yaml:"scores,omitempty" json:"scores,omitempty"`
}

// Profile describe el contrato de un despliegue: rangos, vocabularios y tablas
// con los que se entreno el artefacto del modelo.
type Profile struct {
	Name           string              `yaml:"name" json:"name"`
	ModelVersion   string              `yaml:"model_version" json:"model_version,omitempty"`
	Location       string              `yaml:"location" json:"location"`
	Bounds         map[string]Bounds   `yaml:"bounds" json:"bounds"`
	Vocabularies   map[string][]string `yaml:"vocabularies" json:"vocabularies"`
	ExerciseScores map[string]int      `yaml:"exercise_scores" json:"exercise_scores"`
	Feedback       FeedbackConfig      `yaml:"feedback" json:"feedback"`

	loc *time.Location
}

// DefaultProfile devuelve el perfil del formulario publicado.
func DefaultProfile() *Profile {
	one := 1
	p := &Profile{
		Name:     "default",
		Location: "UTC",
		Bounds: map[string]Bounds{
			FieldAge:                {Min: 18, Max: 100},
			FieldAnnualIncome:       {Min: 0, Max: 5000000},
			FieldNumberOfDependents: {Min: 0, Max: 10},
			FieldHealthScore:        {Min: 0, Max: 100},
			FieldPreviousClaims:     {Min: 0, Max: 20},
			FieldVehicleAge:         {Min: 0, Max: 20},
			FieldCreditScore:        {Min: 300, Max: 900},
			FieldInsuranceDuration:  {Min: 1, Max: 30},
		},
		Vocabularies: map[string][]string{
			FieldGender:           {"Male", "Female", "Other"},
			FieldMaritalStatus:    {"Single", "Married", "Divorced"},
			FieldEducationLevel:   {"High School", "Graduate", "Post Graduate", "PhD", "Other"},
			FieldOccupation:       {"Salaried", "Self-Employed", "Business", "Student", "Retired", "Other"},
			FieldLocation:         {"Urban", "Rural", "Semi-Urban"},
			FieldPolicyType:       {"Basic", "Standard", "Premium", "Gold", "Platinum"},
			FieldSmokingStatus:    {"No", "Yes"},
			FieldPropertyType:     {"Owned", "Rented", "Leased"},
			FieldCustomerFeedback: {"Poor", "Average", "Good", "Excellent"},
		},
		ExerciseScores: map[string]int{
			"Daily":   4,
			"Weekly":  3,
			"Monthly": 2,
			"Rarely":  1,
			"Never":   0,
			"None":    0,
		},
		Feedback: FeedbackConfig{Policy: FeedbackConstant, Value: &one},
	}
	p.loc = time.UTC
	return p
}

// LoadProfile lee un perfil YAML. Los rangos y vocabularios omitidos se toman del
// perfil por defecto; la politica de feedback debe declararse siempre.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile %s: %w", path, err)
	}
	return ParseProfile(data)
}

// ParseProfile decodifica y valida un perfil YAML.
func ParseProfile(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: decode yaml: %v", ErrInvalidProfile, err)
	}

	def := DefaultProfile()
	if p.Name == "" {
		p.Name = def.Name
	}
	if p.Location == "" {
		p.Location = def.Location
	}
	if p.Bounds == nil {
		p.Bounds = map[string]Bounds{}
	}
	for field, b := range def.Bounds {
		if _, ok := p.Bounds[field]; !ok {
			p.Bounds[field] = b
		}
	}
	if p.Vocabularies == nil {
		p.Vocabularies = map[string][]string{}
	}
	for field, v := range def.Vocabularies {
		if _, ok := p.Vocabularies[field]; !ok {
			p.Vocabularies[field] = v
		}
	}
	if len(p.ExerciseScores) == 0 {
		p.ExerciseScores = def.ExerciseScores
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate revisa la coherencia del perfil y resuelve la zona horaria.
func (p *Profile) Validate() error {
	for field, b := range p.Bounds {
		if math.IsNaN(b.Min) || math.IsNaN(b.Max) || b.Min > b.Max {
			return fmt.Errorf("%w: bounds for %s are inverted", ErrInvalidProfile, field)
		}
	}
	for field, words := range p.Vocabularies {
		if len(words) == 0 {
			return fmt.Errorf("%w: vocabulary %s is empty", ErrInvalidProfile, field)
		}
	}
	if len(p.ExerciseScores) == 0 {
		return fmt.Errorf("%w: exercise_scores is empty", ErrInvalidProfile)
	}

	switch p.Feedback.Policy {
	case FeedbackConstant:
		if p.Feedback.Value == nil {
			return fmt.Errorf("%w: feedback policy constant requires value", ErrInvalidProfile)
		}
	case FeedbackMapped:
		if len(p.Feedback.Scores) == 0 {
			return fmt.Errorf("%w: feedback policy mapped requires scores", ErrInvalidProfile)
		}
		for word := range p.Feedback.Scores {
			if _, ok := p.canonical(FieldCustomerFeedback, word); !ok {
				return fmt.Errorf("%w: feedback score %q is not in the %s vocabulary", ErrInvalidProfile, word, FieldCustomerFeedback)
			}
		}
	case "":
		return fmt.Errorf("%w: feedback.policy must be declared", ErrInvalidProfile)
	default:
		return fmt.Errorf("%w: unknown feedback policy %q", ErrInvalidProfile, p.Feedback.Policy)
	}

	loc, err := time.LoadLocation(p.Location)
	if err != nil {
		return fmt.Errorf("%w: location %q: %v", ErrInvalidProfile, p.Location, err)
	}
	p.loc = loc
	return nil
}

// ExerciseOptions lista los valores aceptados de frecuencia de ejercicio, de mayor a menor puntaje.
func (p *Profile) ExerciseOptions() []string {
	opts := make([]string, 0, len(p.ExerciseScores))
	for k := range p.ExerciseScores {
		opts = append(opts, k)
	}
	sort.SliceStable(opts, func(i, j int) bool {
		si, sj := p.ExerciseScores[opts[i]], p.ExerciseScores[opts[j]]
		if si != sj {
			return si > sj
		}
		return opts[i] < opts[j]
	})
	return opts
}

func (p *Profile) location() *time.Location {
	if p.loc == nil {
		return time.UTC
	}
	return p.loc
}

// canonical busca value en el vocabulario sin distinguir mayusculas y devuelve la grafia oficial.
func (p *Profile) canonical(field, value string) (string, bool) {
	words, ok := p.Vocabularies[field]
	if !ok {
		return value, true
	}
	value = strings.TrimSpace(value)
	for _, w := range words {
		if strings.EqualFold(w, value) {
			return w, true
		}
	}
	return "", false
}

// lookupScore busca value en una tabla sin distinguir mayusculas.
func lookupScore(table map[string]int, value string) (string, int, bool) {
	value = strings.TrimSpace(value)
	if score, ok := table[value]; ok {
		return value, score, true
	}
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if strings.EqualFold(k, value) {
			return k, table[k], true
		}
	}
	return "", 0, false
}
