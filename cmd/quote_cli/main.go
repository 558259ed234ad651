package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"premium-estimator/internal/config"
	"premium-estimator/internal/domain"
	"premium-estimator/internal/features"
	"premium-estimator/internal/model"
	"premium-estimator/internal/service"
)

// numericField describe una pregunta numerica del formulario con su valor inicial.
type numericField struct {
	field  string
	label  string
	def    float64
	target func(*domain.RawAttributes, float64)
}

type choiceField struct {
	field  string
	label  string
	target func(*domain.RawAttributes, string)
}

var numericFields = []numericField{
	{features.FieldAge, "Age", 35, func(r *domain.RawAttributes, v float64) { r.Age = int(v) }},
	{features.FieldAnnualIncome, "Annual Income", 50000, func(r *domain.RawAttributes, v float64) { r.AnnualIncome = v }},
	{features.FieldNumberOfDependents, "Number of Dependents", 1, func(r *domain.RawAttributes, v float64) { r.NumberOfDependents = int(v) }},
	{features.FieldHealthScore, "Health Score", 70, func(r *domain.RawAttributes, v float64) { r.HealthScore = v }},
	{features.FieldPreviousClaims, "Previous Claims", 0, func(r *domain.RawAttributes, v float64) { r.PreviousClaims = int(v) }},
	{features.FieldVehicleAge, "Vehicle Age (Years)", 5, func(r *domain.RawAttributes, v float64) { r.VehicleAge = int(v) }},
	{features.FieldCreditScore, "Credit Score", 650, func(r *domain.RawAttributes, v float64) { r.CreditScore = int(v) }},
	{features.FieldInsuranceDuration, "Insurance Duration (Years)", 1, func(r *domain.RawAttributes, v float64) { r.InsuranceDuration = int(v) }},
}

var choiceFields = []choiceField{
	{features.FieldGender, "Gender", func(r *domain.RawAttributes, v string) { r.Gender = v }},
	{features.FieldMaritalStatus, "Marital Status", func(r *domain.RawAttributes, v string) { r.MaritalStatus = v }},
	{features.FieldEducationLevel, "Education Level", func(r *domain.RawAttributes, v string) { r.EducationLevel = v }},
	{features.FieldOccupation, "Occupation", func(r *domain.RawAttributes, v string) { r.Occupation = v }},
	{features.FieldLocation, "Location", func(r *domain.RawAttributes, v string) { r.Location = v }},
	{features.FieldPolicyType, "Policy Type", func(r *domain.RawAttributes, v string) { r.PolicyType = v }},
	{features.FieldSmokingStatus, "Smoking Status", func(r *domain.RawAttributes, v string) { r.SmokingStatus = v }},
	{features.FieldExerciseFrequency, "Exercise Frequency", func(r *domain.RawAttributes, v string) { r.ExerciseFrequency = v }},
	{features.FieldPropertyType, "Property Type", func(r *domain.RawAttributes, v string) { r.PropertyType = v }},
}

func main() {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := zap.NewExample()
	defer logger.Sync()

	profile := features.DefaultProfile()
	if cfg.ProfilePath != "" {
		if profile, err = features.LoadProfile(cfg.ProfilePath); err != nil {
			log.Fatalf("cargar perfil: %v", err)
		}
	}

	adapter, err := model.Open(cfg.ModelPath, model.RemoteOptions{APIKey: cfg.ScorerAPIKey, Timeout: cfg.ScorerTimeout, Logger: logger})
	if err != nil {
		log.Fatalf("cargar modelo: %v", err)
	}
	quoteSvc := service.NewQuoteService(logger, features.NewDeriver(profile), adapter, nil)

	fmt.Printf("===== Insurance Premium Estimator (%s %s, perfil %s) =====\n",
		adapter.Artifact().Name, adapter.Artifact().Version, profile.Name)

	for {
		raw := askAttributes(reader, profile)

		derived, record, err := quoteSvc.Derive(ctx, raw)
		if err != nil {
			printError(err)
		} else {
			fmt.Printf("\nGrupo de edad: %s | Ingreso: %s | Categoria crediticia: %d | Dependientes: %s\n",
				derived.AgeGroup, derived.IncomeBracket, derived.CreditCategory, derived.DependentsGroup)

			quote, err := quoteSvc.EstimateRecord(ctx, "cli", record)
			if err != nil {
				printError(err)
			} else {
				fmt.Printf("Prima estimada: %.2f\n", quote.Premium)
			}
		}

		fmt.Print("\nOtra cotizacion? [s/N]: ")
		again, _ := reader.ReadString('\n')
		if !strings.EqualFold(strings.TrimSpace(again), "s") {
			return
		}
	}
}

func askAttributes(reader *bufio.Reader, profile *features.Profile) domain.RawAttributes {
	var raw domain.RawAttributes
	for _, f := range numericFields {
		f.target(&raw, askNumber(reader, f, profile.Bounds[f.field]))
	}
	for _, f := range choiceFields {
		options := profile.Vocabularies[f.field]
		if f.field == features.FieldExerciseFrequency {
			options = profile.ExerciseOptions()
		}
		f.target(&raw, askChoice(reader, f.label, options))
	}
	if profile.Feedback.Policy == features.FeedbackMapped {
		raw.CustomerFeedback = askChoice(reader, "Customer Feedback", profile.Vocabularies[features.FieldCustomerFeedback])
	}
	return raw
}

func askNumber(reader *bufio.Reader, f numericField, b features.Bounds) float64 {
	for {
		fmt.Printf("%s [%g-%g] (%g): ", f.label, b.Min, b.Max, f.def)
		line, _ := reader.ReadString('\n')
		line = strings.TrimSpace(line)
		if line == "" {
			return f.def
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil || v < b.Min || v > b.Max {
			fmt.Println("Valor invalido.")
			continue
		}
		return v
	}
}

func askChoice(reader *bufio.Reader, label string, options []string) string {
	for {
		fmt.Printf("%s:\n", label)
		for i, o := range options {
			fmt.Printf("  [%d] %s\n", i+1, o)
		}
		fmt.Print("Seleccion (1): ")
		line, _ := reader.ReadString('\n')
		line = strings.TrimSpace(line)
		if line == "" {
			return options[0]
		}
		idx, err := strconv.Atoi(line)
		if err != nil || idx < 1 || idx > len(options) {
			fmt.Println("Seleccion invalida.")
			continue
		}
		return options[idx-1]
	}
}

func printError(err error) {
	var vErr *features.ValidationError
	var uErr *features.UnmappedCategoryError
	switch {
	case errors.As(err, &vErr):
		fmt.Printf("Dato invalido en %s: %s\n", vErr.Field, vErr.Reason)
	case errors.As(err, &uErr):
		fmt.Printf("%s %q no tiene puntaje en %s\n", uErr.Field, uErr.Value, uErr.Table)
	default:
		fmt.Printf("Error: %v\n", err)
	}
}
