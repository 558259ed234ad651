package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"premium-estimator/internal/features"
	"premium-estimator/internal/model"
	"premium-estimator/internal/service"
)

const (
	colorGreen = "\033[32m"
	colorRed   = "\033[31m"
	colorCyan  = "\033[36m"
	colorReset = "\033[0m"
)

// schema_check verifica offline que un perfil y un artefacto de modelo sean compatibles
// y que los escenarios de referencia produzcan el resultado esperado.
func main() {
	_ = godotenv.Load()

	var (
		modelPath     = flag.String("model", os.Getenv("MODEL_PATH"), "Model artifact path")
		profilePath   = flag.String("profile", os.Getenv("PROFILE_PATH"), "Deployment profile path (default profile when empty)")
		scenariosPath = flag.String("scenarios", "", "YAML scenario file (built-in scenarios when empty)")
		date          = flag.String("date", "", "Evaluation date YYYY-MM-DD (today when empty)")
	)
	flag.Parse()

	if *modelPath == "" {
		log.Fatal("no model artifact: pass -model or set MODEL_PATH")
	}

	profile := features.DefaultProfile()
	if *profilePath != "" {
		p, err := features.LoadProfile(*profilePath)
		if err != nil {
			log.Fatalf("load profile: %v", err)
		}
		profile = p
	}

	adapter, err := model.Open(*modelPath, model.RemoteOptions{APIKey: os.Getenv("SCORER_API_KEY")})
	if err != nil {
		log.Fatalf("load model: %v", err)
	}
	artifact := adapter.Artifact()

	now := time.Now().UTC()
	if *date != "" {
		if now, err = time.Parse("2006-01-02", *date); err != nil {
			log.Fatalf("parse -date: %v", err)
		}
	}

	scenarios := defaultScenarios()
	if *scenariosPath != "" {
		if scenarios, err = loadScenarios(*scenariosPath); err != nil {
			log.Fatalf("load scenarios: %v", err)
		}
	}

	fmt.Printf("%s[Model]%s %s %s (%s, %d columns)\n", colorCyan, colorReset, artifact.Name, artifact.Version, artifact.Estimator.Kind, len(artifact.Schema))
	fmt.Printf("%s[Profile]%s %s (model_version=%q)\n\n", colorCyan, colorReset, profile.Name, profile.ModelVersion)

	failed := 0
	if profile.ModelVersion != "" && profile.ModelVersion != artifact.Version {
		fmt.Printf("%sFAIL%s profile expects model %s, artifact is %s\n", colorRed, colorReset, profile.ModelVersion, artifact.Version)
		failed++
	}

	svc := service.NewQuoteService(zap.NewNop(), features.NewDeriver(profile), adapter, nil).
		WithClock(func() time.Time { return now })

	ctx := context.Background()
	for _, sc := range scenarios {
		res := evaluateScenario(ctx, svc, sc)
		if res.Passed {
			line := string(res.Got)
			if res.Got == ExpectOK {
				line = fmt.Sprintf("premium %.2f", res.Premium)
			}
			fmt.Printf("%sPASS%s %-24s %s\n", colorGreen, colorReset, sc.Name, line)
			continue
		}
		failed++
		fmt.Printf("%sFAIL%s %-24s %s\n", colorRed, colorReset, sc.Name, res.Detail)
	}

	fmt.Println("\n==== Resumen ====")
	fmt.Printf("Escenarios: %d | Fallidos: %d\n", len(scenarios), failed)
	if failed > 0 {
		os.Exit(1)
	}
}
