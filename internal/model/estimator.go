package model

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"premium-estimator/internal/domain"
)

// Estimator evalua una fila ya alineada al esquema del artefacto.
type Estimator interface {
	Estimate(ctx context.Context, columns []Column, row []domain.Feature) (float64, error)
}

// RemoteOptions configura el estimador remoto.
type RemoteOptions struct {
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
	// Logger recibe los cuerpos de error del servicio remoto.
	Logger     *zap.Logger
}

// NewEstimator construye el estimador que declara el artefacto.
func NewEstimator(a *Artifact, remote RemoteOptions) (Estimator, error) {
	spec := a.Estimator
	switch spec.Kind {
	case KindLinear:
		return &linearEstimator{
			intercept:    spec.Intercept,
			coefficients: spec.Coefficients,
			levels:       spec.Levels,
		}, nil
	case KindTreeEnsemble:
		lr := spec.LearningRate
		if lr == 0 {
			lr = 1
		}
		return &treeEnsemble{baseScore: spec.BaseScore, learningRate: lr, trees: spec.Trees}, nil
	case KindRemote:
		return NewRemoteScorer(spec.URL, a.Name, a.Version, remote), nil
	default:
		return nil, fmt.Errorf("unknown estimator kind %q", spec.Kind)
	}
}

type linearEstimator struct {
	intercept    float64
	coefficients map[string]float64
	levels       map[string]map[string]float64
}

func (e *linearEstimator) Estimate(_ context.Context, columns []Column, row []domain.Feature) (float64, error) {
	sum := e.intercept
	for i, col := range columns {
		f := row[i]
		if col.Type == domain.ColumnCategorical {
			// Un nivel no visto en entrenamiento aporta 0, igual que un one-hot sin columna.
			sum += e.levels[col.Name][f.Text]
			continue
		}
		sum += e.coefficients[col.Name] * f.Number
	}
	return sum, nil
}

type treeEnsemble struct {
	baseScore    float64
	learningRate float64
	trees        []Tree
}

func (e *treeEnsemble) Estimate(ctx context.Context, columns []Column, row []domain.Feature) (float64, error) {
	index := make(map[string]int, len(columns))
	for i, col := range columns {
		index[col.Name] = i
	}

	sum := e.baseScore
	for ti, tree := range e.trees {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		leaf, err := walk(tree, index, row)
		if err != nil {
			return 0, fmt.Errorf("tree %d: %w", ti, err)
		}
		sum += e.learningRate * leaf
	}
	return sum, nil
}

func walk(tree Tree, index map[string]int, row []domain.Feature) (float64, error) {
	i := 0
	for {
		node := tree.Nodes[i]
		if node.Feature == "" {
			return node.Value, nil
		}
		pos, ok := index[node.Feature]
		if !ok {
			return 0, fmt.Errorf("feature %q not in row", node.Feature)
		}
		f := row[pos]
		left := false
		if node.Threshold != nil {
			left = f.Number < *node.Threshold
		} else if node.Category != nil {
			left = f.Text == *node.Category
		}
		if left {
			i = node.Left
		} else {
			i = node.Right
		}
	}
}
