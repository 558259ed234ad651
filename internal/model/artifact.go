package model

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"premium-estimator/internal/domain"
)

const artifactFormat = "premium-model/v1"

//go:embed artifact.schema.json
var artifactSchema []byte

// Column es una entrada del esquema con el que se entreno el modelo.
type Column struct {
	Name string            `json:"name"`
	Type domain.ColumnType `json:"type"`
}

// Artifact es el modelo pre-entrenado serializado. Se carga una vez y es de solo lectura.
type Artifact struct {
	Format    string        `json:"format"`
	Name      string        `json:"name"`
	Version   string        `json:"version"`
	TrainedAt string        `json:"trained_at,omitempty"`
	Schema    []Column      `json:"schema"`
	Estimator EstimatorSpec `json:"estimator"`
}

// EstimatorSpec agrupa los parametros de los estimadores soportados; Kind decide cuales aplican.
type EstimatorSpec struct {
	Kind string `json:"kind"`

	Intercept    float64                       `json:"intercept,omitempty"`
	Coefficients map[string]float64            `json:"coefficients,omitempty"`
	Levels       map[string]map[string]float64 `json:"levels,omitempty"`

	BaseScore    float64 `json:"base_score,omitempty"`
	LearningRate float64 `json:"learning_rate,omitempty"`
	Trees        []Tree  `json:"trees,omitempty"`

	URL string `json:"url,omitempty"`
}

type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Node es una hoja cuando Feature esta vacio. En un split numerico, value < Threshold va a Left;
// en uno categorico, value == Category va a Left.
type Node struct {
	Feature   string   `json:"feature,omitempty"`
	Threshold *float64 `json:"threshold,omitempty"`
	Category  *string  `json:"category,omitempty"`
	Left      int      `json:"left,omitempty"`
	Right     int      `json:"right,omitempty"`
	Value     float64  `json:"value,omitempty"`
}

const (
	KindLinear       = "linear"
	KindTreeEnsemble = "tree_ensemble"
	KindRemote       = "remote"
)

// Load lee y valida el artefacto en path. Cualquier falla es un *ModelLoadError.
func Load(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ModelLoadError{Path: path, Err: err}
	}
	a, err := Parse(data)
	if err != nil {
		var loadErr *ModelLoadError
		if errors.As(err, &loadErr) {
			loadErr.Path = path
		}
		return nil, err
	}
	return a, nil
}

// Parse valida data contra el JSON Schema embebido y decodifica el artefacto.
func Parse(data []byte) (*Artifact, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(artifactSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, &ModelLoadError{Err: fmt.Errorf("decode artifact: %w", err)}
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, &ModelLoadError{Err: fmt.Errorf("artifact violates schema: %s", strings.Join(msgs, "; "))}
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, &ModelLoadError{Err: fmt.Errorf("decode artifact: %w", err)}
	}
	if err := a.validate(); err != nil {
		return nil, &ModelLoadError{Err: err}
	}
	return &a, nil
}

func (a *Artifact) validate() error {
	types := make(map[string]domain.ColumnType, len(a.Schema))
	for _, c := range a.Schema {
		if _, dup := types[c.Name]; dup {
			return fmt.Errorf("duplicate column %q", c.Name)
		}
		types[c.Name] = c.Type
	}

	spec := a.Estimator
	switch spec.Kind {
	case KindLinear:
		for name := range spec.Coefficients {
			if types[name] != domain.ColumnNumeric {
				return fmt.Errorf("coefficient for %q: not a numeric column", name)
			}
		}
		for name := range spec.Levels {
			if types[name] != domain.ColumnCategorical {
				return fmt.Errorf("levels for %q: not a categorical column", name)
			}
		}
	case KindTreeEnsemble:
		if len(spec.Trees) == 0 {
			return errors.New("tree_ensemble without trees")
		}
		for ti, tree := range spec.Trees {
			if err := validateTree(tree, types); err != nil {
				return fmt.Errorf("tree %d: %w", ti, err)
			}
		}
	case KindRemote:
		if strings.TrimSpace(spec.URL) == "" {
			return errors.New("remote estimator without url")
		}
	default:
		return fmt.Errorf("unknown estimator kind %q", spec.Kind)
	}
	return nil
}

func validateTree(tree Tree, types map[string]domain.ColumnType) error {
	n := len(tree.Nodes)
	for i, node := range tree.Nodes {
		if node.Feature == "" {
			continue
		}
		// Los hijos siempre apuntan hacia adelante: asi no hay ciclos.
		if node.Left <= i || node.Left >= n || node.Right <= i || node.Right >= n {
			return fmt.Errorf("node %d: children out of range", i)
		}
		typ, ok := types[node.Feature]
		if !ok {
			return fmt.Errorf("node %d: unknown feature %q", i, node.Feature)
		}
		switch {
		case node.Threshold != nil && node.Category == nil && typ == domain.ColumnNumeric:
		case node.Category != nil && node.Threshold == nil && typ == domain.ColumnCategorical:
		default:
			return fmt.Errorf("node %d: split does not match %s column %q", i, typ, node.Feature)
		}
	}
	return nil
}
