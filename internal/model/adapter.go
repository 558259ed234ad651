package model

import (
	"context"
	"fmt"
	"math"

	"premium-estimator/internal/domain"
)

// Predictor es el contrato que consume la capa de servicio.
type Predictor interface {
	Predict(ctx context.Context, record domain.FeatureRecord) (float64, error)
	Check(record domain.FeatureRecord) error
	Artifact() *Artifact
}

// Adapter envuelve un artefacto cargado y su estimador. Es de solo lectura y
// puede compartirse entre solicitudes concurrentes sin locks.
type Adapter struct {
	artifact  *Artifact
	estimator Estimator
}

func NewAdapter(artifact *Artifact, estimator Estimator) *Adapter {
	return &Adapter{artifact: artifact, estimator: estimator}
}

// Open carga el artefacto de path y arma su estimador.
func Open(path string, remote RemoteOptions) (*Adapter, error) {
	artifact, err := Load(path)
	if err != nil {
		return nil, err
	}
	est, err := NewEstimator(artifact, remote)
	if err != nil {
		return nil, &ModelLoadError{Path: path, Err: err}
	}
	return NewAdapter(artifact, est), nil
}

func (a *Adapter) Artifact() *Artifact {
	return a.artifact
}

// Check verifica que el registro tenga exactamente las columnas y tipos del artefacto.
func (a *Adapter) Check(record domain.FeatureRecord) error {
	_, err := a.align(record)
	return err
}

// Predict alinea el registro al orden del artefacto y devuelve la prima estimada.
func (a *Adapter) Predict(ctx context.Context, record domain.FeatureRecord) (float64, error) {
	row, err := a.align(record)
	if err != nil {
		return 0, err
	}
	v, err := a.estimator.Estimate(ctx, a.artifact.Schema, row)
	if err != nil {
		return 0, fmt.Errorf("estimate: %w", err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPrediction, v)
	}
	return v, nil
}

func (a *Adapter) align(record domain.FeatureRecord) ([]domain.Feature, error) {
	byName := make(map[string]domain.Feature, len(record))
	mismatch := &SchemaMismatchError{}
	for _, f := range record {
		if _, dup := byName[f.Name]; dup {
			mismatch.Extra = append(mismatch.Extra, f.Name)
			continue
		}
		byName[f.Name] = f
	}

	expected := make(map[string]struct{}, len(a.artifact.Schema))
	row := make([]domain.Feature, len(a.artifact.Schema))
	for i, col := range a.artifact.Schema {
		expected[col.Name] = struct{}{}
		f, ok := byName[col.Name]
		if !ok {
			mismatch.Missing = append(mismatch.Missing, col.Name)
			continue
		}
		if f.Type != col.Type {
			mismatch.WrongType = append(mismatch.WrongType, col.Name)
			continue
		}
		row[i] = f
	}
	for _, f := range record {
		if _, ok := expected[f.Name]; !ok {
			mismatch.Extra = append(mismatch.Extra, f.Name)
		}
	}

	if len(mismatch.Missing)+len(mismatch.Extra)+len(mismatch.WrongType) > 0 {
		return nil, mismatch
	}
	return row, nil
}
