package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrModelLoad         = errors.New("model load failed")
	ErrSchemaMismatch    = errors.New("schema mismatch")
	ErrInvalidPrediction = errors.New("invalid prediction")
)

// ModelLoadError envuelve cualquier falla al abrir o decodificar el artefacto.
// Es fatal al arrancar.
type ModelLoadError struct {
	Path string
	Err  error
}

func (e *ModelLoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load model artifact: %v", e.Err)
	}
	return fmt.Sprintf("load model artifact %s: %v", e.Path, e.Err)
}

func (e *ModelLoadError) Unwrap() error { return e.Err }

func (e *ModelLoadError) Is(target error) bool { return target == ErrModelLoad }

// SchemaMismatchError describe la diferencia entre el registro derivado y el esquema del artefacto.
type SchemaMismatchError struct {
	Missing   []string
	Extra     []string
	WrongType []string
}

func (e *SchemaMismatchError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}
	if len(e.Extra) > 0 {
		parts = append(parts, "unexpected "+strings.Join(e.Extra, ", "))
	}
	if len(e.WrongType) > 0 {
		parts = append(parts, "wrong type "+strings.Join(e.WrongType, ", "))
	}
	return "feature schema mismatch: " + strings.Join(parts, "; ")
}

func (e *SchemaMismatchError) Is(target error) bool { return target == ErrSchemaMismatch }
