package features

import (
	"errors"
	"fmt"
)

var (
	ErrValidation       = errors.New("validation failed")
	ErrUnmappedCategory = errors.New("unmapped category")
	ErrInvalidProfile   = errors.New("invalid profile")
)

// ValidationError senala un atributo ausente, fuera de rango o fuera de su dominio.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("%s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("%s=%v: %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// UnmappedCategoryError indica que un valor categorico no tiene entrada en una tabla de derivacion.
type UnmappedCategoryError struct {
	Field string
	Value string
	Table string
}

func (e *UnmappedCategoryError) Error() string {
	return fmt.Sprintf("%s=%q has no entry in %s", e.Field, e.Value, e.Table)
}

func (e *UnmappedCategoryError) Is(target error) bool {
	return target == ErrUnmappedCategory
}

func missing(field string) error {
	return &ValidationError{Field: field, Reason: "required field missing"}
}
