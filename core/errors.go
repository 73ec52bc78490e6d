package core

import (
	"errors"
	"fmt"
)

// Operation names the user action a model call belonged to.
type Operation string

const (
	OpMaterialGeneration Operation = "generating material code"
	OpTextureGeneration  Operation = "generating texture code"
	OpRecommendation     Operation = "getting recommendations"
	OpModification       Operation = "modifying code"
)

var ErrNoCode = errors.New("no generated code to modify")

// OperationError is returned when the model call for an operation fails.
type OperationError struct {
	Op  Operation
	Err error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("error with the model while %s: %v", e.Op, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }

// OperationFor maps a template kind onto the operation it performs.
func OperationFor(kind Kind) Operation {
	switch kind {
	case KindMaterial:
		return OpMaterialGeneration
	case KindTexture:
		return OpTextureGeneration
	case KindRecommendation:
		return OpRecommendation
	default:
		return OpModification
	}
}
