package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrStepNil         = errors.New("pipeline: step is nil")
	ErrStepExists      = errors.New("pipeline: step already registered")
	ErrInvalidMetadata = errors.New("pipeline: invalid step metadata")
)

// Status classifies the outcome of a single step.
type Status string

const (
	StatusSkipped   Status = "skipped"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Result is the outcome a step reports when it returns without error.
// Failures travel on the error return instead.
type Result struct {
	Status Status
	Reason string
}

// Succeeded is the result of a step that did its work.
func Succeeded() Result { return Result{Status: StatusSucceeded} }

// Skipped is the result of a step that found nothing to do.
func Skipped(reason string) Result { return Result{Status: StatusSkipped, Reason: reason} }

// StepMetadata identifies a step in logs and reports.
type StepMetadata struct {
	ID          string
	Name        string
	Description string
}

// Step is one named action in the install sequence.
type Step interface {
	Metadata() StepMetadata
	Run(ctx context.Context) (Result, error)
}

// FuncStep adapts a bare function into a Step.
type FuncStep struct {
	Meta StepMetadata
	Fn   func(ctx context.Context) (Result, error)
}

func (s FuncStep) Metadata() StepMetadata { return s.Meta }

func (s FuncStep) Run(ctx context.Context) (Result, error) {
	if s.Fn == nil {
		return Result{}, fmt.Errorf("%w: %s has no run function", ErrStepNil, s.Meta.ID)
	}
	return s.Fn(ctx)
}

// ValidateMetadata checks required metadata fields and id format.
func ValidateMetadata(meta StepMetadata) error {
	id := strings.TrimSpace(meta.ID)
	name := strings.TrimSpace(meta.Name)
	desc := strings.TrimSpace(meta.Description)
	if id == "" || name == "" || desc == "" {
		return fmt.Errorf("%w: id, name, and description are required", ErrInvalidMetadata)
	}
	if !isValidID(id) {
		return fmt.Errorf("%w: invalid id format %q", ErrInvalidMetadata, id)
	}
	return nil
}

func isValidID(id string) bool {
	if id == "" {
		return false
	}
	lastSep := false
	for i := 0; i < len(id); i++ {
		c := id[i]
		isLower := c >= 'a' && c <= 'z'
		isDigit := c >= '0' && c <= '9'
		isSep := c == '.' || c == '-' || c == '_'
		if !(isLower || isDigit || isSep) {
			return false
		}
		if i == 0 || i == len(id)-1 {
			if isSep {
				return false
			}
		}
		if isSep && lastSep {
			return false
		}
		lastSep = isSep
	}
	return true
}
