// Package services holds the grade finalization workflow:
//   - WeightLedger: assessment weightage totals per course offering
//   - ResultStore: raw marks with atomic bulk upsert
//   - GradingSchemeRegistry: grading thresholds per section
//   - FinalizationEngine: weighted percentages resolved to grades
//   - FinalizationService: the finalize / withdraw / review workflow
//   - AssessmentService: assessment and marks management for instructors
package services

import (
	"errors"
	"time"

	"github.com/unisphere/gradebook/internal/app/repositories"
	"github.com/unisphere/gradebook/internal/pkg/apperrors"
)

// Clock returns the current time
type Clock func() time.Time

func defaultClock() time.Time {
	return time.Now().UTC()
}

// conflictMessage is shown when the storage layer detects a concurrent change
const conflictMessage = "the record was changed by a concurrent request, reload and retry"

// translateStoreError maps repository errors to application error kinds.
// Errors that already carry a kind are returned unchanged.
func translateStoreError(err error, notFoundMessage string) error {
	var ce *apperrors.CustomError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &ce):
		return err
	case errors.Is(err, repositories.ErrNotFound):
		return apperrors.NewResourceNotFoundError(notFoundMessage)
	case errors.Is(err, repositories.ErrConstraint):
		return apperrors.NewValidationError("value rejected by storage constraints")
	case errors.Is(err, repositories.ErrDuplicate),
		errors.Is(err, repositories.ErrConcurrentTransaction):
		return apperrors.NewConflictError(conflictMessage)
	default:
		return err
	}
}
