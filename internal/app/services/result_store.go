package services

import (
	"context"
	"fmt"
	"math"

	"github.com/unisphere/gradebook/internal/app/models"
	"github.com/unisphere/gradebook/internal/app/repositories"
	"github.com/unisphere/gradebook/internal/pkg/apperrors"
)

// ResultEntry is the marks of one student for one assessment
type ResultEntry struct {
	StudentID     int64
	MarksObtained float64
	TotalMarks    float64
}

// ResultStore records raw marks
type ResultStore struct {
	store repositories.Store
	now   Clock
}

// NewResultStore creates a new ResultStore
func NewResultStore(store repositories.Store) *ResultStore {
	return &ResultStore{store: store, now: defaultClock}
}

// validateResultEntries returns one field error per violated constraint
func validateResultEntries(entries []ResultEntry) []apperrors.FieldError {
	var fields []apperrors.FieldError
	for i, e := range entries {
		prefix := fmt.Sprintf("results[%d]", i)
		if e.StudentID <= 0 {
			fields = append(fields, apperrors.FieldError{Field: prefix + ".studentId", Message: "must be a positive id"})
		}
		switch {
		case math.IsNaN(e.TotalMarks) || math.IsInf(e.TotalMarks, 0):
			fields = append(fields, apperrors.FieldError{Field: prefix + ".totalMarks", Message: "must be a finite number"})
		case e.TotalMarks <= 0:
			fields = append(fields, apperrors.FieldError{Field: prefix + ".totalMarks", Message: "must be greater than 0"})
		}
		switch {
		case math.IsNaN(e.MarksObtained) || math.IsInf(e.MarksObtained, 0):
			fields = append(fields, apperrors.FieldError{Field: prefix + ".marksObtained", Message: "must be a finite number"})
		case e.MarksObtained < 0:
			fields = append(fields, apperrors.FieldError{Field: prefix + ".marksObtained", Message: "must not be negative"})
		case e.TotalMarks > 0 && e.MarksObtained > e.TotalMarks:
			fields = append(fields, apperrors.FieldError{
				Field:   prefix + ".marksObtained",
				Message: fmt.Sprintf("must not exceed totalMarks (%g)", e.TotalMarks),
			})
		}
	}
	return fields
}

// dedupeEntries keeps the last entry of every student, in first-seen order
func dedupeEntries(entries []ResultEntry) []ResultEntry {
	index := make(map[int64]int, len(entries))
	deduped := make([]ResultEntry, 0, len(entries))
	for _, e := range entries {
		if i, ok := index[e.StudentID]; ok {
			deduped[i] = e
			continue
		}
		index[e.StudentID] = len(deduped)
		deduped = append(deduped, e)
	}
	return deduped
}

// UpsertMany validates every entry and writes the batch in one transaction.
// A single invalid entry rejects the whole batch.
func (s *ResultStore) UpsertMany(ctx context.Context, assessmentID int64, entries []ResultEntry) (int, error) {
	if len(entries) == 0 {
		return 0, apperrors.NewValidationError("at least one result entry is required")
	}
	if fields := validateResultEntries(entries); len(fields) > 0 {
		return 0, apperrors.NewValidationError("invalid result entries", fields...)
	}

	now := s.now()
	deduped := dedupeEntries(entries)
	results := make([]models.AssessmentResult, 0, len(deduped))
	for _, e := range deduped {
		results = append(results, models.AssessmentResult{
			AssessmentID:  assessmentID,
			StudentID:     e.StudentID,
			MarksObtained: e.MarksObtained,
			TotalMarks:    e.TotalMarks,
			UpdatedAt:     now,
		})
	}

	var count int
	err := s.store.WithinTransaction(ctx, repositories.TxOptions{}, func(ctx context.Context, tx repositories.Store) error {
		if _, err := tx.Assessments().GetByID(ctx, assessmentID); err != nil {
			return err
		}
		n, err := tx.Results().UpsertMany(ctx, assessmentID, results)
		if err != nil {
			return err
		}
		count = n
		return nil
	})
	if err != nil {
		return 0, translateStoreError(err, "assessment not found")
	}
	return count, nil
}

// GetByAssessmentIDs returns the recorded results of the students for the assessments
func (s *ResultStore) GetByAssessmentIDs(ctx context.Context, assessmentIDs, studentIDs []int64) ([]models.AssessmentResult, error) {
	if len(assessmentIDs) == 0 || len(studentIDs) == 0 {
		return []models.AssessmentResult{}, nil
	}
	results, err := s.store.Results().ListByAssessmentIDs(ctx, assessmentIDs, studentIDs)
	if err != nil {
		return nil, fmt.Errorf("error loading assessment results: %w", err)
	}
	return results, nil
}
