package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/unisphere/gradebook/internal/app/models"
	"github.com/unisphere/gradebook/internal/app/repositories"
	"github.com/unisphere/gradebook/internal/pkg/apperrors"
	"github.com/unisphere/gradebook/internal/pkg/helpers"
)

// percentagePlaces is the precision weighted percentages are stored with
const percentagePlaces = 2

// FinalizationEngine computes the final grades of a section
type FinalizationEngine struct {
	logger zerolog.Logger
}

// NewFinalizationEngine creates a new FinalizationEngine
func NewFinalizationEngine(logger zerolog.Logger) *FinalizationEngine {
	return &FinalizationEngine{logger: logger.With().Str("component", "finalization_engine").Logger()}
}

type studentAssessment struct {
	studentID    int64
	assessmentID int64
}

// Compute produces one grade per actively enrolled student, in roster order.
// All reads go through tx so they observe a single snapshot.
//
// An assessment without a recorded result counts as zero for that student;
// the grade carries the number of such assessments.
func (e *FinalizationEngine) Compute(ctx context.Context, tx repositories.Store, courseOfferingID int64, section string) ([]models.StudentGrade, error) {
	total, err := NewWeightLedger(tx.Assessments()).TotalWeight(ctx, courseOfferingID, nil)
	if err != nil {
		return nil, err
	}
	if total != models.MaxTotalWeight {
		return nil, apperrors.NewIncompleteWeightError(total)
	}

	registry := NewGradingSchemeRegistry(tx, nil)
	scheme, err := registry.Get(ctx, courseOfferingID, section)
	if err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, apperrors.NewMissingSchemeError()
		}
		return nil, err
	}

	roster, err := tx.Academics().ActiveEnrollments(ctx, courseOfferingID, section)
	if err != nil {
		return nil, fmt.Errorf("error loading enrollments: %w", err)
	}

	assessments, err := tx.Assessments().ListByCourseOffering(ctx, courseOfferingID)
	if err != nil {
		return nil, fmt.Errorf("error loading assessments: %w", err)
	}

	assessmentIDs := make([]int64, 0, len(assessments))
	for _, a := range assessments {
		assessmentIDs = append(assessmentIDs, a.ID)
	}
	rows, err := NewResultStore(tx).GetByAssessmentIDs(ctx, assessmentIDs, roster)
	if err != nil {
		return nil, err
	}
	results := make(map[studentAssessment]models.AssessmentResult, len(rows))
	for _, r := range rows {
		results[studentAssessment{studentID: r.StudentID, assessmentID: r.AssessmentID}] = r
	}

	grades := make([]models.StudentGrade, 0, len(roster))
	missingTotal := 0
	for _, studentID := range roster {
		sum := 0.0
		missing := 0
		for _, a := range assessments {
			res, ok := results[studentAssessment{studentID: studentID, assessmentID: a.ID}]
			if !ok {
				if a.Weightage > 0 {
					missing++
				}
				continue
			}
			sum += res.Percentage() * float64(a.Weightage) / 100
		}

		// Resolve on the exact sum; only the stored percentage is rounded.
		resolution := registry.Resolve(scheme.Rules, sum)
		pct := helpers.RoundTo(sum, percentagePlaces)
		grades = append(grades, models.StudentGrade{
			StudentID:          studentID,
			Grade:              resolution.Grade,
			GradePoint:         resolution.GradePoint,
			WeightedPercentage: pct,
			MissingAssessments: missing,
		})
		missingTotal += missing
	}

	if missingTotal > 0 {
		e.logger.Warn().
			Int64("courseOfferingID", courseOfferingID).
			Str("section", section).
			Int("missingResults", missingTotal).
			Msg("Assessments without a recorded result were counted as zero")
	}

	return grades, nil
}
