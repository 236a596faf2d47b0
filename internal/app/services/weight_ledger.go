package services

import (
	"context"
	"fmt"

	"github.com/unisphere/gradebook/internal/app/models"
	"github.com/unisphere/gradebook/internal/app/repositories"
)

// WeightLedger reads the weightage totals of a course offering's assessments
type WeightLedger struct {
	assessments repositories.AssessmentRepository
}

// NewWeightLedger creates a WeightLedger over the given repository. Pass a
// transaction's repository to read inside that transaction.
func NewWeightLedger(assessments repositories.AssessmentRepository) *WeightLedger {
	return &WeightLedger{assessments: assessments}
}

// TotalWeight sums the offering's weightages, optionally skipping one assessment
func (l *WeightLedger) TotalWeight(ctx context.Context, courseOfferingID int64, excludingAssessmentID *int64) (int, error) {
	total, err := l.assessments.TotalWeight(ctx, courseOfferingID, excludingAssessmentID)
	if err != nil {
		return 0, fmt.Errorf("error reading total weight: %w", err)
	}
	return total, nil
}

// CanAdd reports whether newWeight fits without pushing the total above 100
func (l *WeightLedger) CanAdd(ctx context.Context, courseOfferingID int64, newWeight int, excludingAssessmentID *int64) (bool, error) {
	total, err := l.TotalWeight(ctx, courseOfferingID, excludingAssessmentID)
	if err != nil {
		return false, err
	}
	return total+newWeight <= models.MaxTotalWeight, nil
}
