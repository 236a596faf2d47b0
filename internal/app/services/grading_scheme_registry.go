package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/unisphere/gradebook/internal/app/auth"
	"github.com/unisphere/gradebook/internal/app/models"
	"github.com/unisphere/gradebook/internal/app/repositories"
	"github.com/unisphere/gradebook/internal/pkg/apperrors"
)

const maxGradeLabelLength = 8

// thresholdTolerance absorbs float noise from the weighted sum (e.g. 64.99999999999999 for 65)
const thresholdTolerance = 1e-9

// GradingSchemeRegistry stores grading schemes and resolves percentages to grades
type GradingSchemeRegistry struct {
	store repositories.Store
	authz *auth.AuthorizationService
}

// NewGradingSchemeRegistry creates a new GradingSchemeRegistry
func NewGradingSchemeRegistry(store repositories.Store, authz *auth.AuthorizationService) *GradingSchemeRegistry {
	return &GradingSchemeRegistry{store: store, authz: authz}
}

// ValidateGradingRules checks a full rule set before it is saved
func ValidateGradingRules(rules []models.GradingRule) error {
	if len(rules) == 0 {
		return apperrors.NewValidationError("no grading scheme defined")
	}

	var fields []apperrors.FieldError
	seen := make(map[float64]string, len(rules))
	for i, rule := range rules {
		prefix := fmt.Sprintf("rules[%d]", i)
		grade := strings.TrimSpace(rule.Grade)
		if grade == "" {
			fields = append(fields, apperrors.FieldError{Field: prefix + ".grade", Message: "is required"})
		} else if len(grade) > maxGradeLabelLength {
			fields = append(fields, apperrors.FieldError{
				Field:   prefix + ".grade",
				Message: fmt.Sprintf("must be at most %d characters", maxGradeLabelLength),
			})
		}

		if math.IsNaN(rule.MinPercentage) || rule.MinPercentage < 0 || rule.MinPercentage > 100 {
			fields = append(fields, apperrors.FieldError{Field: prefix + ".minPercentage", Message: "must be between 0 and 100"})
		} else if other, dup := seen[rule.MinPercentage]; dup {
			fields = append(fields, apperrors.FieldError{
				Field:   prefix + ".minPercentage",
				Message: fmt.Sprintf("threshold %g is already used by grade %s", rule.MinPercentage, other),
			})
		} else {
			seen[rule.MinPercentage] = grade
		}

		if math.IsNaN(rule.GradePoint) || math.IsInf(rule.GradePoint, 0) || rule.GradePoint < 0 {
			fields = append(fields, apperrors.FieldError{Field: prefix + ".gradePoint", Message: "must be a non-negative number"})
		}
	}
	if len(fields) > 0 {
		return apperrors.NewValidationError("invalid grading scheme", fields...)
	}
	return nil
}

// SortRules returns a copy of rules ordered by minPercentage, highest first.
// Rules sharing a threshold keep their relative order.
func SortRules(rules []models.GradingRule) []models.GradingRule {
	sorted := append([]models.GradingRule{}, rules...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MinPercentage > sorted[j].MinPercentage
	})
	return sorted
}

// ResolveGrade returns the first rule, after SortRules, whose threshold the
// percentage reaches, or FallbackGrade when it reaches none.
func ResolveGrade(rules []models.GradingRule, percentage float64) models.GradeResolution {
	return resolveSorted(SortRules(rules), percentage)
}

// resolveSorted expects rules already ordered by SortRules
func resolveSorted(sorted []models.GradingRule, percentage float64) models.GradeResolution {
	for _, rule := range sorted {
		if rule.MinPercentage <= percentage+thresholdTolerance {
			return models.GradeResolution{Grade: rule.Grade, GradePoint: rule.GradePoint}
		}
	}
	return models.FallbackGrade
}

// Resolve maps a percentage to a grade using rules
func (r *GradingSchemeRegistry) Resolve(rules []models.GradingRule, percentage float64) models.GradeResolution {
	return ResolveGrade(rules, percentage)
}

// Save replaces the full grading scheme of a section
func (r *GradingSchemeRegistry) Save(ctx context.Context, courseOfferingID int64, section string, rules []models.GradingRule) (*models.GradingScheme, error) {
	section = strings.TrimSpace(section)
	if section == "" {
		return nil, apperrors.NewValidationError("section is required")
	}
	if err := ValidateGradingRules(rules); err != nil {
		return nil, err
	}

	normalized := make([]models.GradingRule, len(rules))
	for i, rule := range rules {
		rule.Grade = strings.TrimSpace(rule.Grade)
		normalized[i] = rule
	}

	err := r.store.WithinTransaction(ctx, repositories.TxOptions{}, func(ctx context.Context, tx repositories.Store) error {
		exists, err := tx.Academics().CourseOfferingExists(ctx, courseOfferingID)
		if err != nil {
			return err
		}
		if !exists {
			return repositories.ErrNotFound
		}
		return tx.GradingRules().Replace(ctx, courseOfferingID, section, normalized)
	})
	if err != nil {
		return nil, translateStoreError(err, "course offering not found")
	}

	return &models.GradingScheme{
		CourseOfferingID: courseOfferingID,
		Section:          section,
		Rules:            SortRules(normalized),
	}, nil
}

// Get returns the section's scheme with rules ordered by threshold, highest first
func (r *GradingSchemeRegistry) Get(ctx context.Context, courseOfferingID int64, section string) (*models.GradingScheme, error) {
	rules, err := r.store.GradingRules().List(ctx, courseOfferingID, section)
	if err != nil {
		return nil, fmt.Errorf("error loading grading scheme: %w", err)
	}
	if len(rules) == 0 {
		return nil, apperrors.NewResourceNotFoundError("no grading scheme defined for this section")
	}
	return &models.GradingScheme{
		CourseOfferingID: courseOfferingID,
		Section:          section,
		Rules:            SortRules(rules),
	}, nil
}

// SaveScheme lets the section's instructor replace its grading scheme
func (r *GradingSchemeRegistry) SaveScheme(ctx context.Context, actorID, courseOfferingID int64, section string, rules []models.GradingRule) (*models.GradingScheme, error) {
	if err := r.authz.ValidateSectionInstructor(ctx, actorID, courseOfferingID, section); err != nil {
		return nil, err
	}
	return r.Save(ctx, courseOfferingID, section, rules)
}

// GetScheme returns a section's scheme to its instructor or reviewing authority
func (r *GradingSchemeRegistry) GetScheme(ctx context.Context, actorID, courseOfferingID int64, section string) (*models.GradingScheme, error) {
	if err := r.authz.ValidateSectionViewer(ctx, actorID, courseOfferingID, section); err != nil {
		return nil, err
	}
	return r.Get(ctx, courseOfferingID, section)
}
