package dto

import (
	"time"

	"github.com/unisphere/gradebook/internal/app/models"
)

// GradingRuleRequest is one threshold of a grading scheme
type GradingRuleRequest struct {
	Grade         string   `json:"grade" binding:"required,grade"`
	MinPercentage *float64 `json:"minPercentage" binding:"required,gte=0,lte=100"`
	GradePoint    *float64 `json:"gradePoint" binding:"required,gte=0"`
}

// SaveGradingSchemeRequest replaces the full grading scheme of a section
type SaveGradingSchemeRequest struct {
	Rules []GradingRuleRequest `json:"rules" binding:"dive"`
}

// ToModels converts the request rules
func (r *SaveGradingSchemeRequest) ToModels() []models.GradingRule {
	rules := make([]models.GradingRule, 0, len(r.Rules))
	for _, rule := range r.Rules {
		m := models.GradingRule{Grade: rule.Grade}
		if rule.MinPercentage != nil {
			m.MinPercentage = *rule.MinPercentage
		}
		if rule.GradePoint != nil {
			m.GradePoint = *rule.GradePoint
		}
		rules = append(rules, m)
	}
	return rules
}

// FinalizeResponse is returned when a section's grades are submitted for review
type FinalizeResponse struct {
	ResultID int64                     `json:"resultId"`
	Status   models.FinalizationStatus `json:"status"`
	Grades   []models.StudentGrade     `json:"grades"`
}

// WithdrawResponse confirms a withdrawn submission
type WithdrawResponse struct {
	Withdrawn bool `json:"withdrawn"`
}

// ReviewRequest carries a department authority's decision
type ReviewRequest struct {
	Decision string `json:"decision" binding:"required,oneof=CONFIRMED REJECTED"`
}

// ReviewResponse is the status of a result after review
type ReviewResponse struct {
	ResultID   int64                     `json:"resultId"`
	Status     models.FinalizationStatus `json:"status"`
	ReviewedBy int64                     `json:"reviewedBy"`
	ReviewedAt time.Time                 `json:"reviewedAt"`
}

// FinalizedResultListResponse is a page of finalized results awaiting review
type FinalizedResultListResponse struct {
	Results        []models.FinalizedResult `json:"results"`
	Total          int64                    `json:"total"`
	PaginationInfo PaginationInfo           `json:"paginationInfo"`
}

// GradePreviewResponse shows the grades a finalization would record
type GradePreviewResponse struct {
	CourseOfferingID int64                 `json:"courseOfferingId"`
	Section          string                `json:"section"`
	Grades           []models.StudentGrade `json:"grades"`
}
