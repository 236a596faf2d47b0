package dto

import (
	"time"

	"github.com/unisphere/gradebook/internal/app/models"
)

// AssessmentRequest creates or updates an assessment
type AssessmentRequest struct {
	Type       string     `json:"type" binding:"required,oneof=QUIZ ASSIGNMENT MIDTERM FINAL PROJECT LAB"`
	Title      string     `json:"title" binding:"required,max=255"`
	Weightage  *int       `json:"weightage" binding:"required,gte=0,lte=100"`
	DueDate    *time.Time `json:"dueDate"`
	OutcomeIDs []int64    `json:"outcomeIds" binding:"omitempty,dive,gt=0"`
}

// AssessmentListResponse lists an offering's assessments with their combined weight
type AssessmentListResponse struct {
	Assessments []models.Assessment `json:"assessments"`
	TotalWeight int                 `json:"totalWeight"`
}

// ResultEntryRequest holds the marks of one student
type ResultEntryRequest struct {
	StudentID     int64    `json:"studentId" binding:"required,gt=0"`
	MarksObtained *float64 `json:"marksObtained" binding:"required"`
	TotalMarks    *float64 `json:"totalMarks" binding:"required"`
}

// UpsertResultsRequest records marks for an assessment
type UpsertResultsRequest struct {
	Results []ResultEntryRequest `json:"results" binding:"required,min=1,dive"`
}

// UpsertResultsResponse reports how many results were written
type UpsertResultsResponse struct {
	Count int `json:"count"`
}

// AssessmentResultListResponse lists the marks of an assessment
type AssessmentResultListResponse struct {
	AssessmentID int64                     `json:"assessmentId"`
	Results      []models.AssessmentResult `json:"results"`
}
