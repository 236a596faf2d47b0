package models

import "time"

// AssessmentType classifies an assessment component
type AssessmentType string

const (
	AssessmentQuiz       AssessmentType = "QUIZ"
	AssessmentAssignment AssessmentType = "ASSIGNMENT"
	AssessmentMidterm    AssessmentType = "MIDTERM"
	AssessmentFinal      AssessmentType = "FINAL"
	AssessmentProject    AssessmentType = "PROJECT"
	AssessmentLab        AssessmentType = "LAB"
)

// MaxTotalWeight is the total weightage all assessments of an offering must reach.
const MaxTotalWeight = 100

// Assessment is one graded component of a course offering.
type Assessment struct {
	ID               int64          `json:"id" db:"id"`
	CourseOfferingID int64          `json:"courseOfferingId" db:"course_offering_id"`
	Type             AssessmentType `json:"type" db:"type"`
	Title            string         `json:"title" db:"title"`
	Weightage        int            `json:"weightage" db:"weightage"`
	DueDate          *time.Time     `json:"dueDate,omitempty" db:"due_date"`
	OutcomeIDs       []int64        `json:"outcomeIds" db:"outcome_ids"`
	CreatedAt        time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time      `json:"updatedAt" db:"updated_at"`
}

// AssessmentResult holds the marks of one student for one assessment.
type AssessmentResult struct {
	AssessmentID  int64     `json:"assessmentId" db:"assessment_id"`
	StudentID     int64     `json:"studentId" db:"student_id"`
	MarksObtained float64   `json:"marksObtained" db:"marks_obtained"`
	TotalMarks    float64   `json:"totalMarks" db:"total_marks"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}

// Percentage returns the obtained marks as a percentage of the total.
func (r AssessmentResult) Percentage() float64 {
	if r.TotalMarks <= 0 {
		return 0
	}
	return r.MarksObtained / r.TotalMarks * 100
}
