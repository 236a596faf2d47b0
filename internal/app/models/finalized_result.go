package models

import (
	"fmt"
	"time"
)

// FinalizationStatus is the review state of a finalized result
type FinalizationStatus string

const (
	// StatusNone is the state of a section that has no finalized result row.
	StatusNone      FinalizationStatus = ""
	StatusPending   FinalizationStatus = "PENDING"
	StatusConfirmed FinalizationStatus = "CONFIRMED"
	StatusRejected  FinalizationStatus = "REJECTED"
)

// FinalizationAction is an operation that moves a finalized result between states
type FinalizationAction string

const (
	ActionFinalize FinalizationAction = "FINALIZE"
	ActionWithdraw FinalizationAction = "WITHDRAW"
	ActionConfirm  FinalizationAction = "CONFIRM"
	ActionReject   FinalizationAction = "REJECT"
)

// finalizationTransitions lists every legal transition. Anything absent is rejected.
var finalizationTransitions = map[FinalizationStatus]map[FinalizationAction]FinalizationStatus{
	StatusNone: {
		ActionFinalize: StatusPending,
	},
	StatusPending: {
		ActionWithdraw: StatusNone,
		ActionConfirm:  StatusConfirmed,
		ActionReject:   StatusRejected,
	},
	StatusRejected: {
		ActionFinalize: StatusPending,
	},
	StatusConfirmed: {},
}

// TransitionError reports an action that is not legal from the current status.
type TransitionError struct {
	From   FinalizationStatus
	Action FinalizationAction
}

func (e *TransitionError) Error() string {
	from := string(e.From)
	if e.From == StatusNone {
		from = "NONE"
	}
	return fmt.Sprintf("cannot %s a finalized result in state %s", e.Action, from)
}

// NextStatus returns the status reached by applying action in state from.
func NextStatus(from FinalizationStatus, action FinalizationAction) (FinalizationStatus, error) {
	if next, ok := finalizationTransitions[from][action]; ok {
		return next, nil
	}
	return from, &TransitionError{From: from, Action: action}
}

// ParseFinalizationStatus converts a stored status string.
func ParseFinalizationStatus(s string) (FinalizationStatus, error) {
	switch st := FinalizationStatus(s); st {
	case StatusPending, StatusConfirmed, StatusRejected:
		return st, nil
	default:
		return StatusNone, fmt.Errorf("unknown finalization status %q", s)
	}
}

// ReviewDecision maps a review decision to its action.
func ReviewDecision(decision FinalizationStatus) (FinalizationAction, bool) {
	switch decision {
	case StatusConfirmed:
		return ActionConfirm, true
	case StatusRejected:
		return ActionReject, true
	default:
		return "", false
	}
}

// StudentGrade is the computed final grade of one student.
type StudentGrade struct {
	StudentID          int64   `json:"studentId"`
	Grade              string  `json:"grade"`
	GradePoint         float64 `json:"gradePoint"`
	WeightedPercentage float64 `json:"weightedPercentage"`
	// MissingAssessments counts components with no recorded result, scored as zero.
	MissingAssessments int `json:"missingAssessments"`
}

// FinalizedResult is the single submitted grade set of a course offering section.
type FinalizedResult struct {
	ID               int64              `json:"id" db:"id"`
	CourseOfferingID int64              `json:"courseOfferingId" db:"course_offering_id"`
	Section          string             `json:"section" db:"section"`
	SubmittedBy      int64              `json:"submittedBy" db:"submitted_by"`
	Status           FinalizationStatus `json:"status" db:"status"`
	Results          []StudentGrade     `json:"results" db:"results"`
	ReviewedBy       *int64             `json:"reviewedBy,omitempty" db:"reviewed_by"`
	ReviewedAt       *time.Time         `json:"reviewedAt,omitempty" db:"reviewed_at"`
	CreatedAt        time.Time          `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time          `json:"updatedAt" db:"updated_at"`
}
