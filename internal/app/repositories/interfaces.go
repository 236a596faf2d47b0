package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/unisphere/gradebook/internal/app/models"
)

// Repository errors. Services translate these into apperrors kinds.
var (
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write hits a uniqueness constraint.
	ErrDuplicate = errors.New("duplicate record")
	// ErrStaleWrite is returned when a guarded update or delete matched no row
	// because the row changed state concurrently.
	ErrStaleWrite = errors.New("record changed concurrently")
	// ErrConcurrentTransaction is returned when the database aborted the
	// transaction because of a concurrent writer.
	ErrConcurrentTransaction = errors.New("transaction aborted by concurrent update")
	// ErrConstraint is returned when the database rejects a value through a CHECK constraint.
	ErrConstraint = errors.New("value violates a storage constraint")
)

// IsolationLevel selects the isolation of a transaction
type IsolationLevel int

const (
	ReadCommitted IsolationLevel = iota
	RepeatableRead
	Serializable
)

// TxOptions configures WithinTransaction
type TxOptions struct {
	Isolation IsolationLevel
	ReadOnly  bool
}

// AssessmentRepository stores assessments and their weightages
type AssessmentRepository interface {
	Create(ctx context.Context, assessment *models.Assessment) error
	Update(ctx context.Context, assessment *models.Assessment) error
	GetByID(ctx context.Context, id int64) (*models.Assessment, error)
	ListByCourseOffering(ctx context.Context, courseOfferingID int64) ([]models.Assessment, error)
	// TotalWeight sums weightage over the offering, skipping excludingID when set.
	TotalWeight(ctx context.Context, courseOfferingID int64, excludingID *int64) (int, error)
}

// AssessmentResultRepository stores raw marks
type AssessmentResultRepository interface {
	// UpsertMany writes all results keyed by (assessment, student); last write wins.
	UpsertMany(ctx context.Context, assessmentID int64, results []models.AssessmentResult) (int, error)
	ListByAssessmentIDs(ctx context.Context, assessmentIDs, studentIDs []int64) ([]models.AssessmentResult, error)
	ListByAssessment(ctx context.Context, assessmentID int64) ([]models.AssessmentResult, error)
}

// GradingRuleRepository stores grading schemes
type GradingRuleRepository interface {
	// Replace swaps the full rule set of a section.
	Replace(ctx context.Context, courseOfferingID int64, section string, rules []models.GradingRule) error
	// List returns the rules of a section in insertion order.
	List(ctx context.Context, courseOfferingID int64, section string) ([]models.GradingRule, error)
}

// FinalizedResultRepository stores the single finalized result per section
type FinalizedResultRepository interface {
	GetByID(ctx context.Context, id int64) (*models.FinalizedResult, error)
	// GetBySection loads the section's row; forUpdate locks it for the rest of the transaction.
	GetBySection(ctx context.Context, courseOfferingID int64, section string, forUpdate bool) (*models.FinalizedResult, error)
	// Insert creates the row, returning ErrDuplicate if the section already has one.
	Insert(ctx context.Context, result *models.FinalizedResult) error
	// Resubmit overwrites a REJECTED row in place and resets it to PENDING.
	Resubmit(ctx context.Context, result *models.FinalizedResult) error
	// UpdateStatus moves a row from one status to another, recording the reviewer.
	UpdateStatus(ctx context.Context, id int64, from, to models.FinalizationStatus, reviewedBy int64, reviewedAt time.Time) error
	// Delete removes the row only while it is still in status from.
	Delete(ctx context.Context, id int64, from models.FinalizationStatus) error
	// ListByStatusForDepartments pages rows in status whose offering belongs to one of the departments.
	ListByStatusForDepartments(ctx context.Context, status models.FinalizationStatus, departmentIDs []int64, offset, limit uint64) ([]models.FinalizedResult, int64, error)
}

// AcademicRepository is the read model over programs, offerings, sections,
// department authorities and enrollments owned by other services.
type AcademicRepository interface {
	CourseOfferingExists(ctx context.Context, courseOfferingID int64) (bool, error)
	IsAssignedInstructor(ctx context.Context, userID, courseOfferingID int64, section string) (bool, error)
	// IsOfferingInstructor reports whether userID teaches any section of the offering.
	IsOfferingInstructor(ctx context.Context, userID, courseOfferingID int64) (bool, error)
	// DepartmentForCourseOffering resolves offering -> batch -> program -> department.
	DepartmentForCourseOffering(ctx context.Context, courseOfferingID int64) (int64, error)
	IsDepartmentAuthorityFor(ctx context.Context, userID, departmentID int64) (bool, error)
	DepartmentsForAuthority(ctx context.Context, userID int64) ([]int64, error)
	// ActiveEnrollments returns the section roster ordered by student id.
	ActiveEnrollments(ctx context.Context, courseOfferingID int64, section string) ([]int64, error)
}

// Store groups the repositories and the transaction boundary.
type Store interface {
	Assessments() AssessmentRepository
	Results() AssessmentResultRepository
	GradingRules() GradingRuleRepository
	FinalizedResults() FinalizedResultRepository
	Academics() AcademicRepository

	// WithinTransaction runs fn with a Store whose repositories share one
	// transaction. Calling it on a transactional Store reuses that transaction.
	WithinTransaction(ctx context.Context, opts TxOptions, fn func(ctx context.Context, tx Store) error) error
}
