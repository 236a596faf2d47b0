package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/unisphere/gradebook/internal/app/models"
)

// PgAcademicRepository reads the course structure and rosters maintained by
// the catalogue and enrollment services.
type PgAcademicRepository struct {
	db DBTX
}

// NewPgAcademicRepository creates a new PgAcademicRepository
func NewPgAcademicRepository(db DBTX) *PgAcademicRepository {
	return &PgAcademicRepository{db: db}
}

func (r *PgAcademicRepository) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// CourseOfferingExists checks if a course offering exists
func (r *PgAcademicRepository) CourseOfferingExists(ctx context.Context, courseOfferingID int64) (bool, error) {
	exists, err := r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM course_offerings WHERE id = $1)`, courseOfferingID)
	if err != nil {
		return false, fmt.Errorf("error checking course offering: %w", err)
	}
	return exists, nil
}

// IsAssignedInstructor checks if the user teaches the given section
func (r *PgAcademicRepository) IsAssignedInstructor(ctx context.Context, userID, courseOfferingID int64, section string) (bool, error) {
	exists, err := r.exists(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM course_offering_sections
			WHERE course_offering_id = $1 AND section = $2 AND instructor_id = $3
		)`, courseOfferingID, section, userID)
	if err != nil {
		return false, fmt.Errorf("error checking section instructor: %w", err)
	}
	return exists, nil
}

// IsOfferingInstructor checks if the user teaches any section of the offering
func (r *PgAcademicRepository) IsOfferingInstructor(ctx context.Context, userID, courseOfferingID int64) (bool, error) {
	exists, err := r.exists(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM course_offering_sections
			WHERE course_offering_id = $1 AND instructor_id = $2
		)`, courseOfferingID, userID)
	if err != nil {
		return false, fmt.Errorf("error checking offering instructor: %w", err)
	}
	return exists, nil
}

// DepartmentForCourseOffering resolves the department owning the offering's program
func (r *PgAcademicRepository) DepartmentForCourseOffering(ctx context.Context, courseOfferingID int64) (int64, error) {
	query := `
		SELECT p.department_id
		FROM course_offerings co
		JOIN program_batches pb ON pb.id = co.program_batch_id
		JOIN programs p ON p.id = pb.program_id
		WHERE co.id = $1
	`
	var departmentID int64
	if err := r.db.QueryRow(ctx, query, courseOfferingID).Scan(&departmentID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("error resolving department: %w", err)
	}
	return departmentID, nil
}

// IsDepartmentAuthorityFor checks if the user may review results of the department
func (r *PgAcademicRepository) IsDepartmentAuthorityFor(ctx context.Context, userID, departmentID int64) (bool, error) {
	exists, err := r.exists(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM department_authorities
			WHERE user_id = $1 AND department_id = $2
		)`, userID, departmentID)
	if err != nil {
		return false, fmt.Errorf("error checking department authority: %w", err)
	}
	return exists, nil
}

// DepartmentsForAuthority lists the departments the user reviews for
func (r *PgAcademicRepository) DepartmentsForAuthority(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := r.db.Query(ctx,
		`SELECT department_id FROM department_authorities WHERE user_id = $1 ORDER BY department_id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("error listing authority departments: %w", err)
	}
	defer rows.Close()

	departmentIDs, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("error scanning authority departments: %w", err)
	}
	return departmentIDs, nil
}

// ActiveEnrollments returns the ids of students actively enrolled in the section
func (r *PgAcademicRepository) ActiveEnrollments(ctx context.Context, courseOfferingID int64, section string) ([]int64, error) {
	rows, err := r.db.Query(ctx, `
		SELECT student_id FROM enrollments
		WHERE course_offering_id = $1 AND section = $2 AND status = $3
		ORDER BY student_id
	`, courseOfferingID, section, string(models.EnrollmentActive))
	if err != nil {
		return nil, fmt.Errorf("error listing enrollments: %w", err)
	}
	defer rows.Close()

	studentIDs, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("error scanning enrollments: %w", err)
	}
	return studentIDs, nil
}
