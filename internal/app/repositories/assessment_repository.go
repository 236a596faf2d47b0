package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/unisphere/gradebook/internal/app/models"
	"github.com/unisphere/gradebook/internal/pkg/dberrors"
)

// PgAssessmentRepository handles assessment database operations
type PgAssessmentRepository struct {
	db DBTX
}

// NewPgAssessmentRepository creates a new PgAssessmentRepository
func NewPgAssessmentRepository(db DBTX) *PgAssessmentRepository {
	return &PgAssessmentRepository{db: db}
}

const assessmentColumns = `id, course_offering_id, type, title, weightage, due_date, outcome_ids, created_at, updated_at`

func scanAssessment(row pgx.Row) (*models.Assessment, error) {
	var a models.Assessment
	var assessmentType string
	if err := row.Scan(
		&a.ID,
		&a.CourseOfferingID,
		&assessmentType,
		&a.Title,
		&a.Weightage,
		&a.DueDate,
		&a.OutcomeIDs,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	a.Type = models.AssessmentType(assessmentType)
	if a.OutcomeIDs == nil {
		a.OutcomeIDs = []int64{}
	}
	return &a, nil
}

// Create inserts a new assessment
func (r *PgAssessmentRepository) Create(ctx context.Context, a *models.Assessment) error {
	if a.OutcomeIDs == nil {
		a.OutcomeIDs = []int64{}
	}

	query := `
		INSERT INTO assessments (course_offering_id, type, title, weightage, due_date, outcome_ids, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query,
		a.CourseOfferingID, string(a.Type), a.Title, a.Weightage, a.DueDate, a.OutcomeIDs, a.CreatedAt, a.UpdatedAt,
	).Scan(&a.ID)
	if err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return ErrNotFound
		}
		if dberrors.IsCheckViolation(err) {
			return fmt.Errorf("%w: %v", ErrConstraint, err)
		}
		return fmt.Errorf("error creating assessment: %w", err)
	}
	return nil
}

// Update overwrites the mutable fields of an assessment
func (r *PgAssessmentRepository) Update(ctx context.Context, a *models.Assessment) error {
	if a.OutcomeIDs == nil {
		a.OutcomeIDs = []int64{}
	}

	query := `
		UPDATE assessments
		SET type = $1, title = $2, weightage = $3, due_date = $4, outcome_ids = $5, updated_at = $6
		WHERE id = $7
	`
	cmdTag, err := r.db.Exec(ctx, query,
		string(a.Type), a.Title, a.Weightage, a.DueDate, a.OutcomeIDs, a.UpdatedAt, a.ID,
	)
	if err != nil {
		if dberrors.IsCheckViolation(err) {
			return fmt.Errorf("%w: %v", ErrConstraint, err)
		}
		return fmt.Errorf("error updating assessment: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID retrieves an assessment by ID
func (r *PgAssessmentRepository) GetByID(ctx context.Context, id int64) (*models.Assessment, error) {
	query := `SELECT ` + assessmentColumns + ` FROM assessments WHERE id = $1`

	a, err := scanAssessment(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error retrieving assessment: %w", err)
	}
	return a, nil
}

// ListByCourseOffering retrieves all assessments of a course offering
func (r *PgAssessmentRepository) ListByCourseOffering(ctx context.Context, courseOfferingID int64) ([]models.Assessment, error) {
	query := `SELECT ` + assessmentColumns + ` FROM assessments WHERE course_offering_id = $1 ORDER BY id`

	rows, err := r.db.Query(ctx, query, courseOfferingID)
	if err != nil {
		return nil, fmt.Errorf("error listing assessments: %w", err)
	}
	defer rows.Close()

	assessments := []models.Assessment{}
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning assessment: %w", err)
		}
		assessments = append(assessments, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return assessments, nil
}

// TotalWeight sums the weightage of the offering's assessments
func (r *PgAssessmentRepository) TotalWeight(ctx context.Context, courseOfferingID int64, excludingID *int64) (int, error) {
	where := squirrel.And{squirrel.Eq{"course_offering_id": courseOfferingID}}
	if excludingID != nil {
		where = append(where, squirrel.NotEq{"id": *excludingID})
	}

	query, args, err := psql.Select("COALESCE(SUM(weightage), 0)").
		From("assessments").
		Where(where).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build total weight query: %w", err)
	}

	var total int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("error summing assessment weightage: %w", err)
	}
	return total, nil
}
