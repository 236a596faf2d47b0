package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/unisphere/gradebook/internal/app/models"
	"github.com/unisphere/gradebook/internal/pkg/dberrors"
)

// finalizedResultSectionKey is the UNIQUE (course_offering_id, section) constraint
const finalizedResultSectionKey = "finalized_results_offering_section_key"

// PgFinalizedResultRepository handles finalized result database operations
type PgFinalizedResultRepository struct {
	db DBTX
}

// NewPgFinalizedResultRepository creates a new PgFinalizedResultRepository
func NewPgFinalizedResultRepository(db DBTX) *PgFinalizedResultRepository {
	return &PgFinalizedResultRepository{db: db}
}

var finalizedResultColumns = []string{
	"fr.id", "fr.course_offering_id", "fr.section", "fr.submitted_by", "fr.status",
	"fr.results", "fr.reviewed_by", "fr.reviewed_at", "fr.created_at", "fr.updated_at",
}

func scanFinalizedResult(row pgx.Row) (*models.FinalizedResult, error) {
	var fr models.FinalizedResult
	var status string
	var results []byte
	if err := row.Scan(
		&fr.ID,
		&fr.CourseOfferingID,
		&fr.Section,
		&fr.SubmittedBy,
		&status,
		&results,
		&fr.ReviewedBy,
		&fr.ReviewedAt,
		&fr.CreatedAt,
		&fr.UpdatedAt,
	); err != nil {
		return nil, err
	}

	st, err := models.ParseFinalizationStatus(status)
	if err != nil {
		return nil, err
	}
	fr.Status = st

	fr.Results = []models.StudentGrade{}
	if len(results) > 0 {
		if err := json.Unmarshal(results, &fr.Results); err != nil {
			return nil, fmt.Errorf("error decoding finalized grades: %w", err)
		}
	}
	return &fr, nil
}

func (r *PgFinalizedResultRepository) getOne(ctx context.Context, where squirrel.Sqlizer, forUpdate bool) (*models.FinalizedResult, error) {
	builder := psql.Select(finalizedResultColumns...).
		From("finalized_results fr").
		Where(where)
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build finalized result query: %w", err)
	}

	fr, err := scanFinalizedResult(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error retrieving finalized result: %w", err)
	}
	return fr, nil
}

// GetByID retrieves a finalized result by ID
func (r *PgFinalizedResultRepository) GetByID(ctx context.Context, id int64) (*models.FinalizedResult, error) {
	return r.getOne(ctx, squirrel.Eq{"fr.id": id}, false)
}

// GetBySection retrieves the finalized result of a course offering section
func (r *PgFinalizedResultRepository) GetBySection(ctx context.Context, courseOfferingID int64, section string, forUpdate bool) (*models.FinalizedResult, error) {
	return r.getOne(ctx, squirrel.Eq{"fr.course_offering_id": courseOfferingID, "fr.section": section}, forUpdate)
}

// Insert creates a finalized result
func (r *PgFinalizedResultRepository) Insert(ctx context.Context, fr *models.FinalizedResult) error {
	results, err := json.Marshal(fr.Results)
	if err != nil {
		return fmt.Errorf("error encoding finalized grades: %w", err)
	}

	query := `
		INSERT INTO finalized_results (course_offering_id, section, submitted_by, status, results, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err = r.db.QueryRow(ctx, query,
		fr.CourseOfferingID, fr.Section, fr.SubmittedBy, string(fr.Status), results, fr.CreatedAt, fr.UpdatedAt,
	).Scan(&fr.ID)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, finalizedResultSectionKey) {
			return ErrDuplicate
		}
		if dberrors.IsSerializationFailure(err) {
			return ErrConcurrentTransaction
		}
		return fmt.Errorf("error creating finalized result: %w", err)
	}
	return nil
}

// Resubmit overwrites a rejected result with a fresh submission
func (r *PgFinalizedResultRepository) Resubmit(ctx context.Context, fr *models.FinalizedResult) error {
	results, err := json.Marshal(fr.Results)
	if err != nil {
		return fmt.Errorf("error encoding finalized grades: %w", err)
	}

	query := `
		UPDATE finalized_results
		SET submitted_by = $1, status = $2, results = $3, reviewed_by = NULL, reviewed_at = NULL, updated_at = $4
		WHERE id = $5 AND status = $6
	`
	cmdTag, err := r.db.Exec(ctx, query,
		fr.SubmittedBy, string(fr.Status), results, fr.UpdatedAt, fr.ID, string(models.StatusRejected),
	)
	if err != nil {
		if dberrors.IsSerializationFailure(err) {
			return ErrConcurrentTransaction
		}
		return fmt.Errorf("error resubmitting finalized result: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrStaleWrite
	}
	fr.ReviewedBy = nil
	fr.ReviewedAt = nil
	return nil
}

// UpdateStatus records a review decision on a result that is still in status from
func (r *PgFinalizedResultRepository) UpdateStatus(ctx context.Context, id int64, from, to models.FinalizationStatus, reviewedBy int64, reviewedAt time.Time) error {
	query := `
		UPDATE finalized_results
		SET status = $1, reviewed_by = $2, reviewed_at = $3, updated_at = $3
		WHERE id = $4 AND status = $5
	`
	cmdTag, err := r.db.Exec(ctx, query, string(to), reviewedBy, reviewedAt, id, string(from))
	if err != nil {
		if dberrors.IsSerializationFailure(err) {
			return ErrConcurrentTransaction
		}
		return fmt.Errorf("error updating finalized result status: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrStaleWrite
	}
	return nil
}

// Delete removes a result that is still in status from
func (r *PgFinalizedResultRepository) Delete(ctx context.Context, id int64, from models.FinalizationStatus) error {
	cmdTag, err := r.db.Exec(ctx,
		`DELETE FROM finalized_results WHERE id = $1 AND status = $2`,
		id, string(from),
	)
	if err != nil {
		if dberrors.IsSerializationFailure(err) {
			return ErrConcurrentTransaction
		}
		return fmt.Errorf("error deleting finalized result: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrStaleWrite
	}
	return nil
}

// ListByStatusForDepartments pages results whose offering belongs to one of the departments
func (r *PgFinalizedResultRepository) ListByStatusForDepartments(ctx context.Context, status models.FinalizationStatus, departmentIDs []int64, offset, limit uint64) ([]models.FinalizedResult, int64, error) {
	if len(departmentIDs) == 0 {
		return []models.FinalizedResult{}, 0, nil
	}

	base := psql.Select().
		From("finalized_results fr").
		Join("course_offerings co ON co.id = fr.course_offering_id").
		Join("program_batches pb ON pb.id = co.program_batch_id").
		Join("programs p ON p.id = pb.program_id").
		Where(squirrel.Eq{"fr.status": string(status), "p.department_id": departmentIDs})

	countQuery, countArgs, err := base.Column("COUNT(*)").ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var total int64
	if err := r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting finalized results: %w", err)
	}
	if total == 0 {
		return []models.FinalizedResult{}, 0, nil
	}

	query, args, err := base.Columns(finalizedResultColumns...).
		OrderBy("fr.created_at", "fr.id").
		Offset(offset).
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build finalized result list query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing finalized results: %w", err)
	}
	defer rows.Close()

	results := []models.FinalizedResult{}
	for rows.Next() {
		fr, err := scanFinalizedResult(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning finalized result: %w", err)
		}
		results = append(results, *fr)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return results, total, nil
}
