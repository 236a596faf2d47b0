package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/unisphere/gradebook/internal/app/models"
	"github.com/unisphere/gradebook/internal/pkg/dberrors"
)

// PgAssessmentResultRepository handles raw marks
type PgAssessmentResultRepository struct {
	db DBTX
}

// NewPgAssessmentResultRepository creates a new PgAssessmentResultRepository
func NewPgAssessmentResultRepository(db DBTX) *PgAssessmentResultRepository {
	return &PgAssessmentResultRepository{db: db}
}

// UpsertMany writes every result in one statement. Callers pass at most one
// entry per student; Postgres refuses to update the same row twice per statement.
func (r *PgAssessmentResultRepository) UpsertMany(ctx context.Context, assessmentID int64, results []models.AssessmentResult) (int, error) {
	if len(results) == 0 {
		return 0, nil
	}

	insert := psql.Insert("assessment_results").
		Columns("assessment_id", "student_id", "marks_obtained", "total_marks", "updated_at")
	for _, res := range results {
		insert = insert.Values(assessmentID, res.StudentID, res.MarksObtained, res.TotalMarks, res.UpdatedAt)
	}
	insert = insert.Suffix(`ON CONFLICT (assessment_id, student_id) DO UPDATE
		SET marks_obtained = EXCLUDED.marks_obtained,
		    total_marks = EXCLUDED.total_marks,
		    updated_at = EXCLUDED.updated_at`)

	query, args, err := insert.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build result upsert: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return 0, ErrNotFound
		}
		if dberrors.IsCheckViolation(err) {
			return 0, fmt.Errorf("%w: %v", ErrConstraint, err)
		}
		return 0, fmt.Errorf("error upserting assessment results: %w", err)
	}
	return int(cmdTag.RowsAffected()), nil
}

// ListByAssessmentIDs returns the results of the given students for the given assessments
func (r *PgAssessmentResultRepository) ListByAssessmentIDs(ctx context.Context, assessmentIDs, studentIDs []int64) ([]models.AssessmentResult, error) {
	return r.list(ctx, squirrel.And{
		squirrel.Eq{"assessment_id": assessmentIDs},
		squirrel.Eq{"student_id": studentIDs},
	})
}

// ListByAssessment returns every result recorded for an assessment
func (r *PgAssessmentResultRepository) ListByAssessment(ctx context.Context, assessmentID int64) ([]models.AssessmentResult, error) {
	return r.list(ctx, squirrel.Eq{"assessment_id": assessmentID})
}

func (r *PgAssessmentResultRepository) list(ctx context.Context, where squirrel.Sqlizer) ([]models.AssessmentResult, error) {
	query, args, err := psql.Select("assessment_id", "student_id", "marks_obtained", "total_marks", "updated_at").
		From("assessment_results").
		Where(where).
		OrderBy("assessment_id", "student_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build result query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing assessment results: %w", err)
	}
	defer rows.Close()

	results := []models.AssessmentResult{}
	for rows.Next() {
		var res models.AssessmentResult
		if err := rows.Scan(&res.AssessmentID, &res.StudentID, &res.MarksObtained, &res.TotalMarks, &res.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning assessment result: %w", err)
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
