package repositories

import (
	"context"
	"fmt"

	"github.com/unisphere/gradebook/internal/app/models"
	"github.com/unisphere/gradebook/internal/pkg/dberrors"
)

// PgGradingRuleRepository stores grading schemes, one ordered rule set per section
type PgGradingRuleRepository struct {
	db DBTX
}

// NewPgGradingRuleRepository creates a new PgGradingRuleRepository
func NewPgGradingRuleRepository(db DBTX) *PgGradingRuleRepository {
	return &PgGradingRuleRepository{db: db}
}

// Replace deletes the section's rules and inserts the new set. It must run
// inside a transaction so readers never observe a partial scheme.
func (r *PgGradingRuleRepository) Replace(ctx context.Context, courseOfferingID int64, section string, rules []models.GradingRule) error {
	if _, err := r.db.Exec(ctx,
		`DELETE FROM grading_rules WHERE course_offering_id = $1 AND section = $2`,
		courseOfferingID, section,
	); err != nil {
		return fmt.Errorf("error clearing grading rules: %w", err)
	}

	if len(rules) == 0 {
		return nil
	}

	insert := psql.Insert("grading_rules").
		Columns("course_offering_id", "section", "position", "grade", "min_percentage", "grade_point")
	for i, rule := range rules {
		insert = insert.Values(courseOfferingID, section, i, rule.Grade, rule.MinPercentage, rule.GradePoint)
	}

	query, args, err := insert.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build grading rule insert: %w", err)
	}
	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		if dberrors.IsCheckViolation(err) {
			return fmt.Errorf("%w: %v", ErrConstraint, err)
		}
		return fmt.Errorf("error inserting grading rules: %w", err)
	}
	return nil
}

// List returns a section's rules in the order they were saved
func (r *PgGradingRuleRepository) List(ctx context.Context, courseOfferingID int64, section string) ([]models.GradingRule, error) {
	rows, err := r.db.Query(ctx, `
		SELECT grade, min_percentage, grade_point
		FROM grading_rules
		WHERE course_offering_id = $1 AND section = $2
		ORDER BY position
	`, courseOfferingID, section)
	if err != nil {
		return nil, fmt.Errorf("error listing grading rules: %w", err)
	}
	defer rows.Close()

	rules := []models.GradingRule{}
	for rows.Next() {
		var rule models.GradingRule
		if err := rows.Scan(&rule.Grade, &rule.MinPercentage, &rule.GradePoint); err != nil {
			return nil, fmt.Errorf("error scanning grading rule: %w", err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rules, nil
}
