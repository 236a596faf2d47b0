package inmem

import (
	"context"

	"github.com/unisphere/gradebook/internal/app/models"
)

// GradingRuleRepository stores grading schemes in memory
type GradingRuleRepository struct {
	db *DB
}

// Replace swaps the section's full rule set
func (r *GradingRuleRepository) Replace(ctx context.Context, courseOfferingID int64, section string, rules []models.GradingRule) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stored := append([]models.GradingRule{}, rules...)
	r.db.write(func(s *state) {
		s.rules[sectionKey{courseOfferingID: courseOfferingID, section: section}] = stored
	})
	return nil
}

// List returns the section's rules in the order they were saved
func (r *GradingRuleRepository) List(ctx context.Context, courseOfferingID int64, section string) ([]models.GradingRule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rules []models.GradingRule
	r.db.read(func(s *state) {
		rules = append([]models.GradingRule{}, s.rules[sectionKey{courseOfferingID: courseOfferingID, section: section}]...)
	})
	return rules, nil
}
