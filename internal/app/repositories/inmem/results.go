package inmem

import (
	"context"
	"sort"

	"github.com/unisphere/gradebook/internal/app/models"
	"github.com/unisphere/gradebook/internal/app/repositories"
)

// AssessmentResultRepository stores marks in memory
type AssessmentResultRepository struct {
	db *DB
}

// UpsertMany writes all results for an assessment; later entries overwrite earlier ones
func (r *AssessmentResultRepository) UpsertMany(ctx context.Context, assessmentID int64, results []models.AssessmentResult) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var err error
	r.db.write(func(s *state) {
		if _, ok := s.assessments[assessmentID]; !ok {
			err = repositories.ErrNotFound
			return
		}
		for _, res := range results {
			res.AssessmentID = assessmentID
			s.results[resultKey{assessmentID: assessmentID, studentID: res.StudentID}] = res
		}
	})
	if err != nil {
		return 0, err
	}
	return len(results), nil
}

// ListByAssessmentIDs returns the results of the given students for the given assessments
func (r *AssessmentResultRepository) ListByAssessmentIDs(ctx context.Context, assessmentIDs, studentIDs []int64) ([]models.AssessmentResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	list := []models.AssessmentResult{}
	r.db.read(func(s *state) {
		for _, aid := range assessmentIDs {
			for _, sid := range studentIDs {
				if res, ok := s.results[resultKey{assessmentID: aid, studentID: sid}]; ok {
					list = append(list, res)
				}
			}
		}
	})
	sortResults(list)
	return list, nil
}

// ListByAssessment returns every result recorded for an assessment
func (r *AssessmentResultRepository) ListByAssessment(ctx context.Context, assessmentID int64) ([]models.AssessmentResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	list := []models.AssessmentResult{}
	r.db.read(func(s *state) {
		for k, res := range s.results {
			if k.assessmentID == assessmentID {
				list = append(list, res)
			}
		}
	})
	sortResults(list)
	return list, nil
}

func sortResults(list []models.AssessmentResult) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].AssessmentID != list[j].AssessmentID {
			return list[i].AssessmentID < list[j].AssessmentID
		}
		return list[i].StudentID < list[j].StudentID
	})
}
