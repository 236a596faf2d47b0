package inmem

import (
	"context"
	"sort"

	"github.com/unisphere/gradebook/internal/app/models"
	"github.com/unisphere/gradebook/internal/app/repositories"
)

// AssessmentRepository stores assessments in memory
type AssessmentRepository struct {
	db *DB
}

func copyAssessment(a models.Assessment) models.Assessment {
	a.OutcomeIDs = append([]int64{}, a.OutcomeIDs...)
	return a
}

// Create inserts a new assessment and assigns its ID
func (r *AssessmentRepository) Create(ctx context.Context, a *models.Assessment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var err error
	r.db.write(func(s *state) {
		if _, ok := s.offerings[a.CourseOfferingID]; !ok {
			err = repositories.ErrNotFound
			return
		}
		s.nextAssessmentID++
		a.ID = s.nextAssessmentID
		s.assessments[a.ID] = copyAssessment(*a)
	})
	return err
}

// Update overwrites an existing assessment
func (r *AssessmentRepository) Update(ctx context.Context, a *models.Assessment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var err error
	r.db.write(func(s *state) {
		existing, ok := s.assessments[a.ID]
		if !ok {
			err = repositories.ErrNotFound
			return
		}
		updated := copyAssessment(*a)
		updated.CourseOfferingID = existing.CourseOfferingID
		updated.CreatedAt = existing.CreatedAt
		s.assessments[a.ID] = updated
	})
	return err
}

// GetByID retrieves an assessment by ID
func (r *AssessmentRepository) GetByID(ctx context.Context, id int64) (*models.Assessment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var (
		a  models.Assessment
		ok bool
	)
	r.db.read(func(s *state) { a, ok = s.assessments[id] })
	if !ok {
		return nil, repositories.ErrNotFound
	}
	a = copyAssessment(a)
	return &a, nil
}

// ListByCourseOffering returns the offering's assessments ordered by ID
func (r *AssessmentRepository) ListByCourseOffering(ctx context.Context, courseOfferingID int64) ([]models.Assessment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	list := []models.Assessment{}
	r.db.read(func(s *state) {
		for _, a := range s.assessments {
			if a.CourseOfferingID == courseOfferingID {
				list = append(list, copyAssessment(a))
			}
		}
	})
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

// TotalWeight sums the weightage of the offering's assessments
func (r *AssessmentRepository) TotalWeight(ctx context.Context, courseOfferingID int64, excludingID *int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	total := 0
	r.db.read(func(s *state) {
		for id, a := range s.assessments {
			if a.CourseOfferingID != courseOfferingID {
				continue
			}
			if excludingID != nil && id == *excludingID {
				continue
			}
			total += a.Weightage
		}
	})
	return total, nil
}
