package inmem

import (
	"context"
	"sort"
	"time"

	"github.com/unisphere/gradebook/internal/app/models"
	"github.com/unisphere/gradebook/internal/app/repositories"
)

// FinalizedResultRepository stores finalized results in memory
type FinalizedResultRepository struct {
	db *DB
}

func copyFinalized(fr models.FinalizedResult) models.FinalizedResult {
	fr.Results = append([]models.StudentGrade{}, fr.Results...)
	if fr.ReviewedBy != nil {
		by := *fr.ReviewedBy
		fr.ReviewedBy = &by
	}
	if fr.ReviewedAt != nil {
		at := *fr.ReviewedAt
		fr.ReviewedAt = &at
	}
	return fr
}

// GetByID retrieves a finalized result by ID
func (r *FinalizedResultRepository) GetByID(ctx context.Context, id int64) (*models.FinalizedResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var (
		fr models.FinalizedResult
		ok bool
	)
	r.db.read(func(s *state) { fr, ok = s.finalized[id] })
	if !ok {
		return nil, repositories.ErrNotFound
	}
	fr = copyFinalized(fr)
	return &fr, nil
}

// GetBySection retrieves the finalized result of a section. Transactions are
// already serialized, so forUpdate needs no extra locking.
func (r *FinalizedResultRepository) GetBySection(ctx context.Context, courseOfferingID int64, section string, _ bool) (*models.FinalizedResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var (
		fr models.FinalizedResult
		ok bool
	)
	r.db.read(func(s *state) { fr, ok = findBySection(s, courseOfferingID, section) })
	if !ok {
		return nil, repositories.ErrNotFound
	}
	fr = copyFinalized(fr)
	return &fr, nil
}

func findBySection(s *state, courseOfferingID int64, section string) (models.FinalizedResult, bool) {
	for _, fr := range s.finalized {
		if fr.CourseOfferingID == courseOfferingID && fr.Section == section {
			return fr, true
		}
	}
	return models.FinalizedResult{}, false
}

// Insert creates a finalized result; a section holds at most one
func (r *FinalizedResultRepository) Insert(ctx context.Context, fr *models.FinalizedResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var err error
	r.db.write(func(s *state) {
		if _, exists := findBySection(s, fr.CourseOfferingID, fr.Section); exists {
			err = repositories.ErrDuplicate
			return
		}
		s.nextFinalizedID++
		fr.ID = s.nextFinalizedID
		s.finalized[fr.ID] = copyFinalized(*fr)
	})
	return err
}

// Resubmit overwrites a rejected result and clears its review
func (r *FinalizedResultRepository) Resubmit(ctx context.Context, fr *models.FinalizedResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var err error
	r.db.write(func(s *state) {
		existing, ok := s.finalized[fr.ID]
		if !ok || existing.Status != models.StatusRejected {
			err = repositories.ErrStaleWrite
			return
		}
		fr.ReviewedBy = nil
		fr.ReviewedAt = nil
		fr.CreatedAt = existing.CreatedAt
		s.finalized[fr.ID] = copyFinalized(*fr)
	})
	return err
}

// UpdateStatus records a review decision on a result still in status from
func (r *FinalizedResultRepository) UpdateStatus(ctx context.Context, id int64, from, to models.FinalizationStatus, reviewedBy int64, reviewedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var err error
	r.db.write(func(s *state) {
		fr, ok := s.finalized[id]
		if !ok || fr.Status != from {
			err = repositories.ErrStaleWrite
			return
		}
		fr = copyFinalized(fr)
		fr.Status = to
		fr.ReviewedBy = &reviewedBy
		fr.ReviewedAt = &reviewedAt
		fr.UpdatedAt = reviewedAt
		s.finalized[id] = fr
	})
	return err
}

// Delete removes a result still in status from
func (r *FinalizedResultRepository) Delete(ctx context.Context, id int64, from models.FinalizationStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var err error
	r.db.write(func(s *state) {
		fr, ok := s.finalized[id]
		if !ok || fr.Status != from {
			err = repositories.ErrStaleWrite
			return
		}
		delete(s.finalized, id)
	})
	return err
}

// ListByStatusForDepartments pages results whose offering belongs to one of the departments
func (r *FinalizedResultRepository) ListByStatusForDepartments(ctx context.Context, status models.FinalizationStatus, departmentIDs []int64, offset, limit uint64) ([]models.FinalizedResult, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	departments := make(map[int64]struct{}, len(departmentIDs))
	for _, id := range departmentIDs {
		departments[id] = struct{}{}
	}

	matched := []models.FinalizedResult{}
	r.db.read(func(s *state) {
		for _, fr := range s.finalized {
			if fr.Status != status {
				continue
			}
			co, ok := s.offerings[fr.CourseOfferingID]
			if !ok {
				continue
			}
			if _, ok := departments[co.DepartmentID]; ok {
				matched = append(matched, copyFinalized(fr))
			}
		}
	})
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	total := int64(len(matched))
	if offset >= uint64(len(matched)) {
		return []models.FinalizedResult{}, total, nil
	}
	end := offset + limit
	if limit == 0 || end > uint64(len(matched)) {
		end = uint64(len(matched))
	}
	return matched[offset:end], total, nil
}
