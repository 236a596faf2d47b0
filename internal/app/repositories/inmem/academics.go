package inmem

import (
	"context"
	"sort"

	"github.com/unisphere/gradebook/internal/app/models"
	"github.com/unisphere/gradebook/internal/app/repositories"
)

// AcademicRepository is the in-memory read model of course structure and rosters
type AcademicRepository struct {
	db *DB
}

// CourseOfferingExists checks if a course offering exists
func (r *AcademicRepository) CourseOfferingExists(ctx context.Context, courseOfferingID int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var ok bool
	r.db.read(func(s *state) { _, ok = s.offerings[courseOfferingID] })
	return ok, nil
}

// IsAssignedInstructor checks if the user teaches the section
func (r *AcademicRepository) IsAssignedInstructor(ctx context.Context, userID, courseOfferingID int64, section string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var ok bool
	r.db.read(func(s *state) {
		instructorID, found := s.instructors[sectionKey{courseOfferingID: courseOfferingID, section: section}]
		ok = found && instructorID == userID
	})
	return ok, nil
}

// IsOfferingInstructor checks if the user teaches any section of the offering
func (r *AcademicRepository) IsOfferingInstructor(ctx context.Context, userID, courseOfferingID int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var ok bool
	r.db.read(func(s *state) {
		for k, instructorID := range s.instructors {
			if k.courseOfferingID == courseOfferingID && instructorID == userID {
				ok = true
				return
			}
		}
	})
	return ok, nil
}

// DepartmentForCourseOffering returns the department owning the offering's program
func (r *AcademicRepository) DepartmentForCourseOffering(ctx context.Context, courseOfferingID int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var (
		co models.CourseOffering
		ok bool
	)
	r.db.read(func(s *state) { co, ok = s.offerings[courseOfferingID] })
	if !ok {
		return 0, repositories.ErrNotFound
	}
	return co.DepartmentID, nil
}

// IsDepartmentAuthorityFor checks if the user reviews for the department
func (r *AcademicRepository) IsDepartmentAuthorityFor(ctx context.Context, userID, departmentID int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var ok bool
	r.db.read(func(s *state) { _, ok = s.authorities[userID][departmentID] })
	return ok, nil
}

// DepartmentsForAuthority lists the departments the user reviews for
func (r *AcademicRepository) DepartmentsForAuthority(ctx context.Context, userID int64) ([]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ids := []int64{}
	r.db.read(func(s *state) {
		for id := range s.authorities[userID] {
			ids = append(ids, id)
		}
	})
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// ActiveEnrollments returns the active roster of the section ordered by student ID
func (r *AcademicRepository) ActiveEnrollments(ctx context.Context, courseOfferingID int64, section string) ([]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ids := []int64{}
	r.db.read(func(s *state) {
		for id, st := range s.enrollments[sectionKey{courseOfferingID: courseOfferingID, section: section}] {
			if st == models.EnrollmentActive {
				ids = append(ids, id)
			}
		}
	})
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
