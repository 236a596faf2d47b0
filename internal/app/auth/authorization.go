package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/unisphere/gradebook/internal/app/repositories"
	"github.com/unisphere/gradebook/internal/pkg/apperrors"
	"github.com/unisphere/gradebook/internal/pkg/logger"
)

// AuthorizationService answers the capability checks of the grading workflow
type AuthorizationService struct {
	academics repositories.AcademicRepository
}

// NewAuthorizationService creates a new AuthorizationService
func NewAuthorizationService(academics repositories.AcademicRepository) *AuthorizationService {
	return &AuthorizationService{academics: academics}
}

// ValidateSectionInstructor requires the user to be the assigned instructor of the section
func (s *AuthorizationService) ValidateSectionInstructor(ctx context.Context, userID, courseOfferingID int64, section string) error {
	ok, err := s.academics.IsAssignedInstructor(ctx, userID, courseOfferingID, section)
	if err != nil {
		logger.Error().Err(err).
			Int64("userID", userID).
			Int64("courseOfferingID", courseOfferingID).
			Str("section", section).
			Msg("Error checking section instructor")
		return fmt.Errorf("error checking section instructor: %w", err)
	}
	if !ok {
		return apperrors.NewForbiddenError("only the assigned instructor of this section can perform this action")
	}
	return nil
}

// ValidateOfferingInstructor requires the user to teach at least one section of the offering
func (s *AuthorizationService) ValidateOfferingInstructor(ctx context.Context, userID, courseOfferingID int64) error {
	ok, err := s.academics.IsOfferingInstructor(ctx, userID, courseOfferingID)
	if err != nil {
		logger.Error().Err(err).
			Int64("userID", userID).
			Int64("courseOfferingID", courseOfferingID).
			Msg("Error checking offering instructor")
		return fmt.Errorf("error checking offering instructor: %w", err)
	}
	if !ok {
		return apperrors.NewForbiddenError("only an instructor of this course offering can perform this action")
	}
	return nil
}

// ValidateDepartmentAuthority requires the user to be an authority of the
// department owning the offering. It returns that department.
func (s *AuthorizationService) ValidateDepartmentAuthority(ctx context.Context, userID, courseOfferingID int64) (int64, error) {
	departmentID, err := s.academics.DepartmentForCourseOffering(ctx, courseOfferingID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return 0, apperrors.NewResourceNotFoundError("course offering not found")
		}
		return 0, fmt.Errorf("error resolving department: %w", err)
	}

	ok, err := s.academics.IsDepartmentAuthorityFor(ctx, userID, departmentID)
	if err != nil {
		logger.Error().Err(err).
			Int64("userID", userID).
			Int64("departmentID", departmentID).
			Msg("Error checking department authority")
		return 0, fmt.Errorf("error checking department authority: %w", err)
	}
	if !ok {
		return 0, apperrors.NewForbiddenError("only the department authority can review this result")
	}
	return departmentID, nil
}

// ValidateSectionViewer allows the section's instructor or the owning department's authority
func (s *AuthorizationService) ValidateSectionViewer(ctx context.Context, userID, courseOfferingID int64, section string) error {
	err := s.ValidateSectionInstructor(ctx, userID, courseOfferingID, section)
	if err == nil || !errors.Is(err, apperrors.ErrPermissionDenied) {
		return err
	}
	_, err = s.ValidateDepartmentAuthority(ctx, userID, courseOfferingID)
	return err
}

// AuthorityDepartments lists the departments the user reviews for. An empty
// list means the user is no department authority.
func (s *AuthorizationService) AuthorityDepartments(ctx context.Context, userID int64) ([]int64, error) {
	ids, err := s.academics.DepartmentsForAuthority(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing authority departments: %w", err)
	}
	if len(ids) == 0 {
		return nil, apperrors.NewForbiddenError("only department authorities can list results awaiting review")
	}
	return ids, nil
}
