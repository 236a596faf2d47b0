package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/unisphere/gradebook/internal/app/auth"
	"github.com/unisphere/gradebook/internal/app/models"
	"github.com/unisphere/gradebook/internal/app/models/dto"
	"github.com/unisphere/gradebook/internal/app/repositories"
	"github.com/unisphere/gradebook/internal/pkg/apperrors"
	"github.com/unisphere/gradebook/internal/pkg/helpers"
)

// FinalizationService defines the finalize / withdraw / review workflow
type FinalizationService interface {
	Finalize(ctx context.Context, actorID, courseOfferingID int64, section string) (*dto.FinalizeResponse, error)
	Withdraw(ctx context.Context, actorID, courseOfferingID int64, section string) (*dto.WithdrawResponse, error)
	Review(ctx context.Context, actorID, resultID int64, decision models.FinalizationStatus) (*dto.ReviewResponse, error)
	ListPendingForReview(ctx context.Context, actorID int64, page, size int) (*dto.FinalizedResultListResponse, error)
	GetFinalizedResult(ctx context.Context, actorID, courseOfferingID int64, section string) (*models.FinalizedResult, error)
	PreviewGrades(ctx context.Context, actorID, courseOfferingID int64, section string) (*dto.GradePreviewResponse, error)
}

// finalizationServiceImpl implements FinalizationService
type finalizationServiceImpl struct {
	store  repositories.Store
	engine *FinalizationEngine
	authz  *auth.AuthorizationService
	now    Clock
	logger zerolog.Logger
}

// NewFinalizationService creates a new FinalizationService
func NewFinalizationService(
	store repositories.Store,
	engine *FinalizationEngine,
	authz *auth.AuthorizationService,
	logger zerolog.Logger,
) FinalizationService {
	return &finalizationServiceImpl{
		store:  store,
		engine: engine,
		authz:  authz,
		now:    defaultClock,
		logger: logger.With().Str("component", "finalization_service").Logger(),
	}
}

// finalizeConflict explains why a section cannot be finalized in its current state
func finalizeConflict(status models.FinalizationStatus) error {
	switch status {
	case models.StatusPending:
		return apperrors.NewConflictError("already finalized, pending review")
	case models.StatusConfirmed:
		return apperrors.NewConflictError("already confirmed, cannot change")
	default:
		return apperrors.NewConflictError(fmt.Sprintf("cannot finalize a result in state %s", status))
	}
}

// stateError converts an illegal transition into a StateError
func stateError(err error) error {
	var terr *models.TransitionError
	if errors.As(err, &terr) {
		return apperrors.NewStateError(terr.Error()).WithDetails(map[string]interface{}{
			"status": string(terr.From),
			"action": string(terr.Action),
		})
	}
	return err
}

// Finalize computes the section's grades and submits them for review
func (s *finalizationServiceImpl) Finalize(ctx context.Context, actorID, courseOfferingID int64, section string) (*dto.FinalizeResponse, error) {
	if err := s.authz.ValidateSectionInstructor(ctx, actorID, courseOfferingID, section); err != nil {
		return nil, err
	}

	var result *models.FinalizedResult
	opts := repositories.TxOptions{Isolation: repositories.RepeatableRead}
	err := s.store.WithinTransaction(ctx, opts, func(ctx context.Context, tx repositories.Store) error {
		grades, err := s.engine.Compute(ctx, tx, courseOfferingID, section)
		if err != nil {
			return err
		}

		current := models.StatusNone
		existing, err := tx.FinalizedResults().GetBySection(ctx, courseOfferingID, section, true)
		switch {
		case err == nil:
			current = existing.Status
		case !errors.Is(err, repositories.ErrNotFound):
			return err
		}

		next, err := models.NextStatus(current, models.ActionFinalize)
		if err != nil {
			return finalizeConflict(current)
		}

		now := s.now()
		result = &models.FinalizedResult{
			CourseOfferingID: courseOfferingID,
			Section:          section,
			SubmittedBy:      actorID,
			Status:           next,
			Results:          grades,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if existing == nil {
			return tx.FinalizedResults().Insert(ctx, result)
		}

		result.ID = existing.ID
		result.CreatedAt = existing.CreatedAt
		if err := tx.FinalizedResults().Resubmit(ctx, result); err != nil {
			if errors.Is(err, repositories.ErrStaleWrite) {
				return apperrors.NewConflictError(conflictMessage)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, translateStoreError(err, "course offering not found")
	}

	s.logger.Info().
		Int64("resultID", result.ID).
		Int64("courseOfferingID", courseOfferingID).
		Str("section", section).
		Int64("submittedBy", actorID).
		Int("students", len(result.Results)).
		Msg("Final grades submitted for review")

	return &dto.FinalizeResponse{
		ResultID: result.ID,
		Status:   result.Status,
		Grades:   result.Results,
	}, nil
}

// Withdraw deletes a pending submission so the instructor can finalize again
func (s *finalizationServiceImpl) Withdraw(ctx context.Context, actorID, courseOfferingID int64, section string) (*dto.WithdrawResponse, error) {
	if err := s.authz.ValidateSectionInstructor(ctx, actorID, courseOfferingID, section); err != nil {
		return nil, err
	}

	var resultID int64
	opts := repositories.TxOptions{Isolation: repositories.RepeatableRead}
	err := s.store.WithinTransaction(ctx, opts, func(ctx context.Context, tx repositories.Store) error {
		existing, err := tx.FinalizedResults().GetBySection(ctx, courseOfferingID, section, true)
		if err != nil {
			return err
		}
		if _, err := models.NextStatus(existing.Status, models.ActionWithdraw); err != nil {
			return stateError(err)
		}
		if err := tx.FinalizedResults().Delete(ctx, existing.ID, existing.Status); err != nil {
			if errors.Is(err, repositories.ErrStaleWrite) {
				return apperrors.NewConflictError(conflictMessage)
			}
			return err
		}
		resultID = existing.ID
		return nil
	})
	if err != nil {
		return nil, translateStoreError(err, "no finalized result exists for this section")
	}

	s.logger.Info().
		Int64("resultID", resultID).
		Int64("courseOfferingID", courseOfferingID).
		Str("section", section).
		Int64("withdrawnBy", actorID).
		Msg("Finalized result withdrawn")

	return &dto.WithdrawResponse{Withdrawn: true}, nil
}

// Review records a department authority's decision on a pending result
func (s *finalizationServiceImpl) Review(ctx context.Context, actorID, resultID int64, decision models.FinalizationStatus) (*dto.ReviewResponse, error) {
	action, ok := models.ReviewDecision(decision)
	if !ok {
		return nil, apperrors.NewValidationError("invalid review decision", apperrors.FieldError{
			Field:   "decision",
			Message: "must be CONFIRMED or REJECTED",
		})
	}

	var resp *dto.ReviewResponse
	opts := repositories.TxOptions{Isolation: repositories.RepeatableRead}
	err := s.store.WithinTransaction(ctx, opts, func(ctx context.Context, tx repositories.Store) error {
		result, err := tx.FinalizedResults().GetByID(ctx, resultID)
		if err != nil {
			return err
		}
		if _, err := s.authz.ValidateDepartmentAuthority(ctx, actorID, result.CourseOfferingID); err != nil {
			return err
		}

		next, err := models.NextStatus(result.Status, action)
		if err != nil {
			return stateError(err)
		}

		now := s.now()
		if err := tx.FinalizedResults().UpdateStatus(ctx, result.ID, result.Status, next, actorID, now); err != nil {
			if errors.Is(err, repositories.ErrStaleWrite) {
				return apperrors.NewConflictError(conflictMessage)
			}
			return err
		}
		resp = &dto.ReviewResponse{
			ResultID:   result.ID,
			Status:     next,
			ReviewedBy: actorID,
			ReviewedAt: now,
		}
		return nil
	})
	if err != nil {
		return nil, translateStoreError(err, "finalized result not found")
	}

	s.logger.Info().
		Int64("resultID", resultID).
		Str("status", string(resp.Status)).
		Int64("reviewedBy", actorID).
		Msg("Finalized result reviewed")

	return resp, nil
}

// ListPendingForReview pages the pending results of the actor's departments
func (s *finalizationServiceImpl) ListPendingForReview(ctx context.Context, actorID int64, page, size int) (*dto.FinalizedResultListResponse, error) {
	departmentIDs, err := s.authz.AuthorityDepartments(ctx, actorID)
	if err != nil {
		return nil, err
	}

	page, size = helpers.NormalizePage(page, size)
	offset, limit := helpers.CalculateOffsetLimit(page, size)

	results, total, err := s.store.FinalizedResults().ListByStatusForDepartments(ctx, models.StatusPending, departmentIDs, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing pending results: %w", err)
	}

	return &dto.FinalizedResultListResponse{
		Results:        results,
		Total:          total,
		PaginationInfo: helpers.NewPaginationInfo(total, page, size),
	}, nil
}

// GetFinalizedResult returns the section's result to its instructor or reviewing authority
func (s *finalizationServiceImpl) GetFinalizedResult(ctx context.Context, actorID, courseOfferingID int64, section string) (*models.FinalizedResult, error) {
	if err := s.authz.ValidateSectionViewer(ctx, actorID, courseOfferingID, section); err != nil {
		return nil, err
	}

	result, err := s.store.FinalizedResults().GetBySection(ctx, courseOfferingID, section, false)
	if err != nil {
		return nil, translateStoreError(err, "no finalized result exists for this section")
	}
	return result, nil
}

// PreviewGrades runs the engine without persisting anything
func (s *finalizationServiceImpl) PreviewGrades(ctx context.Context, actorID, courseOfferingID int64, section string) (*dto.GradePreviewResponse, error) {
	if err := s.authz.ValidateSectionInstructor(ctx, actorID, courseOfferingID, section); err != nil {
		return nil, err
	}

	var grades []models.StudentGrade
	opts := repositories.TxOptions{Isolation: repositories.RepeatableRead, ReadOnly: true}
	err := s.store.WithinTransaction(ctx, opts, func(ctx context.Context, tx repositories.Store) error {
		var err error
		grades, err = s.engine.Compute(ctx, tx, courseOfferingID, section)
		return err
	})
	if err != nil {
		return nil, translateStoreError(err, "course offering not found")
	}

	return &dto.GradePreviewResponse{
		CourseOfferingID: courseOfferingID,
		Section:          section,
		Grades:           grades,
	}, nil
}
