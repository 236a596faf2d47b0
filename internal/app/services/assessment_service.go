package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/unisphere/gradebook/internal/app/auth"
	"github.com/unisphere/gradebook/internal/app/models"
	"github.com/unisphere/gradebook/internal/app/models/dto"
	"github.com/unisphere/gradebook/internal/app/repositories"
	"github.com/unisphere/gradebook/internal/pkg/apperrors"
)

// AssessmentService defines the instructor operations on assessments and marks
type AssessmentService interface {
	CreateAssessment(ctx context.Context, actorID, courseOfferingID int64, req *dto.AssessmentRequest) (*models.Assessment, error)
	UpdateAssessment(ctx context.Context, actorID, assessmentID int64, req *dto.AssessmentRequest) (*models.Assessment, error)
	ListAssessments(ctx context.Context, actorID, courseOfferingID int64) (*dto.AssessmentListResponse, error)
	UpsertResults(ctx context.Context, actorID, assessmentID int64, entries []ResultEntry) (*dto.UpsertResultsResponse, error)
	ListResults(ctx context.Context, actorID, assessmentID int64) (*dto.AssessmentResultListResponse, error)
}

// assessmentServiceImpl implements AssessmentService
type assessmentServiceImpl struct {
	store   repositories.Store
	results *ResultStore
	authz   *auth.AuthorizationService
	now     Clock
	logger  zerolog.Logger
}

// NewAssessmentService creates a new AssessmentService
func NewAssessmentService(
	store repositories.Store,
	results *ResultStore,
	authz *auth.AuthorizationService,
	logger zerolog.Logger,
) AssessmentService {
	return &assessmentServiceImpl{
		store:   store,
		results: results,
		authz:   authz,
		now:     defaultClock,
		logger:  logger.With().Str("component", "assessment_service").Logger(),
	}
}

var assessmentTypes = map[models.AssessmentType]struct{}{
	models.AssessmentQuiz:       {},
	models.AssessmentAssignment: {},
	models.AssessmentMidterm:    {},
	models.AssessmentFinal:      {},
	models.AssessmentProject:    {},
	models.AssessmentLab:        {},
}

func validateAssessmentRequest(req *dto.AssessmentRequest) error {
	var fields []apperrors.FieldError
	if _, ok := assessmentTypes[models.AssessmentType(req.Type)]; !ok {
		fields = append(fields, apperrors.FieldError{Field: "type", Message: "unknown assessment type"})
	}
	if strings.TrimSpace(req.Title) == "" {
		fields = append(fields, apperrors.FieldError{Field: "title", Message: "is required"})
	}
	if req.Weightage == nil {
		fields = append(fields, apperrors.FieldError{Field: "weightage", Message: "is required"})
	} else if *req.Weightage < 0 || *req.Weightage > models.MaxTotalWeight {
		fields = append(fields, apperrors.FieldError{Field: "weightage", Message: "must be between 0 and 100"})
	}
	if len(fields) > 0 {
		return apperrors.NewValidationError("invalid assessment", fields...)
	}
	return nil
}

// ensureWeightFits rejects a weightage that would push the offering above 100%
func ensureWeightFits(ctx context.Context, tx repositories.Store, courseOfferingID int64, weight int, excluding *int64) error {
	ledger := NewWeightLedger(tx.Assessments())
	ok, err := ledger.CanAdd(ctx, courseOfferingID, weight, excluding)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	current, err := ledger.TotalWeight(ctx, courseOfferingID, excluding)
	if err != nil {
		return err
	}
	return apperrors.NewValidationError("total weightage would exceed 100%", apperrors.FieldError{
		Field:   "weightage",
		Message: fmt.Sprintf("at most %d%% remains for this course offering", models.MaxTotalWeight-current),
	}).WithDetails(map[string]interface{}{
		"currentWeight":   current,
		"requestedWeight": weight,
	})
}

// CreateAssessment adds an assessment to a course offering
func (s *assessmentServiceImpl) CreateAssessment(ctx context.Context, actorID, courseOfferingID int64, req *dto.AssessmentRequest) (*models.Assessment, error) {
	if err := validateAssessmentRequest(req); err != nil {
		return nil, err
	}
	if err := s.authz.ValidateOfferingInstructor(ctx, actorID, courseOfferingID); err != nil {
		return nil, err
	}

	now := s.now()
	assessment := &models.Assessment{
		CourseOfferingID: courseOfferingID,
		Type:             models.AssessmentType(req.Type),
		Title:            strings.TrimSpace(req.Title),
		Weightage:        *req.Weightage,
		DueDate:          req.DueDate,
		OutcomeIDs:       req.OutcomeIDs,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	// Serializable so two concurrent creates cannot both pass the weight check.
	opts := repositories.TxOptions{Isolation: repositories.Serializable}
	err := s.store.WithinTransaction(ctx, opts, func(ctx context.Context, tx repositories.Store) error {
		if err := ensureWeightFits(ctx, tx, courseOfferingID, assessment.Weightage, nil); err != nil {
			return err
		}
		return tx.Assessments().Create(ctx, assessment)
	})
	if err != nil {
		return nil, translateStoreError(err, "course offering not found")
	}

	s.logger.Info().
		Int64("assessmentID", assessment.ID).
		Int64("courseOfferingID", courseOfferingID).
		Int("weightage", assessment.Weightage).
		Msg("Assessment created")
	return assessment, nil
}

// UpdateAssessment replaces an assessment's attributes
func (s *assessmentServiceImpl) UpdateAssessment(ctx context.Context, actorID, assessmentID int64, req *dto.AssessmentRequest) (*models.Assessment, error) {
	if err := validateAssessmentRequest(req); err != nil {
		return nil, err
	}

	existing, err := s.store.Assessments().GetByID(ctx, assessmentID)
	if err != nil {
		return nil, translateStoreError(err, "assessment not found")
	}
	if err := s.authz.ValidateOfferingInstructor(ctx, actorID, existing.CourseOfferingID); err != nil {
		return nil, err
	}

	updated := *existing
	updated.Type = models.AssessmentType(req.Type)
	updated.Title = strings.TrimSpace(req.Title)
	updated.Weightage = *req.Weightage
	updated.DueDate = req.DueDate
	updated.OutcomeIDs = req.OutcomeIDs
	updated.UpdatedAt = s.now()

	opts := repositories.TxOptions{Isolation: repositories.Serializable}
	err = s.store.WithinTransaction(ctx, opts, func(ctx context.Context, tx repositories.Store) error {
		if err := ensureWeightFits(ctx, tx, updated.CourseOfferingID, updated.Weightage, &updated.ID); err != nil {
			return err
		}
		return tx.Assessments().Update(ctx, &updated)
	})
	if err != nil {
		return nil, translateStoreError(err, "assessment not found")
	}
	if updated.OutcomeIDs == nil {
		updated.OutcomeIDs = []int64{}
	}
	return &updated, nil
}

// ListAssessments returns the offering's assessments and their combined weightage
func (s *assessmentServiceImpl) ListAssessments(ctx context.Context, actorID, courseOfferingID int64) (*dto.AssessmentListResponse, error) {
	exists, err := s.store.Academics().CourseOfferingExists(ctx, courseOfferingID)
	if err != nil {
		return nil, fmt.Errorf("error checking course offering: %w", err)
	}
	if !exists {
		return nil, apperrors.NewResourceNotFoundError("course offering not found")
	}
	if err := s.authz.ValidateOfferingInstructor(ctx, actorID, courseOfferingID); err != nil {
		return nil, err
	}

	var resp dto.AssessmentListResponse
	err = s.store.WithinTransaction(ctx, repositories.TxOptions{ReadOnly: true}, func(ctx context.Context, tx repositories.Store) error {
		assessments, err := tx.Assessments().ListByCourseOffering(ctx, courseOfferingID)
		if err != nil {
			return err
		}
		total, err := NewWeightLedger(tx.Assessments()).TotalWeight(ctx, courseOfferingID, nil)
		if err != nil {
			return err
		}
		resp = dto.AssessmentListResponse{Assessments: assessments, TotalWeight: total}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error listing assessments: %w", err)
	}
	return &resp, nil
}

// assessmentForInstructor loads an assessment the actor may manage
func (s *assessmentServiceImpl) assessmentForInstructor(ctx context.Context, actorID, assessmentID int64) (*models.Assessment, error) {
	assessment, err := s.store.Assessments().GetByID(ctx, assessmentID)
	if err != nil {
		return nil, translateStoreError(err, "assessment not found")
	}
	if err := s.authz.ValidateOfferingInstructor(ctx, actorID, assessment.CourseOfferingID); err != nil {
		return nil, err
	}
	return assessment, nil
}

// UpsertResults records marks for an assessment
func (s *assessmentServiceImpl) UpsertResults(ctx context.Context, actorID, assessmentID int64, entries []ResultEntry) (*dto.UpsertResultsResponse, error) {
	if _, err := s.assessmentForInstructor(ctx, actorID, assessmentID); err != nil {
		return nil, err
	}

	count, err := s.results.UpsertMany(ctx, assessmentID, entries)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("assessmentID", assessmentID).
		Int("count", count).
		Int64("recordedBy", actorID).
		Msg("Assessment results recorded")
	return &dto.UpsertResultsResponse{Count: count}, nil
}

// ListResults returns the recorded marks of an assessment
func (s *assessmentServiceImpl) ListResults(ctx context.Context, actorID, assessmentID int64) (*dto.AssessmentResultListResponse, error) {
	if _, err := s.assessmentForInstructor(ctx, actorID, assessmentID); err != nil {
		return nil, err
	}

	results, err := s.store.Results().ListByAssessment(ctx, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("error listing assessment results: %w", err)
	}
	return &dto.AssessmentResultListResponse{AssessmentID: assessmentID, Results: results}, nil
}
