package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unisphere/gradebook/internal/app/models"
	"github.com/unisphere/gradebook/internal/pkg/apperrors"
)

func assertKind(t *testing.T, err error, kind error) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, kind), "want %v, got %v", kind, err)
}

func TestFinalize_SubmitConflictWithdrawResubmit(t *testing.T) {
	f := newFixture(t)
	f.readyToFinalize(t)
	ctx := context.Background()

	first, err := f.finalization.Finalize(ctx, instructorA, offeringID, "A")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, first.Status)
	assert.NotZero(t, first.ResultID)
	assert.Len(t, first.Grades, 3)

	_, err = f.finalization.Finalize(ctx, instructorA, offeringID, "A")
	assertKind(t, err, apperrors.ErrConflict)
	assert.Contains(t, err.Error(), "pending review")

	withdrawn, err := f.finalization.Withdraw(ctx, instructorA, offeringID, "A")
	require.NoError(t, err)
	assert.True(t, withdrawn.Withdrawn)

	_, err = f.finalization.GetFinalizedResult(ctx, instructorA, offeringID, "A")
	assertKind(t, err, apperrors.ErrResourceNotFound)

	again, err := f.finalization.Finalize(ctx, instructorA, offeringID, "A")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, again.Status)
}

func TestReview_ConfirmedIsTerminal(t *testing.T) {
	f := newFixture(t)
	f.readyToFinalize(t)
	ctx := context.Background()

	submitted, err := f.finalization.Finalize(ctx, instructorA, offeringID, "A")
	require.NoError(t, err)

	reviewed, err := f.finalization.Review(ctx, authority, submitted.ResultID, models.StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, reviewed.Status)
	assert.Equal(t, authority, reviewed.ReviewedBy)

	_, err = f.finalization.Withdraw(ctx, instructorA, offeringID, "A")
	assertKind(t, err, apperrors.ErrInvalidState)
	assert.Equal(t, apperrors.CodeInvalidState, apperrors.Code(err))

	_, err = f.finalization.Review(ctx, authority, submitted.ResultID, models.StatusRejected)
	assertKind(t, err, apperrors.ErrInvalidState)

	_, err = f.finalization.Review(ctx, authority, submitted.ResultID, models.StatusConfirmed)
	assertKind(t, err, apperrors.ErrInvalidState)

	_, err = f.finalization.Finalize(ctx, instructorA, offeringID, "A")
	assertKind(t, err, apperrors.ErrConflict)
	assert.Contains(t, err.Error(), "already confirmed")

	stored, err := f.finalization.GetFinalizedResult(ctx, authority, offeringID, "A")
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, stored.Status)
	require.NotNil(t, stored.ReviewedBy)
	assert.Equal(t, authority, *stored.ReviewedBy)
}

func TestReview_RejectionReopens(t *testing.T) {
	f := newFixture(t)
	quiz, _ := f.readyToFinalize(t)
	ctx := context.Background()

	submitted, err := f.finalization.Finalize(ctx, instructorA, offeringID, "A")
	require.NoError(t, err)

	_, err = f.finalization.Review(ctx, authority, submitted.ResultID, models.StatusRejected)
	require.NoError(t, err)

	// rejected results cannot be withdrawn, only resubmitted
	_, err = f.finalization.Withdraw(ctx, instructorA, offeringID, "A")
	assertKind(t, err, apperrors.ErrInvalidState)

	// the instructor corrects a mark before resubmitting
	f.recordMarks(t, quiz, ResultEntry{StudentID: 3, MarksObtained: 20, TotalMarks: 20})

	resubmitted, err := f.finalization.Finalize(ctx, instructorA, offeringID, "A")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, resubmitted.Status)
	assert.Equal(t, submitted.ResultID, resubmitted.ResultID, "overwritten in place")

	stored, err := f.finalization.GetFinalizedResult(ctx, instructorA, offeringID, "A")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)
	assert.Nil(t, stored.ReviewedBy)
	assert.Nil(t, stored.ReviewedAt)
	assert.Equal(t, 52.0, gradeOf(t, stored.Results, 3).WeightedPercentage)
}

func TestFinalize_Authorization(t *testing.T) {
	f := newFixture(t)
	f.readyToFinalize(t)
	ctx := context.Background()

	_, err := f.finalization.Finalize(ctx, instructorB, offeringID, "A")
	assertKind(t, err, apperrors.ErrPermissionDenied)

	_, err = f.finalization.Finalize(ctx, authority, offeringID, "A")
	assertKind(t, err, apperrors.ErrPermissionDenied)

	submitted, err := f.finalization.Finalize(ctx, instructorA, offeringID, "A")
	require.NoError(t, err)

	_, err = f.finalization.Withdraw(ctx, instructorB, offeringID, "A")
	assertKind(t, err, apperrors.ErrPermissionDenied)

	// instructors cannot review, nor can authorities of other departments
	_, err = f.finalization.Review(ctx, instructorA, submitted.ResultID, models.StatusConfirmed)
	assertKind(t, err, apperrors.ErrPermissionDenied)
	_, err = f.finalization.Review(ctx, otherAuthority, submitted.ResultID, models.StatusConfirmed)
	assertKind(t, err, apperrors.ErrPermissionDenied)

	_, err = f.finalization.GetFinalizedResult(ctx, instructorB, offeringID, "A")
	assertKind(t, err, apperrors.ErrPermissionDenied)
}

func TestFinalize_PreconditionsLeaveNoRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addAssessment(t, offeringID, 70)
	_, err := f.registry.Save(ctx, offeringID, "A", standardRules)
	require.NoError(t, err)

	_, err = f.finalization.Finalize(ctx, instructorA, offeringID, "A")
	assertKind(t, err, apperrors.ErrIncompleteWeight)

	_, err = f.finalization.GetFinalizedResult(ctx, instructorA, offeringID, "A")
	assertKind(t, err, apperrors.ErrResourceNotFound)
}

func TestWithdraw_WithoutResult(t *testing.T) {
	f := newFixture(t)
	_, err := f.finalization.Withdraw(context.Background(), instructorA, offeringID, "A")
	assertKind(t, err, apperrors.ErrResourceNotFound)
}

func TestReview_InvalidInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.finalization.Review(ctx, authority, 1, models.StatusPending)
	assertKind(t, err, apperrors.ErrValidationFailed)

	_, err = f.finalization.Review(ctx, authority, 12345, models.StatusConfirmed)
	assertKind(t, err, apperrors.ErrResourceNotFound)
}

func TestListPendingForReview(t *testing.T) {
	f := newFixture(t)
	f.readyToFinalize(t)
	ctx := context.Background()

	// section B has an empty roster but can still be finalized
	_, err := f.registry.Save(ctx, offeringID, "B", standardRules)
	require.NoError(t, err)

	clock := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	f.finalization.(*finalizationServiceImpl).now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	a, err := f.finalization.Finalize(ctx, instructorA, offeringID, "A")
	require.NoError(t, err)
	b, err := f.finalization.Finalize(ctx, instructorB, offeringID, "B")
	require.NoError(t, err)
	assert.Empty(t, b.Grades)

	page, err := f.finalization.ListPendingForReview(ctx, authority, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, 2, page.PaginationInfo.TotalPages)
	require.Len(t, page.Results, 1)
	assert.Equal(t, a.ResultID, page.Results[0].ID)

	page, err = f.finalization.ListPendingForReview(ctx, authority, 2, 1)
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Equal(t, b.ResultID, page.Results[0].ID)

	// reviewed results leave the queue
	_, err = f.finalization.Review(ctx, authority, a.ResultID, models.StatusConfirmed)
	require.NoError(t, err)
	page, err = f.finalization.ListPendingForReview(ctx, authority, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	// other departments see nothing
	page, err = f.finalization.ListPendingForReview(ctx, otherAuthority, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, page.Total)
	assert.Empty(t, page.Results)

	_, err = f.finalization.ListPendingForReview(ctx, instructorA, 1, 10)
	assertKind(t, err, apperrors.ErrPermissionDenied)
}

func TestPreviewGrades_DoesNotPersist(t *testing.T) {
	f := newFixture(t)
	f.readyToFinalize(t)
	ctx := context.Background()

	preview, err := f.finalization.PreviewGrades(ctx, instructorA, offeringID, "A")
	require.NoError(t, err)
	assert.Len(t, preview.Grades, 3)

	_, err = f.finalization.GetFinalizedResult(ctx, instructorA, offeringID, "A")
	assertKind(t, err, apperrors.ErrResourceNotFound)

	_, err = f.finalization.PreviewGrades(ctx, instructorB, offeringID, "A")
	assertKind(t, err, apperrors.ErrPermissionDenied)
}
