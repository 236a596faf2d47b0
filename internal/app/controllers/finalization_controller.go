package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/unisphere/gradebook/internal/app/models"
	"github.com/unisphere/gradebook/internal/app/models/dto"
	"github.com/unisphere/gradebook/internal/app/services"
	"github.com/unisphere/gradebook/internal/middleware"
	"github.com/unisphere/gradebook/internal/pkg/helpers"
)

// FinalizationController handles grading schemes and the finalization workflow
type FinalizationController struct {
	finalizationService services.FinalizationService
	registry            *services.GradingSchemeRegistry
}

// NewFinalizationController creates a new FinalizationController
func NewFinalizationController(finalizationService services.FinalizationService, registry *services.GradingSchemeRegistry) *FinalizationController {
	return &FinalizationController{
		finalizationService: finalizationService,
		registry:            registry,
	}
}

// SaveGradingScheme replaces the grading scheme of a section
// @Summary Save grading scheme
// @Tags grading
// @Accept json
// @Produce json
// @Param id path int true "Course offering ID"
// @Param section path string true "Section"
// @Param request body dto.SaveGradingSchemeRequest true "Rules"
// @Success 200 {object} dto.APIResponse{data=models.GradingScheme}
// @Failure 400 {object} dto.APIResponse
// @Failure 403 {object} dto.APIResponse
// @Router /course-offerings/{id}/sections/{section}/grading-scheme [put]
// @Security BearerAuth
func (c *FinalizationController) SaveGradingScheme(ctx *gin.Context) {
	actor, target, ok := sectionTarget(ctx)
	if !ok {
		return
	}

	var req dto.SaveGradingSchemeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(ctx, err)
		return
	}

	scheme, err := c.registry.SaveScheme(ctx.Request.Context(), actor, target.CourseOfferingID, target.Section, req.ToModels())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(scheme))
}

// GetGradingScheme returns the grading scheme of a section
// @Summary Get grading scheme
// @Tags grading
// @Produce json
// @Param id path int true "Course offering ID"
// @Param section path string true "Section"
// @Success 200 {object} dto.APIResponse{data=models.GradingScheme}
// @Failure 404 {object} dto.APIResponse
// @Router /course-offerings/{id}/sections/{section}/grading-scheme [get]
// @Security BearerAuth
func (c *FinalizationController) GetGradingScheme(ctx *gin.Context) {
	actor, target, ok := sectionTarget(ctx)
	if !ok {
		return
	}

	scheme, err := c.registry.GetScheme(ctx.Request.Context(), actor, target.CourseOfferingID, target.Section)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(scheme))
}

// PreviewGrades computes the grades a finalization would submit
// @Summary Preview final grades
// @Tags finalization
// @Produce json
// @Param id path int true "Course offering ID"
// @Param section path string true "Section"
// @Success 200 {object} dto.APIResponse{data=dto.GradePreviewResponse}
// @Failure 422 {object} dto.APIResponse
// @Router /course-offerings/{id}/sections/{section}/grade-preview [get]
// @Security BearerAuth
func (c *FinalizationController) PreviewGrades(ctx *gin.Context) {
	actor, target, ok := sectionTarget(ctx)
	if !ok {
		return
	}

	preview, err := c.finalizationService.PreviewGrades(ctx.Request.Context(), actor, target.CourseOfferingID, target.Section)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(preview))
}

// FinalizeResults submits a section's grades for department review
// @Summary Finalize results
// @Tags finalization
// @Produce json
// @Param id path int true "Course offering ID"
// @Param section path string true "Section"
// @Success 201 {object} dto.APIResponse{data=dto.FinalizeResponse}
// @Failure 409 {object} dto.APIResponse
// @Failure 422 {object} dto.APIResponse
// @Router /course-offerings/{id}/sections/{section}/finalized-result [post]
// @Security BearerAuth
func (c *FinalizationController) FinalizeResults(ctx *gin.Context) {
	actor, target, ok := sectionTarget(ctx)
	if !ok {
		return
	}

	resp, err := c.finalizationService.Finalize(ctx.Request.Context(), actor, target.CourseOfferingID, target.Section)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(resp))
}

// WithdrawFinalizedResult withdraws a pending submission
// @Summary Withdraw finalized result
// @Tags finalization
// @Produce json
// @Param id path int true "Course offering ID"
// @Param section path string true "Section"
// @Success 200 {object} dto.APIResponse{data=dto.WithdrawResponse}
// @Failure 409 {object} dto.APIResponse
// @Router /course-offerings/{id}/sections/{section}/finalized-result [delete]
// @Security BearerAuth
func (c *FinalizationController) WithdrawFinalizedResult(ctx *gin.Context) {
	actor, target, ok := sectionTarget(ctx)
	if !ok {
		return
	}

	resp, err := c.finalizationService.Withdraw(ctx.Request.Context(), actor, target.CourseOfferingID, target.Section)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// GetFinalizedResult returns the finalized result of a section
// @Summary Get finalized result
// @Tags finalization
// @Produce json
// @Param id path int true "Course offering ID"
// @Param section path string true "Section"
// @Success 200 {object} dto.APIResponse{data=models.FinalizedResult}
// @Failure 404 {object} dto.APIResponse
// @Router /course-offerings/{id}/sections/{section}/finalized-result [get]
// @Security BearerAuth
func (c *FinalizationController) GetFinalizedResult(ctx *gin.Context) {
	actor, target, ok := sectionTarget(ctx)
	if !ok {
		return
	}

	result, err := c.finalizationService.GetFinalizedResult(ctx.Request.Context(), actor, target.CourseOfferingID, target.Section)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(result))
}

// ReviewFinalizedResult confirms or rejects a pending result
// @Summary Review finalized result
// @Tags finalization
// @Accept json
// @Produce json
// @Param id path int true "Finalized result ID"
// @Param request body dto.ReviewRequest true "Decision"
// @Success 200 {object} dto.APIResponse{data=dto.ReviewResponse}
// @Failure 403 {object} dto.APIResponse
// @Failure 409 {object} dto.APIResponse
// @Router /finalized-results/{id}/review [post]
// @Security BearerAuth
func (c *FinalizationController) ReviewFinalizedResult(ctx *gin.Context) {
	actor, ok := actorID(ctx)
	if !ok {
		return
	}
	resultID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.ReviewRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(ctx, err)
		return
	}

	resp, err := c.finalizationService.Review(ctx.Request.Context(), actor, resultID, models.FinalizationStatus(req.Decision))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// ListPendingForReview lists the results awaiting the caller's review
// @Summary List results pending review
// @Tags finalization
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 10)"
// @Success 200 {object} dto.APIResponse{data=dto.FinalizedResultListResponse}
// @Failure 403 {object} dto.APIResponse
// @Router /finalized-results/pending [get]
// @Security BearerAuth
func (c *FinalizationController) ListPendingForReview(ctx *gin.Context) {
	actor, ok := actorID(ctx)
	if !ok {
		return
	}
	page, size := helpers.ParsePaginationParams(ctx)

	resp, err := c.finalizationService.ListPendingForReview(ctx.Request.Context(), actor, page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}
