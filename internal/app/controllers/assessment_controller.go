package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/unisphere/gradebook/internal/app/models/dto"
	"github.com/unisphere/gradebook/internal/app/services"
	"github.com/unisphere/gradebook/internal/middleware"
)

// AssessmentController handles assessments and their marks
type AssessmentController struct {
	assessmentService services.AssessmentService
}

// NewAssessmentController creates a new AssessmentController
func NewAssessmentController(assessmentService services.AssessmentService) *AssessmentController {
	return &AssessmentController{assessmentService: assessmentService}
}

// CreateAssessment adds an assessment to a course offering
// @Summary Create assessment
// @Tags assessments
// @Accept json
// @Produce json
// @Param id path int true "Course offering ID"
// @Param request body dto.AssessmentRequest true "Assessment"
// @Success 201 {object} dto.APIResponse{data=models.Assessment}
// @Failure 400 {object} dto.APIResponse
// @Router /course-offerings/{id}/assessments [post]
// @Security BearerAuth
func (c *AssessmentController) CreateAssessment(ctx *gin.Context) {
	actor, ok := actorID(ctx)
	if !ok {
		return
	}
	courseOfferingID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.AssessmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(ctx, err)
		return
	}

	assessment, err := c.assessmentService.CreateAssessment(ctx.Request.Context(), actor, courseOfferingID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(assessment))
}

// UpdateAssessment replaces an assessment
// @Summary Update assessment
// @Tags assessments
// @Accept json
// @Produce json
// @Param id path int true "Assessment ID"
// @Param request body dto.AssessmentRequest true "Assessment"
// @Success 200 {object} dto.APIResponse{data=models.Assessment}
// @Failure 400 {object} dto.APIResponse
// @Router /assessments/{id} [put]
// @Security BearerAuth
func (c *AssessmentController) UpdateAssessment(ctx *gin.Context) {
	actor, ok := actorID(ctx)
	if !ok {
		return
	}
	assessmentID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.AssessmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(ctx, err)
		return
	}

	assessment, err := c.assessmentService.UpdateAssessment(ctx.Request.Context(), actor, assessmentID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(assessment))
}

// ListAssessments lists the assessments of a course offering
// @Summary List assessments
// @Tags assessments
// @Produce json
// @Param id path int true "Course offering ID"
// @Success 200 {object} dto.APIResponse{data=dto.AssessmentListResponse}
// @Router /course-offerings/{id}/assessments [get]
// @Security BearerAuth
func (c *AssessmentController) ListAssessments(ctx *gin.Context) {
	actor, ok := actorID(ctx)
	if !ok {
		return
	}
	courseOfferingID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	resp, err := c.assessmentService.ListAssessments(ctx.Request.Context(), actor, courseOfferingID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// UpsertResults records marks for an assessment
// @Summary Record assessment results
// @Tags assessments
// @Accept json
// @Produce json
// @Param id path int true "Assessment ID"
// @Param request body dto.UpsertResultsRequest true "Results"
// @Success 200 {object} dto.APIResponse{data=dto.UpsertResultsResponse}
// @Failure 400 {object} dto.APIResponse
// @Router /assessments/{id}/results [put]
// @Security BearerAuth
func (c *AssessmentController) UpsertResults(ctx *gin.Context) {
	actor, ok := actorID(ctx)
	if !ok {
		return
	}
	assessmentID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.UpsertResultsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(ctx, err)
		return
	}

	entries := make([]services.ResultEntry, 0, len(req.Results))
	for _, r := range req.Results {
		entries = append(entries, services.ResultEntry{
			StudentID:     r.StudentID,
			MarksObtained: *r.MarksObtained,
			TotalMarks:    *r.TotalMarks,
		})
	}

	resp, err := c.assessmentService.UpsertResults(ctx.Request.Context(), actor, assessmentID, entries)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// ListResults lists the marks recorded for an assessment
// @Summary List assessment results
// @Tags assessments
// @Produce json
// @Param id path int true "Assessment ID"
// @Success 200 {object} dto.APIResponse{data=dto.AssessmentResultListResponse}
// @Router /assessments/{id}/results [get]
// @Security BearerAuth
func (c *AssessmentController) ListResults(ctx *gin.Context) {
	actor, ok := actorID(ctx)
	if !ok {
		return
	}
	assessmentID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	resp, err := c.assessmentService.ListResults(ctx.Request.Context(), actor, assessmentID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}
