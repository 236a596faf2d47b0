package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/unisphere/gradebook/internal/app/controllers"
	"github.com/unisphere/gradebook/internal/middleware"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	finalizationController *controllers.FinalizationController,
	assessmentController *controllers.AssessmentController,
	authMiddleware *middleware.AuthMiddleware,
) {
	v1 := router.Group("/api/v1")

	// Every grading route needs an authenticated caller; capability checks
	// happen in the services.
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())

	offerings := authenticated.Group("/course-offerings/:id")
	{
		offerings.POST("/assessments", assessmentController.CreateAssessment)
		offerings.GET("/assessments", assessmentController.ListAssessments)

		sections := offerings.Group("/sections/:section")
		{
			sections.PUT("/grading-scheme", finalizationController.SaveGradingScheme)
			sections.GET("/grading-scheme", finalizationController.GetGradingScheme)
			sections.GET("/grade-preview", finalizationController.PreviewGrades)
			sections.POST("/finalized-result", finalizationController.FinalizeResults)
			sections.GET("/finalized-result", finalizationController.GetFinalizedResult)
			sections.DELETE("/finalized-result", finalizationController.WithdrawFinalizedResult)
		}
	}

	assessments := authenticated.Group("/assessments/:id")
	{
		assessments.PUT("", assessmentController.UpdateAssessment)
		assessments.PUT("/results", assessmentController.UpsertResults)
		assessments.GET("/results", assessmentController.ListResults)
	}

	finalized := authenticated.Group("/finalized-results")
	{
		finalized.GET("/pending", finalizationController.ListPendingForReview)
		finalized.POST("/:id/review", finalizationController.ReviewFinalizedResult)
	}
}
