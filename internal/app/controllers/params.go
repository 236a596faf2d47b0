package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/unisphere/gradebook/internal/app/models/dto"
	"github.com/unisphere/gradebook/internal/middleware"
)

// sectionURI addresses one section of a course offering
type sectionURI struct {
	CourseOfferingID int64  `uri:"id" binding:"required,gt=0"`
	Section          string `uri:"section" binding:"required,section"`
}

// parseIDParam reads a positive int64 path parameter, writing a 400 on failure
func parseIDParam(ctx *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		detail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid "+name).WithField(name)
		ctx.AbortWithStatusJSON(http.StatusBadRequest, dto.NewFailureResponse(detail))
		return 0, false
	}
	return id, true
}

// actorID returns the authenticated user, writing a 401 when there is none
func actorID(ctx *gin.Context) (int64, bool) {
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		detail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewFailureResponse(detail))
		return 0, false
	}
	return userID, true
}

// sectionTarget reads the actor and the section addressed by the route
func sectionTarget(ctx *gin.Context) (int64, sectionURI, bool) {
	actor, ok := actorID(ctx)
	if !ok {
		return 0, sectionURI{}, false
	}
	var uri sectionURI
	if err := ctx.ShouldBindUri(&uri); err != nil {
		middleware.HandleBindingError(ctx, err)
		return 0, sectionURI{}, false
	}
	return actor, uri, true
}
