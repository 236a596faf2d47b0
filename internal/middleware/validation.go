package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/unisphere/gradebook/internal/app/models/dto"
	"github.com/unisphere/gradebook/internal/pkg/validation"
)

// Bound requests report fields by their JSON names and may use the section
// and grade rules.
func init() {
	if err := validation.RegisterWithGin(); err != nil {
		panic(err)
	}
}

// HandleBindingError reports a request body that failed to bind or validate
func HandleBindingError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		errs := dto.NewValidationErrors()
		for _, fe := range verrs {
			errs.AddError(fieldPath(fe), formatValidationError(fe))
		}
		detail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Validation failed").WithDetails(errs.Errors)
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewFailureResponse(detail))
		return
	}

	message := "Invalid request format"
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		message = "Malformed JSON body"
	case errors.As(err, &typeErr):
		message = "Field " + typeErr.Field + " has the wrong type"
	}
	detail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, message).WithDetails(err.Error())
	c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewFailureResponse(detail))
}

// fieldPath turns "UpsertResultsRequest.results[0].totalMarks" into "results[0].totalMarks"
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// formatValidationError creates a human-readable validation error message
func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "gte":
		return e.Field() + " must be greater than or equal to " + e.Param()
	case "lte":
		return e.Field() + " must be less than or equal to " + e.Param()
	case "gt":
		return e.Field() + " must be greater than " + e.Param()
	case "oneof":
		return e.Field() + " must be one of: " + e.Param()
	case "section":
		return e.Field() + " must be a section code of up to 16 letters, digits, '-' or '_'"
	case "grade":
		return e.Field() + " must be a letter grade of up to 8 characters"
	default:
		return e.Field() + " validation failed: " + e.Tag()
	}
}
