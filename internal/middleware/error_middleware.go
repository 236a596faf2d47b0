package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/unisphere/gradebook/internal/app/models/dto"
	"github.com/unisphere/gradebook/internal/pkg/apperrors"
	"github.com/unisphere/gradebook/internal/pkg/logger"
)

// errorMapping ties an error kind to its HTTP status and default code
type errorMapping struct {
	kind   error
	status int
	code   dto.ErrorCode
}

var errorMappings = []errorMapping{
	{kind: apperrors.ErrValidationFailed, status: http.StatusBadRequest, code: dto.ErrorCodeValidationFailed},
	{kind: apperrors.ErrIncompleteWeight, status: http.StatusUnprocessableEntity, code: dto.ErrorCodeIncompleteWeight},
	{kind: apperrors.ErrMissingScheme, status: http.StatusUnprocessableEntity, code: dto.ErrorCodeMissingScheme},
	{kind: apperrors.ErrPermissionDenied, status: http.StatusForbidden, code: dto.ErrorCodeForbidden},
	{kind: apperrors.ErrResourceNotFound, status: http.StatusNotFound, code: dto.ErrorCodeResourceNotFound},
	{kind: apperrors.ErrConflict, status: http.StatusConflict, code: dto.ErrorCodeConflict},
	{kind: apperrors.ErrInvalidState, status: http.StatusConflict, code: dto.ErrorCodeInvalidState},
	{kind: apperrors.ErrTokenExpired, status: http.StatusUnauthorized, code: dto.ErrorCodeExpiredToken},
	{kind: apperrors.ErrTokenInvalid, status: http.StatusUnauthorized, code: dto.ErrorCodeInvalidToken},
	{kind: apperrors.ErrInvalidFormat, status: http.StatusUnauthorized, code: dto.ErrorCodeInvalidToken},
}

// HandleAPIError writes the response for an error returned by a service.
// Unknown errors are logged and reported as a generic 500.
func HandleAPIError(c *gin.Context, err error) {
	for _, m := range errorMappings {
		if !errors.Is(err, m.kind) {
			continue
		}

		detail := dto.NewErrorDetail(m.code, err.Error())
		var ce *apperrors.CustomError
		if errors.As(err, &ce) {
			if ce.Code != "" {
				detail.Code = dto.ErrorCode(ce.Code)
			}
			switch {
			case len(ce.Fields) > 0:
				detail.WithDetails(ce.Fields)
			case len(ce.Details) > 0:
				detail.WithDetails(ce.Details)
			}
		}
		c.AbortWithStatusJSON(m.status, dto.NewFailureResponse(detail))
		return
	}

	logger.Error().Err(err).
		Str("method", c.Request.Method).
		Str("path", c.FullPath()).
		Str("requestID", c.GetString(ContextRequestID)).
		Msg("Unhandled error")
	c.AbortWithStatusJSON(http.StatusInternalServerError,
		dto.NewFailureResponse(dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error").
			WithSeverity(dto.ErrorSeverityCritical)))
}
