package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unisphere/gradebook/internal/app/models"
	"github.com/unisphere/gradebook/internal/app/models/dto"
	"github.com/unisphere/gradebook/internal/pkg/apperrors"
	"github.com/unisphere/gradebook/internal/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.APIResponse {
	t.Helper()
	var resp dto.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func TestHandleAPIErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   dto.ErrorCode
	}{
		{"validation", apperrors.NewValidationError("bad input"), http.StatusBadRequest, dto.ErrorCodeValidationFailed},
		{"incomplete weight", apperrors.NewIncompleteWeightError(60), http.StatusUnprocessableEntity, dto.ErrorCodeIncompleteWeight},
		{"missing scheme", apperrors.NewMissingSchemeError(), http.StatusUnprocessableEntity, dto.ErrorCodeMissingScheme},
		{"forbidden", apperrors.NewForbiddenError("no"), http.StatusForbidden, dto.ErrorCodeForbidden},
		{"not found", apperrors.NewResourceNotFoundError("gone"), http.StatusNotFound, dto.ErrorCodeResourceNotFound},
		{"conflict", apperrors.NewConflictError("busy"), http.StatusConflict, dto.ErrorCodeConflict},
		{"state", apperrors.NewStateError("cannot"), http.StatusConflict, dto.ErrorCodeInvalidState},
		{"expired token", apperrors.ErrTokenExpired, http.StatusUnauthorized, dto.ErrorCodeExpiredToken},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError, dto.ErrorCodeInternalServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			HandleAPIError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestHandleAPIErrorHidesInternalMessage(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	HandleAPIError(c, errors.New("pq: password authentication failed"))

	resp := decodeResponse(t, w)
	assert.Equal(t, "Internal server error", resp.Error.Message)
}

func TestHandleAPIErrorCarriesFieldDetails(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	HandleAPIError(c, apperrors.NewValidationError("invalid",
		apperrors.FieldError{Field: "results[0].totalMarks", Message: "must be greater than 0"}))

	var body struct {
		Error struct {
			Details []apperrors.FieldError `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Error.Details, 1)
	assert.Equal(t, "results[0].totalMarks", body.Error.Details[0].Field)
}

type bindingTarget struct {
	Results []struct {
		StudentID  int64    `json:"studentId" binding:"required,gt=0"`
		TotalMarks *float64 `json:"totalMarks" binding:"required"`
	} `json:"results" binding:"required,min=1,dive"`
}

func bind(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	c.Request.Header.Set("Content-Type", "application/json")

	var target bindingTarget
	err := c.ShouldBindJSON(&target)
	require.Error(t, err)
	HandleBindingError(c, err)
	return w
}

func TestHandleBindingErrorFieldPaths(t *testing.T) {
	w := bind(t, `{"results":[{"studentId":0}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body struct {
		Error struct {
			Details []dto.ErrorDetail `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	fields := make([]string, 0, len(body.Error.Details))
	for _, d := range body.Error.Details {
		fields = append(fields, d.Field)
	}
	assert.ElementsMatch(t, []string{"results[0].studentId", "results[0].totalMarks"}, fields)
}

func TestHandleBindingErrorMalformedJSON(t *testing.T) {
	w := bind(t, `{"results":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrorCodeValidationFailed, decodeResponse(t, w).Error.Code)

	w = bind(t, `{"results":"none"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeResponse(t, w).Error.Message, "wrong type")
}

func newAuthRouter(jwtService *auth.JWTService) *gin.Engine {
	router := gin.New()
	router.Use(NewAuthMiddleware(jwtService).JWTAuth())
	router.GET("/me", func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			c.Status(http.StatusTeapot)
			return
		}
		c.JSON(http.StatusOK, dto.NewSuccessResponse(userID))
	})
	return router
}

func TestJWTAuth(t *testing.T) {
	jwtService := auth.NewJWTService(auth.JWTConfig{SecretKey: "secret", AccessTokenExp: time.Hour, TokenIssuer: "test"})
	router := newAuthRouter(jwtService)

	token, err := jwtService.GenerateAccessToken(42, models.RoleInstructor)
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantCode   dto.ErrorCode
	}{
		{"valid token", "Bearer " + token, http.StatusOK, ""},
		{"missing header", "", http.StatusUnauthorized, dto.ErrorCodeUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized, dto.ErrorCodeUnauthorized},
		{"tampered token", "Bearer " + token + "x", http.StatusUnauthorized, dto.ErrorCodeInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeResponse(t, w)
			if tt.wantCode == "" {
				assert.True(t, resp.Success)
				assert.EqualValues(t, 42, resp.Data)
				return
			}
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestJWTAuthRejectsForeignSecret(t *testing.T) {
	router := newAuthRouter(auth.NewJWTService(auth.JWTConfig{SecretKey: "secret", AccessTokenExp: time.Hour}))
	other := auth.NewJWTService(auth.JWTConfig{SecretKey: "other", AccessTokenExp: time.Hour})
	token, err := other.GenerateAccessToken(42, models.RoleInstructor)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequestLoggerAssignsRequestID(t *testing.T) {
	var logs bytes.Buffer
	router := gin.New()
	router.Use(RequestLogger(zerolog.New(&logs)))
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextRequestID))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	generated := w.Header().Get(HeaderRequestID)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())
	assert.Contains(t, logs.String(), generated)

	const incoming = "6f1c1b36-6bde-4cb4-8f8a-2f6d2c4b9e10"
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderRequestID, incoming)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, incoming, w.Header().Get(HeaderRequestID))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderRequestID, "not-a-uuid")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.NotEqual(t, "not-a-uuid", w.Header().Get(HeaderRequestID))
}
