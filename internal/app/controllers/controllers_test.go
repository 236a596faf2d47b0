package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unisphere/gradebook/internal/app/auth"
	"github.com/unisphere/gradebook/internal/app/controllers"
	"github.com/unisphere/gradebook/internal/app/models"
	"github.com/unisphere/gradebook/internal/app/repositories/inmem"
	"github.com/unisphere/gradebook/internal/app/routes"
	"github.com/unisphere/gradebook/internal/app/services"
	"github.com/unisphere/gradebook/internal/middleware"
	pkgAuth "github.com/unisphere/gradebook/internal/pkg/auth"
	"github.com/unisphere/gradebook/internal/seed"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
	jwt    *pkgAuth.JWTService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	lgr := zerolog.Nop()
	store := inmem.NewStore()
	seed.Memory(store.DB(), seed.DemoData(), lgr)

	jwtService := pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      "test-secret",
		AccessTokenExp: time.Hour,
		TokenIssuer:    "test",
	})
	authz := auth.NewAuthorizationService(store.Academics())
	finalization := services.NewFinalizationService(store, services.NewFinalizationEngine(lgr), authz, lgr)
	assessments := services.NewAssessmentService(store, services.NewResultStore(store), authz, lgr)

	router := gin.New()
	routes.SetupRouter(router,
		controllers.NewFinalizationController(finalization, services.NewGradingSchemeRegistry(store, authz)),
		controllers.NewAssessmentController(assessments),
		middleware.NewAuthMiddleware(jwtService),
	)
	return &testServer{t: t, router: router, jwt: jwtService}
}

func (s *testServer) token(userID int64, role models.RoleType) string {
	s.t.Helper()
	token, err := s.jwt.GenerateAccessToken(userID, role)
	require.NoError(s.t, err)
	return token
}

// do sends a request as userID (0 for anonymous) and decodes the envelope
func (s *testServer) do(method, path string, userID int64, body interface{}) (int, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID > 0 {
		role := models.RoleInstructor
		if userID == seed.DemoAuthority {
			role = models.RoleDepartmentAuthority
		}
		req.Header.Set("Authorization", "Bearer "+s.token(userID, role))
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

var standardScheme = map[string]interface{}{
	"rules": []map[string]interface{}{
		{"grade": "A", "minPercentage": 80, "gradePoint": 4.0},
		{"grade": "B", "minPercentage": 65, "gradePoint": 3.0},
		{"grade": "C", "minPercentage": 50, "gradePoint": 2.0},
		{"grade": "D", "minPercentage": 35, "gradePoint": 1.0},
		{"grade": "F", "minPercentage": 0, "gradePoint": 0.0},
	},
}

func (s *testServer) createAssessment(title string, weight int) int64 {
	s.t.Helper()
	code, env := s.do(http.MethodPost, "/api/v1/course-offerings/1/assessments", seed.DemoInstructorA, map[string]interface{}{
		"type": "QUIZ", "title": title, "weightage": weight,
	})
	require.Equal(s.t, http.StatusCreated, code)
	return decode[models.Assessment](s.t, env).ID
}

func TestFinalizationWorkflow(t *testing.T) {
	s := newTestServer(t)
	instructor := seed.DemoInstructorA

	quiz := s.createAssessment("Quiz", 40)
	final := s.createAssessment("Final", 60)

	code, env := s.do(http.MethodGet, "/api/v1/course-offerings/1/assessments", instructor, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 100, decode[struct {
		TotalWeight int `json:"totalWeight"`
	}](t, env).TotalWeight)

	code, _ = s.do(http.MethodPut, fmt.Sprintf("/api/v1/assessments/%d/results", quiz), instructor, map[string]interface{}{
		"results": []map[string]interface{}{
			{"studentId": 1001, "marksObtained": 18, "totalMarks": 20},
			{"studentId": 1002, "marksObtained": 10, "totalMarks": 20},
		},
	})
	require.Equal(t, http.StatusOK, code)
	code, _ = s.do(http.MethodPut, fmt.Sprintf("/api/v1/assessments/%d/results", final), instructor, map[string]interface{}{
		"results": []map[string]interface{}{
			{"studentId": 1001, "marksObtained": 80, "totalMarks": 100},
			{"studentId": 1002, "marksObtained": 50, "totalMarks": 100},
		},
	})
	require.Equal(t, http.StatusOK, code)

	code, _ = s.do(http.MethodPut, "/api/v1/course-offerings/1/sections/A/grading-scheme", instructor, standardScheme)
	require.Equal(t, http.StatusOK, code)

	code, env = s.do(http.MethodGet, "/api/v1/course-offerings/1/sections/A/grade-preview", instructor, nil)
	require.Equal(t, http.StatusOK, code)
	preview := decode[struct {
		Grades []models.StudentGrade `json:"grades"`
	}](t, env)
	require.Len(t, preview.Grades, 5)

	code, env = s.do(http.MethodPost, "/api/v1/course-offerings/1/sections/A/finalized-result", instructor, nil)
	require.Equal(t, http.StatusCreated, code)
	finalized := decode[struct {
		ResultID int64                     `json:"resultId"`
		Status   models.FinalizationStatus `json:"status"`
		Grades   []models.StudentGrade     `json:"grades"`
	}](t, env)
	assert.Equal(t, models.StatusPending, finalized.Status)
	require.Len(t, finalized.Grades, 5)
	assert.Equal(t, preview.Grades, finalized.Grades)

	first := finalized.Grades[0]
	assert.Equal(t, int64(1001), first.StudentID)
	assert.Equal(t, "A", first.Grade)
	assert.InDelta(t, 84.0, first.WeightedPercentage, 1e-9)
	assert.Equal(t, "C", finalized.Grades[1].Grade)
	assert.Equal(t, "F", finalized.Grades[4].Grade)
	assert.Equal(t, 2, finalized.Grades[4].MissingAssessments)

	code, env = s.do(http.MethodPost, "/api/v1/course-offerings/1/sections/A/finalized-result", instructor, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "already finalized, pending review", env.Error.Message)

	code, env = s.do(http.MethodGet, "/api/v1/finalized-results/pending", seed.DemoAuthority, nil)
	require.Equal(t, http.StatusOK, code)
	pending := decode[struct {
		Results []models.FinalizedResult `json:"results"`
		Total   int64                    `json:"total"`
	}](t, env)
	require.Equal(t, int64(1), pending.Total)
	assert.Equal(t, finalized.ResultID, pending.Results[0].ID)

	reviewPath := fmt.Sprintf("/api/v1/finalized-results/%d/review", finalized.ResultID)
	code, _ = s.do(http.MethodPost, reviewPath, instructor, map[string]string{"decision": "CONFIRMED"})
	assert.Equal(t, http.StatusForbidden, code)

	code, env = s.do(http.MethodPost, reviewPath, seed.DemoAuthority, map[string]string{"decision": "CONFIRMED"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, models.StatusConfirmed, decode[struct {
		Status models.FinalizationStatus `json:"status"`
	}](t, env).Status)

	code, env = s.do(http.MethodDelete, "/api/v1/course-offerings/1/sections/A/finalized-result", instructor, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "STATE_001", env.Error.Code)

	code, env = s.do(http.MethodPost, "/api/v1/course-offerings/1/sections/A/finalized-result", instructor, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "already confirmed, cannot change", env.Error.Message)

	code, env = s.do(http.MethodGet, "/api/v1/course-offerings/1/sections/A/finalized-result", seed.DemoAuthority, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, models.StatusConfirmed, decode[models.FinalizedResult](t, env).Status)
}

func TestFinalizePreconditions(t *testing.T) {
	s := newTestServer(t)
	path := "/api/v1/course-offerings/1/sections/A/finalized-result"

	s.createAssessment("Quiz", 40)
	code, env := s.do(http.MethodPost, path, seed.DemoInstructorA, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "VAL_002", env.Error.Code)

	s.createAssessment("Final", 60)
	code, env = s.do(http.MethodPost, path, seed.DemoInstructorA, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "VAL_003", env.Error.Code)
	assert.Equal(t, "no grading scheme defined", env.Error.Message)

	code, env = s.do(http.MethodPost, path, seed.DemoInstructorB, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "AUTHZ_001", env.Error.Code)
}

func TestRequestErrors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name     string
		method   string
		path     string
		userID   int64
		body     interface{}
		wantCode int
		wantErr  string
	}{
		{
			name:     "missing token",
			method:   http.MethodGet,
			path:     "/api/v1/course-offerings/1/assessments",
			wantCode: http.StatusUnauthorized,
			wantErr:  "AUTH_008",
		},
		{
			name:     "non numeric offering",
			method:   http.MethodGet,
			path:     "/api/v1/course-offerings/abc/assessments",
			userID:   seed.DemoInstructorA,
			wantCode: http.StatusBadRequest,
			wantErr:  "VAL_001",
		},
		{
			name:     "malformed section",
			method:   http.MethodGet,
			path:     "/api/v1/course-offerings/1/sections/A%20B/grading-scheme",
			userID:   seed.DemoInstructorA,
			wantCode: http.StatusBadRequest,
			wantErr:  "VAL_001",
		},
		{
			name:     "unknown review decision",
			method:   http.MethodPost,
			path:     "/api/v1/finalized-results/1/review",
			userID:   seed.DemoAuthority,
			body:     map[string]string{"decision": "MAYBE"},
			wantCode: http.StatusBadRequest,
			wantErr:  "VAL_001",
		},
		{
			name:     "review of missing result",
			method:   http.MethodPost,
			path:     "/api/v1/finalized-results/99/review",
			userID:   seed.DemoAuthority,
			body:     map[string]string{"decision": "REJECTED"},
			wantCode: http.StatusNotFound,
			wantErr:  "RES_001",
		},
		{
			name:     "weightage above 100",
			method:   http.MethodPost,
			path:     "/api/v1/course-offerings/1/assessments",
			userID:   seed.DemoInstructorA,
			body:     map[string]interface{}{"type": "QUIZ", "title": "Quiz", "weightage": 101},
			wantCode: http.StatusBadRequest,
			wantErr:  "VAL_001",
		},
		{
			name:     "empty results",
			method:   http.MethodPut,
			path:     "/api/v1/assessments/1/results",
			userID:   seed.DemoInstructorA,
			body:     map[string]interface{}{"results": []interface{}{}},
			wantCode: http.StatusBadRequest,
			wantErr:  "VAL_001",
		},
		{
			name:     "withdraw without submission",
			method:   http.MethodDelete,
			path:     "/api/v1/course-offerings/1/sections/A/finalized-result",
			userID:   seed.DemoInstructorA,
			wantCode: http.StatusNotFound,
			wantErr:  "RES_001",
		},
		{
			name:     "pending list for non authority",
			method:   http.MethodGet,
			path:     "/api/v1/finalized-results/pending",
			userID:   seed.DemoInstructorA,
			wantCode: http.StatusForbidden,
			wantErr:  "AUTHZ_001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := s.do(tt.method, tt.path, tt.userID, tt.body)
			assert.Equal(t, tt.wantCode, code)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.wantErr, env.Error.Code)
			assert.False(t, env.Success)
		})
	}
}

func TestWeightOverflowAcrossAssessments(t *testing.T) {
	s := newTestServer(t)
	s.createAssessment("Midterm", 70)

	code, env := s.do(http.MethodPost, "/api/v1/course-offerings/1/assessments", seed.DemoInstructorA, map[string]interface{}{
		"type": "FINAL", "title": "Final", "weightage": 40,
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "total weightage would exceed 100%", env.Error.Message)
}
