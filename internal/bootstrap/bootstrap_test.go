package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unisphere/gradebook/internal/app/models"
	"github.com/unisphere/gradebook/internal/config"
	"github.com/unisphere/gradebook/internal/seed"
)

func memoryConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.Mode = "test"
	cfg.Database.Driver = config.DriverMemory
	cfg.JWT.Secret = "bootstrap-secret"
	cfg.JWT.AccessTokenExpiration = "1h"
	cfg.JWT.Issuer = "test"
	cfg.Seed.Enabled = true
	return cfg
}

func TestMemoryStackServesRequests(t *testing.T) {
	cfg := memoryConfig()
	lgr := zerolog.Nop()

	store, pool, err := SetupStore(context.Background(), cfg, lgr)
	require.NoError(t, err)
	assert.Nil(t, pool)

	deps := BuildDependencies(cfg, store, lgr)
	router := SetupRouter(cfg, deps, lgr)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	token, err := deps.JWTService.GenerateAccessToken(seed.DemoInstructorA, models.RoleInstructor)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/course-offerings/1/assessments", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/course-offerings/1/assessments", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMemoryStoreWithoutSeedHasNoOfferings(t *testing.T) {
	cfg := memoryConfig()
	cfg.Seed.Enabled = false

	store, _, err := SetupStore(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)

	exists, err := store.Academics().CourseOfferingExists(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, exists)
}
