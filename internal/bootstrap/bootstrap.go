package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	appAuth "github.com/unisphere/gradebook/internal/app/auth"
	appControllers "github.com/unisphere/gradebook/internal/app/controllers"
	appMigrations "github.com/unisphere/gradebook/internal/app/migrations"
	appRepos "github.com/unisphere/gradebook/internal/app/repositories"
	"github.com/unisphere/gradebook/internal/app/repositories/inmem"
	appRoutes "github.com/unisphere/gradebook/internal/app/routes"
	appServices "github.com/unisphere/gradebook/internal/app/services"
	"github.com/unisphere/gradebook/internal/config"
	"github.com/unisphere/gradebook/internal/db"
	appMiddleware "github.com/unisphere/gradebook/internal/middleware"
	pkgAuth "github.com/unisphere/gradebook/internal/pkg/auth"
	"github.com/unisphere/gradebook/internal/pkg/helpers"
	"github.com/unisphere/gradebook/internal/pkg/logger"
	"github.com/unisphere/gradebook/internal/seed"
)

// DefaultConfigPath is where the server looks for its YAML configuration
var DefaultConfigPath = filepath.Join("configs", "config.yaml")

// Dependencies holds all the application dependencies
type Dependencies struct {
	Store                  appRepos.Store
	JWTService             *pkgAuth.JWTService
	AuthzService           *appAuth.AuthorizationService
	GradingSchemes         *appServices.GradingSchemeRegistry
	FinalizationService    appServices.FinalizationService
	AssessmentService      appServices.AssessmentService
	FinalizationController *appControllers.FinalizationController
	AssessmentController   *appControllers.AssessmentController
	AuthMiddleware         *appMiddleware.AuthMiddleware
	Logger                 zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger(configPath string) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(configPath, ".env")
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.ParseLevel(cfg.Logging.Level)
	lgr := logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: strings.EqualFold(cfg.Logging.Format, "text"),
	})

	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	if len(cfg.EnvOverrides) > 0 {
		lgr.Info().Strs("variables", cfg.EnvOverrides).Msg("Configuration overridden from environment")
	}
	return cfg, lgr, nil
}

// SetupStore opens the configured storage backend. The returned pool is nil
// for the in-memory driver.
func SetupStore(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (appRepos.Store, *pgxpool.Pool, error) {
	if cfg.Database.Driver == config.DriverMemory {
		lgr.Warn().Msg("Using in-memory storage, data is lost on restart")
		store := inmem.NewStore()
		if cfg.Seed.Enabled {
			seed.Memory(store.DB(), seed.DemoData(), lgr)
		}
		return store, nil, nil
	}

	pool, err := SetupDatabase(ctx, cfg, lgr)
	if err != nil {
		return nil, nil, err
	}
	return appRepos.NewRepositories(pool), pool, nil
}

// SetupDatabase establishes the database connection and runs migrations.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(ctx, cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	pool := database.Pool
	lgr.Info().Msg("Database connection successfully established.")

	migrationsDir := cfg.Database.MigrationsDir
	if _, err := os.Stat(migrationsDir); err != nil {
		database.Close()
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	lgr.Info().Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(pool, lgr)
	if err := migrator.MigrateFromDirectory(ctx, migrationsDir); err != nil {
		database.Close()
		lgr.Error().Err(err).Msg("Database migration error")
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	if cfg.Seed.Enabled {
		if err := seed.Postgres(ctx, pool, seed.DemoData(), lgr); err != nil {
			lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
		}
	}

	return pool, nil
}

// BuildDependencies initializes application services and controllers on top of the store.
func BuildDependencies(cfg *config.Config, store appRepos.Store, lgr zerolog.Logger) *Dependencies {
	deps := &Dependencies{Store: store, Logger: lgr}

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, time.Hour),
		TokenIssuer:    cfg.JWT.Issuer,
	})

	deps.AuthzService = appAuth.NewAuthorizationService(store.Academics())
	deps.GradingSchemes = appServices.NewGradingSchemeRegistry(store, deps.AuthzService)
	deps.FinalizationService = appServices.NewFinalizationService(
		store,
		appServices.NewFinalizationEngine(lgr),
		deps.AuthzService,
		lgr,
	)
	deps.AssessmentService = appServices.NewAssessmentService(
		store,
		appServices.NewResultStore(store),
		deps.AuthzService,
		lgr,
	)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)
	deps.FinalizationController = appControllers.NewFinalizationController(deps.FinalizationService, deps.GradingSchemes)
	deps.AssessmentController = appControllers.NewAssessmentController(deps.AssessmentService)

	return deps
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(appMiddleware.RequestLogger(lgr), gin.Recovery())

	appRoutes.SetupRouter(router,
		deps.FinalizationController,
		deps.AssessmentController,
		deps.AuthMiddleware,
	)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	return router
}
