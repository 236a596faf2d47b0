// Command devtoken mints an access token for local testing. Identity is owned
// by an external provider in deployed environments.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/unisphere/gradebook/internal/app/models"
	"github.com/unisphere/gradebook/internal/bootstrap"
	"github.com/unisphere/gradebook/internal/config"
	"github.com/unisphere/gradebook/internal/pkg/auth"
	"github.com/unisphere/gradebook/internal/pkg/helpers"
	"github.com/unisphere/gradebook/internal/pkg/logger"
)

func main() {
	configPath := flag.String("config", bootstrap.DefaultConfigPath, "path to the YAML configuration")
	userID := flag.Int64("user", 0, "user id to put in the token")
	role := flag.String("role", string(models.RoleInstructor), "role: INSTRUCTOR, DEPARTMENT_AUTHORITY or STUDENT")
	flag.Parse()

	if *userID <= 0 {
		fmt.Fprintln(os.Stderr, "-user must be a positive id")
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(*configPath, ".env")
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	jwtService := auth.NewJWTService(auth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, time.Hour),
		TokenIssuer:    cfg.JWT.Issuer,
	})

	token, err := jwtService.GenerateAccessToken(*userID, models.RoleType(strings.ToUpper(*role)))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to generate token")
	}
	fmt.Println(token)
}
