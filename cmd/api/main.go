package main

import (
	"context"
	"flag"
	"os"

	"github.com/unisphere/gradebook/internal/bootstrap"
	"github.com/unisphere/gradebook/internal/pkg/logger"
	"github.com/unisphere/gradebook/internal/server"
)

func main() {
	configPath := flag.String("config", bootstrap.DefaultConfigPath, "path to the YAML configuration")
	flag.Parse()

	srv, err := server.NewServer(context.Background(), *configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
