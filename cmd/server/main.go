// Package main is the entry point of the HTTP server.
//
// @title          Platform Skeleton API
// @version        1.0
// @description    Health probes and the administrative interface of the platform skeleton.
// @BasePath       /
//
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"

	"github.com/99minutos/platform-skeleton/internal/app"
	"github.com/99minutos/platform-skeleton/internal/pkg/config"
	"github.com/99minutos/platform-skeleton/pkg/logger"
)

func main() {
	// A .env file is optional.
	_ = godotenv.Load()

	ctx := context.Background()

	settings, err := config.Assemble(ctx, envconfig.OsLookuper())
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	log := logger.Init(logger.Options{
		Level:    settings.Logging.Level,
		Pretty:   settings.Logging.Pretty,
		Location: settings.Location,
	})
	for _, w := range config.DeployWarnings(settings) {
		log.Warn().Msg(w)
	}

	a, err := app.New(ctx, settings, log, logger.Named("http", settings.Logging.FrameworkLevel))
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}

	runErr := a.Run(ctx)
	if err := a.Close(context.Background()); err != nil {
		log.Error().Err(err).Msg("close failed")
	}
	if runErr != nil {
		log.Fatal().Err(runErr).Msg("server stopped")
	}
}
