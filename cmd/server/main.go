package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"plant-backend/internal/app"
	"plant-backend/internal/utils"

	"github.com/rs/zerolog/log"
)

func main() {
	// Load Env
	if err := utils.LoadEnv(); err != nil {
		log.Warn().Err(err).Msg(".env file could not be parsed")
	}
	cfg := app.LoadConfig()
	utils.SetupLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
