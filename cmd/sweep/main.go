package main

import (
	"github.com/joho/godotenv"

	"docconvert/internal/infra"
	"docconvert/internal/storage"
)

// One-shot retention sweep for cron or manual cleanup. The API process
// sweeps opportunistically on traffic; this binary covers idle periods.
func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	work, err := storage.NewWorkDir(cfg.WorkDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open working storage")
	}

	sweeper := storage.NewSweeper(work.Dir(), cfg.FileExpiry, cfg.SweepInterval, logger)
	sweeper.Sweep()
	logger.Info().Str("dir", work.Dir()).Dur("max_age", cfg.FileExpiry).Msg("sweep finished")
}
