package app

import (
	_ "github.com/joho/godotenv/autoload"

	"github.com/luminahq/lumina/internal/config"
)

func MustReadEnv() {
	cfg, err := config.Load()
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to load config from env")
		panic(err)
	}
	globalLogger.Info().
		Str("env", cfg.Env).
		Msg("loaded config")

	config.SetGlobal(cfg)
}
