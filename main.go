package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/chesshacks/azbridge/config"
	"github.com/chesshacks/azbridge/daemon"
	"github.com/chesshacks/azbridge/searcher"
)

var (
	GitVersion string
)

func main() {
	cfg := &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		// logger not configured yet; still goes to stderr
		log.Fatal().Err(err).Msg("bad-arguments")
	}

	// stdout carries nothing but moves; every diagnostic goes to stderr
	var logger zerolog.Logger
	switch cfg.GetString("log-level") {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		logger = zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.DebugLevel)
	case "disabled":
		zerolog.SetGlobalLevel(zerolog.Disabled)
		logger = zerolog.New(os.Stderr).Level(zerolog.Disabled)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		logger = zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.InfoLevel)
	}
	log.Logger = logger
	zerolog.DefaultContextLogger = &logger

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("bad-arguments")
	}
	logger.Info().Str("version", GitVersion).Msgf("loaded config: %v", cfg.AllSettings())

	modelPath := cfg.GetString("model-path")
	if cfg.InferenceDisabled() {
		modelPath = ""
	}
	d := daemon.New(daemon.Options{
		ModelPath: modelPath,
		Params: searcher.Params{
			MaxIterations: cfg.GetInt("max-iterations"),
			MaxSeconds:    cfg.GetInt("max-seconds"),
			CPuct:         cfg.GetFloat64("cpuct"),
		},
	}, os.Stdin, os.Stdout)

	if err := d.Run(); err != nil {
		log.Fatal().Err(err).Msg("daemon-failed")
	}
	logger.Info().Msg("bye")
}
