package main

import (
	"os"

	"github.com/rs/zerolog"

	"viralreel/internal/assemble"
	"viralreel/internal/config"
	"viralreel/internal/jobstore"
	"viralreel/internal/pipeline"
	"viralreel/internal/script"
	"viralreel/internal/server"
	"viralreel/internal/videogen"
	"viralreel/internal/voice"
)

func main() {
	log := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if cfg.AppEnv == "development" {
		log = log.Level(zerolog.DebugLevel)
	}

	for _, dir := range []string{cfg.WorkDir, cfg.VideosDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatal().Err(err).Str("dir", dir).Msg("failed to create directory")
		}
	}

	tts, err := voice.FromConfig(cfg.Voice)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure TTS provider")
	}
	log.Info().Str("provider", tts.Name()).Msg("speech synthesizer ready")

	scriptGen := script.New(cfg.Script, log)
	videoGen := videogen.NewRunway(cfg.VideoGen)
	assembler := assemble.New(cfg.Assembly, log)
	store := jobstore.New()

	pipe := pipeline.New(cfg, scriptGen, tts, videoGen, assembler, store, log)
	srv := server.New(cfg, pipe, scriptGen, store, log)

	log.Info().Str("port", cfg.Port).Msg("ViralReel server starting")
	if err := srv.Router().Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
