package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds every tunable of the service. All values come from the
// environment (plus .env in local dev); no numeric default here is
// load-bearing, deployments override them freely.
type Config struct {
	AppEnv    string `env:"APP_ENV" env-default:"development"`
	Port      string `env:"PORT" env-default:"5001"`
	WorkDir   string `env:"WORK_DIR" env-default:"temp"`
	VideosDir string `env:"VIDEOS_DIR" env-default:"static/videos"`

	Script   ScriptConfig
	Voice    VoiceConfig
	VideoGen VideoGenConfig
	Assembly AssemblyConfig
	Pipeline PipelineConfig
}

// ScriptConfig configures the script source (OpenAI-compatible chat API).
type ScriptConfig struct {
	APIKey      string  `env:"OPENAI_API_KEY" env-required:"true"`
	BaseURL     string  `env:"OPENAI_BASE_URL" env-default:""`
	Model       string  `env:"SCRIPT_MODEL" env-default:"gpt-4o-mini"`
	Temperature float32 `env:"SCRIPT_TEMPERATURE" env-default:"0.8"`
	MaxTokens   int     `env:"SCRIPT_MAX_TOKENS" env-default:"1000"`
	TimeoutSec  int     `env:"SCRIPT_TIMEOUT_SEC" env-default:"60"`
}

// VoiceConfig selects and configures the speech synthesizer. Provider is
// "elevenlabs" or "gtts" (free fallback, no API key needed).
type VoiceConfig struct {
	Provider   string `env:"TTS_PROVIDER" env-default:"gtts"`
	APIKey     string `env:"ELEVENLABS_API_KEY" env-default:""`
	VoiceID    string `env:"ELEVENLABS_VOICE_ID" env-default:"j9jfwdrw7BRfcR43Qohk"`
	ModelID    string `env:"ELEVENLABS_MODEL_ID" env-default:"eleven_multilingual_v2"`
	Language   string `env:"TTS_LANGUAGE" env-default:"en"`
	TimeoutSec int    `env:"TTS_TIMEOUT_SEC" env-default:"30"`
}

// VideoGenConfig configures the RunwayML text-to-video client.
type VideoGenConfig struct {
	APIKey          string `env:"RUNWAYML_API_KEY" env-required:"true"`
	BaseURL         string `env:"RUNWAYML_BASE_URL" env-default:"https://api.dev.runwayml.com/v1"`
	APIVersion      string `env:"RUNWAYML_API_VERSION" env-default:"2024-11-06"`
	Model           string `env:"RUNWAYML_MODEL" env-default:"veo3.1_fast"`
	Ratio           string `env:"RUNWAYML_RATIO" env-default:"720:1280"`
	ClipDurationSec int    `env:"CLIP_DURATION_SEC" env-default:"8"`
	PollIntervalSec int    `env:"VIDEO_POLL_INTERVAL_SEC" env-default:"5"`
	PollMaxAttempts int    `env:"VIDEO_POLL_MAX_ATTEMPTS" env-default:"120"`
	SceneBudgetSec  int    `env:"VIDEO_SCENE_BUDGET_SEC" env-default:"600"`
}

// AssemblyConfig configures the ffmpeg render of the final video.
type AssemblyConfig struct {
	Width           int     `env:"OUTPUT_WIDTH" env-default:"720"`
	Height          int     `env:"OUTPUT_HEIGHT" env-default:"1280"`
	FPS             int     `env:"OUTPUT_FPS" env-default:"30"`
	VideoBitrate    string  `env:"OUTPUT_VIDEO_BITRATE" env-default:"8000k"`
	AudioBitrate    string  `env:"OUTPUT_AUDIO_BITRATE" env-default:"192k"`
	FadeDurationSec float64 `env:"FADE_DURATION_SEC" env-default:"0.5"`
	FontFile        string  `env:"CAPTION_FONT_FILE" env-default:""`
	CaptionFontSize int     `env:"CAPTION_FONT_SIZE" env-default:"48"`
	MusicFile       string  `env:"BACKGROUND_MUSIC_FILE" env-default:""`
	MusicVolume     float64 `env:"BACKGROUND_MUSIC_VOLUME" env-default:"0.1"`
}

// PipelineConfig bounds the orchestrator's per-scene concurrency.
type PipelineConfig struct {
	MaxConcurrentScenes int `env:"MAX_CONCURRENT_SCENES" env-default:"3"`
}

// Load reads .env (ignored if absent) and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	return &cfg, nil
}

// Timeout returns the script stage timeout as a duration.
func (c ScriptConfig) Timeout() time.Duration { return time.Duration(c.TimeoutSec) * time.Second }

// Timeout returns the TTS request timeout as a duration.
func (c VoiceConfig) Timeout() time.Duration { return time.Duration(c.TimeoutSec) * time.Second }

// PollInterval returns the delay between poll requests.
func (c VideoGenConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSec) * time.Second
}

// SceneBudget returns the wall-clock budget for one scene's generation.
func (c VideoGenConfig) SceneBudget() time.Duration {
	return time.Duration(c.SceneBudgetSec) * time.Second
}
