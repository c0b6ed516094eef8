// Package voice turns narration text into speech audio. Two providers are
// supported: ElevenLabs (paid, natural voices) and Google Translate TTS
// (free fallback, more robotic). Both return MP3 bytes.
package voice

import (
	"context"
	"fmt"

	"viralreel/internal/config"
)

// Synthesizer converts narration text to an audio payload.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
	Name() string
}

// FromConfig returns the provider selected by cfg.Provider.
func FromConfig(cfg config.VoiceConfig) (Synthesizer, error) {
	switch cfg.Provider {
	case "elevenlabs":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("TTS provider elevenlabs requires ELEVENLABS_API_KEY")
		}
		return NewElevenLabs(cfg), nil
	case "gtts", "":
		return NewGoogleTTS(cfg), nil
	default:
		return nil, fmt.Errorf("unknown TTS provider %q", cfg.Provider)
	}
}
