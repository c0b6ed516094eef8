package voice

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"viralreel/internal/config"
)

const googleTTSBaseURL = "https://translate.google.com/translate_tts"

// GoogleTTS uses the free Google Translate TTS endpoint. No API key is
// needed; the voice is more robotic than ElevenLabs.
type GoogleTTS struct {
	lang    string
	baseURL string
	client  *http.Client
}

// NewGoogleTTS creates the free fallback synthesizer.
func NewGoogleTTS(cfg config.VoiceConfig) *GoogleTTS {
	return &GoogleTTS{
		lang:    cfg.Language,
		baseURL: googleTTSBaseURL,
		client:  &http.Client{Timeout: cfg.Timeout()},
	}
}

func (g *GoogleTTS) Name() string { return "gtts" }

// Synthesize converts text to speech and returns the MP3 payload.
func (g *GoogleTTS) Synthesize(ctx context.Context, text string) ([]byte, error) {
	params := url.Values{}
	params.Set("ie", "UTF-8")
	params.Set("client", "tw-ob")
	params.Set("tl", g.lang)
	params.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating TTS request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("TTS request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("Google TTS error (%d): %s", resp.StatusCode, string(body))
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading TTS response: %w", err)
	}
	return audioData, nil
}
