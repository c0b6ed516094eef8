package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"viralreel/internal/config"
)

const elevenLabsBaseURL = "https://api.elevenlabs.io/v1"

// ElevenLabs calls the ElevenLabs text-to-speech API.
type ElevenLabs struct {
	apiKey  string
	voiceID string
	modelID string
	baseURL string
	client  *http.Client
}

type ttsRequest struct {
	Text          string                 `json:"text"`
	ModelID       string                 `json:"model_id"`
	VoiceSettings map[string]interface{} `json:"voice_settings"`
}

// NewElevenLabs creates an ElevenLabs synthesizer from config.
func NewElevenLabs(cfg config.VoiceConfig) *ElevenLabs {
	return &ElevenLabs{
		apiKey:  cfg.APIKey,
		voiceID: cfg.VoiceID,
		modelID: cfg.ModelID,
		baseURL: elevenLabsBaseURL,
		client:  &http.Client{Timeout: cfg.Timeout()},
	}
}

func (e *ElevenLabs) Name() string { return "elevenlabs" }

// Synthesize converts text to speech and returns the MP3 payload.
func (e *ElevenLabs) Synthesize(ctx context.Context, text string) ([]byte, error) {
	requestBody := ttsRequest{
		Text:    text,
		ModelID: e.modelID,
		VoiceSettings: map[string]interface{}{
			"stability":        0.5,
			"similarity_boost": 0.75,
		},
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling TTS request: %w", err)
	}

	url := fmt.Sprintf("%s/text-to-speech/%s", e.baseURL, e.voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("creating TTS request: %w", err)
	}
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("TTS request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ElevenLabs API error (%d): %s", resp.StatusCode, string(body))
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading TTS response: %w", err)
	}
	return audioData, nil
}
