package script

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"viralreel/internal/config"
	"viralreel/internal/model"
)

const systemPrompt = `You are an expert short-form video script writer specializing in viral content for TikTok, Instagram Reels, and YouTube Shorts.

Your task is to create engaging 30-60 second video scripts that:
- Hook viewers in the first 3 seconds
- Are structured into 3-5 clear scenes
- Include specific visual descriptions for each scene
- Have concise, punchy narration
- End with a strong call-to-action or memorable conclusion

Return ONLY a valid JSON object with this exact structure:
{
  "scenes": [
    {
      "scene_number": 1,
      "visuals": "Detailed description of what should be shown visually",
      "narration": "Exact words to be spoken in the voiceover"
    }
  ]
}`

// Generator produces scene scripts from a topic via an OpenAI-compatible
// chat completion API.
type Generator struct {
	client *openai.Client
	cfg    config.ScriptConfig
	log    zerolog.Logger
}

// New creates a script generator. An empty BaseURL uses the OpenAI default.
func New(cfg config.ScriptConfig, log zerolog.Logger) *Generator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Generator{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
		log:    log.With().Str("component", "script").Logger(),
	}
}

// Generate asks the model for a scene breakdown of topic. The returned
// scenes are ordered and numbered 1..N with no gaps.
func (g *Generator) Generate(ctx context.Context, topic string) ([]model.Scene, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout())
	defer cancel()

	g.log.Info().Str("topic", topic).Str("model", g.cfg.Model).Msg("generating script")

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.cfg.Model,
		Temperature: g.cfg.Temperature,
		MaxTokens:   g.cfg.MaxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: "Create a viral short-form video script about: " + topic},
		},
	})
	if err != nil {
		return nil, model.NewError(model.ErrExternalService, "script completion request failed", err)
	}
	if len(resp.Choices) == 0 {
		return nil, model.NewError(model.ErrExternalService, "script completion returned no choices", nil)
	}

	scenes, err := ParseScenes(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	g.log.Info().Int("scenes", len(scenes)).Msg("script generated")
	return scenes, nil
}

type scriptPayload struct {
	Scenes []model.Scene `json:"scenes"`
}

// ParseScenes decodes the model's JSON payload, validates it and renumbers
// the scenes 1..N in the order they were returned. Models occasionally
// repeat or skip scene numbers, so the returned order is authoritative.
func ParseScenes(raw string) ([]model.Scene, error) {
	var payload scriptPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("parsing script response: %w", err)
	}
	if len(payload.Scenes) == 0 {
		return nil, fmt.Errorf("script response contains no scenes")
	}

	scenes := make([]model.Scene, 0, len(payload.Scenes))
	for _, s := range payload.Scenes {
		if strings.TrimSpace(s.Narration) == "" && strings.TrimSpace(s.Visuals) == "" {
			continue
		}
		s.Number = len(scenes) + 1
		scenes = append(scenes, s)
	}
	if len(scenes) == 0 {
		return nil, fmt.Errorf("script response contains only empty scenes")
	}
	return scenes, nil
}
