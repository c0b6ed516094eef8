package videogen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"viralreel/internal/config"
)

// Runway calls the RunwayML text-to-video API.
type Runway struct {
	cfg    config.VideoGenConfig
	client *http.Client
}

// NewRunway creates a Runway client from config.
func NewRunway(cfg config.VideoGenConfig) *Runway {
	return &Runway{
		cfg:    cfg,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

type createTaskRequest struct {
	Model      string `json:"model"`
	PromptText string `json:"promptText"`
	Ratio      string `json:"ratio"`
	Duration   int    `json:"duration"`
}

type createTaskResponse struct {
	ID string `json:"id"`
}

type taskStatusResponse struct {
	Status Status   `json:"status"`
	Output []string `json:"output"`
	Error  string   `json:"error"`
}

func (r *Runway) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+r.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Runway-Version", r.cfg.APIVersion)
}

// Submit creates a generation task for prompt and returns its task ID.
func (r *Runway) Submit(ctx context.Context, prompt string) (string, error) {
	payload := createTaskRequest{
		Model:      r.cfg.Model,
		PromptText: prompt,
		Ratio:      r.cfg.Ratio,
		Duration:   r.cfg.ClipDurationSec,
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshaling task request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.BaseURL+"/text_to_video", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("creating task request: %w", err)
	}
	r.setHeaders(req)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("task request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("RunwayML API error (%d): %s", resp.StatusCode, string(body))
	}

	var task createTaskResponse
	if err := json.NewDecoder(resp.Body).Decode(&task); err != nil {
		return "", fmt.Errorf("decoding task response: %w", err)
	}
	if task.ID == "" {
		return "", fmt.Errorf("no task ID in RunwayML response")
	}
	return task.ID, nil
}

// Poll checks the status of a generation task.
func (r *Runway) Poll(ctx context.Context, taskID string) (PollResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.cfg.BaseURL+"/tasks/"+taskID, nil)
	if err != nil {
		return PollResult{}, fmt.Errorf("creating status request: %w", err)
	}
	r.setHeaders(req)

	resp, err := r.client.Do(req)
	if err != nil {
		return PollResult{}, fmt.Errorf("status request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return PollResult{}, fmt.Errorf("RunwayML status error (%d): %s", resp.StatusCode, string(body))
	}

	var status taskStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return PollResult{}, fmt.Errorf("decoding status response: %w", err)
	}

	result := PollResult{Status: status.Status, Error: status.Error}
	if status.Status == StatusSucceeded {
		if len(status.Output) == 0 || status.Output[0] == "" {
			return PollResult{}, fmt.Errorf("no video URL in completed task %s", taskID)
		}
		result.VideoURL = status.Output[0]
	}
	return result, nil
}

// Download fetches the finished clip from videoURL into destPath.
func (r *Runway) Download(ctx context.Context, videoURL, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, videoURL, nil)
	if err != nil {
		return fmt.Errorf("creating download request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("download request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("video download failed with status %d", resp.StatusCode)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("creating video file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("writing video file: %w", err)
	}
	return nil
}
