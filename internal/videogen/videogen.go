// Package videogen submits text-to-video generation tasks and retrieves
// the finished clips. Generation is asynchronous: submit returns a task ID
// that the caller polls until a terminal status.
package videogen

import (
	"context"
	"strings"
)

// Status of a generation task as reported by the provider.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusRunning   Status = "RUNNING"
	StatusThrottled Status = "THROTTLED"
	StatusSucceeded Status = "SUCCEEDED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
)

// Terminal reports whether the task reached a final state.
func (s Status) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// PollResult is one status check of a generation task.
type PollResult struct {
	Status   Status
	VideoURL string // set when Status is SUCCEEDED
	Error    string // set when Status is FAILED
}

// Synthesizer is the capability the orchestrator needs from a video
// generation provider. Test doubles implement it directly.
type Synthesizer interface {
	Submit(ctx context.Context, prompt string) (taskID string, err error)
	Poll(ctx context.Context, taskID string) (PollResult, error)
	Download(ctx context.Context, videoURL, destPath string) error
}

var promptEnhancements = []string{
	"cinematic",
	"high quality",
	"smooth camera movement",
	"professional lighting",
	"detailed",
}

// EnhancePrompt appends a couple of quality keywords the description is
// missing. Long prompts are left alone so the enhancement never crowds out
// the actual scene content.
func EnhancePrompt(base string) string {
	if len(base) >= 200 {
		return base
	}
	lower := strings.ToLower(base)
	var missing []string
	for _, e := range promptEnhancements {
		if !strings.Contains(lower, e) {
			missing = append(missing, e)
		}
	}
	if len(missing) == 0 {
		return base
	}
	if len(missing) > 2 {
		missing = missing[:2]
	}
	return base + ", " + strings.Join(missing, ", ")
}
