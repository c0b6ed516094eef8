package model

import "time"

// Job status values
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Scene is one narration+visual unit of the generated video, as returned
// by the script generator.
type Scene struct {
	Number    int    `json:"scene_number"`
	Visuals   string `json:"visuals"`
	Narration string `json:"narration"`
}

// SceneAssets tracks the synthesized artifacts for one scene. An empty
// path means the artifact is absent (the stage failed or was skipped).
type SceneAssets struct {
	SceneNumber int    `json:"scene_number"`
	AudioFile   string `json:"audio_file,omitempty"`
	VideoFile   string `json:"video_file,omitempty"`
}

// Complete reports whether the scene survived synthesis and is eligible
// for assembly. Audio is optional: a scene without narration audio is
// still assembled, a scene without video is dropped.
func (a SceneAssets) Complete() bool {
	return a.VideoFile != ""
}

// GenerationJob is one end-to-end request to turn a topic into a finished
// video. Jobs live in process memory only; the final video file is the
// single artifact that outlives the run.
type GenerationJob struct {
	ID          string        `json:"id"`
	Topic       string        `json:"topic"`
	Status      string        `json:"status"`
	Scenes      []Scene       `json:"scenes,omitempty"`
	Assets      []SceneAssets `json:"assets,omitempty"`
	SceneCount  int           `json:"scenes_count"`
	ResultFile  string        `json:"result_file,omitempty"`
	ResultURL   string        `json:"video_url,omitempty"`
	Error       string        `json:"error,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	CompletedAt time.Time     `json:"completed_at,omitempty"`
}
