// Package pipeline sequences the generation stages (script, voiceover,
// visuals, assembly) and applies the per-stage retry and fallback policy.
// Scene work inside the synthesis stages runs concurrently under a bounded
// limit; scene order is preserved end to end.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"viralreel/internal/assemble"
	"viralreel/internal/config"
	"viralreel/internal/jobstore"
	"viralreel/internal/model"
	"viralreel/internal/videogen"
	"viralreel/internal/voice"
)

// ScriptSource turns a topic into an ordered scene list.
type ScriptSource interface {
	Generate(ctx context.Context, topic string) ([]model.Scene, error)
}

// Assembler renders surviving scenes into one output video.
type Assembler interface {
	Assemble(ctx context.Context, scenes []assemble.SceneInput, workDir, outputPath string) error
}

// Pipeline orchestrates one generation job from topic to final video.
type Pipeline struct {
	cfg    *config.Config
	script ScriptSource
	voice  voice.Synthesizer
	video  videogen.Synthesizer
	asm    Assembler
	store  *jobstore.Store
	log    zerolog.Logger
}

// New wires a pipeline from its stage implementations.
func New(cfg *config.Config, script ScriptSource, tts voice.Synthesizer, video videogen.Synthesizer, asm Assembler, store *jobstore.Store, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		script: script,
		voice:  tts,
		video:  video,
		asm:    asm,
		store:  store,
		log:    log.With().Str("component", "pipeline").Logger(),
	}
}

// Run executes the full pipeline for topic. The returned job carries the
// terminal state; err is non-nil only for fatal failures (invalid input,
// script generation, assembly).
func (p *Pipeline) Run(ctx context.Context, topic string) (model.GenerationJob, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return model.GenerationJob{}, model.NewError(model.ErrInputInvalid, "topic is required", nil)
	}

	jobID := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	p.store.Create(jobID, topic)
	p.store.Update(jobID, func(j *model.GenerationJob) { j.Status = model.StatusProcessing })

	log := p.log.With().Str("job_id", jobID).Logger()
	log.Info().Str("topic", topic).Msg("starting video generation")

	workDir := filepath.Join(p.cfg.WorkDir, jobID)
	for _, dir := range []string{filepath.Join(workDir, "audio"), filepath.Join(workDir, "video")} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return p.fail(jobID, model.NewError(model.ErrAssemblyFailed, "creating working directory", err))
		}
	}
	// Working files never outlive the job, success or failure.
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			log.Warn().Err(err).Str("dir", workDir).Msg("working directory cleanup failed")
		}
	}()

	// Stage 1: script. One retry, then the job aborts: nothing can be
	// produced without scenes.
	scenes, err := p.generateScript(ctx, topic, log)
	if err != nil {
		return p.fail(jobID, err)
	}
	p.store.Update(jobID, func(j *model.GenerationJob) { j.Scenes = scenes })
	log.Info().Int("scenes", len(scenes)).Msg("script ready")

	// Stages 2+3: per-scene audio and video synthesis, concurrently.
	assets := p.synthesizeScenes(ctx, scenes, workDir, log)
	p.store.Update(jobID, func(j *model.GenerationJob) { j.Assets = assets })

	// Stage 4: assembly of surviving scenes, never retried.
	var inputs []assemble.SceneInput
	surviving := 0
	for i, a := range assets {
		if !a.Complete() {
			continue
		}
		surviving++
		inputs = append(inputs, assemble.SceneInput{
			VideoFile: a.VideoFile,
			AudioFile: a.AudioFile,
			Caption:   scenes[i].Narration,
		})
	}
	log.Info().Int("surviving", surviving).Int("total", len(scenes)).Msg("synthesis finished")

	outputName := fmt.Sprintf("viralreel_%s_%s.mp4", time.Now().Format("20060102_150405"), jobID)
	outputPath := filepath.Join(p.cfg.VideosDir, outputName)
	if err := os.MkdirAll(p.cfg.VideosDir, 0755); err != nil {
		return p.fail(jobID, model.NewError(model.ErrAssemblyFailed, "creating videos directory", err))
	}

	if err := p.asm.Assemble(ctx, inputs, workDir, outputPath); err != nil {
		return p.fail(jobID, err)
	}

	p.store.Update(jobID, func(j *model.GenerationJob) {
		j.Status = model.StatusCompleted
		j.SceneCount = surviving
		j.ResultFile = outputPath
		j.ResultURL = "/static/videos/" + outputName
		j.CompletedAt = time.Now()
	})

	job, _ := p.store.Get(jobID)
	log.Info().Str("video", outputPath).Msg("video generation complete")
	return job, nil
}

func (p *Pipeline) fail(jobID string, err error) (model.GenerationJob, error) {
	p.store.Update(jobID, func(j *model.GenerationJob) {
		j.Status = model.StatusFailed
		j.Error = err.Error()
		j.CompletedAt = time.Now()
	})
	job, _ := p.store.Get(jobID)
	p.log.Error().Err(err).Str("job_id", jobID).Msg("video generation failed")
	return job, err
}

func (p *Pipeline) generateScript(ctx context.Context, topic string, log zerolog.Logger) ([]model.Scene, error) {
	scenes, err := p.script.Generate(ctx, topic)
	if err == nil {
		return scenes, nil
	}
	log.Warn().Err(err).Msg("script generation failed, retrying once")

	scenes, retryErr := p.script.Generate(ctx, topic)
	if retryErr != nil {
		return nil, model.NewError(model.ErrScriptGenerationFailed, "script generation failed after retry", retryErr)
	}
	return scenes, nil
}

// synthesizeScenes runs the voiceover and visual stages for every scene.
// Work items are independent: each writes its result into the slot for its
// scene index, so completion order never affects scene order. A bounded
// semaphore keeps concurrent third-party calls within rate limits.
func (p *Pipeline) synthesizeScenes(ctx context.Context, scenes []model.Scene, workDir string, log zerolog.Logger) []model.SceneAssets {
	assets := make([]model.SceneAssets, len(scenes))
	for i, s := range scenes {
		assets[i].SceneNumber = s.Number
	}

	limit := p.cfg.Pipeline.MaxConcurrentScenes
	if limit <= 0 {
		limit = 1
	}
	sem := make(chan struct{}, limit)
	done := make(chan struct{})

	pending := 0
	for i := range scenes {
		scene := scenes[i]
		idx := i

		if strings.TrimSpace(scene.Narration) != "" {
			pending++
			go func() {
				sem <- struct{}{}
				defer func() { <-sem; done <- struct{}{} }()
				assets[idx].AudioFile = p.sceneAudio(ctx, scene, workDir, log)
			}()
		}
		if strings.TrimSpace(scene.Visuals) != "" {
			pending++
			go func() {
				sem <- struct{}{}
				defer func() { <-sem; done <- struct{}{} }()
				assets[idx].VideoFile = p.sceneVideo(ctx, scene, workDir, log)
			}()
		}
	}
	for ; pending > 0; pending-- {
		<-done
	}
	return assets
}

// sceneAudio synthesizes one scene's voiceover. Failure after one retry is
// absorbed: the scene proceeds without narration audio.
func (p *Pipeline) sceneAudio(ctx context.Context, scene model.Scene, workDir string, log zerolog.Logger) string {
	outFile := filepath.Join(workDir, "audio", fmt.Sprintf("scene_%d_voiceover.mp3", scene.Number))

	var lastErr error
	for attempt := 1; attempt <= 2; attempt++ {
		data, err := p.voice.Synthesize(ctx, scene.Narration)
		if err == nil {
			if err = os.WriteFile(outFile, data, 0644); err == nil {
				log.Info().Int("scene", scene.Number).Str("provider", p.voice.Name()).Msg("voiceover ready")
				return outFile
			}
		}
		lastErr = err
		log.Warn().Err(err).Int("scene", scene.Number).Int("attempt", attempt).Msg("voiceover attempt failed")
	}

	log.Warn().Err(lastErr).Int("scene", scene.Number).
		Str("kind", string(model.ErrSceneAudioUnavailable)).
		Msg("voiceover unavailable, scene continues without narration")
	return ""
}

// sceneVideo runs the submit/poll/download cycle for one scene. Generation
// is expensive, so there is no retry: any failure or timeout drops the
// scene from the assembly set.
func (p *Pipeline) sceneVideo(ctx context.Context, scene model.Scene, workDir string, log zerolog.Logger) string {
	outFile := filepath.Join(workDir, "video", fmt.Sprintf("scene_%d_video.mp4", scene.Number))

	ctx, cancel := context.WithTimeout(ctx, p.cfg.VideoGen.SceneBudget())
	defer cancel()

	prompt := videogen.EnhancePrompt(scene.Visuals)
	taskID, err := p.video.Submit(ctx, prompt)
	if err != nil {
		p.dropSceneVideo(scene.Number, err, log)
		return ""
	}
	log.Info().Int("scene", scene.Number).Str("task_id", taskID).Msg("video task submitted")

	result, err := p.pollUntilTerminal(ctx, taskID, scene.Number, log)
	if err != nil {
		p.dropSceneVideo(scene.Number, err, log)
		return ""
	}

	if err := p.video.Download(ctx, result.VideoURL, outFile); err != nil {
		p.dropSceneVideo(scene.Number, err, log)
		return ""
	}
	log.Info().Int("scene", scene.Number).Str("file", outFile).Msg("video clip ready")
	return outFile
}

// pollUntilTerminal sleeps between status checks until the task succeeds,
// fails, or the attempt/wall-clock budget runs out.
func (p *Pipeline) pollUntilTerminal(ctx context.Context, taskID string, sceneNum int, log zerolog.Logger) (videogen.PollResult, error) {
	interval := p.cfg.VideoGen.PollInterval()
	maxAttempts := p.cfg.VideoGen.PollMaxAttempts

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return videogen.PollResult{}, fmt.Errorf("scene budget exceeded: %w", ctx.Err())
		case <-time.After(interval):
		}

		result, err := p.video.Poll(ctx, taskID)
		if err != nil {
			log.Warn().Err(err).Int("scene", sceneNum).Int("attempt", attempt).Msg("status check failed")
			continue
		}

		switch result.Status {
		case videogen.StatusSucceeded:
			return result, nil
		case videogen.StatusFailed, videogen.StatusCancelled:
			return videogen.PollResult{}, fmt.Errorf("video generation %s: %s", strings.ToLower(string(result.Status)), result.Error)
		}
	}
	return videogen.PollResult{}, fmt.Errorf("video generation timed out after %d polls", maxAttempts)
}

func (p *Pipeline) dropSceneVideo(sceneNum int, err error, log zerolog.Logger) {
	log.Warn().Err(err).Int("scene", sceneNum).
		Str("kind", string(model.ErrSceneVideoUnavailable)).
		Msg("video unavailable, scene dropped from assembly")
}
