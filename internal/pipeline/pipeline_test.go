package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viralreel/internal/assemble"
	"viralreel/internal/config"
	"viralreel/internal/jobstore"
	"viralreel/internal/model"
	"viralreel/internal/videogen"
)

// --- test doubles ---

type fakeScript struct {
	mu       sync.Mutex
	calls    int
	failures int // number of leading calls that fail
	scenes   []model.Scene
}

func (f *fakeScript) Generate(_ context.Context, _ string) ([]model.Scene, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("script service unavailable")
	}
	return f.scenes, nil
}

type fakeVoice struct {
	mu       sync.Mutex
	calls    map[string]int
	failText map[string]bool // narrations that always fail
}

func newFakeVoice() *fakeVoice {
	return &fakeVoice{calls: map[string]int{}, failText: map[string]bool{}}
}

func (f *fakeVoice) Name() string { return "fake" }

func (f *fakeVoice) Synthesize(_ context.Context, text string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[text]++
	if f.failText[text] {
		return nil, errors.New("tts unavailable")
	}
	return []byte("mp3-bytes"), nil
}

type fakeVideo struct {
	mu          sync.Mutex
	failPrompts map[string]bool // prompts whose submit fails
	neverDone   bool            // all polls stay RUNNING
	polls       int
}

func (f *fakeVideo) Submit(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for p := range f.failPrompts {
		if len(prompt) >= len(p) && prompt[:len(p)] == p {
			return "", errors.New("submit rejected")
		}
	}
	return "task-" + prompt[:min(8, len(prompt))], nil
}

func (f *fakeVideo) Poll(_ context.Context, taskID string) (videogen.PollResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	if f.neverDone {
		return videogen.PollResult{Status: videogen.StatusRunning}, nil
	}
	return videogen.PollResult{Status: videogen.StatusSucceeded, VideoURL: "https://cdn.example/" + taskID}, nil
}

func (f *fakeVideo) Download(_ context.Context, _ string, destPath string) error {
	return os.WriteFile(destPath, []byte("mp4-bytes"), 0644)
}

type fakeAssembler struct {
	mu     sync.Mutex
	inputs []assemble.SceneInput
}

func (f *fakeAssembler) Assemble(_ context.Context, scenes []assemble.SceneInput, _, outputPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(scenes) == 0 {
		return model.NewError(model.ErrAssemblyFailed, "no scenes to assemble", nil)
	}
	f.inputs = scenes
	return os.WriteFile(outputPath, []byte("final-mp4"), 0644)
}

// --- helpers ---

func testScenes(n int) []model.Scene {
	scenes := make([]model.Scene, n)
	for i := range scenes {
		scenes[i] = model.Scene{
			Number:    i + 1,
			Visuals:   fmt.Sprintf("visual-%d", i+1),
			Narration: fmt.Sprintf("narration-%d", i+1),
		}
	}
	return scenes
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		WorkDir:   filepath.Join(t.TempDir(), "work"),
		VideosDir: filepath.Join(t.TempDir(), "videos"),
		VideoGen: config.VideoGenConfig{
			PollIntervalSec: 0,
			PollMaxAttempts: 3,
			SceneBudgetSec:  10,
		},
		Pipeline: config.PipelineConfig{MaxConcurrentScenes: 2},
	}
}

func newTestPipeline(t *testing.T, cfg *config.Config, sc *fakeScript, v *fakeVoice, vid *fakeVideo, asm *fakeAssembler) (*Pipeline, *jobstore.Store) {
	t.Helper()
	store := jobstore.New()
	p := New(cfg, sc, v, vid, asm, store, zerolog.Nop())
	return p, store
}

// --- tests ---

func TestPipelineRun(t *testing.T) {
	t.Run("happy path keeps scene order", func(t *testing.T) {
		cfg := testConfig(t)
		sc := &fakeScript{scenes: testScenes(3)}
		asm := &fakeAssembler{}
		p, _ := newTestPipeline(t, cfg, sc, newFakeVoice(), &fakeVideo{}, asm)

		job, err := p.Run(context.Background(), "space facts")
		require.NoError(t, err)

		assert.Equal(t, model.StatusCompleted, job.Status)
		assert.Equal(t, 3, job.SceneCount)
		assert.NotEmpty(t, job.ResultURL)
		assert.FileExists(t, job.ResultFile)

		require.Len(t, asm.inputs, 3)
		for i, in := range asm.inputs {
			assert.Equal(t, fmt.Sprintf("narration-%d", i+1), in.Caption)
			assert.NotEmpty(t, in.VideoFile)
			assert.NotEmpty(t, in.AudioFile)
		}
	})

	t.Run("empty topic is rejected", func(t *testing.T) {
		cfg := testConfig(t)
		p, _ := newTestPipeline(t, cfg, &fakeScript{}, newFakeVoice(), &fakeVideo{}, &fakeAssembler{})

		_, err := p.Run(context.Background(), "   ")
		require.Error(t, err)
		assert.True(t, model.IsKind(err, model.ErrInputInvalid))
	})

	t.Run("script failure is retried once", func(t *testing.T) {
		cfg := testConfig(t)
		sc := &fakeScript{scenes: testScenes(2), failures: 1}
		p, _ := newTestPipeline(t, cfg, sc, newFakeVoice(), &fakeVideo{}, &fakeAssembler{})

		job, err := p.Run(context.Background(), "ocean life")
		require.NoError(t, err)
		assert.Equal(t, model.StatusCompleted, job.Status)
		assert.Equal(t, 2, sc.calls)
	})

	t.Run("script failing twice aborts the job", func(t *testing.T) {
		cfg := testConfig(t)
		sc := &fakeScript{failures: 2}
		p, _ := newTestPipeline(t, cfg, sc, newFakeVoice(), &fakeVideo{}, &fakeAssembler{})

		job, err := p.Run(context.Background(), "ocean life")
		require.Error(t, err)
		assert.True(t, model.IsKind(err, model.ErrScriptGenerationFailed))
		assert.Equal(t, model.StatusFailed, job.Status)
		assert.Equal(t, 2, sc.calls)
	})

	t.Run("audio failure falls back to silent scene", func(t *testing.T) {
		cfg := testConfig(t)
		sc := &fakeScript{scenes: testScenes(3)}
		v := newFakeVoice()
		v.failText["narration-2"] = true
		asm := &fakeAssembler{}
		p, _ := newTestPipeline(t, cfg, sc, v, &fakeVideo{}, asm)

		job, err := p.Run(context.Background(), "history")
		require.NoError(t, err)
		assert.Equal(t, model.StatusCompleted, job.Status)
		assert.Equal(t, 3, job.SceneCount)

		// retried exactly once
		assert.Equal(t, 2, v.calls["narration-2"])

		require.Len(t, asm.inputs, 3)
		assert.Empty(t, asm.inputs[1].AudioFile)
		assert.NotEmpty(t, asm.inputs[1].VideoFile)
		assert.NotEmpty(t, asm.inputs[0].AudioFile)
		assert.NotEmpty(t, asm.inputs[2].AudioFile)
	})

	t.Run("one failed video drops only that scene", func(t *testing.T) {
		cfg := testConfig(t)
		sc := &fakeScript{scenes: testScenes(3)}
		vid := &fakeVideo{failPrompts: map[string]bool{"visual-2": true}}
		asm := &fakeAssembler{}
		p, _ := newTestPipeline(t, cfg, sc, newFakeVoice(), vid, asm)

		job, err := p.Run(context.Background(), "nature")
		require.NoError(t, err)
		assert.Equal(t, model.StatusCompleted, job.Status)
		assert.Equal(t, 2, job.SceneCount)

		require.Len(t, asm.inputs, 2)
		assert.Equal(t, "narration-1", asm.inputs[0].Caption)
		assert.Equal(t, "narration-3", asm.inputs[1].Caption)
	})

	t.Run("all videos failing means assembly failure", func(t *testing.T) {
		cfg := testConfig(t)
		sc := &fakeScript{scenes: testScenes(2)}
		vid := &fakeVideo{failPrompts: map[string]bool{"visual-1": true, "visual-2": true}}
		p, _ := newTestPipeline(t, cfg, sc, newFakeVoice(), vid, &fakeAssembler{})

		job, err := p.Run(context.Background(), "failing topic")
		require.Error(t, err)
		assert.True(t, model.IsKind(err, model.ErrAssemblyFailed))
		assert.Equal(t, model.StatusFailed, job.Status)
	})

	t.Run("poll timeout drops the scene", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.VideoGen.PollMaxAttempts = 2
		sc := &fakeScript{scenes: testScenes(1)}
		vid := &fakeVideo{neverDone: true}
		p, _ := newTestPipeline(t, cfg, sc, newFakeVoice(), vid, &fakeAssembler{})

		_, err := p.Run(context.Background(), "slow videos")
		require.Error(t, err)
		assert.True(t, model.IsKind(err, model.ErrAssemblyFailed))
		assert.Equal(t, 2, vid.polls)
	})

	t.Run("working directory removed on success", func(t *testing.T) {
		cfg := testConfig(t)
		sc := &fakeScript{scenes: testScenes(2)}
		p, _ := newTestPipeline(t, cfg, sc, newFakeVoice(), &fakeVideo{}, &fakeAssembler{})

		job, err := p.Run(context.Background(), "cleanup check")
		require.NoError(t, err)

		_, statErr := os.Stat(filepath.Join(cfg.WorkDir, job.ID))
		assert.True(t, os.IsNotExist(statErr), "job working directory should be removed")
	})

	t.Run("working directory removed on failure", func(t *testing.T) {
		cfg := testConfig(t)
		sc := &fakeScript{scenes: testScenes(1)}
		vid := &fakeVideo{failPrompts: map[string]bool{"visual-1": true}}
		p, _ := newTestPipeline(t, cfg, sc, newFakeVoice(), vid, &fakeAssembler{})

		job, err := p.Run(context.Background(), "cleanup check")
		require.Error(t, err)

		_, statErr := os.Stat(filepath.Join(cfg.WorkDir, job.ID))
		assert.True(t, os.IsNotExist(statErr), "job working directory should be removed")
	})

	t.Run("job is queryable from the store", func(t *testing.T) {
		cfg := testConfig(t)
		sc := &fakeScript{scenes: testScenes(2)}
		p, store := newTestPipeline(t, cfg, sc, newFakeVoice(), &fakeVideo{}, &fakeAssembler{})

		job, err := p.Run(context.Background(), "store check")
		require.NoError(t, err)

		stored, err := store.Get(job.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusCompleted, stored.Status)
		assert.Len(t, stored.Scenes, 2)
		assert.Len(t, stored.Assets, 2)
	})
}
