package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viralreel/internal/config"
	"viralreel/internal/jobstore"
	"viralreel/internal/model"
)

type stubRunner struct {
	job model.GenerationJob
	err error
}

func (s *stubRunner) Run(_ context.Context, _ string) (model.GenerationJob, error) {
	return s.job, s.err
}

type stubScript struct {
	scenes []model.Scene
	err    error
}

func (s *stubScript) Generate(_ context.Context, _ string) ([]model.Scene, error) {
	return s.scenes, s.err
}

func newTestServer(t *testing.T, runner Runner, sc ScriptSource, store *jobstore.Store) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{AppEnv: "test", VideosDir: t.TempDir()}
	return New(cfg, runner, sc, store, zerolog.Nop()).Router()
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	router := newTestServer(t, &stubRunner{}, &stubScript{}, jobstore.New())
	w := doJSON(t, router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok"`)
}

func TestGenerateScript(t *testing.T) {
	t.Run("missing topic is rejected", func(t *testing.T) {
		router := newTestServer(t, &stubRunner{}, &stubScript{}, jobstore.New())
		w := doJSON(t, router, http.MethodPost, "/generate-script", `{"topic":""}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("returns scenes", func(t *testing.T) {
		sc := &stubScript{scenes: []model.Scene{{Number: 1, Visuals: "v", Narration: "n"}}}
		router := newTestServer(t, &stubRunner{}, sc, jobstore.New())
		w := doJSON(t, router, http.MethodPost, "/generate-script", `{"topic":"cats"}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"scene_number":1`)
	})
}

func TestCreateVideo(t *testing.T) {
	t.Run("missing topic is rejected", func(t *testing.T) {
		router := newTestServer(t, &stubRunner{}, &stubScript{}, jobstore.New())
		w := doJSON(t, router, http.MethodPost, "/create-video", `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("successful job returns video reference", func(t *testing.T) {
		runner := &stubRunner{job: model.GenerationJob{
			ID:         "abc123",
			Status:     model.StatusCompleted,
			SceneCount: 3,
			ResultURL:  "/static/videos/viralreel_x_abc123.mp4",
		}}
		router := newTestServer(t, runner, &stubScript{}, jobstore.New())

		w := doJSON(t, router, http.MethodPost, "/create-video", `{"topic":"cats"}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"scenes_count":3`)
		assert.Contains(t, w.Body.String(), "viralreel_x_abc123.mp4")
	})

	t.Run("fatal pipeline error maps to structured body", func(t *testing.T) {
		runner := &stubRunner{err: model.NewError(model.ErrScriptGenerationFailed, "script generation failed after retry", nil)}
		router := newTestServer(t, runner, &stubScript{}, jobstore.New())

		w := doJSON(t, router, http.MethodPost, "/create-video", `{"topic":"cats"}`)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), string(model.ErrScriptGenerationFailed))
	})
}

func TestJobStatus(t *testing.T) {
	t.Run("unknown job is 404", func(t *testing.T) {
		router := newTestServer(t, &stubRunner{}, &stubScript{}, jobstore.New())
		w := doJSON(t, router, http.MethodGet, "/jobs/nope", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("known job is returned", func(t *testing.T) {
		store := jobstore.New()
		store.Create("abc123", "cats")
		router := newTestServer(t, &stubRunner{}, &stubScript{}, store)

		w := doJSON(t, router, http.MethodGet, "/jobs/abc123", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"cats"`)
	})
}
