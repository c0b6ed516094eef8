// Package assemble renders the final video: per-scene clips trimmed to
// their narration, caption overlays, fade transitions, and a single
// concatenated encode. All media work happens through ffmpeg/ffprobe.
package assemble

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"viralreel/internal/config"
	"viralreel/internal/model"
)

// SceneInput is one ordered entry of the assembly set. AudioFile may be
// empty: the scene is then rendered with a silent narration track.
type SceneInput struct {
	VideoFile string
	AudioFile string
	Caption   string
}

// Assembler concatenates scene clips into one output video.
type Assembler struct {
	cfg         config.AssemblyConfig
	log         zerolog.Logger
	ffmpegPath  string
	ffprobePath string
}

// New creates an Assembler from config.
func New(cfg config.AssemblyConfig, log zerolog.Logger) *Assembler {
	return &Assembler{
		cfg:         cfg,
		log:         log.With().Str("component", "assemble").Logger(),
		ffmpegPath:  "ffmpeg",
		ffprobePath: "ffprobe",
	}
}

// Assemble renders scenes in order into outputPath, using workDir for
// intermediate files. Any failure here is terminal for the job.
func (a *Assembler) Assemble(ctx context.Context, scenes []SceneInput, workDir, outputPath string) error {
	if len(scenes) == 0 {
		return model.NewError(model.ErrAssemblyFailed, "no scenes to assemble", nil)
	}
	if err := a.checkDependencies(); err != nil {
		return model.NewError(model.ErrAssemblyFailed, "missing encoding dependency", err)
	}

	a.log.Info().Int("scenes", len(scenes)).Str("output", outputPath).Msg("assembling final video")

	processed := make([]string, 0, len(scenes))
	for i, scene := range scenes {
		outFile := filepath.Join(workDir, fmt.Sprintf("scene_%d_processed.mp4", i+1))
		if err := a.renderScene(ctx, scene, i == 0, i == len(scenes)-1, outFile); err != nil {
			return model.NewError(model.ErrAssemblyFailed, fmt.Sprintf("processing scene %d", i+1), err)
		}
		processed = append(processed, outFile)
	}

	concatOut := outputPath
	withMusic := a.cfg.MusicFile != ""
	if withMusic {
		concatOut = filepath.Join(workDir, "concat_nomusic.mp4")
	}

	if err := a.concatenate(ctx, processed, workDir, concatOut); err != nil {
		return model.NewError(model.ErrAssemblyFailed, "concatenating scenes", err)
	}

	if withMusic {
		if err := a.mixBackgroundMusic(ctx, concatOut, outputPath); err != nil {
			// Music is decorative: fall back to the plain cut instead of
			// failing a job that already has a playable video.
			a.log.Warn().Err(err).Msg("background music mix failed, using plain cut")
			if err := os.Rename(concatOut, outputPath); err != nil {
				return model.NewError(model.ErrAssemblyFailed, "moving final video", err)
			}
		}
	}

	a.log.Info().Str("output", outputPath).Msg("assembly complete")
	return nil
}

func (a *Assembler) checkDependencies() error {
	if _, err := exec.LookPath(a.ffmpegPath); err != nil {
		return fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}
	if _, err := exec.LookPath(a.ffprobePath); err != nil {
		return fmt.Errorf("ffprobe not found in PATH: %w", err)
	}
	return nil
}

// renderScene produces one uniform intermediate clip: scaled and padded to
// the output frame, trimmed to the narration audio, captioned, faded at
// the timeline boundaries, and always carrying a stereo audio track so the
// concat step sees identical stream layouts.
func (a *Assembler) renderScene(ctx context.Context, scene SceneInput, first, last bool, outFile string) error {
	videoDur, err := a.probeDuration(ctx, scene.VideoFile)
	if err != nil {
		return fmt.Errorf("clip cannot be decoded: %w", err)
	}

	clipDur := videoDur
	if scene.AudioFile != "" {
		audioDur, err := a.probeDuration(ctx, scene.AudioFile)
		if err != nil {
			return fmt.Errorf("audio cannot be decoded: %w", err)
		}
		if audioDur < clipDur {
			clipDur = audioDur
		}
	}

	args := []string{"-y", "-i", scene.VideoFile}
	if scene.AudioFile != "" {
		args = append(args, "-i", scene.AudioFile)
	} else {
		args = append(args,
			"-f", "lavfi",
			"-t", fmt.Sprintf("%.3f", clipDur),
			"-i", "anullsrc=channel_layout=stereo:sample_rate=44100",
		)
	}

	args = append(args,
		"-t", fmt.Sprintf("%.3f", clipDur),
		"-vf", a.buildVideoFilter(scene.Caption, clipDur, first, last),
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "libx264",
		"-preset", "medium",
		"-b:v", a.cfg.VideoBitrate,
		"-r", fmt.Sprintf("%d", a.cfg.FPS),
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", a.cfg.AudioBitrate,
		"-ar", "44100",
		"-shortest",
		outFile,
	)

	return a.runFFmpeg(ctx, args)
}

// buildVideoFilter assembles the -vf chain for one scene.
func (a *Assembler) buildVideoFilter(caption string, clipDur float64, first, last bool) string {
	w, h := a.cfg.Width, a.cfg.Height
	filters := []string{
		fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease", w, h),
		fmt.Sprintf("pad=%d:%d:(ow-iw)/2:(oh-ih)/2", w, h),
		"setsar=1",
	}

	if caption != "" {
		filters = append(filters, a.captionFilters(caption)...)
	}
	if first {
		filters = append(filters, fmt.Sprintf("fade=t=in:st=0:d=%.2f", a.cfg.FadeDurationSec))
	}
	if last {
		st := clipDur - a.cfg.FadeDurationSec
		if st < 0 {
			st = 0
		}
		filters = append(filters, fmt.Sprintf("fade=t=out:st=%.3f:d=%.2f", st, a.cfg.FadeDurationSec))
	}
	return strings.Join(filters, ",")
}

// captionFilters renders the wrapped caption as stacked drawtext lines,
// bottom-centred with a margin above the screen edge.
func (a *Assembler) captionFilters(caption string) []string {
	lines := WrapCaption(caption)
	lineHeight := a.cfg.CaptionFontSize + 12
	bottomMargin := 100

	var filters []string
	for i, line := range lines {
		offset := (len(lines)-i)*lineHeight + bottomMargin
		f := fmt.Sprintf(
			"drawtext=text='%s':fontsize=%d:fontcolor=white:box=1:boxcolor=black@0.6:boxborderw=8:x=(w-text_w)/2:y=h-%d",
			escapeDrawtext(line), a.cfg.CaptionFontSize, offset,
		)
		if a.cfg.FontFile != "" {
			f += ":fontfile=" + a.cfg.FontFile
		}
		filters = append(filters, f)
	}
	return filters
}

// concatenate joins the uniform intermediates with the concat demuxer.
// The intermediates share codec settings, so streams are copied as-is.
func (a *Assembler) concatenate(ctx context.Context, files []string, workDir, outFile string) error {
	listFile := filepath.Join(workDir, "concat_list.txt")
	var lines []string
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			abs = f
		}
		escaped := strings.ReplaceAll(abs, "'", `'\''`)
		lines = append(lines, fmt.Sprintf("file '%s'", escaped))
	}
	if err := os.WriteFile(listFile, []byte(strings.Join(lines, "\n")), 0644); err != nil {
		return fmt.Errorf("writing concat list: %w", err)
	}

	return a.runFFmpeg(ctx, []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
		"-c", "copy",
		outFile,
	})
}

// mixBackgroundMusic loops the configured music under the narration at low
// volume, trimmed to the video length.
func (a *Assembler) mixBackgroundMusic(ctx context.Context, inFile, outFile string) error {
	filter := fmt.Sprintf(
		"[1:a]volume=%.2f[bgm];[0:a][bgm]amix=inputs=2:duration=first:dropout_transition=2[a]",
		a.cfg.MusicVolume,
	)
	return a.runFFmpeg(ctx, []string{
		"-y",
		"-i", inFile,
		"-stream_loop", "-1",
		"-i", a.cfg.MusicFile,
		"-filter_complex", filter,
		"-map", "0:v",
		"-map", "[a]",
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", a.cfg.AudioBitrate,
		"-shortest",
		outFile,
	})
}
