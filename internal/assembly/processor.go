// Package assembly implements the assembly stage: it muxes the rendered
// scenes with the narration audio and burns in captions, producing the
// job's final video.
package assembly

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"reelsmith/internal/config"
	"reelsmith/internal/logging"
	"reelsmith/internal/pipeline"
	"reelsmith/internal/services"
	"reelsmith/internal/services/ffmpeg"
	"reelsmith/internal/stage"
)

// Mixer is the slice of the FFmpeg client the processor needs.
type Mixer interface {
	Mix(ctx context.Context, videoPath, audioPath, outPath string, captions *ffmpeg.Captions) error
	HealthCheck(ctx context.Context) error
}

// Processor assembles final.mp4 from the upstream artifacts.
type Processor struct {
	mixer  Mixer
	cfg    *config.Config
	logger *slog.Logger
}

// New constructs the assembly stage processor.
func New(cfg *config.Config, mixer Mixer, logger *slog.Logger) *Processor {
	return &Processor{
		mixer:  mixer,
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "assembly"),
	}
}

// Execute runs the assembly stage.
func (p *Processor) Execute(ctx context.Context, req stage.Request) (stage.Result, error) {
	if _, err := pipeline.DecodeScript(req.Inputs[pipeline.ArtifactScript]); err != nil {
		return stage.Result{}, services.Wrap(services.ErrStage, pipeline.StageAssembly, "decode", "read script", err)
	}
	narrationAudio := req.Inputs[pipeline.ArtifactNarration]
	scenesVideo := req.Inputs[pipeline.ArtifactScenes]
	if len(narrationAudio) == 0 || len(scenesVideo) == 0 {
		return stage.Result{}, services.Wrap(services.ErrStage, pipeline.StageAssembly, "inputs", "empty narration or scenes payload", nil)
	}

	workDir, err := os.MkdirTemp("", "reelsmith-assembly-*")
	if err != nil {
		return stage.Result{}, services.Wrap(services.ErrStage, pipeline.StageAssembly, "workdir", "create temp dir", err)
	}
	defer os.RemoveAll(workDir)

	videoPath := filepath.Join(workDir, pipeline.ArtifactScenes)
	audioPath := filepath.Join(workDir, pipeline.ArtifactNarration)
	outPath := filepath.Join(workDir, pipeline.ArtifactFinal)
	if err := os.WriteFile(videoPath, scenesVideo, 0o644); err != nil {
		return stage.Result{}, services.Wrap(services.ErrStage, pipeline.StageAssembly, "stage inputs", "write scenes video", err)
	}
	if err := os.WriteFile(audioPath, narrationAudio, 0o644); err != nil {
		return stage.Result{}, services.Wrap(services.ErrStage, pipeline.StageAssembly, "stage inputs", "write narration audio", err)
	}

	captions := captionsFromParams(req.Params)
	logger := logging.WithContext(ctx, p.logger)
	logger.Info("assembling final video",
		logging.Int("video_bytes", len(scenesVideo)),
		logging.Int("audio_bytes", len(narrationAudio)),
		logging.Bool("captions", captions != nil))

	if err := p.mixer.Mix(ctx, videoPath, audioPath, outPath, captions); err != nil {
		return stage.Result{}, services.Wrap(services.ErrStage, pipeline.StageAssembly, "mix", "ffmpeg failed", err)
	}

	final, err := os.ReadFile(outPath)
	if err != nil {
		return stage.Result{}, services.Wrap(services.ErrStage, pipeline.StageAssembly, "collect", "read final video", err)
	}

	logger.Info("final video ready", logging.Int("final_bytes", len(final)))

	return stage.Result{Outputs: map[string][]byte{
		pipeline.ArtifactFinal: final,
	}}, nil
}

// HealthCheck verifies ffmpeg is runnable.
func (p *Processor) HealthCheck(ctx context.Context) stage.Health {
	if err := p.mixer.HealthCheck(ctx); err != nil {
		return stage.Unhealthy(pipeline.StageAssembly, err.Error())
	}
	return stage.Healthy(pipeline.StageAssembly)
}

// captionsFromParams maps the optional caption_* job parameters onto drawtext
// settings. Returns nil when the job did not ask for captions.
func captionsFromParams(params map[string]string) *ffmpeg.Captions {
	if params == nil {
		return nil
	}
	placement := params["caption_placement"]
	hue := params["caption_hue"]
	font := params["caption_font"]
	sizeRaw := params["caption_size"]
	if placement == "" && hue == "" && font == "" && sizeRaw == "" {
		return nil
	}
	size := 0
	if sizeRaw != "" {
		if parsed, err := strconv.Atoi(sizeRaw); err == nil {
			size = parsed
		}
	}
	return &ffmpeg.Captions{
		Placement: placement,
		Hue:       hue,
		Font:      font,
		Size:      size,
	}
}
