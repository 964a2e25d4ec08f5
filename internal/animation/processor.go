// Package animation implements the animation stage: it renders the script's
// scenes into a portrait background video with timed on-screen text.
package animation

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"reelsmith/internal/config"
	"reelsmith/internal/logging"
	"reelsmith/internal/pipeline"
	"reelsmith/internal/services"
	"reelsmith/internal/services/ffmpeg"
	"reelsmith/internal/stage"
)

// Renderer is the slice of the FFmpeg client the processor needs.
type Renderer interface {
	RenderScenes(ctx context.Context, scenes []ffmpeg.Scene, outPath string) error
	HealthCheck(ctx context.Context) error
}

// Processor renders scenes.mp4 from script.json.
type Processor struct {
	render Renderer
	cfg    *config.Config
	logger *slog.Logger
}

// New constructs the animation stage processor.
func New(cfg *config.Config, render Renderer, logger *slog.Logger) *Processor {
	return &Processor{
		render: render,
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "animation"),
	}
}

// Execute runs the animation stage.
func (p *Processor) Execute(ctx context.Context, req stage.Request) (stage.Result, error) {
	script, err := pipeline.DecodeScript(req.Inputs[pipeline.ArtifactScript])
	if err != nil {
		return stage.Result{}, services.Wrap(services.ErrStage, pipeline.StageAnimation, "decode", "read script", err)
	}

	scenes := make([]ffmpeg.Scene, 0, len(script.Scenes))
	var cursor float64
	for _, scene := range script.Scenes {
		scenes = append(scenes, ffmpeg.Scene{
			Text:     scene.Text,
			Start:    cursor,
			Duration: scene.Seconds,
		})
		cursor += scene.Seconds
	}

	logger := logging.WithContext(ctx, p.logger)
	logger.Info("rendering scenes",
		logging.Int("scenes", len(scenes)),
		logging.Float64("total_seconds", cursor))

	workDir, err := os.MkdirTemp("", "reelsmith-animation-*")
	if err != nil {
		return stage.Result{}, services.Wrap(services.ErrStage, pipeline.StageAnimation, "workdir", "create temp dir", err)
	}
	defer os.RemoveAll(workDir)

	outPath := filepath.Join(workDir, pipeline.ArtifactScenes)
	if err := p.render.RenderScenes(ctx, scenes, outPath); err != nil {
		return stage.Result{}, services.Wrap(services.ErrStage, pipeline.StageAnimation, "render", "ffmpeg failed", err)
	}

	video, err := os.ReadFile(outPath)
	if err != nil {
		return stage.Result{}, services.Wrap(services.ErrStage, pipeline.StageAnimation, "collect", "read rendered video", err)
	}

	logger.Info("scenes rendered", logging.Int("video_bytes", len(video)))

	return stage.Result{Outputs: map[string][]byte{
		pipeline.ArtifactScenes: video,
	}}, nil
}

// HealthCheck verifies ffmpeg is runnable.
func (p *Processor) HealthCheck(ctx context.Context) stage.Health {
	if err := p.render.HealthCheck(ctx); err != nil {
		return stage.Unhealthy(pipeline.StageAnimation, err.Error())
	}
	return stage.Healthy(pipeline.StageAnimation)
}
