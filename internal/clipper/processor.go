// Package clipper implements the clips stage: it probes the final video and
// plans short excerpt windows suitable for reposting, emitting clips.json.
package clipper

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"reelsmith/internal/config"
	"reelsmith/internal/logging"
	"reelsmith/internal/pipeline"
	"reelsmith/internal/services"
	"reelsmith/internal/stage"
)

const (
	maxClips        = 3
	maxClipSeconds  = 15.0
	minClipSeconds  = 3.0
	minSourceLength = minClipSeconds
)

// Prober is the slice of the FFmpeg client the processor needs.
type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
	HealthCheck(ctx context.Context) error
}

// Processor plans clips.json from the final video.
type Processor struct {
	probe  Prober
	cfg    *config.Config
	logger *slog.Logger
}

// New constructs the clips stage processor.
func New(cfg *config.Config, probe Prober, logger *slog.Logger) *Processor {
	return &Processor{
		probe:  probe,
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "clipper"),
	}
}

// Execute runs the clips stage.
func (p *Processor) Execute(ctx context.Context, req stage.Request) (stage.Result, error) {
	if _, err := pipeline.DecodeScript(req.Inputs[pipeline.ArtifactScript]); err != nil {
		return stage.Result{}, services.Wrap(services.ErrStage, pipeline.StageClips, "decode", "read script", err)
	}
	finalVideo := req.Inputs[pipeline.ArtifactFinal]
	if len(finalVideo) == 0 {
		return stage.Result{}, services.Wrap(services.ErrStage, pipeline.StageClips, "inputs", "empty final video payload", nil)
	}

	workDir, err := os.MkdirTemp("", "reelsmith-clips-*")
	if err != nil {
		return stage.Result{}, services.Wrap(services.ErrStage, pipeline.StageClips, "workdir", "create temp dir", err)
	}
	defer os.RemoveAll(workDir)

	videoPath := filepath.Join(workDir, pipeline.ArtifactFinal)
	if err := os.WriteFile(videoPath, finalVideo, 0o644); err != nil {
		return stage.Result{}, services.Wrap(services.ErrStage, pipeline.StageClips, "stage inputs", "write final video", err)
	}

	duration, err := p.probe.Duration(ctx, videoPath)
	if err != nil {
		return stage.Result{}, services.Wrap(services.ErrStage, pipeline.StageClips, "probe", "ffprobe failed", err)
	}
	if duration < minSourceLength {
		return stage.Result{}, services.Wrap(services.ErrStage, pipeline.StageClips, "probe",
			fmt.Sprintf("final video too short to clip (%.1fs)", duration), nil)
	}

	list := planClips(req.Project, duration)

	logger := logging.WithContext(ctx, p.logger)
	logger.Info("clips planned",
		logging.Float64("source_seconds", duration),
		logging.Int("clips", len(list.Clips)))

	encoded, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return stage.Result{}, services.Wrap(services.ErrStage, pipeline.StageClips, "encode", "marshal clips", err)
	}

	return stage.Result{Outputs: map[string][]byte{
		pipeline.ArtifactClips: encoded,
	}}, nil
}

// HealthCheck verifies ffprobe is runnable.
func (p *Processor) HealthCheck(ctx context.Context) stage.Health {
	if err := p.probe.HealthCheck(ctx); err != nil {
		return stage.Unhealthy(pipeline.StageClips, err.Error())
	}
	return stage.Healthy(pipeline.StageClips)
}

// planClips slices the source into up to maxClips consecutive windows from
// the start. Windows are capped at maxClipSeconds and the tail window is
// dropped when it would run under minClipSeconds.
func planClips(project string, duration float64) pipeline.ClipList {
	list := pipeline.ClipList{Project: project, SourceSeconds: duration}
	var cursor float64
	for i := 0; i < maxClips && cursor < duration; i++ {
		window := maxClipSeconds
		if remaining := duration - cursor; remaining < window {
			window = remaining
		}
		if window < minClipSeconds {
			break
		}
		n := len(list.Clips) + 1
		list.Clips = append(list.Clips, pipeline.Clip{
			Label:   fmt.Sprintf("clip-%d", n),
			Start:   cursor,
			Seconds: window,
			File:    fmt.Sprintf("clip-%d.mp4", n),
		})
		cursor += window
	}
	return list
}
