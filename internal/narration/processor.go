// Package narration implements the narration stage: it renders the script's
// voiceover text to MP3 audio via the TTS service.
package narration

import (
	"context"
	"log/slog"
	"strings"

	"reelsmith/internal/config"
	"reelsmith/internal/logging"
	"reelsmith/internal/pipeline"
	"reelsmith/internal/services"
	"reelsmith/internal/stage"
)

// Synthesizer is the slice of the TTS client the processor needs.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voiceID string) ([]byte, error)
}

// Processor renders narration.mp3 from script.json.
type Processor struct {
	tts    Synthesizer
	cfg    *config.Config
	logger *slog.Logger
}

// New constructs the narration stage processor.
func New(cfg *config.Config, synth Synthesizer, logger *slog.Logger) *Processor {
	return &Processor{
		tts:    synth,
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "narration"),
	}
}

// Execute runs the narration stage.
func (p *Processor) Execute(ctx context.Context, req stage.Request) (stage.Result, error) {
	script, err := pipeline.DecodeScript(req.Inputs[pipeline.ArtifactScript])
	if err != nil {
		return stage.Result{}, services.Wrap(services.ErrStage, pipeline.StageNarration, "decode", "read script", err)
	}

	logger := logging.WithContext(ctx, p.logger)
	logger.Info("synthesizing narration",
		logging.Int("narration_chars", len(script.Narration)),
		logging.String("voice_id", req.Params["voice_id"]))

	audio, err := p.tts.Synthesize(ctx, script.Narration, req.Params["voice_id"])
	if err != nil {
		return stage.Result{}, services.Wrap(services.ErrStage, pipeline.StageNarration, "synthesize", "tts request failed", err)
	}

	logger.Info("narration ready", logging.Int("audio_bytes", len(audio)))

	return stage.Result{Outputs: map[string][]byte{
		pipeline.ArtifactNarration: audio,
	}}, nil
}

// HealthCheck verifies the TTS service is configured.
func (p *Processor) HealthCheck(ctx context.Context) stage.Health {
	if p.cfg == nil || strings.TrimSpace(p.cfg.TTS.APIKey) == "" {
		return stage.Unhealthy(pipeline.StageNarration, "tts api key not configured")
	}
	if strings.TrimSpace(p.cfg.TTS.VoiceID) == "" {
		return stage.Unhealthy(pipeline.StageNarration, "default voice not configured")
	}
	return stage.Healthy(pipeline.StageNarration)
}
