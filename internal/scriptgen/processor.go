// Package scriptgen implements the script stage: it asks the LLM for a
// narration script broken into timed scenes and emits script.json.
package scriptgen

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"reelsmith/internal/config"
	"reelsmith/internal/logging"
	"reelsmith/internal/pipeline"
	"reelsmith/internal/services"
	"reelsmith/internal/services/llm"
	"reelsmith/internal/stage"
)

// Target lengths per style, in seconds of narration.
var styleTargetSeconds = map[string]float64{
	"ad":    10,
	"post":  30,
	"story": 90,
}

// DefaultStyle is used when a job does not request one.
const DefaultStyle = "post"

const wordsPerSecond = 2.5

const systemPrompt = `You write short-form video scripts. Respond with JSON only, using this shape:
{"title": string, "narration": string, "scenes": [{"text": string, "seconds": number}]}
The narration is the full voiceover text. Each scene's text is the on-screen
caption for that beat and seconds is how long it stays up. Scene durations
must sum to roughly the requested length.`

// Completer is the slice of the LLM client the processor needs.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Processor generates script.json from the job's topic and style.
type Processor struct {
	llm    Completer
	cfg    *config.Config
	logger *slog.Logger
}

// New constructs the script stage processor.
func New(cfg *config.Config, completer Completer, logger *slog.Logger) *Processor {
	return &Processor{
		llm:    completer,
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "scriptgen"),
	}
}

// StyleTarget returns the target narration length for a style, defaulting to
// the post style for unknown values.
func StyleTarget(style string) (string, float64) {
	style = strings.ToLower(strings.TrimSpace(style))
	if seconds, ok := styleTargetSeconds[style]; ok {
		return style, seconds
	}
	return DefaultStyle, styleTargetSeconds[DefaultStyle]
}

// Execute runs the script stage.
func (p *Processor) Execute(ctx context.Context, req stage.Request) (stage.Result, error) {
	topic := strings.TrimSpace(req.Params["topic"])
	if topic == "" {
		return stage.Result{}, services.Wrap(services.ErrConfiguration, pipeline.StageScript, "execute", "topic parameter required", nil)
	}
	style, targetSeconds := StyleTarget(req.Params["style"])
	targetWords := int(targetSeconds * wordsPerSecond)

	logger := logging.WithContext(ctx, p.logger)
	logger.Info("generating script",
		logging.String("topic", topic),
		logging.String("style", style),
		logging.Float64("target_seconds", targetSeconds))

	userPrompt := fmt.Sprintf(
		"Topic: %s\nStyle: %s\nTarget length: about %.0f seconds (roughly %d words of narration).\nKeep it punchy, natural, and ready to read aloud.",
		topic, style, targetSeconds, targetWords,
	)

	content, err := p.llm.CompleteJSON(ctx, systemPrompt, userPrompt)
	if err != nil {
		return stage.Result{}, services.Wrap(services.ErrStage, pipeline.StageScript, "complete", "llm request failed", err)
	}

	var draft pipeline.Script
	if err := llm.DecodeLLMJSON(content, &draft); err != nil {
		return stage.Result{}, services.Wrap(services.ErrStage, pipeline.StageScript, "decode", "llm returned malformed script", err)
	}

	draft.Project = req.Project
	draft.Topic = topic
	draft.Style = style
	draft.TargetSeconds = targetSeconds
	normalizeScenes(&draft)

	if err := draft.Validate(); err != nil {
		return stage.Result{}, services.Wrap(services.ErrStage, pipeline.StageScript, "validate", "llm returned unusable script", err)
	}

	encoded, err := json.MarshalIndent(draft, "", "  ")
	if err != nil {
		return stage.Result{}, services.Wrap(services.ErrStage, pipeline.StageScript, "encode", "marshal script", err)
	}

	logger.Info("script ready",
		logging.String("title", draft.Title),
		logging.Int("scenes", len(draft.Scenes)))

	return stage.Result{Outputs: map[string][]byte{
		pipeline.ArtifactScript: encoded,
	}}, nil
}

// HealthCheck verifies the LLM is configured.
func (p *Processor) HealthCheck(ctx context.Context) stage.Health {
	if p.cfg == nil || strings.TrimSpace(p.cfg.LLM.APIKey) == "" {
		return stage.Unhealthy(pipeline.StageScript, "llm api key not configured")
	}
	return stage.Healthy(pipeline.StageScript)
}

// normalizeScenes fills in missing scene durations by spreading the target
// length across scenes and drops empty scenes entirely.
func normalizeScenes(script *pipeline.Script) {
	scenes := script.Scenes[:0]
	for _, scene := range script.Scenes {
		scene.Text = strings.TrimSpace(scene.Text)
		if scene.Text == "" {
			continue
		}
		scenes = append(scenes, scene)
	}
	script.Scenes = scenes
	if len(scenes) == 0 {
		return
	}

	var missing int
	var allocated float64
	for _, scene := range scenes {
		if scene.Seconds <= 0 {
			missing++
		} else {
			allocated += scene.Seconds
		}
	}
	if missing == 0 {
		return
	}
	remaining := script.TargetSeconds - allocated
	share := remaining / float64(missing)
	if share <= 0 {
		share = 2
	}
	for i := range scenes {
		if scenes[i].Seconds <= 0 {
			scenes[i].Seconds = share
		}
	}
}
