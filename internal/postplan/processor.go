// Package postplan implements the posting-plan stage: it asks the LLM to
// schedule the final video and its clips across social platforms, emitting
// postplan.json.
package postplan

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

var knownPlatforms = map[string]struct{}{
	"youtube":   {},
	"tiktok":    {},
	"instagram": {},
}

const systemPrompt = `You plan social media posting schedules for short-form video.
Respond with JSON only, using this shape:
{"posts": [{"platform": string, "clip": string, "caption": string, "hashtags": [string], "when": string}]}
Platforms must be one of youtube, tiktok, instagram. "clip" names one of the
provided clip files, or "final.mp4" for the full video. "when" is an RFC 3339
timestamp. Spread posts over the next few days.`

// Completer is the slice of the LLM client the processor needs.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Processor generates postplan.json from the script and planned clips.
type Processor struct {
	llm    Completer
	cfg    *config.Config
	logger *slog.Logger
}

// New constructs the posting-plan stage processor.
func New(cfg *config.Config, completer Completer, logger *slog.Logger) *Processor {
	return &Processor{
		llm:    completer,
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "postplan"),
	}
}

// Execute runs the posting-plan stage.
func (p *Processor) Execute(ctx context.Context, req stage.Request) (stage.Result, error) {
	script, err := pipeline.DecodeScript(req.Inputs[pipeline.ArtifactScript])
	if err != nil {
		return stage.Result{}, services.Wrap(services.ErrStage, pipeline.StagePostPlan, "decode", "read script", err)
	}
	clips, err := pipeline.DecodeClipList(req.Inputs[pipeline.ArtifactClips])
	if err != nil {
		return stage.Result{}, services.Wrap(services.ErrStage, pipeline.StagePostPlan, "decode", "read clips", err)
	}

	clipFiles := make([]string, 0, len(clips.Clips)+1)
	clipFiles = append(clipFiles, pipeline.ArtifactFinal)
	for _, clip := range clips.Clips {
		clipFiles = append(clipFiles, clip.File)
	}

	userPrompt := fmt.Sprintf(
		"Video title: %s\nTopic: %s\nStyle: %s\nNarration: %s\nAvailable files: %s",
		script.Title, script.Topic, script.Style, script.Narration, strings.Join(clipFiles, ", "),
	)

	logger := logging.WithContext(ctx, p.logger)
	logger.Info("planning posts", logging.Int("clip_files", len(clipFiles)))

	content, err := p.llm.CompleteJSON(ctx, systemPrompt, userPrompt)
	if err != nil {
		return stage.Result{}, services.Wrap(services.ErrStage, pipeline.StagePostPlan, "complete", "llm request failed", err)
	}

	var plan pipeline.PostPlan
	if err := llm.DecodeLLMJSON(content, &plan); err != nil {
		return stage.Result{}, services.Wrap(services.ErrStage, pipeline.StagePostPlan, "decode", "llm returned malformed plan", err)
	}
	plan.Project = req.Project
	if err := validatePlan(plan, clipFiles); err != nil {
		return stage.Result{}, services.Wrap(services.ErrStage, pipeline.StagePostPlan, "validate", "llm returned unusable plan", err)
	}

	encoded, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return stage.Result{}, services.Wrap(services.ErrStage, pipeline.StagePostPlan, "encode", "marshal plan", err)
	}

	logger.Info("posting plan ready", logging.Int("posts", len(plan.Posts)))

	return stage.Result{Outputs: map[string][]byte{
		pipeline.ArtifactPostPlan: encoded,
	}}, nil
}

// HealthCheck verifies the LLM is configured.
func (p *Processor) HealthCheck(ctx context.Context) stage.Health {
	if p.cfg == nil || strings.TrimSpace(p.cfg.LLM.APIKey) == "" {
		return stage.Unhealthy(pipeline.StagePostPlan, "llm api key not configured")
	}
	return stage.Healthy(pipeline.StagePostPlan)
}

func validatePlan(plan pipeline.PostPlan, clipFiles []string) error {
	if len(plan.Posts) == 0 {
		return fmt.Errorf("post plan: no posts")
	}
	files := make(map[string]struct{}, len(clipFiles))
	for _, file := range clipFiles {
		files[file] = struct{}{}
	}
	for i, post := range plan.Posts {
		platform := strings.ToLower(strings.TrimSpace(post.Platform))
		if _, ok := knownPlatforms[platform]; !ok {
			return fmt.Errorf("post plan: post %d has unknown platform %q", i, post.Platform)
		}
		if _, ok := files[post.Clip]; !ok {
			return fmt.Errorf("post plan: post %d references unknown file %q", i, post.Clip)
		}
	}
	return nil
}
