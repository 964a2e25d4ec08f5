package main

import (
	"log/slog"

	"reelsmith/internal/animation"
	"reelsmith/internal/assembly"
	"reelsmith/internal/clipper"
	"reelsmith/internal/config"
	"reelsmith/internal/narration"
	"reelsmith/internal/orchestrator"
	"reelsmith/internal/pipeline"
	"reelsmith/internal/postplan"
	"reelsmith/internal/scriptgen"
	"reelsmith/internal/services/ffmpeg"
	"reelsmith/internal/services/llm"
	"reelsmith/internal/services/tts"
)

// serviceClients bundles the external service clients shared by the stage
// processors.
type serviceClients struct {
	LLM    *llm.Client
	TTS    *tts.Client
	Render *ffmpeg.Client
}

func buildClients(cfg *config.Config) (serviceClients, error) {
	render, err := ffmpeg.New(ffmpeg.Config{
		FFmpegBinary:   cfg.Render.FFmpegBinary,
		FFprobeBinary:  cfg.Render.FFprobeBinary,
		Width:          cfg.Render.Width,
		Height:         cfg.Render.Height,
		FPS:            cfg.Render.FPS,
		TimeoutSeconds: cfg.Render.TimeoutSeconds,
	})
	if err != nil {
		return serviceClients{}, err
	}

	return serviceClients{
		LLM: llm.NewClient(llm.Config{
			APIKey:         cfg.LLM.APIKey,
			BaseURL:        cfg.LLM.BaseURL,
			Model:          cfg.LLM.Model,
			TimeoutSeconds: cfg.LLM.TimeoutSeconds,
		}),
		TTS: tts.NewClient(tts.Config{
			APIKey:            cfg.TTS.APIKey,
			BaseURL:           cfg.TTS.BaseURL,
			VoiceID:           cfg.TTS.VoiceID,
			TimeoutSeconds:    cfg.TTS.TimeoutSeconds,
			VoiceCacheSeconds: cfg.TTS.VoiceCacheSeconds,
		}),
		Render: render,
	}, nil
}

func buildProcessors(cfg *config.Config, clients serviceClients, logger *slog.Logger) orchestrator.ProcessorSet {
	return orchestrator.ProcessorSet{
		pipeline.StageScript:    scriptgen.New(cfg, clients.LLM, logger),
		pipeline.StageNarration: narration.New(cfg, clients.TTS, logger),
		pipeline.StageAnimation: animation.New(cfg, clients.Render, logger),
		pipeline.StageAssembly:  assembly.New(cfg, clients.Render, logger),
		pipeline.StageClips:     clipper.New(cfg, clients.Render, logger),
		pipeline.StagePostPlan:  postplan.New(cfg, clients.LLM, logger),
	}
}
