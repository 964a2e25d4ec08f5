package narration_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"reelsmith/internal/logging"
	"reelsmith/internal/narration"
	"reelsmith/internal/pipeline"
	"reelsmith/internal/stage"
	"reelsmith/internal/testsupport"
)

type fakeSynth struct {
	gotText  string
	gotVoice string
	audio    []byte
	err      error
}

func (f *fakeSynth) Synthesize(_ context.Context, text, voiceID string) ([]byte, error) {
	f.gotText = text
	f.gotVoice = voiceID
	return f.audio, f.err
}

func scriptInput(t *testing.T) []byte {
	t.Helper()
	data, err := json.Marshal(pipeline.Script{
		Project:   "demo",
		Narration: "Hello from the pipeline.",
		Scenes:    []pipeline.Scene{{Text: "Hello", Seconds: 5}},
	})
	if err != nil {
		t.Fatalf("marshal script: %v", err)
	}
	return data
}

func TestExecuteSynthesizesNarration(t *testing.T) {
	synth := &fakeSynth{audio: []byte("mp3")}
	proc := narration.New(testsupport.NewConfig(t), synth, logging.NewNop())

	result, err := proc.Execute(context.Background(), stage.Request{
		Project: "demo",
		Params:  map[string]string{"voice_id": "custom"},
		Inputs:  map[string][]byte{pipeline.ArtifactScript: scriptInput(t)},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if string(result.Outputs[pipeline.ArtifactNarration]) != "mp3" {
		t.Fatalf("outputs = %v", result.Outputs)
	}
	if synth.gotText != "Hello from the pipeline." {
		t.Fatalf("text = %q", synth.gotText)
	}
	if synth.gotVoice != "custom" {
		t.Fatalf("voice = %q", synth.gotVoice)
	}
}

func TestExecuteRejectsBadScript(t *testing.T) {
	proc := narration.New(testsupport.NewConfig(t), &fakeSynth{}, logging.NewNop())
	_, err := proc.Execute(context.Background(), stage.Request{
		Project: "demo",
		Inputs:  map[string][]byte{pipeline.ArtifactScript: []byte(`{"narration":""}`)},
	})
	if err == nil {
		t.Fatal("expected error for empty narration")
	}
}

func TestExecutePropagatesSynthesisError(t *testing.T) {
	synth := &fakeSynth{err: errors.New("quota exceeded")}
	proc := narration.New(testsupport.NewConfig(t), synth, logging.NewNop())

	_, err := proc.Execute(context.Background(), stage.Request{
		Project: "demo",
		Inputs:  map[string][]byte{pipeline.ArtifactScript: scriptInput(t)},
	})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestHealthCheck(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	proc := narration.New(cfg, &fakeSynth{}, logging.NewNop())
	if health := proc.HealthCheck(context.Background()); !health.Ready {
		t.Fatalf("expected healthy, got %+v", health)
	}

	cfg.TTS.APIKey = ""
	if health := proc.HealthCheck(context.Background()); health.Ready {
		t.Fatal("expected unhealthy without api key")
	}
}
