package assembly_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"reelsmith/internal/assembly"
	"reelsmith/internal/logging"
	"reelsmith/internal/pipeline"
	"reelsmith/internal/services/ffmpeg"
	"reelsmith/internal/stage"
	"reelsmith/internal/testsupport"
)

type fakeMixer struct {
	gotCaptions *ffmpeg.Captions
	payload     []byte
	err         error
}

func (f *fakeMixer) Mix(_ context.Context, videoPath, audioPath, outPath string, captions *ffmpeg.Captions) error {
	f.gotCaptions = captions
	if f.err != nil {
		return f.err
	}
	if _, err := os.Stat(videoPath); err != nil {
		return err
	}
	if _, err := os.Stat(audioPath); err != nil {
		return err
	}
	return os.WriteFile(outPath, f.payload, 0o644)
}

func (f *fakeMixer) HealthCheck(context.Context) error { return nil }

func inputs(t *testing.T) map[string][]byte {
	t.Helper()
	script, err := json.Marshal(pipeline.Script{
		Project:   "demo",
		Narration: "text",
		Scenes:    []pipeline.Scene{{Text: "x", Seconds: 5}},
	})
	if err != nil {
		t.Fatalf("marshal script: %v", err)
	}
	return map[string][]byte{
		pipeline.ArtifactScript:    script,
		pipeline.ArtifactNarration: []byte("audio"),
		pipeline.ArtifactScenes:    []byte("video"),
	}
}

func TestExecuteProducesFinalVideo(t *testing.T) {
	mixer := &fakeMixer{payload: []byte("final")}
	proc := assembly.New(testsupport.NewConfig(t), mixer, logging.NewNop())

	result, err := proc.Execute(context.Background(), stage.Request{
		Project: "demo",
		Inputs:  inputs(t),
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if string(result.Outputs[pipeline.ArtifactFinal]) != "final" {
		t.Fatalf("outputs = %v", result.Outputs)
	}
	if mixer.gotCaptions != nil {
		t.Fatalf("captions = %+v, want nil without caption params", mixer.gotCaptions)
	}
}

func TestExecutePassesCaptionSettings(t *testing.T) {
	mixer := &fakeMixer{payload: []byte("final")}
	proc := assembly.New(testsupport.NewConfig(t), mixer, logging.NewNop())

	_, err := proc.Execute(context.Background(), stage.Request{
		Project: "demo",
		Params: map[string]string{
			"caption_placement": "top",
			"caption_hue":       "#00ff88",
			"caption_size":      "64",
		},
		Inputs: inputs(t),
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if mixer.gotCaptions == nil {
		t.Fatal("expected captions")
	}
	if mixer.gotCaptions.Placement != "top" || mixer.gotCaptions.Size != 64 {
		t.Fatalf("captions = %+v", mixer.gotCaptions)
	}
}

func TestExecuteRejectsEmptyInputs(t *testing.T) {
	proc := assembly.New(testsupport.NewConfig(t), &fakeMixer{}, logging.NewNop())
	in := inputs(t)
	in[pipeline.ArtifactNarration] = nil

	_, err := proc.Execute(context.Background(), stage.Request{Project: "demo", Inputs: in})
	if err == nil {
		t.Fatal("expected error for empty narration payload")
	}
}

func TestExecutePropagatesMixError(t *testing.T) {
	mixer := &fakeMixer{err: errors.New("mux failed")}
	proc := assembly.New(testsupport.NewConfig(t), mixer, logging.NewNop())

	_, err := proc.Execute(context.Background(), stage.Request{Project: "demo", Inputs: inputs(t)})
	if err == nil {
		t.Fatal("expected error")
	}
}
