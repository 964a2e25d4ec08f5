package clipper_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"reelsmith/internal/clipper"
	"reelsmith/internal/logging"
	"reelsmith/internal/pipeline"
	"reelsmith/internal/stage"
	"reelsmith/internal/testsupport"
)

type fakeProber struct {
	duration float64
	err      error
}

func (f *fakeProber) Duration(context.Context, string) (float64, error) {
	return f.duration, f.err
}

func (f *fakeProber) HealthCheck(context.Context) error { return nil }

func inputs(t *testing.T) map[string][]byte {
	t.Helper()
	script, err := json.Marshal(pipeline.Script{
		Project:   "demo",
		Narration: "text",
		Scenes:    []pipeline.Scene{{Text: "x", Seconds: 30}},
	})
	if err != nil {
		t.Fatalf("marshal script: %v", err)
	}
	return map[string][]byte{
		pipeline.ArtifactScript: script,
		pipeline.ArtifactFinal:  []byte("video"),
	}
}

func TestExecutePlansClips(t *testing.T) {
	proc := clipper.New(testsupport.NewConfig(t), &fakeProber{duration: 40}, logging.NewNop())

	result, err := proc.Execute(context.Background(), stage.Request{Project: "demo", Inputs: inputs(t)})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	list, err := pipeline.DecodeClipList(result.Outputs[pipeline.ArtifactClips])
	if err != nil {
		t.Fatalf("DecodeClipList: %v", err)
	}
	if list.Project != "demo" || list.SourceSeconds != 40 {
		t.Fatalf("list = %+v", list)
	}
	// 40s splits into 15 + 15 + 10.
	if len(list.Clips) != 3 {
		t.Fatalf("clips = %+v", list.Clips)
	}
	if list.Clips[1].Start != 15 || list.Clips[2].Seconds != 10 {
		t.Fatalf("windows = %+v", list.Clips)
	}
}

func TestExecuteDropsRuntClipWindow(t *testing.T) {
	proc := clipper.New(testsupport.NewConfig(t), &fakeProber{duration: 16}, logging.NewNop())

	result, err := proc.Execute(context.Background(), stage.Request{Project: "demo", Inputs: inputs(t)})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	list, err := pipeline.DecodeClipList(result.Outputs[pipeline.ArtifactClips])
	if err != nil {
		t.Fatalf("DecodeClipList: %v", err)
	}
	// 16s gives one 15s clip; the 1s tail is too short to keep.
	if len(list.Clips) != 1 {
		t.Fatalf("clips = %+v", list.Clips)
	}
}

func TestExecuteRejectsTinySource(t *testing.T) {
	proc := clipper.New(testsupport.NewConfig(t), &fakeProber{duration: 1.5}, logging.NewNop())
	if _, err := proc.Execute(context.Background(), stage.Request{Project: "demo", Inputs: inputs(t)}); err == nil {
		t.Fatal("expected error for too-short source")
	}
}

func TestExecutePropagatesProbeError(t *testing.T) {
	proc := clipper.New(testsupport.NewConfig(t), &fakeProber{err: errors.New("unreadable")}, logging.NewNop())
	if _, err := proc.Execute(context.Background(), stage.Request{Project: "demo", Inputs: inputs(t)}); err == nil {
		t.Fatal("expected error")
	}
}
