package main

import (
	"testing"

	"reelsmith/internal/logging"
	"reelsmith/internal/pipeline"
	"reelsmith/internal/testsupport"
)

func TestBuildProcessorsCoversEveryStage(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	clients, err := buildClients(cfg)
	if err != nil {
		t.Fatalf("build clients: %v", err)
	}
	set := buildProcessors(cfg, clients, logging.NewNop())

	defs := pipeline.Default()
	if len(set) != len(defs) {
		t.Fatalf("expected %d processors, got %d", len(defs), len(set))
	}
	for _, def := range defs {
		if set[def.Name] == nil {
			t.Fatalf("no processor registered for stage %q", def.Name)
		}
	}
}
