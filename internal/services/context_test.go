package services_test

import (
	"context"
	"testing"

	"reelsmith/internal/services"
)

func TestContextRoundTrip(t *testing.T) {
	ctx := context.Background()

	if _, ok := services.JobIDFromContext(ctx); ok {
		t.Fatal("expected no job id on empty context")
	}

	ctx = services.WithJobID(ctx, "job-1")
	ctx = services.WithProject(ctx, "demo")
	ctx = services.WithStage(ctx, "script")

	if id, ok := services.JobIDFromContext(ctx); !ok || id != "job-1" {
		t.Fatalf("job id = %q, %v", id, ok)
	}
	if project, ok := services.ProjectFromContext(ctx); !ok || project != "demo" {
		t.Fatalf("project = %q, %v", project, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "script" {
		t.Fatalf("stage = %q, %v", stage, ok)
	}
}

func TestContextIgnoresEmptyValues(t *testing.T) {
	ctx := services.WithStage(context.Background(), "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected empty stage to be dropped")
	}
}
