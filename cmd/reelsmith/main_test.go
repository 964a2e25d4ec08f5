package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"reelsmith/internal/api"
)

func newFakeDaemon(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(t, w, api.DaemonStatus{
			Running:    true,
			PID:        4242,
			JobsDBPath: "/tmp/jobs.db",
			StagingDir: "/tmp/staging",
			JobStats:   map[string]int{"queued": 0, "running": 1, "done": 2, "failed": 0},
			StageHealth: []api.StageHealth{
				{Name: "script", Ready: true},
				{Name: "narration", Ready: false, Detail: "tts api key not configured"},
			},
		})
	})
	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeTestJSON(t, w, api.JobListResponse{Jobs: []api.JobSnapshot{
				{
					ID:        "job-7",
					Project:   "autumn-promo",
					Status:    "running",
					Stage:     "assembly",
					Progress:  50,
					CreatedAt: "2026-08-01T09:00:00.000Z",
				},
			}})
		case http.MethodPost:
			var req api.SubmitRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if req.Project != "autumn-promo" || req.Params["topic"] != "harvest" {
				t.Errorf("unexpected submit payload %+v", req)
			}
			w.WriteHeader(http.StatusAccepted)
			writeTestJSON(t, w, api.SubmitResponse{JobID: "job-8"})
		}
	})
	mux.HandleFunc("/api/jobs/job-7", func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(t, w, api.JobSnapshot{
			ID:       "job-7",
			Project:  "autumn-promo",
			Status:   "failed",
			Stage:    "animation",
			Progress: 33,
			Failure: &api.FailureReason{
				Stage:   "animation",
				Kind:    "stage-error",
				Message: "render failed",
			},
		})
	})
	mux.HandleFunc("/api/voices", func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(t, w, api.VoicesResponse{OK: true, Voices: []api.Voice{
			{ID: "v1", Name: "Avery"},
		}})
	})
	mux.HandleFunc("/api/publish", func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(t, w, api.PublishResponse{OK: true, Message: "scheduled", Platform: "tiktok"})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func writeTestJSON(t *testing.T, w http.ResponseWriter, payload any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		t.Errorf("encode test payload: %v", err)
	}
}

func runCommand(t *testing.T, args ...string) string {
	t.Helper()
	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("command %v failed: %v\noutput: %s", args, err, buf.String())
	}
	return buf.String()
}

func TestStatusCommandRendersTables(t *testing.T) {
	server := newFakeDaemon(t)
	output := runCommand(t, "--addr", server.Listener.Addr().String(), "status")

	for _, want := range []string{"Running:     yes", "4242", "script", "narration", "tts api key not configured"} {
		if !strings.Contains(output, want) {
			t.Fatalf("status output missing %q:\n%s", want, output)
		}
	}
}

func TestJobsListCommand(t *testing.T) {
	server := newFakeDaemon(t)
	output := runCommand(t, "--addr", server.Listener.Addr().String(), "jobs", "list")

	for _, want := range []string{"job-7", "autumn-promo", "running", "assembly", "50%"} {
		if !strings.Contains(output, want) {
			t.Fatalf("list output missing %q:\n%s", want, output)
		}
	}
}

func TestJobsShowCommandJSON(t *testing.T) {
	server := newFakeDaemon(t)
	output := runCommand(t, "--addr", server.Listener.Addr().String(), "jobs", "show", "job-7", "--json")

	var snapshot api.JobSnapshot
	if err := json.Unmarshal([]byte(output), &snapshot); err != nil {
		t.Fatalf("decode show output: %v\n%s", err, output)
	}
	if snapshot.Failure == nil || snapshot.Failure.Kind != "stage-error" {
		t.Fatalf("unexpected snapshot %+v", snapshot)
	}
	if snapshot.Progress != 33 {
		t.Fatalf("expected retained progress 33, got %d", snapshot.Progress)
	}
}

func TestSubmitCommand(t *testing.T) {
	server := newFakeDaemon(t)
	output := runCommand(t,
		"--addr", server.Listener.Addr().String(),
		"submit", "autumn-promo", "--topic", "harvest")

	if !strings.Contains(output, "Job job-8 queued for project autumn-promo") {
		t.Fatalf("unexpected submit output:\n%s", output)
	}
}

func TestSubmitCommandRejectsBadParam(t *testing.T) {
	server := newFakeDaemon(t)
	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{
		"--addr", server.Listener.Addr().String(),
		"submit", "autumn-promo", "--param", "missing-equals"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for malformed --param")
	}
}

func TestVoicesCommand(t *testing.T) {
	server := newFakeDaemon(t)
	output := runCommand(t, "--addr", server.Listener.Addr().String(), "voices")

	if !strings.Contains(output, "Avery") {
		t.Fatalf("voices output missing voice name:\n%s", output)
	}
}

func TestPublishCommand(t *testing.T) {
	server := newFakeDaemon(t)
	output := runCommand(t, "--addr", server.Listener.Addr().String(), "publish", "job-7", "tiktok")

	if !strings.Contains(output, "scheduled (tiktok)") {
		t.Fatalf("unexpected publish output:\n%s", output)
	}
}

func TestFailureSummary(t *testing.T) {
	if got := failureSummary(nil); got != "" {
		t.Fatalf("expected empty summary for nil failure, got %q", got)
	}
	summary := failureSummary(&api.FailureReason{Stage: "clips", Kind: "timeout", Message: "stage exceeded 30s"})
	if summary != "timeout at clips: stage exceeded 30s" {
		t.Fatalf("unexpected summary %q", summary)
	}
}
