package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"reelsmith/internal/api"
	"reelsmith/internal/artifacts"
	"reelsmith/internal/config"
	"reelsmith/internal/jobs"
	"reelsmith/internal/logging"
	"reelsmith/internal/orchestrator"
	"reelsmith/internal/pipeline"
	"reelsmith/internal/stage"
	"reelsmith/internal/testsupport"
)

type echoProcessor struct {
	def pipeline.StageDef
}

func (p *echoProcessor) Execute(_ context.Context, req stage.Request) (stage.Result, error) {
	outputs := make(map[string][]byte, len(p.def.Outputs))
	for _, name := range p.def.Outputs {
		outputs[name] = []byte(req.Project + ":" + name)
	}
	return stage.Result{Outputs: outputs}, nil
}

func (p *echoProcessor) HealthCheck(context.Context) stage.Health {
	return stage.Healthy(p.def.Name)
}

func newTestDaemon(t *testing.T, cfg *config.Config) *Daemon {
	t.Helper()

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	store := testsupport.MustOpenStore(t, cfg)
	artifactStore, err := artifacts.NewStore(cfg.Paths.StagingDir)
	if err != nil {
		t.Fatalf("artifact store: %v", err)
	}

	manager := orchestrator.NewManager(cfg, store, artifactStore, logging.NewNop())
	set := orchestrator.ProcessorSet{}
	for _, def := range pipeline.Default() {
		set[def.Name] = &echoProcessor{def: def}
	}
	if err := manager.ConfigureProcessors(set); err != nil {
		t.Fatalf("configure processors: %v", err)
	}

	d, err := New(cfg, store, artifactStore, manager, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("new daemon: %v", err)
	}
	return d
}

func startTestDaemon(t *testing.T, cfg *config.Config) (*Daemon, string) {
	t.Helper()
	d := newTestDaemon(t, cfg)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("start daemon: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	addr := d.APIAddr()
	if addr == "" {
		t.Fatal("expected api server address")
	}
	return d, addr
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			t.Fatalf("decode %s: %v (body %s)", url, err, body)
		}
	}
	return resp.StatusCode
}

func waitForStatus(t *testing.T, base, id string, want string) api.JobSnapshot {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		var snapshot api.JobSnapshot
		code := getJSON(t, base+"/api/jobs/"+id, &snapshot)
		if code == http.StatusOK && snapshot.Status == want {
			return snapshot
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("job %s never reached status %q", id, want)
	return api.JobSnapshot{}
}

func TestDaemonSubmitAndResult(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	_, addr := startTestDaemon(t, cfg)
	base := "http://" + addr

	payload, _ := json.Marshal(api.SubmitRequest{
		Project: "launch-video",
		Params:  map[string]string{"topic": "spring sale"},
	})
	resp, err := http.Post(base+"/api/jobs", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST /api/jobs: %v", err)
	}
	var submitted api.SubmitResponse
	if err := json.NewDecoder(resp.Body).Decode(&submitted); err != nil {
		t.Fatalf("decode submit response: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202 Accepted, got %d", resp.StatusCode)
	}
	if submitted.JobID == "" {
		t.Fatal("expected job id in submit response")
	}

	snapshot := waitForStatus(t, base, submitted.JobID, "done")
	if snapshot.Progress != 100 {
		t.Fatalf("expected progress 100, got %d", snapshot.Progress)
	}
	if snapshot.Result == nil || snapshot.Result.Name != pipeline.ResultArtifact {
		t.Fatalf("unexpected result ref %+v", snapshot.Result)
	}
	if snapshot.Message != "Completed" {
		t.Fatalf("unexpected message %q", snapshot.Message)
	}

	result, err := http.Get(base + "/api/jobs/" + submitted.JobID + "/result")
	if err != nil {
		t.Fatalf("GET result: %v", err)
	}
	defer result.Body.Close()
	if result.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for result download, got %d", result.StatusCode)
	}
	data, err := io.ReadAll(result.Body)
	if err != nil {
		t.Fatalf("read result: %v", err)
	}
	if string(data) != "launch-video:"+pipeline.ResultArtifact {
		t.Fatalf("unexpected result payload %q", data)
	}
}

func TestDaemonStatusAndList(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	_, addr := startTestDaemon(t, cfg)
	base := "http://" + addr

	var status api.DaemonStatus
	if code := getJSON(t, base+"/api/status", &status); code != http.StatusOK {
		t.Fatalf("expected 200 for status, got %d", code)
	}
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}
	if len(status.StageHealth) != len(pipeline.Default()) {
		t.Fatalf("expected %d stage health entries, got %d", len(pipeline.Default()), len(status.StageHealth))
	}
	for _, health := range status.StageHealth {
		if !health.Ready {
			t.Fatalf("expected stage %s ready", health.Name)
		}
	}

	var list api.JobListResponse
	if code := getJSON(t, base+"/api/jobs", &list); code != http.StatusOK {
		t.Fatalf("expected 200 for list, got %d", code)
	}
	if len(list.Jobs) != 0 {
		t.Fatalf("expected empty job list, got %d", len(list.Jobs))
	}

	if code := getJSON(t, base+"/api/jobs?status=bogus", nil); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad status filter, got %d", code)
	}
}

func TestDaemonUnknownJobRoutes(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	_, addr := startTestDaemon(t, cfg)
	base := "http://" + addr

	var errResp api.ErrorResponse
	if code := getJSON(t, base+"/api/jobs/no-such-id", &errResp); code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown job, got %d", code)
	}
	if code := getJSON(t, base+"/api/jobs/no-such-id/result", nil); code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown job result, got %d", code)
	}
}

func TestDaemonResultConflictWhileQueued(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d := newTestDaemon(t, cfg)
	t.Cleanup(func() { _ = d.Close() })

	// The orchestrator is never started, so the job stays queued.
	job, err := d.store.Create(context.Background(), "pending-project", nil)
	if err != nil {
		t.Fatalf("create job: %v", err)
	}

	srv := d.api
	req := httptest.NewRequest(http.MethodGet, "/api/jobs/"+job.ID+"/result", nil)
	w := httptest.NewRecorder()
	srv.handleJob(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for queued job result, got %d", w.Code)
	}
}

func TestDaemonSingleInstanceLock(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first, _ := startTestDaemon(t, cfg)
	_ = first

	second := newTestDaemon(t, cfg)
	t.Cleanup(func() { _ = second.Close() })
	if err := second.Start(context.Background()); err == nil {
		t.Fatal("expected second daemon start to fail while lock is held")
	}
}

func TestDaemonVoicesWithoutClient(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	_, addr := startTestDaemon(t, cfg)

	var resp api.VoicesResponse
	if code := getJSON(t, "http://"+addr+"/api/voices", &resp); code != http.StatusOK {
		t.Fatalf("expected 200 for voices, got %d", code)
	}
	if resp.OK {
		t.Fatal("expected voices to report unavailable without a tts client")
	}
}

func TestDaemonPublish(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d, addr := startTestDaemon(t, cfg)
	base := "http://" + addr

	job, err := d.Submit(context.Background(), "publish-me", map[string]string{"topic": "demo"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	waitForStatus(t, base, job.ID, "done")

	payload, _ := json.Marshal(api.PublishRequest{JobID: job.ID, Platform: "tiktok"})
	resp, err := http.Post(base+"/api/publish", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST publish: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for publish, got %d", resp.StatusCode)
	}
	var published api.PublishResponse
	if err := json.NewDecoder(resp.Body).Decode(&published); err != nil {
		t.Fatalf("decode publish response: %v", err)
	}
	if !published.OK || published.Platform != "tiktok" {
		t.Fatalf("unexpected publish response %+v", published)
	}
}

func TestDaemonBearerAuth(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIToken = "secret-token"
	_, addr := startTestDaemon(t, cfg)
	base := "http://" + addr

	resp, err := http.Get(base + "/api/status")
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, base+"/api/status", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	authed, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET status with token: %v", err)
	}
	authed.Body.Close()
	if authed.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", authed.StatusCode)
	}
}

func TestDaemonStatusCountsJobs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d, addr := startTestDaemon(t, cfg)
	base := "http://" + addr

	job, err := d.Submit(context.Background(), "count-me", nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	waitForStatus(t, base, job.ID, "done")

	stats, err := d.store.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats[jobs.StatusDone] != 1 {
		t.Fatalf("expected 1 done job, got %d", stats[jobs.StatusDone])
	}
}
