package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"reelsmith/internal/api"
	"reelsmith/internal/config"
	"reelsmith/internal/jobs"
	"reelsmith/internal/logging"
)

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon
	jobSvc *api.JobService

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil || d == nil {
		return nil, nil
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	svc := api.NewJobService(d.store)
	mux := http.NewServeMux()
	srv := &apiServer{
		bind:   bind,
		logger: logger,
		daemon: d,
		jobSvc: svc,
	}

	token := strings.TrimSpace(cfg.Paths.APIToken)
	mux.HandleFunc("/api/status", authMiddleware(token, srv.handleStatus))
	mux.HandleFunc("/api/jobs", authMiddleware(token, srv.handleJobs))
	mux.HandleFunc("/api/jobs/", authMiddleware(token, srv.handleJob))
	mux.HandleFunc("/api/voices", authMiddleware(token, srv.handleVoices))
	mux.HandleFunc("/api/publish", authMiddleware(token, srv.handlePublish))

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status(r.Context())
	health := make([]api.StageHealth, len(status.StageHealth))
	for i, item := range status.StageHealth {
		health[i] = api.StageHealth{
			Name:   item.Name,
			Ready:  item.Ready,
			Detail: item.Detail,
		}
	}
	payload := api.DaemonStatus{
		Running:     status.Running,
		PID:         status.PID,
		JobsDBPath:  status.JobsDBPath,
		StagingDir:  status.StagingDir,
		JobStats:    api.StatsToCounts(status.JobStats),
		StageHealth: health,
		LastError:   status.LastError,
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listJobs(w, r)
	case http.MethodPost:
		s.submitJob(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) listJobs(w http.ResponseWriter, r *http.Request) {
	var statuses []jobs.Status
	for _, value := range r.URL.Query()["status"] {
		status, ok := jobs.ParseStatus(value)
		if !ok {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", value))
			return
		}
		statuses = append(statuses, status)
	}

	list, err := s.jobSvc.List(r.Context(), statuses...)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.JobListResponse{Jobs: list})
}

func (s *apiServer) submitJob(w http.ResponseWriter, r *http.Request) {
	var req api.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	project := strings.TrimSpace(req.Project)
	if project == "" {
		s.writeError(w, http.StatusBadRequest, "project is required")
		return
	}
	if strings.TrimSpace(req.Params["topic"]) == "" {
		s.writeError(w, http.StatusBadRequest, "topic parameter is required")
		return
	}

	job, err := s.daemon.Submit(r.Context(), project, req.Params)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.log().Info("job submitted",
		logging.String(logging.FieldJobID, job.ID),
		logging.String(logging.FieldProject, project))
	s.writeJSON(w, http.StatusAccepted, api.SubmitResponse{JobID: job.ID})
}

func (s *apiServer) handleJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	if rest == "" {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if id, ok := strings.CutSuffix(rest, "/result"); ok {
		s.serveResult(w, r, id)
		return
	}
	if strings.Contains(rest, "/") {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}

	snapshot, found, err := s.jobSvc.Describe(r.Context(), rest)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !found {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}
	s.writeJSON(w, http.StatusOK, snapshot)
}

func (s *apiServer) serveResult(w http.ResponseWriter, r *http.Request, id string) {
	job, err := s.daemon.store.GetByID(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if job == nil {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if job.Status != jobs.StatusDone || job.Result == nil {
		s.writeError(w, http.StatusConflict, "job has no result yet")
		return
	}

	path, err := s.daemon.ResultPath(job)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "result artifact unavailable")
		return
	}
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", job.Project+"-"+job.Result.Name))
	http.ServeFile(w, r, path)
}

func (s *apiServer) handleVoices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	voices, err := s.daemon.Voices(r.Context())
	if err != nil {
		s.writeJSON(w, http.StatusOK, api.VoicesResponse{OK: false, Message: err.Error()})
		return
	}
	converted := make([]api.Voice, len(voices))
	for i, voice := range voices {
		converted[i] = api.Voice{ID: voice.ID, Name: voice.Name}
	}
	s.writeJSON(w, http.StatusOK, api.VoicesResponse{OK: true, Voices: converted})
}

func (s *apiServer) handlePublish(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req api.PublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	platform := strings.ToLower(strings.TrimSpace(req.Platform))
	if req.JobID == "" || platform == "" {
		s.writeError(w, http.StatusBadRequest, "job_id and platform are required")
		return
	}

	job, err := s.daemon.store.GetByID(r.Context(), req.JobID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if job == nil {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if job.Status != jobs.StatusDone {
		s.writeError(w, http.StatusConflict, "job is not done")
		return
	}

	// Publishing is simulated: the posting plan carries the schedule, the
	// daemon only records intent in publish.log.
	entry, err := s.daemon.RecordPublish(job, platform)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.log().Info("publish recorded",
		logging.String(logging.FieldJobID, job.ID),
		logging.String(logging.FieldProject, job.Project),
		logging.String("platform", platform))
	s.writeJSON(w, http.StatusOK, api.PublishResponse{
		OK:       true,
		Message:  entry,
		Platform: platform,
	})
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String(logging.FieldComponent, "api-server"))
	}
	return logging.NewNop()
}
