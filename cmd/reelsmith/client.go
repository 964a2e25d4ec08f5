package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"reelsmith/internal/api"
)

// daemonClient is a thin HTTP client for the reelsmithd API.
type daemonClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newDaemonClient(addr, token string) (*daemonClient, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("daemon address not configured; set paths.api_bind or pass --addr")
	}
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	return &daemonClient{
		baseURL: strings.TrimRight(addr, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (c *daemonClient) Status(ctx context.Context) (api.DaemonStatus, error) {
	var status api.DaemonStatus
	err := c.getJSON(ctx, "/api/status", nil, &status)
	return status, err
}

func (c *daemonClient) ListJobs(ctx context.Context, statuses []string) ([]api.JobSnapshot, error) {
	query := url.Values{}
	for _, status := range statuses {
		query.Add("status", status)
	}
	var resp api.JobListResponse
	if err := c.getJSON(ctx, "/api/jobs", query, &resp); err != nil {
		return nil, err
	}
	return resp.Jobs, nil
}

func (c *daemonClient) GetJob(ctx context.Context, id string) (api.JobSnapshot, error) {
	var snapshot api.JobSnapshot
	err := c.getJSON(ctx, "/api/jobs/"+url.PathEscape(id), nil, &snapshot)
	return snapshot, err
}

func (c *daemonClient) Submit(ctx context.Context, project string, params map[string]string) (string, error) {
	var resp api.SubmitResponse
	err := c.postJSON(ctx, "/api/jobs", api.SubmitRequest{Project: project, Params: params}, &resp)
	return resp.JobID, err
}

// DownloadResult streams a finished job's video into w and returns the
// suggested file name.
func (c *daemonClient) DownloadResult(ctx context.Context, id string, w io.Writer) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/jobs/"+url.PathEscape(id)+"/result", nil, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", decodeError(resp)
	}

	name := ""
	if _, dispParams, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		name = dispParams["filename"]
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return "", fmt.Errorf("download result: %w", err)
	}
	return name, nil
}

func (c *daemonClient) Voices(ctx context.Context) (api.VoicesResponse, error) {
	var resp api.VoicesResponse
	err := c.getJSON(ctx, "/api/voices", nil, &resp)
	return resp, err
}

func (c *daemonClient) Publish(ctx context.Context, jobID, platform string) (api.PublishResponse, error) {
	var resp api.PublishResponse
	err := c.postJSON(ctx, "/api/publish", api.PublishRequest{JobID: jobID, Platform: platform}, &resp)
	return resp, err
}

func (c *daemonClient) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *daemonClient) postJSON(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	resp, err := c.do(ctx, http.MethodPost, path, nil, bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return decodeError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *daemonClient) do(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Response, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, wrapDialError(err, c.baseURL)
	}
	return resp, nil
}

func wrapDialError(err error, baseURL string) error {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return fmt.Errorf("connect to daemon at %s: connection refused; start the daemon with `reelsmithd`", baseURL)
	}
	return fmt.Errorf("connect to daemon at %s: %w", baseURL, err)
}

func decodeError(resp *http.Response) error {
	var payload api.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
		return fmt.Errorf("daemon: %s (HTTP %d)", payload.Error, resp.StatusCode)
	}
	return fmt.Errorf("daemon returned HTTP %d", resp.StatusCode)
}
