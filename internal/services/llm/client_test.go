package llm_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"reelsmith/internal/services/llm"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...llm.Option) (*llm.Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	base := []llm.Option{
		llm.WithHTTPClient(server.Client()),
		llm.WithRetryBackoff(0, 0),
		llm.WithSleeper(func(time.Duration) {}),
	}
	client := llm.NewClient(llm.Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "test-model",
	}, append(base, opts...)...)
	return client, server
}

func TestCompleteJSONReturnsContent(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization header = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"{\"title\":\"hello\"}"}}]}`))
	})

	content, err := client.CompleteJSON(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("CompleteJSON: %v", err)
	}
	if !strings.Contains(content, "hello") {
		t.Fatalf("unexpected content %q", content)
	}
}

func TestCompleteJSONRetriesServerErrors(t *testing.T) {
	var calls int
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "upstream busy", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"{}"}}]}`))
	})

	if _, err := client.CompleteJSON(context.Background(), "system", "user"); err != nil {
		t.Fatalf("CompleteJSON: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestCompleteJSONDoesNotRetryClientErrors(t *testing.T) {
	var calls int
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "bad request", http.StatusBadRequest)
	})

	if _, err := client.CompleteJSON(context.Background(), "system", "user"); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestCompleteJSONRequiresAPIKey(t *testing.T) {
	client := llm.NewClient(llm.Config{Model: "m"})
	if _, err := client.CompleteJSON(context.Background(), "system", "user"); err == nil {
		t.Fatal("expected error for missing api key")
	}
}

func TestHealthCheck(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":"{\"ok\":true}"}}]}`))
	})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
}

func TestDecodeLLMJSONHandlesFences(t *testing.T) {
	var parsed struct {
		Title string `json:"title"`
	}
	payload := "```json\n{\"title\":\"fenced\"}\n```"
	if err := llm.DecodeLLMJSON(payload, &parsed); err != nil {
		t.Fatalf("DecodeLLMJSON: %v", err)
	}
	if parsed.Title != "fenced" {
		t.Fatalf("title = %q", parsed.Title)
	}
}

func TestDecodeLLMJSONExtractsEmbeddedObject(t *testing.T) {
	var parsed struct {
		OK bool `json:"ok"`
	}
	payload := "Here is the JSON you asked for: {\"ok\":true} hope that helps"
	if err := llm.DecodeLLMJSON(payload, &parsed); err != nil {
		t.Fatalf("DecodeLLMJSON: %v", err)
	}
	if !parsed.OK {
		t.Fatal("expected ok to be true")
	}
}

func TestDecodeLLMJSONRejectsEmpty(t *testing.T) {
	var parsed map[string]any
	if err := llm.DecodeLLMJSON("   ", &parsed); err == nil {
		t.Fatal("expected error for empty payload")
	}
}
