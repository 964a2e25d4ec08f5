package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	defaultHTTPTimeout   = 30 * time.Second
	defaultVoiceCacheTTL = 60 * time.Second
)

// Config captures the runtime settings required to talk to the TTS provider.
type Config struct {
	APIKey            string
	BaseURL           string
	VoiceID           string
	TimeoutSeconds    int
	VoiceCacheSeconds int
}

// Voice describes one synthesis voice offered by the provider.
type Voice struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Client wraps the ElevenLabs-compatible HTTP API.
type Client struct {
	cfg        Config
	httpClient *http.Client

	now func() time.Time

	mu           sync.Mutex
	cachedVoices []Voice
	fetchedAt    time.Time
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithClock overrides the time source used for voice cache expiry (tests).
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClient constructs a TTS client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:            strings.TrimSpace(cfg.APIKey),
			BaseURL:           strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			VoiceID:           strings.TrimSpace(cfg.VoiceID),
			TimeoutSeconds:    cfg.TimeoutSeconds,
			VoiceCacheSeconds: cfg.VoiceCacheSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = "https://api.elevenlabs.io"
	}
	return client
}

// DefaultVoiceID returns the configured fallback voice.
func (c *Client) DefaultVoiceID() string {
	return c.cfg.VoiceID
}

// Synthesize renders the supplied text as MP3 audio using the given voice.
// An empty voiceID falls back to the configured default voice.
func (c *Client) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("tts synthesize: text required")
	}
	if c.cfg.APIKey == "" {
		return nil, errors.New("tts synthesize: api key required")
	}
	voice := strings.TrimSpace(voiceID)
	if voice == "" {
		voice = c.cfg.VoiceID
	}
	if voice == "" {
		return nil, errors.New("tts synthesize: voice id required")
	}

	payload := map[string]any{
		"text":     text,
		"model_id": "eleven_multilingual_v2",
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("tts synthesize: encode body: %w", err)
	}

	endpoint := c.cfg.BaseURL + "/v1/text-to-speech/" + url.PathEscape(voice)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("tts synthesize: new request: %w", err)
	}
	req.Header.Set("xi-api-key", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts synthesize: http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tts synthesize: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tts synthesize: http %d: %s", resp.StatusCode, summarizeBody(body))
	}
	if len(body) == 0 {
		return nil, errors.New("tts synthesize: empty audio payload")
	}
	return body, nil
}

// Voices returns the provider voice catalogue. Results are cached for the
// configured TTL so repeated API polls do not hammer the provider.
func (c *Client) Voices(ctx context.Context) ([]Voice, error) {
	if c.cfg.APIKey == "" {
		return nil, errors.New("tts voices: api key required")
	}

	c.mu.Lock()
	if c.cachedVoices != nil && c.now().Sub(c.fetchedAt) < c.cacheTTL() {
		voices := append([]Voice(nil), c.cachedVoices...)
		c.mu.Unlock()
		return voices, nil
	}
	c.mu.Unlock()

	voices, err := c.fetchVoices(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cachedVoices = voices
	c.fetchedAt = c.now()
	c.mu.Unlock()

	return append([]Voice(nil), voices...), nil
}

// HealthCheck verifies the API key by listing voices.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.Voices(ctx)
	return err
}

func (c *Client) cacheTTL() time.Duration {
	if c.cfg.VoiceCacheSeconds > 0 {
		return time.Duration(c.cfg.VoiceCacheSeconds) * time.Second
	}
	return defaultVoiceCacheTTL
}

func (c *Client) fetchVoices(ctx context.Context) ([]Voice, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/v1/voices", nil)
	if err != nil {
		return nil, fmt.Errorf("tts voices: new request: %w", err)
	}
	req.Header.Set("xi-api-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts voices: http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tts voices: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tts voices: http %d: %s", resp.StatusCode, summarizeBody(body))
	}

	var parsed struct {
		Voices []struct {
			VoiceID string `json:"voice_id"`
			ID      string `json:"id"`
			Name    string `json:"name"`
		} `json:"voices"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("tts voices: decode response: %w", err)
	}

	voices := make([]Voice, 0, len(parsed.Voices))
	for _, v := range parsed.Voices {
		id := strings.TrimSpace(v.VoiceID)
		if id == "" {
			id = strings.TrimSpace(v.ID)
		}
		if id == "" {
			continue
		}
		voices = append(voices, Voice{ID: id, Name: strings.TrimSpace(v.Name)})
	}
	return voices, nil
}

func summarizeBody(body []byte) string {
	clean := strings.Join(strings.Fields(string(body)), " ")
	const limit = 160
	runes := []rune(clean)
	if len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	if clean == "" {
		return "<empty>"
	}
	return clean
}
