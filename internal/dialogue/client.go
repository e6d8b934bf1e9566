package dialogue

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dumblo/adventure-api/internal/errors"
	"github.com/dumblo/adventure-api/internal/pkg/clock"
)

const defaultRequestsPerMinute = 25

// Config holds the dependencies and settings for the API-backed generator.
type Config struct {
	HTTPClient *http.Client
	Cache      Cache
	Clock      clock.Clock

	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	CacheTTL    time.Duration

	// RequestsPerMinute bounds outbound calls; zero means the default of 25.
	RequestsPerMinute int
}

// Validate ensures all required fields are set.
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()
	if c.Cache == nil {
		vb.RequiredField("Cache")
	}
	if c.Clock == nil {
		vb.RequiredField("Clock")
	}
	if c.BaseURL == "" {
		vb.RequiredField("BaseURL")
	}
	if c.APIKey == "" {
		vb.RequiredField("APIKey")
	}
	if c.Model == "" {
		vb.RequiredField("Model")
	}
	return vb.Build()
}

type client struct {
	httpClient *http.Client
	cache      Cache
	clock      clock.Clock

	baseURL     string
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	cacheTTL    time.Duration

	mu      sync.Mutex
	window  []time.Time
	maxRate int
}

// NewClient creates an API-backed dialogue generator.
func NewClient(cfg *Config) (Generator, error) {
	if cfg == nil {
		return nil, errors.InvalidArgument("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	maxRate := cfg.RequestsPerMinute
	if maxRate <= 0 {
		maxRate = defaultRequestsPerMinute
	}

	return &client{
		httpClient:  httpClient,
		cache:       cfg.Cache,
		clock:       cfg.Clock,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		cacheTTL:    cfg.CacheTTL,
		maxRate:     maxRate,
	}, nil
}

var _ Generator = (*client)(nil)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Generate returns a cached line when one exists, otherwise calls the API.
// Exceeding the rate budget is ResourceExhausted, not a silent success, so
// callers can distinguish fallback causes in logs.
func (c *client) Generate(ctx context.Context, req *Request) (string, error) {
	if req == nil {
		return "", errors.InvalidArgument("request is required")
	}

	key := cacheKey(req)
	if line, ok, err := c.cache.Get(ctx, key); err != nil {
		slog.WarnContext(ctx, "dialogue cache read failed", "error", err)
	} else if ok {
		return line, nil
	}

	if !c.allow() {
		return "", errors.ResourceExhausted("dialogue rate limit reached")
	}

	line, err := c.complete(ctx, req)
	if err != nil {
		return "", err
	}

	if err := c.cache.Set(ctx, key, line, c.cacheTTL); err != nil {
		slog.WarnContext(ctx, "dialogue cache write failed", "error", err)
	}
	return line, nil
}

// allow records a request against the one-minute sliding window.
func (c *client) allow() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	cutoff := now.Add(-time.Minute)
	kept := c.window[:0]
	for _, t := range c.window {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	c.window = kept

	if len(c.window) >= c.maxRate {
		return false
	}
	c.window = append(c.window, now)
	return true
}

func (c *client) complete(ctx context.Context, req *Request) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt(req)},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to encode dialogue request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "failed to build dialogue request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", errors.WrapWithCode(err, errors.CodeUnavailable, "dialogue api call failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", errors.Unavailablef("dialogue api returned %d: %s", resp.StatusCode, string(snippet))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", errors.Wrap(err, "failed to decode dialogue response")
	}
	if len(parsed.Choices) == 0 {
		return "", errors.Internal("dialogue response has no choices")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

const systemPrompt = "You are an NPC in a fantasy adventure game. Reply with a single short line of in-character dialogue. No narration, no quotes."

func userPrompt(req *Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "NPC: %s (%s). %s\n", req.NPCName, req.NPCType, req.NPCDescription)
	fmt.Fprintf(&b, "Location: %s\n", req.LocationName)
	fmt.Fprintf(&b, "The NPC greets %s, a %s.", req.PlayerName, req.PlayerClass)
	return b.String()
}

// cacheKey hashes the scene so the same NPC/location/class pairing reuses its
// line for the cache TTL.
func cacheKey(req *Request) string {
	h := sha256.Sum256([]byte(req.NPCID + "|" + req.LocationName + "|" + req.PlayerClass))
	return "dialogue:" + hex.EncodeToString(h[:8])
}
