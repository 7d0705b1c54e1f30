// Package llm provides the structured-generation collaborator: an HTTP
// client for an Anthropic-style messages API that returns schema-conforming
// Internal Goal and Workout Plan values. Callers treat any error as a
// generation failure; retry, backoff, and rate limiting live here.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/coachd/internal/contract"
	"github.com/fyrsmithlabs/coachd/internal/planner"
)

// Default configuration values.
const (
	defaultBaseURL     = "https://api.anthropic.com"
	defaultModel       = "claude-3-5-sonnet-20241022"
	defaultMaxTokens   = 4096
	defaultTimeout     = 60 * time.Second
	defaultMaxRetries  = 3
	defaultBaseBackoff = 1 * time.Second

	// 50 requests per minute, with small bursts.
	defaultRateLimit = 50.0 / 60.0
	defaultBurst     = 5
)

// Config configures the client.
type Config struct {
	APIKey     string
	Model      string
	BaseURL    string
	MaxTokens  int
	Timeout    time.Duration
	MaxRetries int
}

// Client calls the messages API and decodes structured output. It implements
// planner.Generator.
type Client struct {
	model      string
	apiKey     string
	baseURL    string
	maxTokens  int
	maxRetries int
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// NewClient creates a structured-generation client.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	return &Client{
		model:      model,
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		maxTokens:  maxTokens,
		maxRetries: maxRetries,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
		logger:     logger,
	}, nil
}

// intentSystemPrompt is the schema descriptor for Internal Goal generation.
const intentSystemPrompt = `You translate fitness profiles into a structured internal goal.

Respond ONLY with a JSON object matching this schema:
{
  "goal_style": "<one enum value>",
  "priority_targets": ["<free text hints>"],
  "priority_muscles": ["<taxonomy muscles>"],
  "training_days": ["mon".."sun"],
  "weekly_focus_by_day": [{"training_day": "mon", "focus": [{"muscle": "<taxonomy muscle>", "rank": 1}]}],
  "risk_notes": ["<free text>"]
}
No prose, no markdown fences, no additional keys.`

// planSystemPrompt is the schema descriptor for Workout Plan generation.
const planSystemPrompt = `You produce weekly workout plans.

Respond ONLY with a JSON object matching this schema:
{
  "goal": "<label>",
  "days_per_week": <1-7>,
  "session_minutes": <10-240>,
  "split": "<label>",
  "days": [{"day": "<label>", "training_day": "<mon..sun, optional>",
            "exercises": [{"exercise_id": <id>, "sets": <1-12>, "reps": "<text>",
                           "rest_sec": <0-600>, "notes": "<text>", "primary_muscle": "<optional>"}]}]
}
No prose, no markdown fences, no additional keys.`

// GenerateIntent generates a structured Internal Goal from the prompt.
// The result is syntactically schema-conforming; contract validation is the
// caller's responsibility.
func (c *Client) GenerateIntent(ctx context.Context, prompt string) (contract.InternalGoal, error) {
	text, err := c.complete(ctx, intentSystemPrompt, prompt)
	if err != nil {
		return contract.InternalGoal{}, err
	}

	var goal contract.InternalGoal
	if err := json.Unmarshal([]byte(stripFences(text)), &goal); err != nil {
		return contract.InternalGoal{}, fmt.Errorf("decoding internal goal: %w", err)
	}
	return goal, nil
}

// GeneratePlan generates a draft workout plan from the prompt and checks the
// schema's numeric bounds.
func (c *Client) GeneratePlan(ctx context.Context, prompt string) (planner.Plan, error) {
	text, err := c.complete(ctx, planSystemPrompt, prompt)
	if err != nil {
		return planner.Plan{}, err
	}

	var plan planner.Plan
	if err := json.Unmarshal([]byte(stripFences(text)), &plan); err != nil {
		return planner.Plan{}, fmt.Errorf("decoding plan: %w", err)
	}
	if err := validatePlanBounds(plan); err != nil {
		return planner.Plan{}, err
	}
	return plan, nil
}

// validatePlanBounds enforces the Workout Plan schema's numeric ranges.
func validatePlanBounds(p planner.Plan) error {
	if p.DaysPerWeek < 1 || p.DaysPerWeek > 7 {
		return fmt.Errorf("plan days_per_week out of range: %d", p.DaysPerWeek)
	}
	if p.SessionMinutes < 10 || p.SessionMinutes > 240 {
		return fmt.Errorf("plan session_minutes out of range: %d", p.SessionMinutes)
	}
	for di, day := range p.Days {
		for ei, ex := range day.Exercises {
			if ex.ExerciseID < 1 {
				return fmt.Errorf("days[%d].exercises[%d].exercise_id must be >= 1: %d", di, ei, ex.ExerciseID)
			}
			if ex.Sets < 1 || ex.Sets > 12 {
				return fmt.Errorf("days[%d].exercises[%d].sets out of range: %d", di, ei, ex.Sets)
			}
			if ex.RestSec < 0 || ex.RestSec > 600 {
				return fmt.Errorf("days[%d].exercises[%d].rest_sec out of range: %d", di, ei, ex.RestSec)
			}
		}
	}
	return nil
}

// stripFences removes markdown code fences some models wrap JSON in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// messagesRequest is the request payload for the messages API.
type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Messages    []message `json:"messages"`
	System      string    `json:"system,omitempty"`
	Temperature float64   `json:"temperature"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// messagesResponse is the response payload from the messages API.
type messagesResponse struct {
	ID      string `json:"id"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

type apiError struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// complete sends one prompt through the messages API with retries and
// exponential backoff, returning the model's text output.
func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	req := messagesRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: 0.2, // low temperature for structured output
		System:      system,
		Messages:    []message{{Role: "user", Content: user}},
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := defaultBaseBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		text, err := c.doRequest(ctx, req)
		if err == nil {
			return text, nil
		}

		lastErr = err
		if !isRetryable(err) {
			return "", err
		}
		c.logger.Warn("generation attempt failed, retrying",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}

	return "", fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Client) doRequest(ctx context.Context, req messagesRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-Key", c.apiKey)
	httpReq.Header.Set("Anthropic-Version", "2023-06-01")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", &retryableError{err: fmt.Errorf("API request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", &retryableError{err: fmt.Errorf("rate limited (429)")}
	}
	if resp.StatusCode >= 500 {
		return "", &retryableError{err: fmt.Errorf("server error (%d): %s", resp.StatusCode, string(body))}
	}
	if resp.StatusCode != http.StatusOK {
		var errResp apiError
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
			return "", fmt.Errorf("API error (%d): %s", resp.StatusCode, errResp.Error.Message)
		}
		return "", fmt.Errorf("API error (%d): %s", resp.StatusCode, string(body))
	}

	var msgResp messagesResponse
	if err := json.Unmarshal(body, &msgResp); err != nil {
		return "", fmt.Errorf("parsing response: %w", err)
	}
	if len(msgResp.Content) == 0 {
		return "", fmt.Errorf("empty response from API")
	}

	return msgResp.Content[0].Text, nil
}

// retryableError marks transient transport and server failures.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

func isRetryable(err error) bool {
	for e := err; e != nil; {
		if _, ok := e.(*retryableError); ok {
			return true
		}
		u, ok := e.(interface{ Unwrap() error })
		if !ok {
			break
		}
		e = u.Unwrap()
	}
	return false
}
