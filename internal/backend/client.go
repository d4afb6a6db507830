// Package backend provides the HTTP committer that submits finished sessions
// to the Holistiq API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Strangemortal/Holistiq/internal/timer"
)

// Client posts session records to the backend API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	legacy     bool
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLegacyRoutes posts to /api/save-workout and /api/save-meditation using
// the per-surface payload shape instead of the unified /api/sessions route.
func WithLegacyRoutes() Option {
	return func(c *Client) {
		c.legacy = true
	}
}

// NewClient constructs a Client for baseURL.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type sessionRequest struct {
	Surface         string `json:"surface"`
	ActivityKind    string `json:"activity_kind"`
	DurationMinutes int    `json:"duration_minutes"`
	SessionToken    string `json:"session_token,omitempty"`
}

type commitResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Commit submits record. Failures are returned as *timer.CommitError.
func (c *Client) Commit(ctx context.Context, record timer.SessionRecord) error {
	path, body, err := c.encode(record)
	if err != nil {
		return &timer.CommitError{Reason: timer.ReasonApplication, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return &timer.CommitError{Reason: timer.ReasonTransport, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &timer.CommitError{Reason: timer.ReasonTransport, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &timer.CommitError{Reason: timer.ReasonTransport, Err: err}
	}

	var payload commitResponse
	if err := json.Unmarshal(data, &payload); err != nil {
		return &timer.CommitError{
			Reason: timer.ReasonApplication,
			Err:    fmt.Errorf("unreadable response (status %d): %w", resp.StatusCode, err),
		}
	}
	if resp.StatusCode >= 300 || !payload.Success {
		detail := payload.Error
		if detail == "" {
			detail = http.StatusText(resp.StatusCode)
		}
		return &timer.CommitError{
			Reason: timer.ReasonApplication,
			Err:    fmt.Errorf("backend rejected session (status %d): %s", resp.StatusCode, detail),
		}
	}
	return nil
}

func (c *Client) encode(record timer.SessionRecord) (string, []byte, error) {
	if !c.legacy {
		body, err := json.Marshal(sessionRequest{
			Surface:         record.Surface,
			ActivityKind:    record.ActivityKind,
			DurationMinutes: record.DurationMinutes,
			SessionToken:    record.Token,
		})
		return "/api/sessions", body, err
	}

	switch record.Surface {
	case timer.Workout.Name:
		body, err := json.Marshal(map[string]any{
			"exercise_type": record.ActivityKind,
			"duration":      record.DurationMinutes,
		})
		return "/api/save-workout", body, err
	case timer.Meditation.Name:
		body, err := json.Marshal(map[string]any{
			"meditation_type": record.ActivityKind,
			"duration":        record.DurationMinutes,
		})
		return "/api/save-meditation", body, err
	}
	return "", nil, errors.New("no legacy route for surface " + record.Surface)
}
