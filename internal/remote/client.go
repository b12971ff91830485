// Package remote is the device-side client of the LiftLog backend. It
// implements workout.Persistence over the backend's REST API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/workout"
)

const maxAttempts = 3

// Compile-time check: Client satisfies workout.Persistence.
var _ workout.Persistence = (*Client)(nil)

// Client calls the LiftLog backend over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	backoff    func(attempt int) time.Duration
}

// NewClient creates a client targeting baseURL, authenticating with apiKey.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		backoff: func(attempt int) time.Duration {
			return time.Duration(1<<uint(attempt-1)) * time.Second
		},
	}
}

// StatusError is returned when the backend answers with an unexpected status.
type StatusError struct {
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote: %s returned %d: %s", e.Path, e.Status, e.Body)
}

// retryable reports whether a status is worth another attempt.
func retryable(status int) bool {
	return status >= 500 || status == http.StatusTooManyRequests
}

// do sends the request, retrying transport errors and 5xx responses up to
// three times with exponential backoff. want is the expected status.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, in any, want int) ([]byte, error) {
	var data []byte
	if in != nil {
		var err error
		data, err = json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("remote: marshaling request: %w", err)
		}
	}
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var lastErr error
	for attempt := range maxAttempts {
		if attempt > 0 {
			select {
			case <-time.After(c.backoff(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, u, bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("remote: create request: %w", err)
		}
		if data != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.apiKey != "" {
			req.Header.Set("X-API-Key", c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("remote: %s: %w", path, err)
			continue
		}
		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("remote: read body: %w", err)
			continue
		}

		if resp.StatusCode == want {
			return body, nil
		}
		lastErr = &StatusError{Path: path, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		if !retryable(resp.StatusCode) {
			return nil, lastErr
		}
	}
	return nil, fmt.Errorf("after %d attempts: %w", maxAttempts, lastErr)
}

type createSessionRequest struct {
	Name       string `json:"name"`
	TemplateID string `json:"template_id,omitempty"`
}

type createSessionResponse struct {
	ID string `json:"id"`
}

// CreateSession allocates a backend session and returns its id.
func (c *Client) CreateSession(ctx context.Context, name, templateID string) (string, error) {
	body, err := c.do(ctx, http.MethodPost, "/api/v1/sessions", nil,
		createSessionRequest{Name: name, TemplateID: templateID}, http.StatusCreated)
	if err != nil {
		return "", err
	}
	var resp createSessionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("remote: decode session: %w", err)
	}
	return resp.ID, nil
}

type logSetRequest struct {
	ExerciseName string `json:"exercise_name"`
	models.SetWrite
}

// LogSet records one completed set of a session.
func (c *Client) LogSet(ctx context.Context, sessionID, exerciseName string, set models.SetWrite) error {
	path := "/api/v1/sessions/" + url.PathEscape(sessionID) + "/sets"
	_, err := c.do(ctx, http.MethodPost, path, nil,
		logSetRequest{ExerciseName: exerciseName, SetWrite: set}, http.StatusCreated)
	return err
}

// CompleteSession stamps the session with its final aggregates.
func (c *Client) CompleteSession(ctx context.Context, sessionID string, comp models.Completion) error {
	path := "/api/v1/sessions/" + url.PathEscape(sessionID) + "/complete"
	_, err := c.do(ctx, http.MethodPost, path, nil, comp, http.StatusOK)
	return err
}

// GetExerciseHistory returns the last weight and reps per exercise. The
// backend resolves the user from the caller's identity.
func (c *Client) GetExerciseHistory(ctx context.Context, _ int) ([]models.ExerciseHistory, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/v1/exercises/history", nil, nil, http.StatusOK)
	if err != nil {
		return nil, err
	}
	var rows []models.ExerciseHistory
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("remote: decode history: %w", err)
	}
	return rows, nil
}

// ListSessions returns the most recent sessions, newest first.
func (c *Client) ListSessions(ctx context.Context, limit int) ([]models.SessionRow, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	body, err := c.do(ctx, http.MethodGet, "/api/v1/sessions", params, nil, http.StatusOK)
	if err != nil {
		return nil, err
	}
	var rows []models.SessionRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("remote: decode sessions: %w", err)
	}
	return rows, nil
}

// GetSession returns one session with its sets.
func (c *Client) GetSession(ctx context.Context, sessionID string) (*models.SessionDetail, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/v1/sessions/"+url.PathEscape(sessionID), nil, nil, http.StatusOK)
	if err != nil {
		return nil, err
	}
	var detail models.SessionDetail
	if err := json.Unmarshal(body, &detail); err != nil {
		return nil, fmt.Errorf("remote: decode session detail: %w", err)
	}
	return &detail, nil
}
