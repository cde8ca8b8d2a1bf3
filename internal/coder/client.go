// Package coder is an HTTP client for the Coder v2 API, covering the
// slice padws needs: mirroring users and driving workspace lifecycle.
package coder

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
	"time"

	"padws/internal/config"
	"padws/internal/metrics"
	"padws/internal/oidc"
	"padws/pkg/logging"
)

// sessionTokenHeader carries the API key on every request.
const sessionTokenHeader = "Coder-Session-Token"

// Client talks to a Coder deployment.
type Client struct {
	baseURL        string
	apiKey         string
	organizationID string
	templateID     string
	workspaceName  string
	maxRetries     int
	httpClient     *http.Client
}

// NewClient creates a Coder API client from configuration.
func NewClient(cfg config.CoderConfig) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Client{
		baseURL:        strings.TrimSuffix(cfg.URL, "/"),
		apiKey:         cfg.APIKey,
		organizationID: cfg.OrganizationID,
		templateID:     cfg.TemplateID,
		workspaceName:  cfg.WorkspaceName,
		maxRetries:     maxRetries,
		httpClient:     &http.Client{Timeout: timeout},
	}
}

// do performs one API request and decodes the JSON response into out
// (when non-nil). GETs are retried on transport errors and 5xx
// responses; mutating requests are not.
func (c *Client) do(ctx context.Context, operation, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("coder: encoding %s request: %w", operation, err)
		}
	}

	attempts := 1
	if method == http.MethodGet {
		attempts += c.maxRetries
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * 500 * time.Millisecond
			logging.Debug("Coder", "Retrying %s (attempt %d) after %v", operation, attempt+1, backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		err := c.doOnce(ctx, operation, method, path, payload, out)
		if err == nil {
			metrics.CoderRequests.WithLabelValues(operation, "ok").Inc()
			return nil
		}
		lastErr = err

		if !retryable(err) {
			break
		}
	}

	metrics.CoderRequests.WithLabelValues(operation, "error").Inc()
	return lastErr
}

func (c *Client) doOnce(ctx context.Context, operation, method, path string, payload []byte, out any) error {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("coder: building %s request: %w", operation, err)
	}
	req.Header.Set(sessionTokenHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("coder: %s request failed: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Operation:  operation,
			Message:    readErrorMessage(resp.Body),
		}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("coder: decoding %s response: %w", operation, err)
		}
	}
	return nil
}

// readErrorMessage pulls the message out of a Coder error body.
func readErrorMessage(body io.Reader) string {
	var errBody struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return ""
	}
	if json.Unmarshal(data, &errBody) == nil && errBody.Message != "" {
		if errBody.Detail != "" {
			return errBody.Message + ": " + errBody.Detail
		}
		return errBody.Message
	}
	return strings.TrimSpace(string(data))
}

// retryable reports whether the request may be retried: transport
// errors and 5xx responses qualify, auth and client errors do not.
func retryable(err error) bool {
	if errors.Is(err, ErrUnauthorized) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500
	}
	// Transport-level failure.
	return true
}

// GetUser fetches a Coder user by username.
func (c *Client) GetUser(ctx context.Context, username string) (*User, error) {
	var user User
	err := c.do(ctx, "get_user", http.MethodGet, "/api/v2/users/"+url.PathEscape(username), nil, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// EnsureUser mirrors the authenticated identity into Coder, creating
// the user on first login. Returns the Coder user and whether it was
// created by this call.
func (c *Client) EnsureUser(ctx context.Context, claims *oidc.Claims) (*User, bool, error) {
	username := claims.PreferredUsername
	if username == "" {
		return nil, false, fmt.Errorf("coder: cannot ensure user without preferred_username claim")
	}

	user, err := c.GetUser(ctx, username)
	if err == nil {
		return user, false, nil
	}
	if !IsNotFound(err) {
		return nil, false, err
	}

	var created User
	createErr := c.do(ctx, "create_user", http.MethodPost, "/api/v2/users", createUserRequest{
		Email:          claims.Email,
		Username:       username,
		LoginType:      "oidc",
		OrganizationID: c.organizationID,
	}, &created)
	if createErr != nil {
		return nil, false, createErr
	}

	logging.Info("Coder", "Created coder user %s", username)
	return &created, true, nil
}

// GetWorkspace fetches the user's pad workspace by its well-known
// name.
func (c *Client) GetWorkspace(ctx context.Context, username string) (*Workspace, error) {
	var ws Workspace
	path := fmt.Sprintf("/api/v2/users/%s/workspace/%s",
		url.PathEscape(username), url.PathEscape(c.workspaceName))
	if err := c.do(ctx, "get_workspace", http.MethodGet, path, nil, &ws); err != nil {
		return nil, err
	}
	return &ws, nil
}

// EnsureWorkspace provisions the user's workspace from the configured
// template if it doesn't exist yet. Returns the workspace and whether
// it was created by this call.
func (c *Client) EnsureWorkspace(ctx context.Context, username string) (*Workspace, bool, error) {
	ws, err := c.GetWorkspace(ctx, username)
	if err == nil {
		return ws, false, nil
	}
	if !IsNotFound(err) {
		return nil, false, err
	}

	start := time.Now()
	var created Workspace
	path := fmt.Sprintf("/api/v2/organizations/%s/members/%s/workspaces",
		url.PathEscape(c.organizationID), url.PathEscape(username))
	createErr := c.do(ctx, "create_workspace", http.MethodPost, path, createWorkspaceRequest{
		Name:       c.workspaceName,
		TemplateID: c.templateID,
	}, &created)
	if createErr != nil {
		return nil, false, createErr
	}
	metrics.WorkspaceProvisionDuration.Observe(time.Since(start).Seconds())

	logging.Info("Coder", "Provisioned workspace %s for user %s", c.workspaceName, username)
	return &created, true, nil
}

// WorkspaceState returns the coarse lifecycle state of the user's
// workspace.
func (c *Client) WorkspaceState(ctx context.Context, username string) (State, error) {
	ws, err := c.GetWorkspace(ctx, username)
	if err != nil {
		return StateUnknown, err
	}
	return StateFromBuild(ws.LatestBuild), nil
}

// StartWorkspace requests a start transition. Starting an
// already-running (or starting) workspace is a no-op.
func (c *Client) StartWorkspace(ctx context.Context, username string) (State, error) {
	return c.transition(ctx, username, "start", StateRunning, StateStarting)
}

// StopWorkspace requests a stop transition. Stopping an
// already-stopped (or stopping) workspace is a no-op.
func (c *Client) StopWorkspace(ctx context.Context, username string) (State, error) {
	return c.transition(ctx, username, "stop", StateStopped, StateStopping)
}

func (c *Client) transition(ctx context.Context, username, transition string, settled, pending State) (State, error) {
	ws, err := c.GetWorkspace(ctx, username)
	if err != nil {
		return StateUnknown, err
	}

	state := StateFromBuild(ws.LatestBuild)
	if state == settled || state == pending {
		return state, nil
	}

	var build Build
	path := fmt.Sprintf("/api/v2/workspaces/%s/builds", url.PathEscape(ws.ID))
	if err := c.do(ctx, transition+"_workspace", http.MethodPost, path, buildRequest{Transition: transition}, &build); err != nil {
		return state, err
	}

	logging.Info("Coder", "Requested %s of workspace %s for user %s", transition, ws.Name, username)
	return StateFromBuild(build), nil
}
