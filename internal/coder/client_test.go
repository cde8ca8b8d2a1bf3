package coder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"padws/internal/config"
	"padws/internal/oidc"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(config.CoderConfig{
		URL:            srv.URL,
		APIKey:         "test-key",
		OrganizationID: "org-1",
		TemplateID:     "tmpl-1",
		WorkspaceName:  "pad",
	})
}

func TestStateFromBuild(t *testing.T) {
	tests := []struct {
		status   string
		expected State
	}{
		{"running", StateRunning},
		{"pending", StateStarting},
		{"starting", StateStarting},
		{"stopping", StateStopping},
		{"canceling", StateStopping},
		{"stopped", StateStopped},
		{"canceled", StateStopped},
		{"deleted", StateStopped},
		{"failed", StateError},
		{"something-new", StateUnknown},
		{"", StateUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, StateFromBuild(Build{Status: tt.status}), "status %q", tt.status)
	}
}

func TestGetUserSendsSessionToken(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("Coder-Session-Token"))
		assert.Equal(t, "/api/v2/users/alice", r.URL.Path)
		json.NewEncoder(w).Encode(User{ID: "u1", Username: "alice"})
	}))

	user, err := c.GetUser(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
}

func TestGetUserUnauthorized(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := c.GetUser(context.Background(), "alice")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestEnsureUserCreatesOnMissing(t *testing.T) {
	var created bool
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"message": "no such user"})
		case r.Method == http.MethodPost && r.URL.Path == "/api/v2/users":
			var req struct {
				Username  string `json:"username"`
				LoginType string `json:"login_type"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "alice", req.Username)
			assert.Equal(t, "oidc", req.LoginType)
			created = true
			json.NewEncoder(w).Encode(User{ID: "u1", Username: "alice"})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))

	user, wasCreated, err := c.EnsureUser(context.Background(), &oidc.Claims{
		PreferredUsername: "alice",
		Email:             "alice@example.com",
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, wasCreated)
	assert.Equal(t, "alice", user.Username)
}

func TestEnsureUserExisting(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		json.NewEncoder(w).Encode(User{ID: "u1", Username: "alice"})
	}))

	_, wasCreated, err := c.EnsureUser(context.Background(), &oidc.Claims{PreferredUsername: "alice"})
	require.NoError(t, err)
	assert.False(t, wasCreated)
}

func TestEnsureUserRequiresUsername(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))

	_, _, err := c.EnsureUser(context.Background(), &oidc.Claims{})
	assert.Error(t, err)
}

func TestStartWorkspaceIsNoOpWhenRunning(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method, "a running workspace must not be rebuilt")
		json.NewEncoder(w).Encode(Workspace{
			ID:          "ws-1",
			Name:        "pad",
			LatestBuild: Build{Status: "running"},
		})
	}))

	state, err := c.StartWorkspace(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, StateRunning, state)
}

func TestStartWorkspaceTransitions(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			json.NewEncoder(w).Encode(Workspace{
				ID:          "ws-1",
				Name:        "pad",
				LatestBuild: Build{Status: "stopped"},
			})
		case r.Method == http.MethodPost:
			assert.Equal(t, "/api/v2/workspaces/ws-1/builds", r.URL.Path)
			var req struct {
				Transition string `json:"transition"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "start", req.Transition)
			json.NewEncoder(w).Encode(Build{ID: "b2", Status: "pending", Transition: "start"})
		}
	}))

	state, err := c.StartWorkspace(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, StateStarting, state)
}

func TestStopWorkspaceIsNoOpWhenStopped(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		json.NewEncoder(w).Encode(Workspace{
			ID:          "ws-1",
			LatestBuild: Build{Status: "stopped"},
		})
	}))

	state, err := c.StopWorkspace(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, StateStopped, state)
}

func TestWorkspaceNotFound(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"message": "workspace not found"})
	}))

	_, err := c.GetWorkspace(context.Background(), "alice")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "workspace not found")
}

func TestGetRetriesOn5xx(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(User{Username: "alice"})
	}))
	t.Cleanup(srv.Close)

	c := NewClient(config.CoderConfig{
		URL:        srv.URL,
		APIKey:     "k",
		MaxRetries: 2,
	})

	user, err := c.GetUser(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, 2, calls)
}

func TestPostIsNotRetried(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(config.CoderConfig{URL: srv.URL, APIKey: "k", MaxRetries: 3})

	err := c.do(context.Background(), "create_user", http.MethodPost, "/api/v2/users", createUserRequest{}, nil)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
