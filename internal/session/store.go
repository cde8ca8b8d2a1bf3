// Package session stores authenticated browser sessions in Redis.
// Each session maps the session_id cookie to the OIDC token set
// obtained at login, so any server replica can serve any session.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"padws/pkg/logging"

	"github.com/redis/go-redis/v9"
)

// tokenExpiryMargin is the margin applied when checking token
// expiration. It accounts for clock skew between systems and network
// latency.
const tokenExpiryMargin = 30 * time.Second

const (
	sessionKeyPrefix = "session:"
	eventsKeyPrefix  = "session-events:"
	counterKeyPrefix = "event-count:"

	// maxEventsPerSession caps the per-session event trail.
	maxEventsPerSession = 100
)

// Data is the token set stored for an authenticated session.
type Data struct {
	// AccessToken is the bearer token presented to the resource server.
	AccessToken string `json:"access_token"`

	// RefreshToken is used to obtain new access tokens (optional).
	RefreshToken string `json:"refresh_token,omitempty"`

	// IDToken is the raw ID token, kept for RP-initiated logout.
	IDToken string `json:"id_token,omitempty"`

	// TokenType is typically "Bearer".
	TokenType string `json:"token_type,omitempty"`

	// ExpiresAt is when the access token expires.
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// IsExpired checks whether the access token has expired, or will
// within the clock-skew margin.
func (d *Data) IsExpired() bool {
	if d.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().Add(tokenExpiryMargin).After(d.ExpiresAt)
}

// ExpiresIn returns the remaining access token lifetime in seconds,
// clamped at zero.
func (d *Data) ExpiresIn() int {
	if d.ExpiresAt.IsZero() {
		return 0
	}
	remaining := time.Until(d.ExpiresAt)
	if remaining < 0 {
		return 0
	}
	return int(remaining.Seconds())
}

// Store is a Redis-backed session store.
type Store struct {
	client *redis.Client

	// fallbackTTL is applied when a token set carries no expiry.
	fallbackTTL time.Duration
}

// NewStore creates a session store on top of the given Redis client.
func NewStore(client *redis.Client, fallbackTTL time.Duration) *Store {
	if fallbackTTL <= 0 {
		fallbackTTL = time.Hour
	}
	return &Store{client: client, fallbackTTL: fallbackTTL}
}

// NewSessionID returns a fresh cryptographically random session ID.
func NewSessionID() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating session ID: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Set stores the session data. The Redis key lives slightly longer
// than the access token so an expired session can still be refreshed.
func (s *Store) Set(ctx context.Context, sessionID string, data *Data) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	ttl := s.fallbackTTL
	if !data.ExpiresAt.IsZero() {
		if remaining := time.Until(data.ExpiresAt); remaining > 0 {
			// Keep the session around past token expiry so the refresh
			// token stays reachable.
			ttl = remaining + 24*time.Hour
		}
	}

	if err := s.client.Set(ctx, sessionKeyPrefix+sessionID, payload, ttl).Err(); err != nil {
		return fmt.Errorf("storing session: %w", err)
	}
	logging.Debug("Session", "Stored session id=%s (expires: %v)", sessionID, data.ExpiresAt)
	return nil
}

// Get retrieves session data. A missing or expired key returns
// (nil, nil); corrupt entries are deleted and treated as missing.
func (s *Store) Get(ctx context.Context, sessionID string) (*Data, error) {
	payload, err := s.client.Get(ctx, sessionKeyPrefix+sessionID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	var data Data
	if err := json.Unmarshal(payload, &data); err != nil {
		logging.Warn("Session", "Dropping corrupt session id=%s: %v", sessionID, err)
		_ = s.client.Del(ctx, sessionKeyPrefix+sessionID).Err()
		return nil, nil
	}
	return &data, nil
}

// Delete removes a session and its event trail.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+sessionID, eventsKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	logging.Debug("Session", "Deleted session id=%s", sessionID)
	return nil
}

// sessionEvent is one entry in the per-session event trail.
type sessionEvent struct {
	Name string    `json:"name"`
	At   time.Time `json:"at"`
}

// TrackEvent records a named event (login, logout, refresh) against the
// session and bumps the global counter for that event name. Failures
// are logged, not returned; event tracking never blocks a login.
func (s *Store) TrackEvent(ctx context.Context, sessionID, name string) {
	entry, err := json.Marshal(sessionEvent{Name: name, At: time.Now().UTC()})
	if err != nil {
		return
	}

	pipe := s.client.Pipeline()
	pipe.LPush(ctx, eventsKeyPrefix+sessionID, entry)
	pipe.LTrim(ctx, eventsKeyPrefix+sessionID, 0, maxEventsPerSession-1)
	pipe.Incr(ctx, counterKeyPrefix+name)
	if _, err := pipe.Exec(ctx); err != nil {
		logging.Warn("Session", "Failed to track event %s for session=%s: %v", name, sessionID, err)
	}
}

// EventCount returns the global counter for an event name.
func (s *Store) EventCount(ctx context.Context, name string) (int64, error) {
	n, err := s.client.Get(ctx, counterKeyPrefix+name).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}

// Ping verifies the Redis connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
