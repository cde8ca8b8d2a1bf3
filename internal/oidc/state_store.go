package oidc

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"sync"
	"time"

	"padws/pkg/logging"
)

// LoginModePopup marks logins started from the frontend popup window;
// the callback then serves the popup-close page instead of redirecting.
const (
	LoginModeDefault = "default"
	LoginModePopup   = "popup"
)

// LoginState is the state parameter data carried through the
// authorization-code flow. It links the provider callback back to the
// session that started the login.
type LoginState struct {
	// SessionID is the session cookie value set when login started.
	SessionID string `json:"session_id"`

	// Mode selects the post-callback behavior (default or popup).
	Mode string `json:"mode"`

	// Nonce is a random value for CSRF protection.
	Nonce string `json:"nonce"`

	// CreatedAt is when the state was created (for expiration).
	CreatedAt time.Time `json:"created_at"`
}

// StateStore provides thread-safe storage for login state parameters.
// States are single-use and expire so a callback URL cannot be
// replayed.
//
// States live in process memory, unlike sessions: the login redirect
// and its callback must land on the same replica. Multi-replica
// deployments need sticky routing for /auth, or this store moved to
// Redis next to the sessions.
type StateStore struct {
	mu     sync.RWMutex
	states map[string]*LoginState

	stateExpiry time.Duration
	stopCleanup chan struct{}
}

// NewStateStore creates a new state store with default expiration.
func NewStateStore() *StateStore {
	ss := &StateStore{
		states:      make(map[string]*LoginState),
		stateExpiry: 10 * time.Minute,
		stopCleanup: make(chan struct{}),
	}

	go ss.cleanupLoop()

	return ss
}

// GenerateState creates a new login state and stores it. Returns the
// encoded state string to include in the authorization URL.
func (ss *StateStore) GenerateState(sessionID, mode string) (string, error) {
	nonce := make([]byte, 32)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	if mode == "" {
		mode = LoginModeDefault
	}

	state := &LoginState{
		SessionID: sessionID,
		Mode:      mode,
		Nonce:     base64.URLEncoding.EncodeToString(nonce),
		CreatedAt: time.Now(),
	}

	stateJSON, err := json.Marshal(state)
	if err != nil {
		return "", err
	}

	encodedState := base64.URLEncoding.EncodeToString(stateJSON)

	ss.mu.Lock()
	ss.states[state.Nonce] = state
	ss.mu.Unlock()

	logging.Debug("OIDC", "Generated login state for session=%s mode=%s", sessionID, mode)
	return encodedState, nil
}

// ValidateState validates a state parameter from a callback. Returns
// the original state data if valid, nil if invalid or expired. Valid
// states are consumed to prevent replay.
func (ss *StateStore) ValidateState(encodedState string) *LoginState {
	stateJSON, err := base64.URLEncoding.DecodeString(encodedState)
	if err != nil {
		logging.Warn("OIDC", "Failed to decode state: %v", err)
		return nil
	}

	var state LoginState
	if err := json.Unmarshal(stateJSON, &state); err != nil {
		logging.Warn("OIDC", "Failed to unmarshal state: %v", err)
		return nil
	}

	ss.mu.RLock()
	storedState, exists := ss.states[state.Nonce]
	ss.mu.RUnlock()

	if !exists {
		logging.Warn("OIDC", "State not found in store: nonce=%s", state.Nonce)
		return nil
	}

	if time.Since(storedState.CreatedAt) > ss.stateExpiry {
		logging.Warn("OIDC", "State expired: nonce=%s age=%v", state.Nonce, time.Since(storedState.CreatedAt))
		ss.Delete(state.Nonce)
		return nil
	}

	ss.Delete(state.Nonce)

	return storedState
}

// Delete removes a state from the store.
func (ss *StateStore) Delete(nonce string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	delete(ss.states, nonce)
}

// Stop stops the background cleanup goroutine.
func (ss *StateStore) Stop() {
	close(ss.stopCleanup)
}

// cleanupLoop periodically removes expired states from the store.
func (ss *StateStore) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ss.cleanup()
		case <-ss.stopCleanup:
			return
		}
	}
}

// cleanup removes all expired states from the store.
func (ss *StateStore) cleanup() {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	count := 0
	for nonce, state := range ss.states {
		if time.Since(state.CreatedAt) > ss.stateExpiry {
			delete(ss.states, nonce)
			count++
		}
	}

	if count > 0 {
		logging.Debug("OIDC", "Cleaned up %d expired login states", count)
	}
}
