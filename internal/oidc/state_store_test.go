package oidc

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateState(t *testing.T) {
	ss := NewStateStore()
	defer ss.Stop()

	encoded, err := ss.GenerateState("session-123", LoginModePopup)
	require.NoError(t, err)
	require.NotEmpty(t, encoded)

	state := ss.ValidateState(encoded)
	require.NotNil(t, state)
	assert.Equal(t, "session-123", state.SessionID)
	assert.Equal(t, LoginModePopup, state.Mode)
}

func TestStateIsSingleUse(t *testing.T) {
	ss := NewStateStore()
	defer ss.Stop()

	encoded, err := ss.GenerateState("session-123", LoginModeDefault)
	require.NoError(t, err)

	require.NotNil(t, ss.ValidateState(encoded))
	assert.Nil(t, ss.ValidateState(encoded), "state must not be replayable")
}

func TestValidateStateRejectsGarbage(t *testing.T) {
	ss := NewStateStore()
	defer ss.Stop()

	assert.Nil(t, ss.ValidateState("not-base64!!"))
	assert.Nil(t, ss.ValidateState(base64.URLEncoding.EncodeToString([]byte("not json"))))
}

func TestValidateStateUnknownNonce(t *testing.T) {
	ss := NewStateStore()
	defer ss.Stop()

	// A well-formed state the store never issued.
	encoded, err := ss.GenerateState("session-123", LoginModeDefault)
	require.NoError(t, err)

	other := NewStateStore()
	defer other.Stop()
	assert.Nil(t, other.ValidateState(encoded))
}

func TestValidateStateExpired(t *testing.T) {
	ss := NewStateStore()
	defer ss.Stop()
	ss.stateExpiry = time.Millisecond

	encoded, err := ss.GenerateState("session-123", LoginModeDefault)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	assert.Nil(t, ss.ValidateState(encoded))
}

func TestGenerateStateDefaultsMode(t *testing.T) {
	ss := NewStateStore()
	defer ss.Stop()

	encoded, err := ss.GenerateState("session-123", "")
	require.NoError(t, err)

	state := ss.ValidateState(encoded)
	require.NotNil(t, state)
	assert.Equal(t, LoginModeDefault, state.Mode)
}
