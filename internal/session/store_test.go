package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataIsExpired(t *testing.T) {
	d := &Data{}
	assert.False(t, d.IsExpired(), "zero expiry never expires")

	d.ExpiresAt = time.Now().Add(time.Hour)
	assert.False(t, d.IsExpired())

	d.ExpiresAt = time.Now().Add(-time.Minute)
	assert.True(t, d.IsExpired())

	// Within the clock-skew margin counts as expired.
	d.ExpiresAt = time.Now().Add(10 * time.Second)
	assert.True(t, d.IsExpired())
}

func TestDataExpiresIn(t *testing.T) {
	d := &Data{}
	assert.Equal(t, 0, d.ExpiresIn())

	d.ExpiresAt = time.Now().Add(90 * time.Second)
	assert.InDelta(t, 90, d.ExpiresIn(), 2)

	d.ExpiresAt = time.Now().Add(-time.Minute)
	assert.Equal(t, 0, d.ExpiresIn())
}

func TestNewSessionID(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id, err := NewSessionID()
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(id), 40)
		assert.False(t, seen[id], "session IDs must be unique")
		seen[id] = true
	}
}
