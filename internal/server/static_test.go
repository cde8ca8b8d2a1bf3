package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasPrefixSegment(t *testing.T) {
	assert.True(t, hasPrefixSegment("/api", "/api"))
	assert.True(t, hasPrefixSegment("/api/pad", "/api"))
	assert.True(t, hasPrefixSegment("/auth/login", "/auth"))
	assert.False(t, hasPrefixSegment("/apiary", "/api"))
	assert.False(t, hasPrefixSegment("/pad/abc", "/api"))
	assert.False(t, hasPrefixSegment("/", "/api"))
}
