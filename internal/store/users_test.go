package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserIDFromSubjectIsDeterministic(t *testing.T) {
	a := UserIDFromSubject("keycloak-sub-1")
	b := UserIDFromSubject("keycloak-sub-1")
	c := UserIDFromSubject("keycloak-sub-2")

	assert.Equal(t, a, b, "same subject must always map to the same ID")
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a.String(), "00000000-0000-0000-0000-000000000000")
}
