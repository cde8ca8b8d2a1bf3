package oidc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIssuerFromDiscoveryURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "full discovery URL",
			input:    "http://keycloak:8080/realms/pad/.well-known/openid-configuration",
			expected: "http://keycloak:8080/realms/pad",
		},
		{
			name:     "bare issuer",
			input:    "http://keycloak:8080/realms/pad",
			expected: "http://keycloak:8080/realms/pad",
		},
		{
			name:     "issuer with trailing slash",
			input:    "http://keycloak:8080/realms/pad/",
			expected: "http://keycloak:8080/realms/pad",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IssuerFromDiscoveryURL(tt.input))
		})
	}
}

func TestLogoutURL(t *testing.T) {
	p := &Provider{endSessionEndpoint: "http://keycloak:8080/realms/pad/protocol/openid-connect/logout"}

	url := p.LogoutURL("id-token", "https://pad.example.com")
	assert.Contains(t, url, "id_token_hint=id-token")
	assert.Contains(t, url, "post_logout_redirect_uri=https%3A%2F%2Fpad.example.com")

	assert.Empty(t, (&Provider{}).LogoutURL("id-token", "https://pad.example.com"))
}

func TestClaimsRoles(t *testing.T) {
	c := &Claims{}
	assert.NotNil(t, c.Roles())
	assert.False(t, c.HasRole("admin"))

	c.RealmAccess.Roles = []string{"user", "admin"}
	assert.True(t, c.HasRole("admin"))
	assert.False(t, c.HasRole("owner"))
}
