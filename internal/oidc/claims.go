package oidc

// Claims are the identity claims padws reads from verified tokens.
// Field names follow the standard OIDC claim set plus Keycloak's
// realm_access extension for roles.
type Claims struct {
	Subject           string      `json:"sub"`
	Email             string      `json:"email"`
	EmailVerified     bool        `json:"email_verified"`
	PreferredUsername string      `json:"preferred_username"`
	Name              string      `json:"name"`
	GivenName         string      `json:"given_name"`
	FamilyName        string      `json:"family_name"`
	RealmAccess       RealmAccess `json:"realm_access"`
}

// RealmAccess carries Keycloak realm role assignments.
type RealmAccess struct {
	Roles []string `json:"roles"`
}

// Roles returns the realm roles, never nil.
func (c *Claims) Roles() []string {
	if c.RealmAccess.Roles == nil {
		return []string{}
	}
	return c.RealmAccess.Roles
}

// HasRole reports whether the claims include the given realm role.
func (c *Claims) HasRole(role string) bool {
	for _, r := range c.RealmAccess.Roles {
		if r == role {
			return true
		}
	}
	return false
}
