// Package oidc implements the OpenID Connect authorization-code flow
// against a discovery-capable identity provider (Keycloak in the
// reference deployment). It wraps provider discovery, code exchange,
// refresh grants, and token verification.
package oidc

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"padws/internal/config"
	"padws/pkg/logging"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

const discoverySuffix = "/.well-known/openid-configuration"

// Provider wraps a discovered OIDC provider and the OAuth2 client
// configuration used for the authorization-code flow.
type Provider struct {
	provider *gooidc.Provider
	oauth    oauth2.Config

	// endSessionEndpoint is the RP-initiated logout endpoint, empty if
	// the provider doesn't advertise one.
	endSessionEndpoint string

	idTokenVerifier *gooidc.IDTokenVerifier
	// accessVerifier validates access tokens. Keycloak issues JWT access
	// tokens with aud=account, so the client ID check is skipped here.
	accessVerifier *gooidc.IDTokenVerifier
}

// providerClaims captures discovery fields go-oidc does not expose
// directly.
type providerClaims struct {
	EndSessionEndpoint string `json:"end_session_endpoint"`
}

// New discovers the provider behind cfg.DiscoveryURL and builds the
// OAuth2 client configuration. Discovery failure is returned as an
// error; callers treat it as fatal at startup.
func New(ctx context.Context, cfg config.OIDCConfig) (*Provider, error) {
	issuer := IssuerFromDiscoveryURL(cfg.DiscoveryURL)

	provider, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("OIDC discovery failed for %s: %w", issuer, err)
	}

	var claims providerClaims
	if err := provider.Claims(&claims); err != nil {
		logging.Warn("OIDC", "Could not read extra provider claims: %v", err)
	}

	p := &Provider{
		provider: provider,
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Endpoint:     provider.Endpoint(),
			Scopes:       cfg.Scopes,
		},
		endSessionEndpoint: claims.EndSessionEndpoint,
		idTokenVerifier:    provider.Verifier(&gooidc.Config{ClientID: cfg.ClientID}),
		accessVerifier:     provider.Verifier(&gooidc.Config{SkipClientIDCheck: true}),
	}

	logging.Info("OIDC", "Discovered provider issuer=%s (end_session=%v)", issuer, claims.EndSessionEndpoint != "")
	return p, nil
}

// IssuerFromDiscoveryURL derives the issuer base URL from a full
// discovery document URL. A URL without the well-known suffix is
// assumed to already be the issuer.
func IssuerFromDiscoveryURL(discoveryURL string) string {
	return strings.TrimSuffix(strings.TrimSuffix(discoveryURL, "/"), discoverySuffix)
}

// AuthCodeURL builds the authorization URL for the given encoded state.
// A non-empty idpHint is forwarded as kc_idp_hint so Keycloak can skip
// straight to a brokered identity provider.
func (p *Provider) AuthCodeURL(state, idpHint string) string {
	var opts []oauth2.AuthCodeOption
	if idpHint != "" {
		opts = append(opts, oauth2.SetAuthURLParam("kc_idp_hint", idpHint))
	}
	return p.oauth.AuthCodeURL(state, opts...)
}

// Exchange trades an authorization code for a token set.
func (p *Provider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}
	return token, nil
}

// Refresh performs a refresh-token grant and returns the new token set.
func (p *Provider) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("no refresh token available")
	}
	src := p.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("token refresh failed: %w", err)
	}
	return token, nil
}

// VerifyAccessToken validates the access token signature, issuer, and
// expiry against the provider's JWKS and returns its claims.
func (p *Provider) VerifyAccessToken(ctx context.Context, accessToken string) (*Claims, error) {
	verified, err := p.accessVerifier.Verify(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("invalid access token: %w", err)
	}
	var claims Claims
	if err := verified.Claims(&claims); err != nil {
		return nil, fmt.Errorf("decoding token claims: %w", err)
	}
	return &claims, nil
}

// VerifyIDToken validates a raw ID token, including the audience check.
func (p *Provider) VerifyIDToken(ctx context.Context, rawIDToken string) (*Claims, error) {
	verified, err := p.idTokenVerifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("invalid ID token: %w", err)
	}
	var claims Claims
	if err := verified.Claims(&claims); err != nil {
		return nil, fmt.Errorf("decoding token claims: %w", err)
	}
	return &claims, nil
}

// LogoutURL builds the RP-initiated logout URL. Returns empty when the
// provider advertises no end-session endpoint.
func (p *Provider) LogoutURL(idTokenHint, postLogoutRedirectURI string) string {
	if p.endSessionEndpoint == "" {
		return ""
	}
	params := url.Values{}
	if idTokenHint != "" {
		params.Set("id_token_hint", idTokenHint)
	}
	if postLogoutRedirectURI != "" {
		params.Set("post_logout_redirect_uri", postLogoutRedirectURI)
	}
	return p.endSessionEndpoint + "?" + params.Encode()
}
