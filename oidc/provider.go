package oidc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golfgenius/ip-client-go/cache"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/oauth2"
)

// Endpoints is the subset of the provider's discovery document the client
// uses.
type Endpoints struct {
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	UserInfoEndpoint      string `json:"userinfo_endpoint"`
	EndSessionEndpoint    string `json:"end_session_endpoint"`
	RevocationEndpoint    string `json:"revocation_endpoint"`
}

// Provider integrates with the Identity Provider using the 3-legged OIDC
// authorization code flow: it builds authorization URLs, exchanges codes for
// token pairs, refreshes pairs, revokes tokens and builds the logout URL.
//
// The memoized discovery document is the only shared mutable state; a single
// discovery fetch satisfies concurrent first access and the memo is refetched
// only once DiscoveryTTL elapses, never invalidated by application logic. All
// other operations are stateless with respect to each other.
type Provider struct {
	config *Config
	client *http.Client
	cache  cache.Cache
	logger hclog.Logger

	mu        sync.Mutex
	endpoints *Endpoints
	expiresAt time.Time
}

// NewProvider creates a Provider from a validated config. No network request
// is made until the first operation needs the discovery document.
// Supported options: WithCache
func NewProvider(c *Config, opt ...Option) (*Provider, error) {
	const op = "oidc.NewProvider"
	if c == nil {
		return nil, fmt.Errorf("%s: config is nil: %w", op, ErrNilParameter)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: config is invalid: %w", op, err)
	}
	client, err := c.HTTPClient()
	if err != nil {
		return nil, fmt.Errorf("%s: unable to create http client: %w", op, err)
	}
	opts := getProviderOpts(opt...)
	return &Provider{
		config: c,
		client: client,
		cache:  opts.withCache,
		logger: c.logger(),
	}, nil
}

// Config returns the provider's configuration.
func (p *Provider) Config() *Config {
	return p.config
}

func discoveryCacheKey(clientID string) string {
	return "discovery:" + clientID
}

// discover returns the provider's endpoints, fetching the discovery document
// at most once per DiscoveryTTL. An injected cache shares the document across
// processes; without one every expiry refetches, which is slower but
// functionally the same.
func (p *Provider) discover(ctx context.Context) (*Endpoints, error) {
	const op = "Provider.discover"
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.config.now()
	if p.endpoints != nil && now.Before(p.expiresAt) {
		return p.endpoints, nil
	}
	ttl := p.config.DiscoveryTTL
	if ttl == 0 {
		ttl = DefaultDiscoveryTTL
	}
	key := discoveryCacheKey(p.config.ClientID)
	if p.cache != nil {
		if b, ok := p.cache.Get(ctx, key); ok {
			var ep Endpoints
			if err := json.Unmarshal(b, &ep); err == nil {
				p.endpoints = &ep
				p.expiresAt = now.Add(ttl)
				return p.endpoints, nil
			}
			// an undecodable entry is treated as a miss and left to expire
		}
	}

	provider, err := oidc.NewProvider(HTTPClientContext(ctx, p.client), p.config.ProviderBaseURL)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to discover provider configuration: %w", op, err)
	}
	var ep Endpoints
	if err := provider.Claims(&ep); err != nil {
		return nil, fmt.Errorf("%s: unable to decode provider configuration: %w", op, err)
	}
	if ep.TokenEndpoint == "" {
		return nil, fmt.Errorf("%s: token endpoint: %w", op, ErrMissingEndpoint)
	}
	p.logger.Debug("discovered provider endpoints", "issuer", p.config.ProviderBaseURL)

	p.endpoints = &ep
	p.expiresAt = now.Add(ttl)
	if p.cache != nil {
		if b, err := json.Marshal(&ep); err == nil {
			p.cache.Set(ctx, key, b, ttl)
		}
	}
	return p.endpoints, nil
}

// oauthConfig composes the oauth2 config for the discovered endpoints. Client
// credentials ride in the request body, which is the style the provider's
// token endpoint expects.
func (p *Provider) oauthConfig(ep *Endpoints, scopes []string) oauth2.Config {
	return oauth2.Config{
		ClientID:     p.config.ClientID,
		ClientSecret: string(p.config.ClientSecret),
		RedirectURL:  p.config.RedirectURL,
		Scopes:       scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   ep.AuthorizationEndpoint,
			TokenURL:  ep.TokenEndpoint,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// AuthorizationURL generates the URL that kicks off the authorization code
// flow: the discovered authorization endpoint with response_type=code, the
// client id, the redirect URL and the requested scopes ("openid" always).
// Supported options: WithScopes, WithState
func (p *Provider) AuthorizationURL(ctx context.Context, opt ...Option) (string, error) {
	const op = "Provider.AuthorizationURL"
	ep, err := p.discover(ctx)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if ep.AuthorizationEndpoint == "" {
		return "", fmt.Errorf("%s: authorization endpoint: %w", op, ErrMissingEndpoint)
	}
	opts := getAuthURLOpts(opt...)
	scopes := append([]string{oidc.ScopeOpenID}, opts.withScopes...)
	oauth2Config := p.oauthConfig(ep, scopes)
	return oauth2Config.AuthCodeURL(opts.withState), nil
}

// ExchangeCode performs the authorization code grant against the provider's
// token endpoint and returns the issued token pair.
//
// A nil pair with a nil error means the provider rejected the code (invalid,
// expired, revoked, redirect mismatch or wrong client): authentication
// failed and the caller should restart the flow. That rejection is an
// expected user-facing event, so it is deliberately not an error. Transport
// failures are errors.
func (p *Provider) ExchangeCode(ctx context.Context, code string) (*TokenPair, error) {
	const op = "Provider.ExchangeCode"
	if code == "" {
		return nil, fmt.Errorf("%s: authorization code is empty: %w", op, ErrInvalidParameter)
	}
	ep, err := p.discover(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	oauth2Config := p.oauthConfig(ep, []string{oidc.ScopeOpenID})

	tk, err := oauth2Config.Exchange(HTTPClientContext(ctx, p.client), code)
	if err != nil {
		var rErr *oauth2.RetrieveError
		if errors.As(err, &rErr) {
			p.logger.Debug("provider rejected authorization code",
				"status", rErr.Response.StatusCode, "error", rErr.ErrorCode)
			return nil, nil
		}
		return nil, fmt.Errorf("%s: unable to exchange auth code with provider: %w", op, err)
	}
	return &TokenPair{
		AccessToken:  AccessToken(tk.AccessToken),
		RefreshToken: RefreshToken(tk.RefreshToken),
	}, nil
}

// Refresh performs the refresh token grant and returns the renewed pair; the
// old pair should be discarded. Unlike ExchangeCode, a provider error payload
// (e.g. invalid_grant) fails with ErrInvalidAuthorizationGrant: the stored
// credential is unusable and the caller must force re-authentication.
func (p *Provider) Refresh(ctx context.Context, refreshToken RefreshToken) (*TokenPair, error) {
	const op = "Provider.Refresh"
	if refreshToken == "" {
		return nil, fmt.Errorf("%s: refresh token is empty: %w", op, ErrInvalidParameter)
	}
	ep, err := p.discover(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	oauth2Config := p.oauthConfig(ep, nil)

	src := oauth2Config.TokenSource(HTTPClientContext(ctx, p.client), &oauth2.Token{
		RefreshToken: string(refreshToken),
	})
	tk, err := src.Token()
	if err != nil {
		var rErr *oauth2.RetrieveError
		if errors.As(err, &rErr) {
			p.logger.Debug("provider rejected refresh grant",
				"status", rErr.Response.StatusCode, "error", rErr.ErrorCode)
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidAuthorizationGrant)
		}
		return nil, fmt.Errorf("%s: unable to refresh token with provider: %w", op, err)
	}
	return &TokenPair{
		AccessToken:  AccessToken(tk.AccessToken),
		RefreshToken: RefreshToken(tk.RefreshToken),
	}, nil
}

// LogoutURL builds the provider-side logout URL: the discovered end session
// endpoint with the application root as the post sign-out redirect. It
// complements (and does not replace) API-level revocation.
func (p *Provider) LogoutURL(ctx context.Context) (string, error) {
	const op = "Provider.LogoutURL"
	if p.config.RootURL == "" {
		return "", fmt.Errorf("%s: root URL is empty: %w", op, ErrInvalidParameter)
	}
	ep, err := p.discover(ctx)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if ep.EndSessionEndpoint == "" {
		return "", fmt.Errorf("%s: end session endpoint: %w", op, ErrMissingEndpoint)
	}
	u, err := url.Parse(ep.EndSessionEndpoint)
	if err != nil {
		return "", fmt.Errorf("%s: end session endpoint %s is invalid: %w", op, ep.EndSessionEndpoint, err)
	}
	q := u.Query()
	q.Set("post_sign_out_redirect_url", p.config.RootURL)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// providerOptions is the set of available options for NewProvider
type providerOptions struct {
	withCache cache.Cache
}

func providerDefaults() providerOptions {
	return providerOptions{}
}

func getProviderOpts(opt ...Option) providerOptions {
	opts := providerDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithCache provides an optional cache backend for sharing the discovery
// document across application instances. The cache entry is keyed per client
// id and expires with the discovery TTL.
func WithCache(c cache.Cache) Option {
	return func(o interface{}) {
		if o, ok := o.(*providerOptions); ok {
			o.withCache = c
		}
	}
}
