package oidc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	sdkHttp "github.com/golfgenius/ip-client-go/sdk/http"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
)

type ClientSecret string

// RedactedClientSecret is the redacted string or json for an oauth client secret
const RedactedClientSecret = "[REDACTED: client secret]"

// String will redact the client secret
func (t ClientSecret) String() string {
	return RedactedClientSecret
}

// MarshalJSON will redact the client secret
func (t ClientSecret) MarshalJSON() ([]byte, error) {
	return json.Marshal(RedactedClientSecret)
}

const (
	// DefaultRequestTolerance is the max age of a signed API request when no
	// tolerance is configured.
	DefaultRequestTolerance = 5 * time.Minute

	// DefaultWebhookTolerance is the max age of a signed webhook delivery
	// when no tolerance is configured.
	DefaultWebhookTolerance = 5 * time.Minute

	// DefaultDiscoveryTTL is how long a discovered set of provider endpoints
	// is reused before it is refetched.
	DefaultDiscoveryTTL = 24 * time.Hour

	// DefaultRequestTimeout bounds every http request to the provider.
	DefaultRequestTimeout = 30 * time.Second

	DefaultTokenAttribute        = "oauth_token"
	DefaultRefreshTokenAttribute = "oauth_refresh_token"
	DefaultExternalIDAttribute   = "external_id"
)

// Config is the process-wide configuration for the Identity Provider
// integration. It is constructed once at startup via NewConfig and treated as
// read-only afterwards.
type Config struct {
	// ClientID is the relying party id issued by the provider
	ClientID string

	// ClientSecret is the relying party secret issued by the provider
	ClientSecret ClientSecret

	// RedirectURL is where the provider sends the user back with an
	// authorization code
	RedirectURL string

	// ProviderBaseURL is the provider's issuer: scheme, host, optionally port
	// and path, no query or fragment. Discovery, webhooks and API calls are
	// all rooted here.
	ProviderBaseURL string

	// RootURL is this application's root, used as the post sign-out redirect
	// when building the provider logout URL
	RootURL string

	// RequestTolerance is the max age of an inbound signed API request
	RequestTolerance time.Duration

	// WebhookTolerance is the max age of an inbound webhook delivery. It is
	// configured independently of RequestTolerance, the two are never
	// conflated.
	WebhookTolerance time.Duration

	// WebhookSecretKey signs and verifies webhook traffic
	WebhookSecretKey ClientSecret

	// TokenAttribute is the local user attribute the access token is stored
	// under
	TokenAttribute string

	// RefreshTokenAttribute is the local user attribute the refresh token is
	// stored under
	RefreshTokenAttribute string

	// ExternalIDAttribute is the local user attribute holding the provider's
	// sub claim, the correlation key between local users and provider
	// identities
	ExternalIDAttribute string

	// UserInfoMapping maps local user attribute names to provider claim
	// names. Claims absent from a profile map the local attribute to nil.
	UserInfoMapping map[string]string

	// ProviderCA is an optional CA cert PEM to use when sending requests to
	// the provider
	ProviderCA string

	// RequestTimeout bounds every http request made to the provider
	RequestTimeout time.Duration

	// DiscoveryTTL is how long discovered endpoints are reused
	DiscoveryTTL time.Duration

	// Logger receives debug-level notes about discovery, soft exchange
	// failures and refresh attempts. Defaults to a null logger.
	Logger hclog.Logger

	// NowFunc is an optional time source, handy for deterministic tests
	NowFunc func() time.Time
}

// NewConfig composes a validated config for the integration.
// Supported options: WithRootURL, WithRequestTolerance, WithWebhookTolerance,
// WithWebhookSecretKey, WithAttributeNames, WithUserInfoMapping,
// WithProviderCA, WithRequestTimeout, WithDiscoveryTTL, WithLogger,
// WithNowFunc
func NewConfig(providerBaseURL string, clientID string, clientSecret ClientSecret, redirectURL string, opt ...Option) (*Config, error) {
	const op = "oidc.NewConfig"
	opts := getConfigOpts(opt...)
	c := &Config{
		ProviderBaseURL:       providerBaseURL,
		ClientID:              clientID,
		ClientSecret:          clientSecret,
		RedirectURL:           redirectURL,
		RootURL:               opts.withRootURL,
		RequestTolerance:      opts.withRequestTolerance,
		WebhookTolerance:      opts.withWebhookTolerance,
		WebhookSecretKey:      opts.withWebhookSecretKey,
		TokenAttribute:        opts.withTokenAttribute,
		RefreshTokenAttribute: opts.withRefreshTokenAttribute,
		ExternalIDAttribute:   opts.withExternalIDAttribute,
		UserInfoMapping:       opts.withUserInfoMapping,
		ProviderCA:            opts.withProviderCA,
		RequestTimeout:        opts.withRequestTimeout,
		DiscoveryTTL:          opts.withDiscoveryTTL,
		Logger:                opts.withLogger,
		NowFunc:               opts.withNowFunc,
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: invalid config: %w", op, err)
	}
	return c, nil
}

// Validate the configuration. All four provider credentials (client id,
// client secret, redirect URL, provider base URL) must be set before any
// network operation is attempted, and the configured attribute names must
// resolve unambiguously (no userinfo mapping entry may shadow the token
// attributes).
func (c *Config) Validate() error {
	const op = "oidc.Validate"
	if c == nil {
		return fmt.Errorf("%s: config is nil: %w", op, ErrNilParameter)
	}
	var result *multierror.Error
	if c.ClientID == "" {
		result = multierror.Append(result, fmt.Errorf("client id is empty: %w", ErrInvalidParameter))
	}
	if c.ClientSecret == "" {
		result = multierror.Append(result, fmt.Errorf("client secret is empty: %w", ErrInvalidParameter))
	}
	if c.RedirectURL == "" {
		result = multierror.Append(result, fmt.Errorf("redirect URL is empty: %w", ErrInvalidParameter))
	}
	switch {
	case c.ProviderBaseURL == "":
		result = multierror.Append(result, fmt.Errorf("provider base URL is empty: %w", ErrInvalidParameter))
	default:
		u, err := url.Parse(c.ProviderBaseURL)
		switch {
		case err != nil:
			result = multierror.Append(result, fmt.Errorf("provider base URL %s is invalid: %w", c.ProviderBaseURL, err))
		case u.Scheme != "http" && u.Scheme != "https":
			result = multierror.Append(result, fmt.Errorf("provider base URL %s scheme is not http or https: %w", c.ProviderBaseURL, ErrInvalidParameter))
		}
	}
	if c.RequestTolerance < 0 {
		result = multierror.Append(result, fmt.Errorf("request tolerance is negative: %w", ErrInvalidParameter))
	}
	if c.WebhookTolerance < 0 {
		result = multierror.Append(result, fmt.Errorf("webhook tolerance is negative: %w", ErrInvalidParameter))
	}
	if c.TokenAttribute == "" {
		result = multierror.Append(result, fmt.Errorf("token attribute name is empty: %w", ErrInvalidParameter))
	}
	if c.RefreshTokenAttribute == "" {
		result = multierror.Append(result, fmt.Errorf("refresh token attribute name is empty: %w", ErrInvalidParameter))
	}
	if c.TokenAttribute != "" && c.TokenAttribute == c.RefreshTokenAttribute {
		result = multierror.Append(result, fmt.Errorf("token and refresh token attribute names are both %q: %w", c.TokenAttribute, ErrInvalidParameter))
	}
	if c.ExternalIDAttribute == "" {
		result = multierror.Append(result, fmt.Errorf("external id attribute name is empty: %w", ErrInvalidParameter))
	}
	for local, claim := range c.UserInfoMapping {
		if local == "" {
			result = multierror.Append(result, fmt.Errorf("userinfo mapping has an empty local attribute name: %w", ErrInvalidParameter))
		}
		if claim == "" {
			result = multierror.Append(result, fmt.Errorf("userinfo mapping for %q has an empty claim name: %w", local, ErrInvalidParameter))
		}
		if local == c.TokenAttribute || local == c.RefreshTokenAttribute {
			result = multierror.Append(result, fmt.Errorf("userinfo mapping for %q shadows a token attribute: %w", local, ErrInvalidParameter))
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// HTTPClient creates an http client for the provider configured, honoring
// ProviderCA and RequestTimeout.
func (c *Config) HTTPClient() (*http.Client, error) {
	const op = "Config.HTTPClient"
	timeout := c.RequestTimeout
	if timeout == 0 {
		timeout = DefaultRequestTimeout
	}
	client, err := sdkHttp.NewClient(c.ProviderCA, timeout)
	if err != nil {
		if errors.Is(err, sdkHttp.ErrInvalidCertificatePem) {
			return nil, fmt.Errorf("%s: could not parse CA PEM value: %w", op, ErrInvalidCACert)
		}
		return nil, fmt.Errorf("%s: could not get an http client: %w", op, err)
	}
	return client, nil
}

// now returns the config's notion of the current time, in UTC.
func (c *Config) now() time.Time {
	if c.NowFunc != nil {
		return c.NowFunc().UTC()
	}
	return time.Now().UTC()
}

// logger returns the configured logger or a null logger.
func (c *Config) logger() hclog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return hclog.NewNullLogger()
}

// HTTPClientContext is a helper function that returns a new Context that
// carries the provided HTTP client. This method sets the same context key used
// by the github.com/coreos/go-oidc and golang.org/x/oauth2 packages, so the
// returned context works for those packages as well.
func HTTPClientContext(ctx context.Context, client *http.Client) context.Context {
	// simple to implement as a wrapper for the coreos package
	return oidc.ClientContext(ctx, client)
}

// configOptions is the set of available options for NewConfig
type configOptions struct {
	withRootURL               string
	withRequestTolerance      time.Duration
	withWebhookTolerance      time.Duration
	withWebhookSecretKey      ClientSecret
	withTokenAttribute        string
	withRefreshTokenAttribute string
	withExternalIDAttribute   string
	withUserInfoMapping       map[string]string
	withProviderCA            string
	withRequestTimeout        time.Duration
	withDiscoveryTTL          time.Duration
	withLogger                hclog.Logger
	withNowFunc               func() time.Time
}

// configDefaults is a handy way to get the defaults at runtime and during
// unit tests.
func configDefaults() configOptions {
	return configOptions{
		withRequestTolerance:      DefaultRequestTolerance,
		withWebhookTolerance:      DefaultWebhookTolerance,
		withTokenAttribute:        DefaultTokenAttribute,
		withRefreshTokenAttribute: DefaultRefreshTokenAttribute,
		withExternalIDAttribute:   DefaultExternalIDAttribute,
		withRequestTimeout:        DefaultRequestTimeout,
		withDiscoveryTTL:          DefaultDiscoveryTTL,
	}
}

// getConfigOpts gets the defaults and applies the opt overrides passed in.
func getConfigOpts(opt ...Option) configOptions {
	opts := configDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithRootURL provides the application root used as the post sign-out
// redirect in the provider logout URL.
func WithRootURL(u string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withRootURL = u
		}
	}
}

// WithRequestTolerance provides an optional max age for inbound signed API
// requests.
func WithRequestTolerance(d time.Duration) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withRequestTolerance = d
		}
	}
}

// WithWebhookTolerance provides an optional max age for inbound webhook
// deliveries.
func WithWebhookTolerance(d time.Duration) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withWebhookTolerance = d
		}
	}
}

// WithWebhookSecretKey provides the shared secret signing webhook traffic.
func WithWebhookSecretKey(key ClientSecret) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withWebhookSecretKey = key
		}
	}
}

// WithAttributeNames provides the local user attribute names the access
// token, refresh token and external id are stored under.
func WithAttributeNames(token, refreshToken, externalID string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withTokenAttribute = token
			o.withRefreshTokenAttribute = refreshToken
			o.withExternalIDAttribute = externalID
		}
	}
}

// WithUserInfoMapping provides the local-attribute to provider-claim mapping
// applied when syncing users.
func WithUserInfoMapping(mapping map[string]string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withUserInfoMapping = mapping
		}
	}
}

// WithProviderCA provides an optional CA cert PEM for the provider's config
func WithProviderCA(cert string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withProviderCA = cert
		}
	}
}

// WithRequestTimeout provides an optional timeout for requests made to the
// provider.
func WithRequestTimeout(d time.Duration) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withRequestTimeout = d
		}
	}
}

// WithDiscoveryTTL provides an optional lifetime for discovered provider
// endpoints.
func WithDiscoveryTTL(d time.Duration) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withDiscoveryTTL = d
		}
	}
}

// WithLogger provides an optional hclog.Logger.
func WithLogger(l hclog.Logger) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withLogger = l
		}
	}
}

// WithNowFunc provides an optional func for determining what the current time
// is, which is handy for deterministic tests.
func WithNowFunc(nowFunc func() time.Time) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withNowFunc = nowFunc
		}
	}
}
