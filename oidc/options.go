package oidc

// Option defines a common functional options type
type Option func(interface{})

// ApplyOpts takes a pointer to the options struct as a set of default options
// and applies the slice of opts as overrides.
func ApplyOpts(opts interface{}, opt ...Option) {
	for _, o := range opt {
		o(opts)
	}
}

// WithScopes provides optional scopes to request in addition to the required
// "openid" scope.
func WithScopes(scopes ...string) Option {
	return func(o interface{}) {
		if o, ok := o.(*authURLOptions); ok {
			o.withScopes = scopes
		}
	}
}

// WithState provides an optional oauth state parameter for an authorization
// URL, so callers running a callback endpoint can correlate the response.
func WithState(state string) Option {
	return func(o interface{}) {
		if o, ok := o.(*authURLOptions); ok {
			o.withState = state
		}
	}
}

// authURLOptions is the set of available options for Provider.AuthorizationURL
type authURLOptions struct {
	withScopes []string
	withState  string
}

func authURLDefaults() authURLOptions {
	return authURLOptions{}
}

func getAuthURLOpts(opt ...Option) authURLOptions {
	opts := authURLDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithAPISessionRevoke opts for destroying the provider session via the sign
// out API endpoint instead of the OAuth revocation endpoint.
func WithAPISessionRevoke() Option {
	return func(o interface{}) {
		if o, ok := o.(*revokeOptions); ok {
			o.withAPISessionRevoke = true
		}
	}
}

// revokeOptions is the set of available options for Provider.Revoke
type revokeOptions struct {
	withAPISessionRevoke bool
}

func revokeDefaults() revokeOptions {
	return revokeOptions{}
}

func getRevokeOpts(opt ...Option) revokeOptions {
	opts := revokeDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}
