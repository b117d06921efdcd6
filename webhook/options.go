package webhook

import (
	"time"

	"github.com/golfgenius/ip-client-go/oidc"
	"github.com/golfgenius/ip-client-go/signature"
)

// Option defines a common functional options type
type Option func(interface{})

// ApplyOpts takes a pointer to the options struct as a set of default options
// and applies the slice of opts as overrides.
func ApplyOpts(opts interface{}, opt ...Option) {
	for _, o := range opt {
		o(opts)
	}
}

// options is the set of available options for Validate and FetchUserInfo
type options struct {
	withSigningKey oidc.ClientSecret
	withNowFunc    func() time.Time
}

func defaults() options {
	return options{}
}

func getOpts(opt ...Option) options {
	opts := defaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithSigningKey provides an optional signing key overriding the configured
// webhook secret, for providers that issue per-webhook keys.
func WithSigningKey(key oidc.ClientSecret) Option {
	return func(o interface{}) {
		if o, ok := o.(*options); ok {
			o.withSigningKey = key
		}
	}
}

// WithNow provides an optional func for determining what the current time is,
// which is handy for deterministic tests.
func WithNow(nowFunc func() time.Time) Option {
	return func(o interface{}) {
		if o, ok := o.(*options); ok {
			o.withNowFunc = nowFunc
		}
	}
}

// signatureOpts converts the applied options into options for the signature
// package's clock.
func (o options) signatureOpts() []signature.Option {
	if o.withNowFunc == nil {
		return nil
	}
	return []signature.Option{signature.WithNow(o.withNowFunc)}
}
