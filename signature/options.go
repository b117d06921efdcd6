package signature

import "time"

// Option defines a common functional options type
type Option func(interface{})

// ApplyOpts takes a pointer to the options struct as a set of default options
// and applies the slice of opts as overrides.
func ApplyOpts(opts interface{}, opt ...Option) {
	for _, o := range opt {
		o(opts)
	}
}

// options is the set of available options for Sign and Verify
type options struct {
	withNowFunc func() time.Time
}

func defaults() options {
	return options{}
}

func getOpts(opt ...Option) options {
	opts := defaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// now returns the option's notion of the current time, defaulting to the
// system clock.
func (o options) now() time.Time {
	if o.withNowFunc != nil {
		return o.withNowFunc().UTC()
	}
	return time.Now().UTC()
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
