package webhook

import (
	"fmt"

	"github.com/golfgenius/ip-client-go/oidc"
	"github.com/golfgenius/ip-client-go/signature"
)

// webhookKinds binds the shared verification algorithm's failure modes to the
// webhook-specific sentinels.
func webhookKinds() signature.ErrorKinds {
	return signature.ErrorKinds{
		Missing:   ErrMissingWebhookSignature,
		Malformed: ErrMalformedWebhookSignature,
		Stale:     ErrStaleWebhookTimestamp,
		Invalid:   ErrInvalidWebhookSignature,
	}
}

// Validator verifies inbound webhook deliveries against the configured
// webhook secret key and webhook tolerance.
type Validator struct {
	conf *oidc.Config
}

// NewValidator creates a Validator for a validated config. The config must
// carry a webhook secret key unless every Validate call overrides the key.
func NewValidator(c *oidc.Config) (*Validator, error) {
	const op = "webhook.NewValidator"
	if c == nil {
		return nil, fmt.Errorf("%s: config is nil: %w", op, oidc.ErrNilParameter)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: config is invalid: %w", op, err)
	}
	return &Validator{conf: c}, nil
}

// Validate checks a delivery's IP-Signature header against its raw body. It
// fails with ErrMissingWebhookSignature, ErrMalformedWebhookSignature,
// ErrStaleWebhookTimestamp or ErrInvalidWebhookSignature; a nil return means
// the delivery is authentic and recent enough to process. Verification is
// one shot.
// Supported options: WithSigningKey, WithNow
func (v *Validator) Validate(header string, body []byte, opt ...Option) error {
	const op = "Validator.Validate"
	opts := getOpts(opt...)
	key := v.conf.WebhookSecretKey
	if opts.withSigningKey != "" {
		key = opts.withSigningKey
	}
	if key == "" {
		return fmt.Errorf("%s: no webhook signing key configured: %w", op, oidc.ErrInvalidParameter)
	}
	tolerance := v.conf.WebhookTolerance
	if tolerance == 0 {
		tolerance = oidc.DefaultWebhookTolerance
	}
	if err := signature.VerifyWithKinds(header, body, string(key), tolerance, webhookKinds(), opts.signatureOpts()...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
