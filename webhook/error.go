package webhook

import "errors"

var (
	// ErrMissingWebhookSignature means the delivery carried no IP-Signature
	// header.
	ErrMissingWebhookSignature = errors.New("missing webhook signature")

	// ErrMalformedWebhookSignature means the IP-Signature header could not be
	// decoded.
	ErrMalformedWebhookSignature = errors.New("malformed webhook signature")

	// ErrStaleWebhookTimestamp means the delivery was signed longer ago than
	// the webhook tolerance allows.
	ErrStaleWebhookTimestamp = errors.New("webhook signature timestamp is stale")

	// ErrInvalidWebhookSignature means the recomputed signature did not match
	// the delivered one.
	ErrInvalidWebhookSignature = errors.New("invalid webhook signature")
)
