package signature

import "errors"

var (
	ErrInvalidParameter = errors.New("invalid parameter")

	// Request-context verification failures. The webhook package defines its
	// own set of kinds for the webhook context.
	ErrMissingSignature   = errors.New("missing signature")
	ErrMalformedSignature = errors.New("malformed signature")
	ErrStaleTimestamp     = errors.New("signature timestamp is stale")
	ErrInvalidSignature   = errors.New("invalid signature")
)

// ErrorKinds binds the verification failure modes to caller-owned sentinel
// errors, so request and webhook verification remain distinguishable with
// errors.Is even though they share one algorithm.
type ErrorKinds struct {
	// Missing is returned when the signature header is empty or absent.
	Missing error

	// Malformed is returned when the header cannot be decoded.
	Malformed error

	// Stale is returned when the signed-at timestamp is older than the
	// tolerance allows.
	Stale error

	// Invalid is returned when the recomputed signature does not match.
	Invalid error
}

// requestKinds are the kinds used for generic inbound signed API requests.
func requestKinds() ErrorKinds {
	return ErrorKinds{
		Missing:   ErrMissingSignature,
		Malformed: ErrMalformedSignature,
		Stale:     ErrStaleTimestamp,
		Invalid:   ErrInvalidSignature,
	}
}
