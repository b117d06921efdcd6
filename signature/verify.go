package signature

import (
	"crypto/hmac"
	"fmt"
	"time"
)

// Verify validates an inbound signed-message envelope against the payload it
// claims to cover. It fails with ErrMissingSignature when the header is
// empty, ErrMalformedSignature when the envelope cannot be decoded,
// ErrStaleTimestamp when the signed-at time is older than the tolerance and
// ErrInvalidSignature when the recomputed signature does not match.
// Verification is one shot: there are no retry semantics.
//
// Timestamps from the future are accepted; only staleness is bounded.
//
// Supported options: WithNow
func Verify(header string, payload []byte, key string, tolerance time.Duration, opt ...Option) error {
	return VerifyWithKinds(header, payload, key, tolerance, requestKinds(), opt...)
}

// VerifyWithKinds is Verify with the failure modes bound to caller-owned
// sentinels, so another verification context (webhooks) can report its own
// error kinds while sharing the algorithm.
func VerifyWithKinds(header string, payload []byte, key string, tolerance time.Duration, kinds ErrorKinds, opt ...Option) error {
	const op = "signature.Verify"
	if header == "" {
		return fmt.Errorf("%s: signature header is empty: %w", op, kinds.Missing)
	}
	signedAt, signatureHex, err := decode(header, kinds.Malformed)
	if err != nil {
		return err
	}
	opts := getOpts(opt...)
	if signedAt.Before(opts.now().Add(-tolerance)) {
		return fmt.Errorf("%s: signed at %s which exceeds the %s tolerance: %w", op, signedAt.Format(time.RFC3339), tolerance, kinds.Stale)
	}
	expected := hexDigest(key, canonicalString(signedAt, payload))
	if !hmac.Equal([]byte(expected), []byte(signatureHex)) {
		return fmt.Errorf("%s: %w", op, kinds.Invalid)
	}
	return nil
}
