package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Sign produces a signed-message envelope for an outbound payload: the
// current UTC time is captured, the canonical string is MACed with the key
// and the result is encoded as "t=<unix>,signed_payload=<hex>". It is a pure
// function of the clock, the payload and the key.
//
// Supported options: WithNow
func Sign(payload []byte, key string, opt ...Option) (string, error) {
	const op = "signature.Sign"
	if key == "" {
		return "", fmt.Errorf("%s: signing key is empty: %w", op, ErrInvalidParameter)
	}
	opts := getOpts(opt...)
	now := opts.now()
	return Encode(now, hexDigest(key, canonicalString(now, payload))), nil
}

// hexDigest is an HMAC-SHA256 of msg keyed with key, hex encoded lowercase.
func hexDigest(key, msg string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(msg))
	return hex.EncodeToString(mac.Sum(nil))
}
