package signature

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Header is the HTTP header carrying the signed-message envelope on both
// outbound API calls and inbound webhooks.
const Header = "IP-Signature"

const (
	timestampPrefix = "t="
	payloadPrefix   = "signed_payload="
)

// Encode renders the signed-message envelope for a timestamp and a
// hex-encoded signature. It is deterministic and has no side effects.
func Encode(t time.Time, signatureHex string) string {
	return timestampPrefix + strconv.FormatInt(t.Unix(), 10) + "," + payloadPrefix + signatureHex
}

// Decode splits an envelope back into its timestamp and hex-encoded
// signature. The envelope must contain exactly the "t=" field followed by the
// "signed_payload=" field, comma separated; anything else fails with
// ErrMalformedSignature.
func Decode(raw string) (time.Time, string, error) {
	return decode(raw, ErrMalformedSignature)
}

func decode(raw string, malformed error) (time.Time, string, error) {
	const op = "signature.Decode"
	tsField, sigField, found := strings.Cut(raw, ",")
	if !found {
		return time.Time{}, "", fmt.Errorf("%s: missing field separator: %w", op, malformed)
	}
	ts, ok := strings.CutPrefix(tsField, timestampPrefix)
	if !ok {
		return time.Time{}, "", fmt.Errorf("%s: missing %q prefix: %w", op, timestampPrefix, malformed)
	}
	sig, ok := strings.CutPrefix(sigField, payloadPrefix)
	if !ok {
		return time.Time{}, "", fmt.Errorf("%s: missing %q prefix: %w", op, payloadPrefix, malformed)
	}
	sec, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("%s: timestamp %q is not an integer: %w", op, ts, malformed)
	}
	return time.Unix(sec, 0).UTC(), sig, nil
}

// canonicalString is the byte sequence both parties MAC: the decimal unix
// seconds, a dot, then the payload. Signer and verifier must agree on this
// rendering byte for byte, so the timestamp is always the unix integer, never
// a formatted time.
func canonicalString(t time.Time, payload []byte) string {
	return strconv.FormatInt(t.Unix(), 10) + "." + string(payload)
}
