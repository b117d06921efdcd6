package oidc

import "encoding/json"

// AccessToken is an oauth access_token
type AccessToken string

// RedactedAccessToken is the redacted string or json for an oauth access_token
const RedactedAccessToken = "[REDACTED: access_token]"

// String will redact the token
func (t AccessToken) String() string {
	return RedactedAccessToken
}

// MarshalJSON will redact the token
func (t AccessToken) MarshalJSON() ([]byte, error) {
	return json.Marshal(RedactedAccessToken)
}

// RefreshToken is an oauth refresh_token
type RefreshToken string

// RedactedRefreshToken is the redacted string or json for an oauth refresh_token
const RedactedRefreshToken = "[REDACTED: refresh_token]"

// String will redact the token
func (t RefreshToken) String() string {
	return RedactedRefreshToken
}

// MarshalJSON will redact the token
func (t RefreshToken) MarshalJSON() ([]byte, error) {
	return json.Marshal(RedactedRefreshToken)
}

// TokenPair is the opaque bearer credential pair issued by the provider. No
// expiry is tracked locally; an expired access token surfaces as a failed
// userinfo fetch. A refresh produces a new TokenPair and the old one is
// discarded, a pair is never mutated in place.
type TokenPair struct {
	AccessToken  AccessToken
	RefreshToken RefreshToken
}

// Valid reports whether the pair carries an access token at all.
func (t *TokenPair) Valid() bool {
	return t != nil && t.AccessToken != ""
}
