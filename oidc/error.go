package oidc

import (
	"errors"
)

var (
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrNilParameter     = errors.New("nil parameter")
	ErrInvalidCACert    = errors.New("invalid CA certificate")
	ErrMissingEndpoint  = errors.New("endpoint is missing from the provider's discovery document")
	ErrMissingSubClaim  = errors.New("sub claim is missing from the provider profile")
	ErrLoginFailed      = errors.New("login failed")

	// ErrInvalidAuthorizationGrant is terminal: the stored refresh credential
	// is unusable and the user must be sent through authentication again.
	ErrInvalidAuthorizationGrant = errors.New("authorization grant is invalid, expired, revoked, or was issued to another client")

	// ErrInvalidRequest reports a downstream API call the provider rejected.
	// The wrapping error carries the provider's human-readable message.
	ErrInvalidRequest = errors.New("request rejected by the identity provider")
)
