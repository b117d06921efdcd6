package oidc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/hashicorp/go-hclog"
)

// Profile is the set of claims the provider's userinfo endpoint returned for
// a user. Claim order is meaningless; "sub" is the required correlation key.
type Profile map[string]interface{}

// Subject returns the profile's sub claim, or "".
func (p Profile) Subject() string {
	s, _ := p["sub"].(string)
	return s
}

// UserSync keeps local user records in sync with provider identities: it
// fetches userinfo claims, transparently refreshes an expired token pair for
// a known user (at most once per call) and maps claims plus tokens onto
// local attributes for the store to persist.
type UserSync struct {
	provider *Provider
	store    UserStore
	logger   hclog.Logger
}

// NewUserSync creates a sync engine around a provider and the host
// application's user store.
func NewUserSync(p *Provider, store UserStore) (*UserSync, error) {
	const op = "oidc.NewUserSync"
	if p == nil {
		return nil, fmt.Errorf("%s: provider is nil: %w", op, ErrNilParameter)
	}
	if store == nil {
		return nil, fmt.Errorf("%s: user store is nil: %w", op, ErrNilParameter)
	}
	return &UserSync{provider: p, store: store, logger: p.logger}, nil
}

// FetchProfile gets the userinfo claims for an access token. A nil profile
// with a nil error means the provider turned the request down (the token is
// likely expired or invalid) — a soft failure the sync flow reacts to by
// refreshing. Transport failures are errors.
func (s *UserSync) FetchProfile(ctx context.Context, token AccessToken) (Profile, error) {
	const op = "UserSync.FetchProfile"
	if token == "" {
		return nil, nil
	}
	ep, err := s.provider.discover(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if ep.UserInfoEndpoint == "" {
		return nil, fmt.Errorf("%s: userinfo endpoint: %w", op, ErrMissingEndpoint)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ep.UserInfoEndpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to create userinfo request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+string(token))

	resp, err := s.provider.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: userinfo request failed: %w", op, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		s.logger.Debug("userinfo request turned down", "status", resp.StatusCode)
		return nil, nil
	}
	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("%s: unable to decode userinfo response: %w", op, err)
	}
	return profile, nil
}

// SyncUser finds-or-creates the local user for a token pair and updates it
// from the provider's userinfo claims.
//
// When an existing user is given without a pair, the pair is derived from the
// user's stored token attributes. When the userinfo fetch succeeds, the
// profile's sub claim resolves the target user through the store — the
// profile's identity is authoritative, not the caller-supplied record. When
// the fetch fails for a known user, the pair is refreshed once (a rejected
// refresh grant fails with ErrInvalidAuthorizationGrant) and the fetch
// retried; a second miss is final. A (nil, nil) return means there was
// nothing to persist.
func (s *UserSync) SyncUser(ctx context.Context, tokens *TokenPair, existing *User) (*User, error) {
	const op = "UserSync.SyncUser"
	c := s.provider.config
	if existing != nil && tokens == nil {
		tokens = existing.tokenPair(c)
	}

	var profile Profile
	if tokens != nil {
		p, err := s.FetchProfile(ctx, tokens.AccessToken)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		profile = p
	}

	user := existing
	switch {
	case profile != nil:
		sub := profile.Subject()
		if sub == "" {
			return nil, fmt.Errorf("%s: %w", op, ErrMissingSubClaim)
		}
		u, err := s.store.FindByExternalID(ctx, sub)
		if err != nil {
			return nil, fmt.Errorf("%s: user lookup by %q failed: %w", op, c.ExternalIDAttribute, err)
		}
		user = u
	case existing != nil:
		refreshed, err := s.provider.Refresh(ctx, RefreshToken(existing.StringAttribute(c.RefreshTokenAttribute)))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		s.logger.Debug("token pair refreshed after failed userinfo fetch")
		tokens = refreshed
		p, err := s.FetchProfile(ctx, tokens.AccessToken)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		profile = p
		// one refresh per call: a second miss falls through as final
	}

	if profile == nil {
		return nil, nil
	}

	stored, err := s.store.CreateOrUpdate(ctx, user, s.mapAttributes(profile, tokens))
	if err != nil {
		return nil, fmt.Errorf("%s: unable to persist user: %w", op, err)
	}
	reloaded, err := s.store.Reload(ctx, stored)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to reload user: %w", op, err)
	}
	return reloaded, nil
}

// mapAttributes produces the local attribute set for a sync: the token pair
// under the configured token attribute names plus every userinfo mapping
// entry resolved from the profile. A claim absent from the profile maps the
// local attribute to nil, it never fails.
func (s *UserSync) mapAttributes(profile Profile, tokens *TokenPair) map[string]interface{} {
	c := s.provider.config
	var access, refresh string
	if tokens != nil {
		access = string(tokens.AccessToken)
		refresh = string(tokens.RefreshToken)
	}
	attrs := make(map[string]interface{}, len(c.UserInfoMapping)+2)
	attrs[c.TokenAttribute] = access
	attrs[c.RefreshTokenAttribute] = refresh
	for local, claim := range c.UserInfoMapping {
		attrs[local] = profile[claim]
	}
	return attrs
}
