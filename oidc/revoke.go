package oidc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// RevokeResult is the raw transport outcome of a revocation call. No local
// status translation happens here: callers decide how to react to a non-2xx.
type RevokeResult struct {
	StatusCode int
	Body       []byte
}

// revocationRequest is the JSON body the OAuth revocation endpoint expects.
type revocationRequest struct {
	Token        string `json:"token"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// Revoke invalidates a token with the provider. By default it POSTs the
// token, client id and client secret to the discovered revocation endpoint
// (success is a 200 with an empty JSON body). With WithAPISessionRevoke the
// provider session is destroyed instead via a bearer-authenticated DELETE on
// the sign out API endpoint (success is a 204).
// Supported options: WithAPISessionRevoke
func (p *Provider) Revoke(ctx context.Context, token AccessToken, opt ...Option) (*RevokeResult, error) {
	const op = "Provider.Revoke"
	if token == "" {
		return nil, fmt.Errorf("%s: token is empty: %w", op, ErrInvalidParameter)
	}
	opts := getRevokeOpts(opt...)

	var req *http.Request
	switch {
	case opts.withAPISessionRevoke:
		u := strings.TrimSuffix(p.config.ProviderBaseURL, "/") + "/api/sign_out"
		r, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
		if err != nil {
			return nil, fmt.Errorf("%s: unable to create sign out request: %w", op, err)
		}
		req = r
	default:
		ep, err := p.discover(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if ep.RevocationEndpoint == "" {
			return nil, fmt.Errorf("%s: revocation endpoint: %w", op, ErrMissingEndpoint)
		}
		body, err := json.Marshal(revocationRequest{
			Token:        string(token),
			ClientID:     p.config.ClientID,
			ClientSecret: string(p.config.ClientSecret),
		})
		if err != nil {
			return nil, fmt.Errorf("%s: unable to encode revocation request: %w", op, err)
		}
		r, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.RevocationEndpoint, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("%s: unable to create revocation request: %w", op, err)
		}
		r.Header.Set("Content-Type", "application/json")
		req = r
	}
	req.Header.Set("Authorization", "Bearer "+string(token))

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: revocation request failed: %w", op, err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to read revocation response: %w", op, err)
	}
	return &RevokeResult{StatusCode: resp.StatusCode, Body: b}, nil
}
