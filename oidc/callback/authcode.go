package callback

import (
	"context"
	"fmt"
	"net/http"

	"github.com/golfgenius/ip-client-go/oidc"
)

// AuthCode creates an authorization code callback handler: it reads the
// provider's response parameters, exchanges the code for a token pair and
// syncs the local user record.
//
// The SuccessResponseFunc is used to create a response when the callback is
// successful. The ErrorResponseFunc is used to create a response when the
// callback fails, including when the provider rejected the code (an error
// wrapping oidc.ErrLoginFailed).
func AuthCode(ctx context.Context, p *oidc.Provider, sync *oidc.UserSync, sFn SuccessResponseFunc, eFn ErrorResponseFunc) (http.HandlerFunc, error) {
	const op = "callback.AuthCode"
	if p == nil {
		return nil, fmt.Errorf("%s: provider is nil: %w", op, oidc.ErrNilParameter)
	}
	if sync == nil {
		return nil, fmt.Errorf("%s: user sync is nil: %w", op, oidc.ErrNilParameter)
	}
	if sFn == nil {
		return nil, fmt.Errorf("%s: success response func is nil: %w", op, oidc.ErrNilParameter)
	}
	if eFn == nil {
		return nil, fmt.Errorf("%s: error response func is nil: %w", op, oidc.ErrNilParameter)
	}
	return func(w http.ResponseWriter, req *http.Request) {
		// get parameters from either the body or query parameters.
		// FormValue prioritizes body values, if found
		reqState := req.FormValue("state")

		if respErr := req.FormValue("error"); respErr != "" {
			reqError := &AuthenErrorResponse{
				Error:       respErr,
				Description: req.FormValue("error_description"),
				Uri:         req.FormValue("error_uri"),
			}
			eFn(reqState, reqError, nil, w, req)
			return
		}

		reqCode := req.FormValue("code")
		if reqCode == "" {
			eFn(reqState, nil, fmt.Errorf("%s: authorization code is missing: %w", op, oidc.ErrInvalidParameter), w, req)
			return
		}

		tokens, err := p.ExchangeCode(ctx, reqCode)
		if err != nil {
			eFn(reqState, nil, fmt.Errorf("%s: unable to exchange authorization code: %w", op, err), w, req)
			return
		}
		if tokens == nil {
			// the provider turned the code down: authentication failed
			eFn(reqState, nil, fmt.Errorf("%s: %w", op, oidc.ErrLoginFailed), w, req)
			return
		}

		u, err := sync.SyncUser(ctx, tokens, nil)
		if err != nil {
			eFn(reqState, nil, fmt.Errorf("%s: unable to sync user: %w", op, err), w, req)
			return
		}
		sFn(reqState, u, tokens, w, req)
	}, nil
}
