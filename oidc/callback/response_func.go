package callback

import (
	"net/http"

	"github.com/golfgenius/ip-client-go/oidc"
)

// SuccessResponseFunc is used by AuthCode to create a http response when the
// callback is successful.
//
// The state parameter is the oauth state returned with the authentication
// response. The user is the synced local record and the pair is the result of
// the code exchange. The function should use the http.ResponseWriter to send
// back whatever content (headers, html, JSON, etc) it wishes to the client
// that originated the flow.
type SuccessResponseFunc func(state string, u *oidc.User, tokens *oidc.TokenPair, w http.ResponseWriter, req *http.Request)

// ErrorResponseFunc is used by AuthCode to create a http response when the
// callback fails.
//
// It receives the oauth state returned with the response, the provider's
// authentication error response when the provider reported the failure and/or
// the error raised while processing the callback.
type ErrorResponseFunc func(state string, respErr *AuthenErrorResponse, e error, w http.ResponseWriter, req *http.Request)

// AuthenErrorResponse represents Oauth2 error responses. See:
// https://openid.net/specs/openid-connect-core-1_0.html#AuthError
type AuthenErrorResponse struct {
	Error       string
	Description string
	Uri         string
}
