package oidc

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/golfgenius/ip-client-go/sdk/id"
	"github.com/stretchr/testify/require"
)

// TestProvider is a local server with test Identity Provider capabilities
// which make writing tests much easier: discovery, the authorization code and
// refresh token grants, userinfo, revocation and the sign out API, all backed
// by in-memory knobs and counters.
type TestProvider struct {
	httpServer *httptest.Server
	t          *testing.T

	mu                   sync.Mutex
	expectedAuthCode     string
	expectedRefreshToken string
	currentAccessToken   string
	currentRefreshToken  string
	replyUserinfo        map[string]interface{}
	disableUserInfo      bool

	discoveryCount int
	exchangeCount  int
	refreshCount   int
	userinfoCount  int
	revokeCount    int
	signOutCount   int
}

// StartTestProvider creates a disposable TestProvider. The server is torn
// down with the test.
func StartTestProvider(t *testing.T) *TestProvider {
	t.Helper()
	p := &TestProvider{
		t: t,
		replyUserinfo: map[string]interface{}{
			"sub":        "test-subject",
			"email":      "fairway@example.com",
			"first_name": "Fairway",
			"last_name":  "Green",
		},
	}
	p.httpServer = httptest.NewServer(p)
	t.Cleanup(p.httpServer.Close)
	return p
}

// Addr returns the test provider's base URL, suitable as a config's provider
// base URL.
func (p *TestProvider) Addr() string { return p.httpServer.URL }

// SetExpectedAuthCode configures the one authorization code the token
// endpoint will accept.
func (p *TestProvider) SetExpectedAuthCode(code string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.expectedAuthCode = code
}

// SetExpectedRefreshToken configures a refresh token the token endpoint will
// accept in addition to the one it last issued.
func (p *TestProvider) SetExpectedRefreshToken(token string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.expectedRefreshToken = token
}

// SetUserInfoReply sets the claims the userinfo endpoint replies with.
func (p *TestProvider) SetUserInfoReply(claims map[string]interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.replyUserinfo = claims
}

// SetDisableUserInfo makes the userinfo endpoint turn every request down,
// regardless of the bearer token presented.
func (p *TestProvider) SetDisableUserInfo(disable bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.disableUserInfo = disable
}

// SetCurrentTokens makes the given pair the one userinfo and refresh will
// accept, as if it had just been issued by the token endpoint.
func (p *TestProvider) SetCurrentTokens(access, refresh string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.currentAccessToken = access
	p.currentRefreshToken = refresh
}

// CurrentTokens returns the access/refresh pair most recently issued by the
// token endpoint.
func (p *TestProvider) CurrentTokens() (access, refresh string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentAccessToken, p.currentRefreshToken
}

// DiscoveryCount returns how many discovery document requests were served.
func (p *TestProvider) DiscoveryCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.discoveryCount
}

// ExchangeCount returns how many authorization code grants were served.
func (p *TestProvider) ExchangeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exchangeCount
}

// RefreshCount returns how many refresh grants were served.
func (p *TestProvider) RefreshCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refreshCount
}

// UserInfoCount returns how many userinfo requests were served.
func (p *TestProvider) UserInfoCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.userinfoCount
}

// RevokeCount returns how many revocation requests were served.
func (p *TestProvider) RevokeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.revokeCount
}

// SignOutCount returns how many sign out API requests were served.
func (p *TestProvider) SignOutCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.signOutCount
}

// issueTokens mints a fresh pair and makes it the only pair userinfo will
// accept. Callers must hold p.mu.
func (p *TestProvider) issueTokens() (access, refresh string) {
	require := require.New(p.t)
	var err error
	access, err = id.New("at")
	require.NoError(err)
	refresh, err = id.New("rt")
	require.NoError(err)
	p.currentAccessToken = access
	p.currentRefreshToken = refresh
	return access, refresh
}

func writeJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

func writeOAuthError(w http.ResponseWriter, statusCode int, errorCode string) {
	writeJSON(w, statusCode, map[string]string{"error": errorCode})
}

// ServeHTTP implements the test provider's endpoints.
func (p *TestProvider) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	p.t.Helper()
	switch req.URL.Path {
	case "/.well-known/openid-configuration":
		p.mu.Lock()
		p.discoveryCount++
		p.mu.Unlock()
		base := p.httpServer.URL
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"issuer":                 base,
			"authorization_endpoint": base + "/oauth/authorize",
			"token_endpoint":         base + "/oauth/token",
			"userinfo_endpoint":      base + "/oauth/userinfo",
			"end_session_endpoint":   base + "/oauth/logout",
			"revocation_endpoint":    base + "/oauth/revoke",
			"jwks_uri":               base + "/.well-known/jwks.json",
		})
	case "/oauth/token":
		p.serveToken(w, req)
	case "/oauth/userinfo":
		p.serveUserInfo(w, req)
	case "/oauth/revoke":
		p.mu.Lock()
		p.revokeCount++
		p.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]string{})
	case "/api/sign_out":
		if req.Method != http.MethodDelete {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		p.mu.Lock()
		p.signOutCount++
		p.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (p *TestProvider) serveToken(w http.ResponseWriter, req *http.Request) {
	require := require.New(p.t)
	require.NoError(req.ParseForm())

	p.mu.Lock()
	defer p.mu.Unlock()

	switch req.FormValue("grant_type") {
	case "authorization_code":
		p.exchangeCount++
		if p.expectedAuthCode == "" || req.FormValue("code") != p.expectedAuthCode {
			writeOAuthError(w, http.StatusUnauthorized, "invalid_grant")
			return
		}
		access, refresh := p.issueTokens()
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"access_token":  access,
			"refresh_token": refresh,
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	case "refresh_token":
		p.refreshCount++
		got := req.FormValue("refresh_token")
		if got == "" || (got != p.currentRefreshToken && got != p.expectedRefreshToken) {
			writeOAuthError(w, http.StatusUnauthorized, "invalid_grant")
			return
		}
		access, refresh := p.issueTokens()
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"access_token":  access,
			"refresh_token": refresh,
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	default:
		writeOAuthError(w, http.StatusBadRequest, "unsupported_grant_type")
	}
}

func (p *TestProvider) serveUserInfo(w http.ResponseWriter, req *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.userinfoCount++

	bearer := strings.TrimPrefix(req.Header.Get("Authorization"), "Bearer ")
	if p.disableUserInfo || bearer == "" || bearer != p.currentAccessToken {
		writeOAuthError(w, http.StatusUnauthorized, "invalid_token")
		return
	}
	writeJSON(w, http.StatusOK, p.replyUserinfo)
}
