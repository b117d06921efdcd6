package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/golfgenius/ip-client-go/oidc"
	"github.com/golfgenius/ip-client-go/signature"
)

// Client fetches user details from the provider's webhook userinfo API,
// authenticating each request with a signed-message envelope instead of a
// bearer token.
type Client struct {
	conf   *oidc.Config
	client *http.Client
}

// NewClient creates a webhook API client for a validated config.
func NewClient(c *oidc.Config) (*Client, error) {
	const op = "webhook.NewClient"
	if c == nil {
		return nil, fmt.Errorf("%s: config is nil: %w", op, oidc.ErrNilParameter)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: config is invalid: %w", op, err)
	}
	httpClient, err := c.HTTPClient()
	if err != nil {
		return nil, fmt.Errorf("%s: unable to create http client: %w", op, err)
	}
	return &Client{conf: c, client: httpClient}, nil
}

// userInfoRequest is the payload a webhook userinfo fetch signs and sends as
// query parameters. Field order matters: the provider recomputes the
// signature over this exact JSON rendering.
type userInfoRequest struct {
	UID       string `json:"uid"`
	WebhookID string `json:"webhook_id"`
	UserID    string `json:"user_id"`
}

// FetchUserInfo requests the latest user details for an incoming webhook:
// GET {provider}/api/userinfo with the client id, webhook id and user id as
// query parameters and an IP-Signature header covering their JSON rendering.
// A non-2xx reply fails with ErrInvalidRequest carrying the provider's error
// message; a 2xx reply is returned as the parsed claims.
// Supported options: WithSigningKey, WithNow
func (c *Client) FetchUserInfo(ctx context.Context, userID, webhookID string, opt ...Option) (map[string]interface{}, error) {
	const op = "Client.FetchUserInfo"
	if userID == "" {
		return nil, fmt.Errorf("%s: user id is empty: %w", op, oidc.ErrInvalidParameter)
	}
	if webhookID == "" {
		return nil, fmt.Errorf("%s: webhook id is empty: %w", op, oidc.ErrInvalidParameter)
	}
	opts := getOpts(opt...)
	key := c.conf.WebhookSecretKey
	if opts.withSigningKey != "" {
		key = opts.withSigningKey
	}

	payload := userInfoRequest{
		UID:       c.conf.ClientID,
		WebhookID: webhookID,
		UserID:    userID,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to encode request payload: %w", op, err)
	}
	sig, err := signature.Sign(body, string(key), opts.signatureOpts()...)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to sign request: %w", op, err)
	}

	u := strings.TrimSuffix(c.conf.ProviderBaseURL, "/") + "/api/userinfo"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to create request: %w", op, err)
	}
	q := url.Values{}
	q.Set("uid", payload.UID)
	q.Set("webhook_id", payload.WebhookID)
	q.Set("user_id", payload.UserID)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(signature.Header, sig)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: userinfo request failed: %w", op, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to read userinfo response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var reply struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(raw, &reply)
		if reply.Error == "" {
			reply.Error = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("%s: provider turned the request down: %s: %w", op, reply.Error, oidc.ErrInvalidRequest)
	}

	var claims map[string]interface{}
	if err := json.Unmarshal(raw, &claims); err != nil {
		return nil, fmt.Errorf("%s: unable to decode userinfo response: %w", op, err)
	}
	return claims, nil
}
