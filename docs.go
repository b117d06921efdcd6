// ip-client-go is a client library for integrating an application with the
// Golf Genius Identity Provider (IP). It covers the OIDC authorization code
// flow (authorization URLs, code exchange, token refresh, revocation and
// logout), keeping a local user record in sync with the provider's userinfo
// claims, and signing/verifying the HMAC "IP-Signature" envelope used for
// both outbound API calls and inbound webhooks.
//
// See the oidc, signature, webhook and cache packages.
package ipclient
