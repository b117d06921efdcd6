/*
oidc implements the client side of the Identity Provider integration.

Primary types provided by the package:

* Config: the process-wide configuration for the integration (client
credentials, redirect/root URLs, tolerances, webhook secret, the local
attribute names tokens and the external id are stored under, and the
userinfo-claim to local-attribute mapping). It is constructed once at startup
and passed by reference into every component; it is never mutated afterwards.

* Provider: the token-lifecycle manager. It discovers the provider's
endpoints (with an optional injected cache.Cache), generates authorization
URLs, exchanges authorization codes for token pairs, refreshes token pairs,
revokes tokens and builds the provider-side logout URL.

* TokenPair: an opaque access/refresh token pair. No expiry is tracked
locally; an expired access token is discovered reactively when a userinfo
fetch fails.

* UserSync: the sync engine keeping a local user record up to date with the
provider's userinfo claims, refreshing the token pair transparently (at most
once per call) when the userinfo fetch fails for a known user.

* UserStore: the persistence collaborator the host application implements.

A provider rejecting an authorization code or a userinfo request is an
expected user-facing event and surfaces as an absent result, not an error.
A rejected refresh grant means the stored credential is unusable and fails
loudly with ErrInvalidAuthorizationGrant so the caller can force
re-authentication.
*/
package oidc
