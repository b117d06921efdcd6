/*
signature implements the compact signed-message envelope exchanged with the
Identity Provider:

	t=<unix-seconds>,signed_payload=<hmac-sha256-hex>

The signature is an HMAC-SHA256 of "<unix-seconds>.<payload>" keyed with a
shared secret. Sign produces the envelope for an outbound payload and Verify
checks an inbound one against a staleness tolerance.

The same algorithm protects both generic signed API requests and inbound
webhooks. The two contexts report independently distinguishable error kinds:
Verify uses this package's sentinels, while the webhook package binds its own
sentinels via VerifyWithKinds.
*/
package signature
