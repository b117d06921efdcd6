// Package webhook handles inbound webhook deliveries from the Identity
// Provider and the follow-up userinfo fetch they trigger.
//
// Deliveries carry the signed-message envelope in the IP-Signature header. A
// Validator checks the envelope against the webhook secret key and the
// webhook tolerance, reporting failures with webhook-specific sentinel errors
// so callers can tell a rejected webhook from a rejected API request. A
// Client fetches the latest user details for an accepted delivery via the
// provider's webhook userinfo API, signing the outbound request the same way.
package webhook
