/*
callback provides an http.HandlerFunc for handling the Identity Provider's
response to an authorization code flow authentication attempt: it exchanges
the returned code for a token pair, syncs the local user record from the
provider's userinfo claims and hands the outcome to caller-owned response
functions for rendering.
*/
package callback
