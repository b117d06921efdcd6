package oidc

import "context"

// User is the local record mirroring a provider identity. Attribute values
// live in a flat map keyed by the attribute names the config declares
// (TokenAttribute, RefreshTokenAttribute, ExternalIDAttribute and the
// UserInfoMapping local names), which replaces reflective field access with
// an explicit lookup the config validates at load time.
type User struct {
	// ExternalID is the provider's sub claim for this user
	ExternalID string

	// Attributes holds the locally stored attribute values
	Attributes map[string]interface{}
}

// Attribute returns the value stored under the given local attribute name,
// or nil when absent.
func (u *User) Attribute(name string) interface{} {
	if u == nil || u.Attributes == nil {
		return nil
	}
	return u.Attributes[name]
}

// StringAttribute returns the value stored under the given local attribute
// name when it is a string, or "".
func (u *User) StringAttribute(name string) string {
	s, _ := u.Attribute(name).(string)
	return s
}

// tokenPair derives the user's stored token pair via the configured
// attribute names.
func (u *User) tokenPair(c *Config) *TokenPair {
	if u == nil {
		return nil
	}
	return &TokenPair{
		AccessToken:  AccessToken(u.StringAttribute(c.TokenAttribute)),
		RefreshToken: RefreshToken(u.StringAttribute(c.RefreshTokenAttribute)),
	}
}

// UserStore is the persistence collaborator the host application implements.
// The sync engine only hands it plain attribute maps and reads back User
// records; schema and storage are entirely the host's concern.
type UserStore interface {
	// FindByExternalID returns the user whose external id attribute equals
	// the given value, or (nil, nil) when no such user exists.
	FindByExternalID(ctx context.Context, externalID string) (*User, error)

	// CreateOrUpdate persists the attributes onto the existing user, or
	// creates a new user when existing is nil, and returns the stored record.
	CreateOrUpdate(ctx context.Context, existing *User, attrs map[string]interface{}) (*User, error)

	// Reload re-reads the user from storage.
	Reload(ctx context.Context, u *User) (*User, error)
}
