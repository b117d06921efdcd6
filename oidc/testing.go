package oidc

import (
	"context"
	"sync"
	"testing"
)

// TestStore is an in-memory UserStore for tests, keyed by external id.
type TestStore struct {
	t    *testing.T
	conf *Config

	mu    sync.Mutex
	users map[string]*User
}

// NewTestStore creates an empty TestStore for the given config.
func NewTestStore(t *testing.T, c *Config) *TestStore {
	t.Helper()
	return &TestStore{t: t, conf: c, users: map[string]*User{}}
}

var _ UserStore = (*TestStore)(nil)

// Put seeds a user record.
func (s *TestStore) Put(u *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ExternalID] = u
}

// Len returns the number of stored users.
func (s *TestStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

func (s *TestStore) FindByExternalID(_ context.Context, externalID string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[externalID]
	if !ok {
		return nil, nil
	}
	return u, nil
}

func (s *TestStore) CreateOrUpdate(_ context.Context, existing *User, attrs map[string]interface{}) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := existing
	if u == nil {
		u = &User{Attributes: map[string]interface{}{}}
	}
	if u.Attributes == nil {
		u.Attributes = map[string]interface{}{}
	}
	for k, v := range attrs {
		u.Attributes[k] = v
	}
	if v, ok := u.Attributes[s.conf.ExternalIDAttribute].(string); ok && v != "" {
		u.ExternalID = v
	}
	s.users[u.ExternalID] = u
	return u, nil
}

func (s *TestStore) Reload(_ context.Context, u *User) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stored, ok := s.users[u.ExternalID]; ok {
		return stored, nil
	}
	return u, nil
}
