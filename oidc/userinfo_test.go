package oidc

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSync(t *testing.T, tp *TestProvider, opt ...Option) (*UserSync, *TestStore) {
	t.Helper()
	require := require.New(t)
	opt = append([]Option{
		WithUserInfoMapping(map[string]string{
			"external_id": "sub",
			"email":       "email",
			"first_name":  "first_name",
		}),
	}, opt...)
	c := testConfig(t, tp, opt...)
	p, err := NewProvider(c)
	require.NoError(err)
	store := NewTestStore(t, c)
	s, err := NewUserSync(p, store)
	require.NoError(err)
	return s, store
}

func TestNewUserSync(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	tp := StartTestProvider(t)
	p := testProvider(t, tp)

	s, err := NewUserSync(nil, NewTestStore(t, p.Config()))
	require.Error(err)
	assert.Nil(s)
	assert.True(errors.Is(err, ErrNilParameter))

	s, err = NewUserSync(p, nil)
	require.Error(err)
	assert.Nil(s)
	assert.True(errors.Is(err, ErrNilParameter))
}

func TestUserSync_FetchProfile(t *testing.T) {
	t.Parallel()
	t.Run("success", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		tp := StartTestProvider(t)
		tp.SetCurrentTokens("at-live", "rt-live")
		s, _ := testSync(t, tp)

		profile, err := s.FetchProfile(context.Background(), "at-live")
		require.NoError(err)
		require.NotNil(profile)
		assert.Equal("test-subject", profile.Subject())
		assert.Equal("fairway@example.com", profile["email"])
	})
	t.Run("rejected-token-is-not-an-error", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		tp := StartTestProvider(t)
		tp.SetCurrentTokens("at-live", "rt-live")
		s, _ := testSync(t, tp)

		profile, err := s.FetchProfile(context.Background(), "at-expired")
		require.NoError(err)
		assert.Nil(profile)
		assert.Equal(1, tp.UserInfoCount())
	})
	t.Run("empty-token", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		tp := StartTestProvider(t)
		s, _ := testSync(t, tp)

		profile, err := s.FetchProfile(context.Background(), "")
		require.NoError(err)
		assert.Nil(profile)
		assert.Equal(0, tp.UserInfoCount())
	})
}

func TestUserSync_SyncUser(t *testing.T) {
	t.Parallel()
	t.Run("creates-unknown-user", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		tp := StartTestProvider(t)
		tp.SetCurrentTokens("at-live", "rt-live")
		s, store := testSync(t, tp)

		u, err := s.SyncUser(context.Background(), &TokenPair{AccessToken: "at-live", RefreshToken: "rt-live"}, nil)
		require.NoError(err)
		require.NotNil(u)
		assert.Equal("test-subject", u.ExternalID)
		assert.Equal("at-live", u.StringAttribute(DefaultTokenAttribute))
		assert.Equal("rt-live", u.StringAttribute(DefaultRefreshTokenAttribute))
		assert.Equal("fairway@example.com", u.StringAttribute("email"))
		assert.Equal(1, store.Len())
	})
	t.Run("updates-known-user", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		tp := StartTestProvider(t)
		tp.SetCurrentTokens("at-live", "rt-live")
		s, store := testSync(t, tp)
		store.Put(&User{
			ExternalID: "test-subject",
			Attributes: map[string]interface{}{
				"email":                      "stale@example.com",
				DefaultTokenAttribute:        "at-live",
				DefaultRefreshTokenAttribute: "rt-live",
			},
		})

		u, err := s.SyncUser(context.Background(), nil, store.users["test-subject"])
		require.NoError(err)
		require.NotNil(u)
		assert.Equal("fairway@example.com", u.StringAttribute("email"))
		assert.Equal(1, store.Len())
		assert.Equal(0, tp.RefreshCount())
	})
	t.Run("profile-identity-wins-over-caller-record", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		tp := StartTestProvider(t)
		tp.SetCurrentTokens("at-live", "rt-live")
		s, store := testSync(t, tp)
		caller := &User{ExternalID: "someone-else", Attributes: map[string]interface{}{}}
		resolved := &User{ExternalID: "test-subject", Attributes: map[string]interface{}{"nick": "fg"}}
		store.Put(caller)
		store.Put(resolved)

		u, err := s.SyncUser(context.Background(), &TokenPair{AccessToken: "at-live", RefreshToken: "rt-live"}, caller)
		require.NoError(err)
		require.NotNil(u)
		assert.Equal("test-subject", u.ExternalID)
		assert.Equal("fg", u.StringAttribute("nick"))
	})
	t.Run("refreshes-once-for-known-user", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		tp := StartTestProvider(t)
		tp.SetCurrentTokens("at-live", "rt-live")
		s, store := testSync(t, tp)
		existing := &User{
			ExternalID: "test-subject",
			Attributes: map[string]interface{}{
				DefaultTokenAttribute:        "at-expired",
				DefaultRefreshTokenAttribute: "rt-live",
			},
		}
		store.Put(existing)

		u, err := s.SyncUser(context.Background(), nil, existing)
		require.NoError(err)
		require.NotNil(u)
		assert.Equal(1, tp.RefreshCount())
		assert.Equal(2, tp.UserInfoCount())
		access, refresh := tp.CurrentTokens()
		assert.Equal(access, u.StringAttribute(DefaultTokenAttribute))
		assert.Equal(refresh, u.StringAttribute(DefaultRefreshTokenAttribute))
	})
	t.Run("second-miss-is-final", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		tp := StartTestProvider(t)
		tp.SetCurrentTokens("at-live", "rt-live")
		tp.SetDisableUserInfo(true)
		s, store := testSync(t, tp)
		existing := &User{
			ExternalID: "test-subject",
			Attributes: map[string]interface{}{
				DefaultTokenAttribute:        "at-expired",
				DefaultRefreshTokenAttribute: "rt-live",
			},
		}
		store.Put(existing)

		u, err := s.SyncUser(context.Background(), nil, existing)
		require.NoError(err)
		assert.Nil(u)
		assert.Equal(1, tp.RefreshCount())
		assert.Equal(2, tp.UserInfoCount())
	})
	t.Run("rejected-refresh-grant-propagates", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		tp := StartTestProvider(t)
		tp.SetCurrentTokens("at-live", "rt-live")
		s, store := testSync(t, tp)
		existing := &User{
			ExternalID: "test-subject",
			Attributes: map[string]interface{}{
				DefaultTokenAttribute:        "at-expired",
				DefaultRefreshTokenAttribute: "rt-revoked",
			},
		}
		store.Put(existing)

		u, err := s.SyncUser(context.Background(), nil, existing)
		require.Error(err)
		assert.Nil(u)
		assert.True(errors.Is(err, ErrInvalidAuthorizationGrant))
	})
	t.Run("no-tokens-no-user", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		tp := StartTestProvider(t)
		s, _ := testSync(t, tp)

		u, err := s.SyncUser(context.Background(), nil, nil)
		require.NoError(err)
		assert.Nil(u)
		assert.Equal(0, tp.UserInfoCount())
	})
	t.Run("missing-sub-claim", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		tp := StartTestProvider(t)
		tp.SetCurrentTokens("at-live", "rt-live")
		tp.SetUserInfoReply(map[string]interface{}{"email": "fairway@example.com"})
		s, _ := testSync(t, tp)

		u, err := s.SyncUser(context.Background(), &TokenPair{AccessToken: "at-live"}, nil)
		require.Error(err)
		assert.Nil(u)
		assert.True(errors.Is(err, ErrMissingSubClaim))
	})
}

func TestUserSync_mapAttributes(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	tp := StartTestProvider(t)
	c := testConfig(t, tp,
		WithAttributeNames("tok", "refresh", "uid"),
		WithUserInfoMapping(map[string]string{"id": "sub", "mail": "email", "phone": "phone_number"}),
	)
	p, err := NewProvider(c)
	require.NoError(err)
	s, err := NewUserSync(p, NewTestStore(t, c))
	require.NoError(err)

	got := s.mapAttributes(
		Profile{"sub": "1", "email": "a@b.com", "ignored": "claim"},
		&TokenPair{AccessToken: "x", RefreshToken: "y"},
	)
	want := map[string]interface{}{
		"tok":     "x",
		"refresh": "y",
		"id":      "1",
		"mail":    "a@b.com",
		"phone":   nil,
	}
	assert.Equal(want, got)
}
