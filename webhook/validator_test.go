package webhook

import (
	"errors"
	"testing"
	"time"

	"github.com/golfgenius/ip-client-go/oidc"
	"github.com/golfgenius/ip-client-go/signature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, opt ...oidc.Option) *oidc.Config {
	t.Helper()
	require := require.New(t)
	opt = append([]oidc.Option{oidc.WithWebhookSecretKey("webhook-secret")}, opt...)
	c, err := oidc.NewConfig(
		"https://ip.example.com",
		"test-client-id",
		"test-client-secret",
		"https://app.example.com/callback",
		opt...,
	)
	require.NoError(err)
	return c
}

func TestNewValidator(t *testing.T) {
	t.Parallel()
	t.Run("nil-config", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		v, err := NewValidator(nil)
		require.Error(err)
		assert.Nil(v)
		assert.True(errors.Is(err, oidc.ErrNilParameter))
	})
	t.Run("invalid-config", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		v, err := NewValidator(&oidc.Config{})
		require.Error(err)
		assert.Nil(v)
	})
	t.Run("success", func(t *testing.T) {
		t.Parallel()
		require := require.New(t)
		v, err := NewValidator(testConfig(t))
		require.NoError(err)
		require.NotNil(v)
	})
}

func TestValidator_Validate(t *testing.T) {
	t.Parallel()
	body := []byte(`{"event":"user.updated","user_id":"42"}`)
	now := func() time.Time { return time.Unix(1700000000, 0).UTC() }

	sign := func(t *testing.T, key string, at func() time.Time) string {
		t.Helper()
		h, err := signature.Sign(body, key, signature.WithNow(at))
		require.NoError(t, err)
		return h
	}

	t.Run("valid-delivery", func(t *testing.T) {
		t.Parallel()
		require := require.New(t)
		v, err := NewValidator(testConfig(t))
		require.NoError(err)
		require.NoError(v.Validate(sign(t, "webhook-secret", now), body, WithNow(now)))
	})
	t.Run("missing-header", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		v, err := NewValidator(testConfig(t))
		require.NoError(err)
		err = v.Validate("", body)
		require.Error(err)
		assert.True(errors.Is(err, ErrMissingWebhookSignature))
	})
	t.Run("malformed-header", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		v, err := NewValidator(testConfig(t))
		require.NoError(err)
		err = v.Validate("not an envelope", body)
		require.Error(err)
		assert.True(errors.Is(err, ErrMalformedWebhookSignature))
	})
	t.Run("stale-delivery", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		v, err := NewValidator(testConfig(t))
		require.NoError(err)
		signedAt := func() time.Time { return now().Add(-10 * time.Minute) }
		err = v.Validate(sign(t, "webhook-secret", signedAt), body, WithNow(now))
		require.Error(err)
		assert.True(errors.Is(err, ErrStaleWebhookTimestamp))
	})
	t.Run("future-delivery-accepted", func(t *testing.T) {
		t.Parallel()
		require := require.New(t)
		v, err := NewValidator(testConfig(t))
		require.NoError(err)
		signedAt := func() time.Time { return now().Add(10 * time.Minute) }
		require.NoError(v.Validate(sign(t, "webhook-secret", signedAt), body, WithNow(now)))
	})
	t.Run("wrong-key", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		v, err := NewValidator(testConfig(t))
		require.NoError(err)
		err = v.Validate(sign(t, "some-other-secret", now), body, WithNow(now))
		require.Error(err)
		assert.True(errors.Is(err, ErrInvalidWebhookSignature))
	})
	t.Run("tampered-body", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		v, err := NewValidator(testConfig(t))
		require.NoError(err)
		err = v.Validate(sign(t, "webhook-secret", now), []byte(`{"user_id":"43"}`), WithNow(now))
		require.Error(err)
		assert.True(errors.Is(err, ErrInvalidWebhookSignature))
	})
	t.Run("per-webhook-key-override", func(t *testing.T) {
		t.Parallel()
		require := require.New(t)
		v, err := NewValidator(testConfig(t))
		require.NoError(err)
		h := sign(t, "per-webhook-key", now)
		require.NoError(v.Validate(h, body, WithSigningKey("per-webhook-key"), WithNow(now)))
		require.Error(v.Validate(h, body, WithNow(now)))
	})
	t.Run("no-key-anywhere", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		c, err := oidc.NewConfig("https://ip.example.com", "test-client-id", "test-client-secret", "https://app.example.com/callback")
		require.NoError(err)
		v, err := NewValidator(c)
		require.NoError(err)
		err = v.Validate(sign(t, "webhook-secret", now), body, WithNow(now))
		require.Error(err)
		assert.True(errors.Is(err, oidc.ErrInvalidParameter))
	})
	t.Run("kinds-stay-webhook-scoped", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		v, err := NewValidator(testConfig(t))
		require.NoError(err)
		err = v.Validate(sign(t, "some-other-secret", now), body, WithNow(now))
		require.Error(err)
		assert.False(errors.Is(err, signature.ErrInvalidSignature))
		assert.True(errors.Is(err, ErrInvalidWebhookSignature))
	})
}
