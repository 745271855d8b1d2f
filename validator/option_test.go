package validator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("it defaults to HS256", func(t *testing.T) {
		v, err := New()
		require.NoError(t, err)
		assert.Equal(t, HS256, v.signatureAlgorithm)
		assert.Zero(t, v.allowedClockSkew)
	})

	t.Run("it returns option errors", func(t *testing.T) {
		v, err := New(WithAlgorithm("RS256"))
		assert.Nil(t, v)
		assert.ErrorContains(t, err, "invalid option: unsupported signature algorithm: RS256")
	})
}

func TestOptions(t *testing.T) {
	t.Run("WithAlgorithm", func(t *testing.T) {
		for _, alg := range []SignatureAlgorithm{HS256, HS384, HS512} {
			v := &Validator{}
			require.NoError(t, WithAlgorithm(alg)(v))
			assert.Equal(t, alg, v.signatureAlgorithm)
		}

		for _, alg := range []SignatureAlgorithm{"", "none", "RS256", "ES256"} {
			v := &Validator{}
			assert.Error(t, WithAlgorithm(alg)(v), alg)
		}
	})

	t.Run("WithIssuer", func(t *testing.T) {
		v := &Validator{}
		require.NoError(t, WithIssuer("jwtgate")(v))
		assert.Equal(t, "jwtgate", v.issuer)
		assert.EqualError(t, WithIssuer("")(v), "issuer cannot be empty")
	})

	t.Run("WithAudience", func(t *testing.T) {
		v := &Validator{}
		require.NoError(t, WithAudience("api")(v))
		assert.Equal(t, "api", v.audience)
		assert.EqualError(t, WithAudience("")(v), "audience cannot be empty")
	})

	t.Run("WithExpirationRequired", func(t *testing.T) {
		v := &Validator{}
		require.NoError(t, WithExpirationRequired()(v))
		assert.True(t, v.expirationRequired)
	})

	t.Run("WithAllowedClockSkew", func(t *testing.T) {
		v := &Validator{}
		require.NoError(t, WithAllowedClockSkew(time.Minute)(v))
		assert.Equal(t, time.Minute, v.allowedClockSkew)
		assert.EqualError(t, WithAllowedClockSkew(-time.Second)(v), "clock skew cannot be negative")
	})

	t.Run("WithTimeFunc", func(t *testing.T) {
		v := &Validator{}
		require.NoError(t, WithTimeFunc(time.Now)(v))
		assert.NotNil(t, v.timeFunc)
		assert.EqualError(t, WithTimeFunc(nil)(v), "time func cannot be nil")
	})
}
