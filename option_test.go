package jwtgate

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moonzhou/jwtgate/core"
	"github.com/moonzhou/jwtgate/directory"
	"github.com/moonzhou/jwtgate/validator"
)

func TestNew(t *testing.T) {
	users := directory.NewMemory()

	t.Run("applies defaults", func(t *testing.T) {
		m, err := New(WithDirectory(users))
		require.NoError(t, err)

		assert.NotNil(t, m.Gate())
		assert.NotNil(t, m.errorHandler)
		assert.NotNil(t, m.tokenExtractor)
		assert.Equal(t, DefaultRequestIDHeader, m.requestIDHeader)
		assert.IsType(t, &NoopMetrics{}, m.metrics)
		assert.IsType(t, &NoopTracer{}, m.tracer)
		assert.Equal(t, core.Protected, m.resolver(&http.Request{}))
		assert.Nil(t, m.directory, "construction fields are released")
	})

	t.Run("uses a preconfigured gate", func(t *testing.T) {
		v, err := validator.New()
		require.NoError(t, err)
		gate, err := core.New(core.WithDirectory(users), core.WithVerifier(v))
		require.NoError(t, err)

		m, err := New(WithGate(gate))
		require.NoError(t, err)
		assert.Same(t, gate, m.Gate())
	})

	t.Run("requires a directory without a gate", func(t *testing.T) {
		_, err := New()
		assert.ErrorIs(t, err, ErrDirectoryNil)
	})

	t.Run("accepts a custom verifier", func(t *testing.T) {
		v, err := validator.New(validator.WithAlgorithm(validator.HS512))
		require.NoError(t, err)

		_, err = New(WithDirectory(users), WithVerifier(v))
		assert.NoError(t, err)
	})
}

func TestOptions(t *testing.T) {
	testCases := []struct {
		name    string
		option  Option
		wantErr error
	}{
		{name: "nil gate", option: WithGate(nil), wantErr: ErrGateNil},
		{name: "nil directory", option: WithDirectory(nil), wantErr: ErrDirectoryNil},
		{name: "nil verifier", option: WithVerifier(nil), wantErr: ErrVerifierNil},
		{name: "nil resolver", option: WithResolver(nil), wantErr: ErrResolverNil},
		{name: "nil operations", option: WithOperations(nil), wantErr: ErrResolverNil},
		{name: "nil error handler", option: WithErrorHandler(nil), wantErr: ErrErrorHandlerNil},
		{name: "nil token extractor", option: WithTokenExtractor(nil), wantErr: ErrTokenExtractorNil},
		{name: "nil logger", option: WithLogger(nil), wantErr: ErrLoggerNil},
		{name: "nil metrics", option: WithMetrics(nil), wantErr: ErrMetricsNil},
		{name: "nil tracer", option: WithTracer(nil), wantErr: ErrTracerNil},
		{name: "empty request id header", option: WithRequestIDHeader(""), wantErr: ErrRequestIDHeaderEmpty},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			m, err := New(WithDirectory(directory.NewMemory()), testCase.option)
			assert.Nil(t, m)
			assert.ErrorIs(t, err, testCase.wantErr)
			assert.ErrorContains(t, err, "invalid option")
		})
	}
}
