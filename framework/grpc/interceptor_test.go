package jwtgrpc

import (
	"context"
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/moonzhou/jwtgate/core"
	"github.com/moonzhou/jwtgate/directory"
	"github.com/moonzhou/jwtgate/validator"
)

const (
	protectedMethod = "/test.Service/Protected"
	publicMethod    = "/test.Service/Public"
)

// lookupFailure fails every lookup.
type lookupFailure struct{}

func (lookupFailure) FindUserByID(context.Context, string) (*directory.User, error) {
	return nil, errors.New("connection refused")
}

func newGate(t *testing.T, dir directory.Directory) *core.Gate {
	t.Helper()

	v, err := validator.New()
	require.NoError(t, err)

	gate, err := core.New(core.WithDirectory(dir), core.WithVerifier(v))
	require.NoError(t, err)
	return gate
}

func mint(t *testing.T, userID, secret string) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"userId": userID}).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

type interceptorCase struct {
	name         string
	dir          directory.Directory
	token        string
	method       string
	options      []Option
	expectErr    bool
	expectedCode codes.Code
}

func interceptorCases(t *testing.T) []interceptorCase {
	users := directory.NewMemory(directory.User{ID: "u1", Secret: "s1"})
	methods := WithMethods([]string{protectedMethod}, []string{publicMethod})
	valid := mint(t, "u1", "s1")

	return []interceptorCase{
		{
			name:    "valid token",
			dir:     users,
			token:   valid,
			method:  protectedMethod,
			options: []Option{methods},
		},
		{
			name:         "missing token",
			dir:          users,
			method:       protectedMethod,
			options:      []Option{methods},
			expectErr:    true,
			expectedCode: codes.PermissionDenied,
		},
		{
			name:         "malformed token",
			dir:          users,
			token:        "abc",
			method:       protectedMethod,
			options:      []Option{methods},
			expectErr:    true,
			expectedCode: codes.Unauthenticated,
		},
		{
			name:         "wrong secret",
			dir:          users,
			token:        mint(t, "u1", "s2"),
			method:       protectedMethod,
			options:      []Option{methods},
			expectErr:    true,
			expectedCode: codes.PermissionDenied,
		},
		{
			name:    "public method",
			dir:     users,
			method:  publicMethod,
			options: []Option{methods},
		},
		{
			name:    "unmapped method",
			dir:     users,
			method:  "/test.Service/Other",
			options: []Option{methods},
		},
		{
			name:         "every method is protected by default",
			dir:          users,
			method:       "/test.Service/Other",
			expectErr:    true,
			expectedCode: codes.PermissionDenied,
		},
		{
			name:         "directory failure",
			dir:          lookupFailure{},
			token:        mint(t, "u1", "s1"),
			method:       protectedMethod,
			expectErr:    true,
			expectedCode: codes.Internal,
		},
		{
			name:   "WithTokenExtractor",
			dir:    users,
			method: protectedMethod,
			options: []Option{
				WithTokenExtractor(func(context.Context) (string, error) {
					return valid, nil
				}),
			},
		},
		{
			name:   "WithErrorHandler",
			dir:    users,
			method: protectedMethod,
			options: []Option{
				WithErrorHandler(func(context.Context, error) error {
					return status.Error(codes.Unavailable, "custom")
				}),
			},
			expectErr:    true,
			expectedCode: codes.Unavailable,
		},
	}
}

func TestUnaryInterceptor(t *testing.T) {
	for _, tt := range interceptorCases(t) {
		t.Run(tt.name, func(t *testing.T) {
			unaryInterceptor := New(newGate(t, tt.dir), tt.options...).UnaryServerInterceptor()

			ctx := context.Background()
			if tt.token != "" {
				ctx = metadata.NewIncomingContext(ctx, metadata.Pairs(TokenMetadataKey, tt.token))
			}
			info := &grpc.UnaryServerInfo{FullMethod: tt.method}

			var handlerCalled bool
			handler := func(ctx context.Context, req any) (any, error) {
				handlerCalled = true
				return "response", nil
			}

			resp, err := unaryInterceptor(ctx, "request", info, handler)

			if tt.expectErr {
				require.Error(t, err)
				st, ok := status.FromError(err)
				require.True(t, ok)
				assert.Equal(t, tt.expectedCode, st.Code())
				assert.False(t, handlerCalled)
			} else {
				require.NoError(t, err)
				assert.True(t, handlerCalled)
				assert.Equal(t, "response", resp)
			}
		})
	}
}

type mockServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (m *mockServerStream) Context() context.Context {
	return m.ctx
}

func TestStreamInterceptor(t *testing.T) {
	for _, tt := range interceptorCases(t) {
		t.Run(tt.name, func(t *testing.T) {
			streamInterceptor := New(newGate(t, tt.dir), tt.options...).StreamServerInterceptor()

			ctx := context.Background()
			if tt.token != "" {
				ctx = metadata.NewIncomingContext(ctx, metadata.Pairs(TokenMetadataKey, tt.token))
			}
			stream := &mockServerStream{ctx: ctx}
			info := &grpc.StreamServerInfo{FullMethod: tt.method}

			var handlerCalled bool
			handler := func(srv any, ss grpc.ServerStream) error {
				handlerCalled = true
				assert.Same(t, stream, ss)
				return nil
			}

			err := streamInterceptor(nil, stream, info, handler)

			if tt.expectErr {
				require.Error(t, err)
				assert.Equal(t, tt.expectedCode, status.Code(err))
				assert.False(t, handlerCalled)
			} else {
				require.NoError(t, err)
				assert.True(t, handlerCalled)
			}
		})
	}
}

func TestDefaultErrorHandler(t *testing.T) {
	ctx := context.Background()

	for _, kind := range core.ErrorKinds {
		err := DefaultErrorHandler(ctx, core.NewDenyError(kind))
		st, ok := status.FromError(err)
		require.True(t, ok)

		if kind.Unauthorized() {
			assert.Equal(t, codes.Unauthenticated, st.Code(), kind)
			assert.Equal(t, string(kind)+": 401", st.Message())
		} else {
			assert.Equal(t, codes.PermissionDenied, st.Code(), kind)
			assert.Equal(t, string(kind)+": "+kind.Message(), st.Message())
		}
	}

	assert.Equal(t, codes.Internal, status.Code(DefaultErrorHandler(ctx, errors.New("boom"))))
}

func TestMetadataTokenExtractor(t *testing.T) {
	t.Run("no metadata", func(t *testing.T) {
		token, err := MetadataTokenExtractor(context.Background())
		require.NoError(t, err)
		assert.Empty(t, token)
	})

	t.Run("raw token", func(t *testing.T) {
		ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("token", "a.b.c"))
		token, err := MetadataTokenExtractor(ctx)
		require.NoError(t, err)
		assert.Equal(t, "a.b.c", token)
	})

	t.Run("authorization is ignored", func(t *testing.T) {
		ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer a.b.c"))
		token, err := MetadataTokenExtractor(ctx)
		require.NoError(t, err)
		assert.Empty(t, token)
	})

	t.Run("multi extractor", func(t *testing.T) {
		ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-token", "a.b.c"))
		token, err := MultiTokenExtractor(MetadataTokenExtractor, MetadataFieldTokenExtractor("x-token"))(ctx)
		require.NoError(t, err)
		assert.Equal(t, "a.b.c", token)

		failing := func(context.Context) (string, error) { return "", errors.New("boom") }
		_, err = MultiTokenExtractor(failing, MetadataTokenExtractor)(ctx)
		assert.EqualError(t, err, "boom")
	})
}
