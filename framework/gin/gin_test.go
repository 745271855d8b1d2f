package jwtgin

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moonzhou/jwtgate/core"
	"github.com/moonzhou/jwtgate/directory"
	"github.com/moonzhou/jwtgate/validator"
)

func newGate(t *testing.T) *core.Gate {
	t.Helper()

	v, err := validator.New()
	require.NoError(t, err)

	gate, err := core.New(
		core.WithDirectory(directory.NewMemory(directory.User{ID: "u1", Secret: "s1"})),
		core.WithVerifier(v),
	)
	require.NoError(t, err)
	return gate
}

func mint(t *testing.T, userID, secret string) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"userId": userID}).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func newRouter(t *testing.T, opts ...Option) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(New(newGate(t), opts...))

	ok := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "Authenticated."}) }
	router.GET("/users/:id", ok)
	router.POST("/users/:id", ok)
	router.POST("/login", ok)
	return router
}

func TestNew(t *testing.T) {
	routes := WithRoutes([]string{"GET /users/:id"}, []string{"/login"})

	testCases := []struct {
		name       string
		opts       []Option
		method     string
		path       string
		token      string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "valid token",
			opts:       []Option{routes},
			method:     http.MethodGet,
			path:       "/users/1",
			token:      mint(t, "u1", "s1"),
			wantStatus: http.StatusOK,
			wantBody:   `{"message":"Authenticated."}`,
		},
		{
			name:       "missing token",
			opts:       []Option{routes},
			method:     http.MethodGet,
			path:       "/users/1",
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"code":"no_token","message":"no token, please log in again"}`,
		},
		{
			name:       "malformed token",
			opts:       []Option{routes},
			method:     http.MethodGet,
			path:       "/users/1",
			token:      "abc",
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"code":"malformed_token","message":"401"}`,
		},
		{
			name:       "wrong secret",
			opts:       []Option{routes},
			method:     http.MethodGet,
			path:       "/users/1",
			token:      mint(t, "u1", "s2"),
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"code":"signature_mismatch","message":"signature mismatch"}`,
		},
		{
			name:       "public route",
			opts:       []Option{routes},
			method:     http.MethodPost,
			path:       "/login",
			wantStatus: http.StatusOK,
			wantBody:   `{"message":"Authenticated."}`,
		},
		{
			name:       "route matched for another method",
			opts:       []Option{routes},
			method:     http.MethodPost,
			path:       "/users/1",
			wantStatus: http.StatusOK,
			wantBody:   `{"message":"Authenticated."}`,
		},
		{
			name:       "every matched route is protected by default",
			method:     http.MethodPost,
			path:       "/login",
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"code":"no_token","message":"no token, please log in again"}`,
		},
		{
			name: "custom error handler",
			opts: []Option{
				routes,
				WithErrorHandler(func(c *gin.Context, err error) {
					var denyErr *core.DenyError
					if errors.As(err, &denyErr) {
						c.AbortWithStatusJSON(http.StatusTeapot, gin.H{"kind": denyErr.Kind})
					}
				}),
			},
			method:     http.MethodGet,
			path:       "/users/1",
			wantStatus: http.StatusTeapot,
			wantBody:   `{"kind":"no_token"}`,
		},
		{
			name: "token extractor failure",
			opts: []Option{
				WithTokenExtractor(func(*http.Request) (string, error) {
					return "", errors.New("extractor failed")
				}),
			},
			method:     http.MethodGet,
			path:       "/users/1",
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"code":"internal_error","message":"Something went wrong while checking the token."}`,
		},
		{
			name: "custom resolver",
			opts: []Option{
				WithResolver(func(*gin.Context) core.Requirement { return core.Public }),
			},
			method:     http.MethodGet,
			path:       "/users/1",
			wantStatus: http.StatusOK,
			wantBody:   `{"message":"Authenticated."}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			router := newRouter(t, tc.opts...)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.token != "" {
				req.Header.Set("token", tc.token)
			}
			router.ServeHTTP(w, req)

			assert.Equal(t, tc.wantStatus, w.Code)
			assert.JSONEq(t, tc.wantBody, w.Body.String())
		})
	}
}

func TestNew_UnmatchedRoute(t *testing.T) {
	router := newRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, http.StatusNotFound, w.Code, "unmapped requests reach the router's 404")
}
