package jwtgate

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_HeaderTokenExtractor(t *testing.T) {
	testCases := []struct {
		name      string
		header    http.Header
		wantToken string
	}{
		{
			name: "empty / no header",
		},
		{
			name:      "raw token in header",
			header:    http.Header{"Token": []string{"a.b.c"}},
			wantToken: "a.b.c",
		},
		{
			name:      "bearer prefix is not stripped",
			header:    http.Header{"Token": []string{"Bearer a.b.c"}},
			wantToken: "Bearer a.b.c",
		},
		{
			name:   "authorization header is ignored",
			header: http.Header{"Authorization": []string{"Bearer a.b.c"}},
		},
		{
			name:      "first value wins",
			header:    http.Header{"Token": []string{"first", "second"}},
			wantToken: "first",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			gotToken, err := HeaderTokenExtractor(TokenHeader)(&http.Request{Header: testCase.header})
			require.NoError(t, err)
			assert.Equal(t, testCase.wantToken, gotToken)
		})
	}
}

func Test_ParameterTokenExtractor(t *testing.T) {
	wantToken := "i-am-token"
	param := "i-am-param"

	r := httptest.NewRequest(http.MethodGet, fmt.Sprintf("http://localhost?%s=%s", param, wantToken), nil)

	gotToken, err := ParameterTokenExtractor(param)(r)
	require.NoError(t, err)
	assert.Equal(t, wantToken, gotToken)
}

func Test_CookieTokenExtractor(t *testing.T) {
	testCases := []struct {
		name      string
		cookie    *http.Cookie
		wantToken string
	}{
		{
			name: "no cookie",
		},
		{
			name:      "token in cookie",
			cookie:    &http.Cookie{Name: "token", Value: "i-am-token"},
			wantToken: "i-am-token",
		},
		{
			name:   "empty cookie",
			cookie: &http.Cookie{Name: "token"},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
			if testCase.cookie != nil {
				req.AddCookie(testCase.cookie)
			}

			gotToken, err := CookieTokenExtractor("token")(req)
			require.NoError(t, err)
			assert.Equal(t, testCase.wantToken, gotToken)
		})
	}
}

func Test_MultiTokenExtractor(t *testing.T) {
	exNothing := func(r *http.Request) (string, error) {
		return "", nil
	}

	t.Run("uses first extractor that replies", func(t *testing.T) {
		exSomething := func(r *http.Request) (string, error) {
			return "i-am-token", nil
		}
		exFail := func(r *http.Request) (string, error) {
			return "", errors.New("should not have hit me")
		}

		gotToken, err := MultiTokenExtractor(exNothing, exSomething, exFail)(&http.Request{})
		require.NoError(t, err)
		assert.Equal(t, "i-am-token", gotToken)
	})

	t.Run("stops when an extractor fails", func(t *testing.T) {
		exFail := func(r *http.Request) (string, error) {
			return "", errors.New("extraction fail")
		}

		gotToken, err := MultiTokenExtractor(exNothing, exFail)(&http.Request{})
		assert.EqualError(t, err, "extraction fail")
		assert.Empty(t, gotToken)
	})

	t.Run("defaults to empty", func(t *testing.T) {
		gotToken, err := MultiTokenExtractor(exNothing, exNothing)(&http.Request{})
		require.NoError(t, err)
		assert.Empty(t, gotToken)
	})
}
