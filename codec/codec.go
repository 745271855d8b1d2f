// Package codec reads the claims of a token without verifying it.
//
// Decoding is a pre-verification peek: the subject identifier has to be known
// before the signing secret can be resolved, so nothing returned from this
// package proves that the token is authentic.
package codec

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// UserIDClaim is the payload claim holding the subject identifier.
const UserIDClaim = "userId"

const (
	// segmentCount is the number of dot-separated parts of a compact JWS.
	segmentCount = 3

	// maxTokenSize bounds the input handed to the JSON decoder.
	maxTokenSize = 64 * 1024
)

// ErrMalformedToken is returned when a token cannot be structurally decoded.
var ErrMalformedToken = errors.New("malformed token")

// Claims holds the payload of a decoded token.
type Claims map[string]any

// UserID returns the userId claim, or an empty string if it is absent
// or not a string.
func (c Claims) UserID() string {
	userID, _ := c[UserIDClaim].(string)
	return userID
}

// DecodeClaims splits the token, decodes its header and payload and returns
// the payload claims. The signature segment is left undecoded, and neither
// the signature nor the time-based claims are checked.
func DecodeClaims(token string) (Claims, error) {
	if err := checkSegments(token); err != nil {
		return nil, err
	}
	parts := strings.Split(token, ".")

	header, err := decodeSegment(parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode header: %w", ErrMalformedToken, err)
	}
	if err := json.Unmarshal(header, jws.NewHeaders()); err != nil {
		return nil, fmt.Errorf("%w: failed to parse header: %w", ErrMalformedToken, err)
	}

	payload, err := decodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode payload: %w", ErrMalformedToken, err)
	}
	parsed := jwt.New()
	if err := json.Unmarshal(payload, parsed); err != nil {
		return nil, fmt.Errorf("%w: failed to parse payload: %w", ErrMalformedToken, err)
	}

	claims, err := parsed.AsMap(context.Background())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}

	return claims, nil
}

// decodeSegment decodes a base64url segment, with or without padding.
func decodeSegment(segment string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(segment, "="))
}

// checkSegments rejects anything that is not header.payload.signature.
func checkSegments(token string) error {
	if token == "" {
		return fmt.Errorf("%w: token is empty", ErrMalformedToken)
	}
	if len(token) > maxTokenSize {
		return fmt.Errorf("%w: token exceeds %d bytes", ErrMalformedToken, maxTokenSize)
	}

	parts := strings.Split(token, ".")
	if len(parts) != segmentCount {
		return fmt.Errorf("%w: expected %d segments but found %d", ErrMalformedToken, segmentCount, len(parts))
	}
	if parts[0] == "" || parts[1] == "" {
		return fmt.Errorf("%w: header and payload must not be empty", ErrMalformedToken)
	}

	return nil
}
