package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Signature algorithms. Tokens are signed with a per-user shared secret, so
// only the HMAC family is accepted.
const (
	HS256 = SignatureAlgorithm("HS256") // HMAC using SHA-256
	HS384 = SignatureAlgorithm("HS384") // HMAC using SHA-384
	HS512 = SignatureAlgorithm("HS512") // HMAC using SHA-512
)

// SignatureAlgorithm is a signature algorithm.
type SignatureAlgorithm string

var allowedSigningAlgorithms = map[SignatureAlgorithm]bool{
	HS256: true,
	HS384: true,
	HS512: true,
}

// Verification failures. Verify wraps exactly one of these so callers can
// classify the outcome with errors.Is.
var (
	// ErrAlgorithmMismatch is returned when the token header declares an
	// algorithm other than the configured one.
	ErrAlgorithmMismatch = errors.New("algorithm mismatch")

	// ErrSignatureMismatch is returned when the signature does not match the
	// header and payload under the supplied secret.
	ErrSignatureMismatch = errors.New("signature mismatch")

	// ErrTokenExpired is returned when the exp claim has passed.
	ErrTokenExpired = errors.New("token expired")

	// ErrInvalidClaim is returned when the claim set fails structural or
	// expected-value checks.
	ErrInvalidClaim = errors.New("invalid claim")

	// ErrVerificationFailure is returned for any other verification anomaly.
	ErrVerificationFailure = errors.New("verification failure")
)

// Validator verifies token signatures against a caller-supplied secret.
// It holds no mutable state and is safe for concurrent use.
type Validator struct {
	signatureAlgorithm SignatureAlgorithm // Default HS256.
	issuer             string             // Optional.
	audience           string             // Optional.
	expirationRequired bool               // Optional.
	allowedClockSkew   time.Duration      // Optional.
	timeFunc           func() time.Time   // Optional.
}

// New sets up a new Validator. Without options it expects HS256 and only
// checks the time-based claims that are present.
func New(opts ...Option) (*Validator, error) {
	v := &Validator{
		signatureAlgorithm: HS256,
	}

	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	return v, nil
}

// Verify checks the algorithm, the signature and the claims of the token, in
// that order. It returns true only when every check passes.
func (v *Validator) Verify(token, secret string) (bool, error) {
	if err := v.verifyAlgorithm(token); err != nil {
		return false, err
	}
	if err := verifySignatureEncoding(token); err != nil {
		return false, err
	}

	parsed, err := jwt.NewParser(v.parserOptions()...).Parse(token, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return false, classify(err)
	}

	return parsed.Valid, nil
}

// verifyAlgorithm compares the declared alg header with the expected one
// before any key material is used.
func (v *Validator) verifyAlgorithm(token string) error {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenUnverifiable) {
			return fmt.Errorf("%w: %w", ErrAlgorithmMismatch, err)
		}
		return fmt.Errorf("%w: %w", ErrVerificationFailure, err)
	}

	if alg := parsed.Method.Alg(); alg != string(v.signatureAlgorithm) {
		return fmt.Errorf("%w: expected %q signing algorithm but token specified %q",
			ErrAlgorithmMismatch, v.signatureAlgorithm, alg)
	}

	return nil
}

// verifySignatureEncoding reports a signature segment that is not base64url
// as a mismatch: no secret can produce it.
func verifySignatureEncoding(token string) error {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil
	}
	if _, err := jwt.NewParser().DecodeSegment(parts[2]); err != nil {
		return fmt.Errorf("%w: could not decode signature: %w", ErrSignatureMismatch, err)
	}
	return nil
}

func (v *Validator) parserOptions() []jwt.ParserOption {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{string(v.signatureAlgorithm)}),
		jwt.WithLeeway(v.allowedClockSkew),
		jwt.WithIssuedAt(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}
	if v.expirationRequired {
		opts = append(opts, jwt.WithExpirationRequired())
	}
	if v.timeFunc != nil {
		opts = append(opts, jwt.WithTimeFunc(v.timeFunc))
	}
	return opts
}

// classify maps parser errors onto the verification failures. Expiry is
// checked before the generic claim failure because the parser reports an
// expired token as both.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %w", ErrSignatureMismatch, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %w", ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenInvalidClaims):
		return fmt.Errorf("%w: %w", ErrInvalidClaim, err)
	default:
		return fmt.Errorf("%w: %w", ErrVerificationFailure, err)
	}
}
