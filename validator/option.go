package validator

import (
	"errors"
	"fmt"
	"time"
)

// Option is how options for the Validator are set up.
// Options return errors to enable validation during construction.
type Option func(*Validator) error

// WithAlgorithm sets the signature algorithm that tokens must declare.
//
// Supported algorithms: HS256 (default), HS384, HS512.
func WithAlgorithm(algorithm SignatureAlgorithm) Option {
	return func(v *Validator) error {
		if _, ok := allowedSigningAlgorithms[algorithm]; !ok {
			return fmt.Errorf("unsupported signature algorithm: %s", algorithm)
		}
		v.signatureAlgorithm = algorithm
		return nil
	}
}

// WithIssuer requires the iss claim to equal issuer.
func WithIssuer(issuer string) Option {
	return func(v *Validator) error {
		if issuer == "" {
			return errors.New("issuer cannot be empty")
		}
		v.issuer = issuer
		return nil
	}
}

// WithAudience requires the aud claim to contain audience.
func WithAudience(audience string) Option {
	return func(v *Validator) error {
		if audience == "" {
			return errors.New("audience cannot be empty")
		}
		v.audience = audience
		return nil
	}
}

// WithExpirationRequired rejects tokens that carry no exp claim.
func WithExpirationRequired() Option {
	return func(v *Validator) error {
		v.expirationRequired = true
		return nil
	}
}

// WithAllowedClockSkew sets the tolerance applied to exp, nbf and iat.
// If not set, the default is 0 (no clock skew allowed).
func WithAllowedClockSkew(skew time.Duration) Option {
	return func(v *Validator) error {
		if skew < 0 {
			return errors.New("clock skew cannot be negative")
		}
		v.allowedClockSkew = skew
		return nil
	}
}

// WithTimeFunc overrides the clock used for the time-based claims.
func WithTimeFunc(now func() time.Time) Option {
	return func(v *Validator) error {
		if now == nil {
			return errors.New("time func cannot be nil")
		}
		v.timeFunc = now
		return nil
	}
}
