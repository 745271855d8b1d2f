/*
Package validator verifies token signatures using the golang-jwt/jwt v5 library.

A Validator recomputes the HMAC signature over the token's header and payload
with a secret supplied per call, and checks the time-based claims. The secret
is not part of the Validator: the gate resolves it from the user directory
after decoding the claimed subject.

# Basic Usage

	v, err := validator.New(
	    validator.WithAlgorithm(validator.HS256),
	    validator.WithAllowedClockSkew(30 * time.Second),
	)
	if err != nil {
	    log.Fatal(err)
	}

	ok, err := v.Verify(token, user.Secret)

# Error Handling

Every failure wraps exactly one sentinel:

	switch {
	case errors.Is(err, validator.ErrAlgorithmMismatch):
	    // alg header differs from the configured algorithm
	case errors.Is(err, validator.ErrSignatureMismatch):
	    // signed with another secret, tampered, or signature not base64url
	case errors.Is(err, validator.ErrTokenExpired):
	    // exp has passed
	case errors.Is(err, validator.ErrInvalidClaim):
	    // nbf or iat in the future, issuer/audience mismatch, missing exp when required
	case errors.Is(err, validator.ErrVerificationFailure):
	    // anything else
	}

The algorithm is checked first so that a token declaring a different
algorithm is never verified with the shared secret. Signature verification
precedes claim validation; an expired token with a valid signature yields
ErrTokenExpired.

# Thread Safety

Validator is immutable after New and safe for concurrent use.
*/
package validator
