// Package core provides the framework-agnostic authentication gate that can be
// used across different transport layers (HTTP, gRPC, etc.).
//
// The Gate type decides, for one request, whether it may proceed. Transport
// adapters extract the token and resolve whether the matched operation
// requires authentication; the gate does the rest.
package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/moonzhou/jwtgate/codec"
	"github.com/moonzhou/jwtgate/directory"
	"github.com/moonzhou/jwtgate/validator"
)

// Verifier checks a token's signature, algorithm and expiry against a secret.
// *validator.Validator satisfies it. Failures should wrap the validator
// package sentinels; anything else is treated as an invalid token.
type Verifier interface {
	Verify(token, secret string) (bool, error)
}

// Logger defines an optional logging interface for the gate.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Requirement is the authentication requirement of the operation a request
// was routed to. It is resolved by the transport layer.
type Requirement int

const (
	// Unmapped means the request did not map to a known operation.
	Unmapped Requirement = iota
	// Public operations do not require a token.
	Public
	// Protected operations require a valid token.
	Protected
)

func (r Requirement) String() string {
	switch r {
	case Unmapped:
		return "unmapped"
	case Public:
		return "public"
	case Protected:
		return "protected"
	default:
		return fmt.Sprintf("requirement(%d)", int(r))
	}
}

// Gate is the authentication decision engine. It holds no per-request state
// and is safe for concurrent use.
type Gate struct {
	directory directory.Directory
	verifier  Verifier
	logger    Logger
}

// Decide runs the authentication state machine for one request:
//
//	requirement → token presence → decode claims → look up user → verify signature
//
// Unmapped and public operations are allowed without looking at the token.
// The user lookup is keyed on unverified claims; only the signature check that
// follows authenticates the request.
//
// A non-nil error means the decision was abandoned because the directory
// lookup failed or ctx was cancelled. The returned Decision is then the zero
// value, which allows nothing.
func (g *Gate) Decide(ctx context.Context, requirement Requirement, token string) (Decision, error) {
	if requirement != Protected {
		g.debug("authentication not required", "requirement", requirement)
		return Allow(), nil
	}

	if token == "" {
		return g.deny(NoToken, nil), nil
	}

	claims, err := codec.DecodeClaims(token)
	if err != nil {
		return g.deny(MalformedToken, err), nil
	}

	userID := claims.UserID()
	if userID == "" {
		return g.deny(UserNotFound, errors.New("token has no userId claim")), nil
	}

	user, err := g.directory.FindUserByID(ctx, userID)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		if g.logger != nil {
			g.logger.Error("user lookup failed, abandoning decision", "error", err, "user_id", userID)
		}
		return Decision{}, fmt.Errorf("failed to look up user %q: %w", userID, err)
	}
	if user == nil {
		return g.deny(UserNotFound, nil, "user_id", userID), nil
	}

	start := time.Now()
	valid, err := g.verify(token, user.Secret)
	duration := time.Since(start)

	if err != nil {
		return g.deny(classify(err), err, "user_id", userID, "duration", duration), nil
	}
	if !valid {
		return g.deny(InvalidToken, nil, "user_id", userID, "duration", duration), nil
	}

	g.debug("token verified", "user_id", userID, "duration", duration)
	return Allow(), nil
}

// verify calls the verifier, turning a panic into an unclassified failure.
func (g *Gate) verify(token, secret string) (valid bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			valid, err = false, fmt.Errorf("verifier panicked: %v", r)
		}
	}()
	return g.verifier.Verify(token, secret)
}

func (g *Gate) deny(kind ErrorKind, cause error, args ...any) Decision {
	if g.logger != nil {
		args = append([]any{"kind", kind}, args...)
		if cause != nil {
			args = append(args, "error", cause)
		}
		g.logger.Warn("authentication denied", args...)
	}
	return Deny(kind)
}

func (g *Gate) debug(msg string, args ...any) {
	if g.logger != nil {
		g.logger.Debug(msg, args...)
	}
}

// classify maps a verification failure onto its ErrorKind. Anything not
// recognised, including validator.ErrVerificationFailure, is InvalidToken.
func classify(err error) ErrorKind {
	switch {
	case errors.Is(err, validator.ErrSignatureMismatch):
		return SignatureMismatch
	case errors.Is(err, validator.ErrTokenExpired):
		return TokenExpired
	case errors.Is(err, validator.ErrAlgorithmMismatch):
		return AlgorithmMismatch
	case errors.Is(err, validator.ErrInvalidClaim):
		return InvalidClaim
	default:
		return InvalidToken
	}
}
