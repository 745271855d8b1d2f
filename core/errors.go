package core

import "errors"

// Sentinel errors.
var (
	// ErrDenied is matched by every *DenyError.
	ErrDenied = errors.New("authentication denied")
)

// ErrorKind classifies a denied request. Each kind is a stable,
// machine-readable code.
type ErrorKind string

// Error kinds
const (
	NoToken           ErrorKind = "no_token"
	MalformedToken    ErrorKind = "malformed_token"
	UserNotFound      ErrorKind = "user_not_found"
	SignatureMismatch ErrorKind = "signature_mismatch"
	TokenExpired      ErrorKind = "token_expired"
	AlgorithmMismatch ErrorKind = "algorithm_mismatch"
	InvalidClaim      ErrorKind = "invalid_claim"
	InvalidToken      ErrorKind = "invalid_token"
)

// ErrorKinds lists every kind, in the order the gate can produce them.
var ErrorKinds = []ErrorKind{
	NoToken,
	MalformedToken,
	UserNotFound,
	SignatureMismatch,
	TokenExpired,
	AlgorithmMismatch,
	InvalidClaim,
	InvalidToken,
}

var kindMessages = map[ErrorKind]string{
	NoToken:           "no token, please log in again",
	MalformedToken:    "401",
	UserNotFound:      "user does not exist, please log in again",
	SignatureMismatch: "signature mismatch",
	TokenExpired:      "token expired",
	AlgorithmMismatch: "algorithm mismatch",
	InvalidClaim:      "invalid payload",
	InvalidToken:      "invalid token",
}

// Unauthorized reports whether the kind is a "401-style" failure: the
// credential itself could not be processed. The other kinds are business
// failures, reported with a human-readable message.
func (k ErrorKind) Unauthorized() bool {
	switch k {
	case MalformedToken, AlgorithmMismatch, InvalidToken:
		return true
	default:
		return false
	}
}

// Message returns the human-readable message of the kind.
func (k ErrorKind) Message() string {
	if msg, ok := kindMessages[k]; ok {
		return msg
	}
	return string(k)
}

func (k ErrorKind) String() string {
	return string(k)
}

// DenyError describes a denied request. It is what transport adapters hand
// to their error handlers.
type DenyError struct {
	// Kind is the reason for the denial.
	Kind ErrorKind

	// Message is the human-readable message of Kind.
	Message string
}

// Error implements the error interface.
func (e *DenyError) Error() string {
	return e.Message
}

// Is allows the error to be compared with ErrDenied.
func (e *DenyError) Is(target error) bool {
	return target == ErrDenied
}

// NewDenyError creates a DenyError for kind.
func NewDenyError(kind ErrorKind) *DenyError {
	return &DenyError{
		Kind:    kind,
		Message: kind.Message(),
	}
}
