package jwtgate

import (
	"errors"

	"github.com/moonzhou/jwtgate/core"
	"github.com/moonzhou/jwtgate/directory"
)

// Option configures the Middleware.
// Returns error for validation failures.
type Option func(*Middleware) error

// WithGate sets a preconfigured gate. It replaces WithDirectory and
// WithVerifier, which are only used to build a gate when none is given.
func WithGate(gate *core.Gate) Option {
	return func(m *Middleware) error {
		if gate == nil {
			return ErrGateNil
		}
		m.gate = gate
		return nil
	}
}

// WithDirectory sets the user directory the gate looks users up in
// (REQUIRED unless WithGate is used).
func WithDirectory(d directory.Directory) Option {
	return func(m *Middleware) error {
		if d == nil {
			return ErrDirectoryNil
		}
		m.directory = d
		return nil
	}
}

// WithVerifier sets the signature verifier.
//
// Default: a *validator.Validator expecting HS256
func WithVerifier(v core.Verifier) Option {
	return func(m *Middleware) error {
		if v == nil {
			return ErrVerifierNil
		}
		m.verifier = v
		return nil
	}
}

// WithResolver sets the function resolving the requirement of the
// operation a request maps to.
//
// Default: ProtectAll
func WithResolver(resolver OperationResolver) Option {
	return func(m *Middleware) error {
		if resolver == nil {
			return ErrResolverNil
		}
		m.resolver = resolver
		return nil
	}
}

// WithOperations uses a route table as the resolver.
func WithOperations(ops *Operations) Option {
	return func(m *Middleware) error {
		if ops == nil {
			return ErrResolverNil
		}
		m.resolver = ops.Resolve
		return nil
	}
}

// WithErrorHandler sets the handler called when a request is denied or the
// decision could not be made. See the ErrorHandler type for more information.
//
// Default: DefaultErrorHandler
func WithErrorHandler(h ErrorHandler) Option {
	return func(m *Middleware) error {
		if h == nil {
			return ErrErrorHandlerNil
		}
		m.errorHandler = h
		return nil
	}
}

// WithTokenExtractor sets the function to extract the token from the request.
//
// Default: HeaderTokenExtractor(TokenHeader)
func WithTokenExtractor(e TokenExtractor) Option {
	return func(m *Middleware) error {
		if e == nil {
			return ErrTokenExtractorNil
		}
		m.tokenExtractor = e
		return nil
	}
}

// WithLogger sets an optional logger for the middleware.
// The logger will be used throughout the decision flow in both middleware and core.
//
// The logger interface is compatible with log/slog.Logger and similar loggers.
//
// Example:
//
//	middleware, err := jwtgate.New(
//	    jwtgate.WithDirectory(users),
//	    jwtgate.WithLogger(slog.Default()),
//	)
func WithLogger(logger Logger) Option {
	return func(m *Middleware) error {
		if logger == nil {
			return ErrLoggerNil
		}
		m.logger = logger
		return nil
	}
}

// WithMetrics sets the metrics sink.
//
// Default: NoopMetrics
func WithMetrics(metrics Metrics) Option {
	return func(m *Middleware) error {
		if metrics == nil {
			return ErrMetricsNil
		}
		m.metrics = metrics
		return nil
	}
}

// WithTracer sets the tracer. One span is started per decision.
//
// Default: NoopTracer
func WithTracer(tracer Tracer) Option {
	return func(m *Middleware) error {
		if tracer == nil {
			return ErrTracerNil
		}
		m.tracer = tracer
		return nil
	}
}

// WithRequestIDHeader sets the header a request id is read from and echoed
// in. Requests without one get a generated UUID.
//
// Default: "X-Request-Id"
func WithRequestIDHeader(header string) Option {
	return func(m *Middleware) error {
		if header == "" {
			return ErrRequestIDHeaderEmpty
		}
		m.requestIDHeader = header
		return nil
	}
}

// Sentinel errors for configuration validation
var (
	ErrGateNil              = errors.New("gate cannot be nil")
	ErrDirectoryNil         = errors.New("directory cannot be nil (use WithDirectory)")
	ErrVerifierNil          = errors.New("verifier cannot be nil")
	ErrResolverNil          = errors.New("resolver cannot be nil")
	ErrErrorHandlerNil      = errors.New("errorHandler cannot be nil")
	ErrTokenExtractorNil    = errors.New("tokenExtractor cannot be nil")
	ErrLoggerNil            = errors.New("logger cannot be nil")
	ErrMetricsNil           = errors.New("metrics cannot be nil")
	ErrTracerNil            = errors.New("tracer cannot be nil")
	ErrRequestIDHeaderEmpty = errors.New("request id header cannot be empty")
)
