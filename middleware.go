package jwtgate

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/moonzhou/jwtgate/core"
	"github.com/moonzhou/jwtgate/directory"
	"github.com/moonzhou/jwtgate/validator"
)

// DefaultRequestIDHeader carries the request id read and echoed by the middleware.
const DefaultRequestIDHeader = "X-Request-Id"

// Middleware is the net/http adapter of the authentication gate.
type Middleware struct {
	gate            *core.Gate
	resolver        OperationResolver
	errorHandler    ErrorHandler
	tokenExtractor  TokenExtractor
	requestIDHeader string
	logger          Logger
	metrics         Metrics
	tracer          Tracer

	inFlight atomic.Int64

	// Temporary fields used during construction
	directory directory.Directory
	verifier  core.Verifier
}

// New constructs a new Middleware instance with the supplied options.
// All parameters are passed via options (pure options pattern).
//
// Example:
//
//	ops := jwtgate.NewOperations()
//	if err := ops.Protect(http.MethodGet, "/users/{id}"); err != nil {
//	    log.Fatal(err)
//	}
//
//	middleware, err := jwtgate.New(
//	    jwtgate.WithDirectory(users),
//	    jwtgate.WithOperations(ops),
//	)
//	if err != nil {
//	    log.Fatalf("failed to create middleware: %v", err)
//	}
func New(opts ...Option) (*Middleware, error) {
	m := &Middleware{}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	m.applyDefaults()

	if m.gate == nil {
		if err := m.createGate(); err != nil {
			return nil, fmt.Errorf("failed to create gate: %w", err)
		}
	}
	m.directory, m.verifier = nil, nil

	return m, nil
}

// createGate creates the core.Gate from the configured directory and verifier.
func (m *Middleware) createGate() error {
	if m.directory == nil {
		return ErrDirectoryNil
	}

	if m.verifier == nil {
		v, err := validator.New()
		if err != nil {
			return err
		}
		m.verifier = v
	}

	gateOpts := []core.Option{
		core.WithDirectory(m.directory),
		core.WithVerifier(m.verifier),
	}
	if m.logger != nil {
		gateOpts = append(gateOpts, core.WithLogger(m.logger))
	}

	gate, err := core.New(gateOpts...)
	if err != nil {
		return err
	}
	m.gate = gate
	return nil
}

// applyDefaults sets default values for optional fields not set by options
func (m *Middleware) applyDefaults() {
	if m.resolver == nil {
		m.resolver = ProtectAll
	}
	if m.errorHandler == nil {
		m.errorHandler = DefaultErrorHandler
	}
	if m.tokenExtractor == nil {
		m.tokenExtractor = HeaderTokenExtractor(TokenHeader)
	}
	if m.requestIDHeader == "" {
		m.requestIDHeader = DefaultRequestIDHeader
	}
	if m.metrics == nil {
		m.metrics = &NoopMetrics{}
	}
	if m.tracer == nil {
		m.tracer = &NoopTracer{}
	}
}

// Gate returns the gate the middleware decides with.
func (m *Middleware) Gate() *core.Gate {
	return m.gate
}

// CheckToken is the main Middleware function. It is passed a http.Handler
// which will be called if the gate allows the request.
func (m *Middleware) CheckToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(m.requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(m.requestIDHeader, requestID)

		requirement := m.resolver(r)
		if requirement != core.Protected {
			m.debug("authentication not required",
				"request_id", requestID,
				"requirement", requirement,
				"method", r.Method,
				"path", r.URL.Path)
			m.record(core.Allow(), requirement, 0, nil)
			next.ServeHTTP(w, r)
			return
		}

		token, err := m.tokenExtractor(r)
		if err != nil {
			// An error here means the extractor failed, not that the
			// token was missing.
			m.logError("failed to extract token from request",
				"request_id", requestID,
				"error", err,
				"method", r.Method,
				"path", r.URL.Path)
			m.record(core.Decision{}, requirement, 0, err)
			m.errorHandler(w, r, fmt.Errorf("error extracting token: %w", err))
			return
		}

		ctx, span := m.tracer.StartSpan(r.Context(), SpanDecide)
		span.SetTag("jwtgate.request_id", requestID)
		span.SetTag("http.method", r.Method)
		span.SetTag("http.route", r.URL.Path)

		m.metrics.SetGauge(MetricDecisionsInFlight, float64(m.inFlight.Add(1)), map[string]string{})
		start := time.Now()
		decision, err := m.gate.Decide(ctx, requirement, token)
		elapsed := time.Since(start)
		m.metrics.SetGauge(MetricDecisionsInFlight, float64(m.inFlight.Add(-1)), map[string]string{})

		m.record(decision, requirement, elapsed, err)

		switch {
		case err != nil:
			span.RecordError(err)
			span.Finish()
			m.logError("authentication aborted",
				"request_id", requestID,
				"error", err,
				"method", r.Method,
				"path", r.URL.Path)
			m.errorHandler(w, r, err)
		case !decision.Allowed():
			span.SetTag("jwtgate.allowed", false)
			span.SetTag("jwtgate.kind", decision.Kind())
			span.Finish()
			m.debug("request denied",
				"request_id", requestID,
				"kind", decision.Kind(),
				"method", r.Method,
				"path", r.URL.Path)
			m.errorHandler(w, r, decision.Err())
		default:
			span.SetTag("jwtgate.allowed", true)
			span.Finish()
			next.ServeHTTP(w, r.WithContext(ctx))
		}
	})
}

// record reports a decision to the metrics sink. err marks an abandoned
// decision.
func (m *Middleware) record(decision core.Decision, requirement core.Requirement, elapsed time.Duration, err error) {
	outcome, kind := "allow", ""
	switch {
	case err != nil:
		outcome = "error"
	case !decision.Allowed():
		outcome, kind = "deny", string(decision.Kind())
	}

	m.metrics.IncCounter(MetricDecisions, map[string]string{
		"outcome":     outcome,
		"kind":        kind,
		"requirement": requirement.String(),
	})
	if requirement == core.Protected && elapsed > 0 {
		m.metrics.ObserveHistogram(MetricDecisionSeconds, elapsed.Seconds(), map[string]string{
			"outcome": outcome,
		})
	}
}

func (m *Middleware) debug(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Debug(msg, args...)
	}
}

func (m *Middleware) logError(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Error(msg, args...)
	}
}
