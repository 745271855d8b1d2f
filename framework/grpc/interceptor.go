// Package jwtgrpc adapts the authentication gate to gRPC servers.
//
// The operation of a call is its full method name, "/package.Service/Method".
// The token travels in the "token" metadata key.
package jwtgrpc

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/moonzhou/jwtgate"
	"github.com/moonzhou/jwtgate/core"
)

// Resolver resolves the requirement of a full method name.
type Resolver func(fullMethod string) core.Requirement

// ErrorHandler turns a denial or an abandoned decision into the status
// error returned to the client.
type ErrorHandler func(ctx context.Context, err error) error

// Interceptor provides gate-backed authentication for gRPC.
type Interceptor struct {
	gate           *core.Gate
	resolver       Resolver
	tokenExtractor TokenExtractor
	errorHandler   ErrorHandler
	logger         jwtgate.Logger
	tracer         jwtgate.Tracer
}

// Option configures the Interceptor.
type Option func(*Interceptor)

// WithMethods declares which full methods are protected and which are
// public. Methods in neither list are unmapped.
func WithMethods(protected, public []string) Option {
	table := make(map[string]core.Requirement, len(protected)+len(public))
	for _, m := range public {
		table[m] = core.Public
	}
	for _, m := range protected {
		table[m] = core.Protected
	}
	return func(i *Interceptor) {
		i.resolver = func(fullMethod string) core.Requirement {
			if requirement, ok := table[fullMethod]; ok {
				return requirement
			}
			return core.Unmapped
		}
	}
}

// WithResolver sets a custom requirement resolver.
func WithResolver(resolver Resolver) Option {
	return func(i *Interceptor) {
		i.resolver = resolver
	}
}

// WithTokenExtractor sets a custom token extractor.
func WithTokenExtractor(extractor TokenExtractor) Option {
	return func(i *Interceptor) {
		i.tokenExtractor = extractor
	}
}

// WithErrorHandler sets a custom error handler.
func WithErrorHandler(handler ErrorHandler) Option {
	return func(i *Interceptor) {
		i.errorHandler = handler
	}
}

// WithLogger sets a logger for the interceptor.
func WithLogger(logger jwtgate.Logger) Option {
	return func(i *Interceptor) {
		i.logger = logger
	}
}

// WithTracer sets a tracer. One span is started per decision.
func WithTracer(tracer jwtgate.Tracer) Option {
	return func(i *Interceptor) {
		i.tracer = tracer
	}
}

// New creates a new Interceptor deciding calls with gate. Without
// WithMethods or WithResolver every method is protected.
func New(gate *core.Gate, opts ...Option) *Interceptor {
	i := &Interceptor{
		gate:           gate,
		resolver:       func(string) core.Requirement { return core.Protected },
		tokenExtractor: MetadataTokenExtractor,
		errorHandler:   DefaultErrorHandler,
		tracer:         &jwtgate.NoopTracer{},
	}

	for _, opt := range opts {
		opt(i)
	}

	return i
}

// authenticate returns nil when the call may proceed, or the status error
// to answer it with.
func (i *Interceptor) authenticate(ctx context.Context, method string) error {
	requirement := i.resolver(method)
	if requirement != core.Protected {
		i.debug("authentication not required", "method", method, "requirement", requirement)
		return nil
	}

	token, err := i.tokenExtractor(ctx)
	if err != nil {
		i.logError("error extracting token", "method", method, "error", err)
		return i.errorHandler(ctx, err)
	}

	spanCtx, span := i.tracer.StartSpan(ctx, jwtgate.SpanDecide)
	span.SetTag("rpc.method", method)
	defer span.Finish()

	decision, err := i.gate.Decide(spanCtx, requirement, token)
	if err != nil {
		span.RecordError(err)
		i.logError("authentication aborted", "method", method, "error", err)
		return i.errorHandler(ctx, err)
	}

	span.SetTag("jwtgate.allowed", decision.Allowed())
	if !decision.Allowed() {
		span.SetTag("jwtgate.kind", decision.Kind())
		return i.errorHandler(ctx, decision.Err())
	}

	return nil
}

// UnaryServerInterceptor returns a gRPC unary server interceptor.
func (i *Interceptor) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if err := i.authenticate(ctx, info.FullMethod); err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// StreamServerInterceptor returns a gRPC stream server interceptor.
func (i *Interceptor) StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if err := i.authenticate(ss.Context(), info.FullMethod); err != nil {
			return err
		}
		return handler(srv, ss)
	}
}

// DefaultErrorHandler maps 401-style denials to codes.Unauthenticated, the
// other denials to codes.PermissionDenied and everything else to
// codes.Internal.
func DefaultErrorHandler(_ context.Context, err error) error {
	var denyErr *core.DenyError
	if !errors.As(err, &denyErr) {
		return status.Error(codes.Internal, "something went wrong while checking the token")
	}

	_, body := jwtgate.ResponseFor(denyErr)
	if denyErr.Kind.Unauthorized() {
		return status.Error(codes.Unauthenticated, body.Code+": "+body.Message)
	}
	return status.Error(codes.PermissionDenied, body.Code+": "+body.Message)
}

func (i *Interceptor) debug(msg string, args ...any) {
	if i.logger != nil {
		i.logger.Debug(msg, args...)
	}
}

func (i *Interceptor) logError(msg string, args ...any) {
	if i.logger != nil {
		i.logger.Error(msg, args...)
	}
}
