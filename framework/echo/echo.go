// Package jwtecho adapts the authentication gate to Echo.
package jwtecho

import (
	"github.com/labstack/echo/v4"

	"github.com/moonzhou/jwtgate"
	"github.com/moonzhou/jwtgate/core"
)

// Resolver resolves the requirement of the operation a request maps to.
type Resolver func(c echo.Context) core.Requirement

// echoMiddlewareConfig holds all configuration for the middleware
type echoMiddlewareConfig struct {
	resolver       Resolver
	errorHandler   func(echo.Context, error) error
	tokenExtractor jwtgate.TokenExtractor
	logger         jwtgate.Logger
}

// Option is a function that configures the middleware
type Option func(*echoMiddlewareConfig)

// WithErrorHandler sets a custom error handler
func WithErrorHandler(handler func(echo.Context, error) error) Option {
	return func(config *echoMiddlewareConfig) {
		config.errorHandler = handler
	}
}

// WithTokenExtractor sets a custom token extractor
func WithTokenExtractor(extractor jwtgate.TokenExtractor) Option {
	return func(config *echoMiddlewareConfig) {
		config.tokenExtractor = extractor
	}
}

// WithResolver sets a custom requirement resolver
func WithResolver(resolver Resolver) Option {
	return func(config *echoMiddlewareConfig) {
		config.resolver = resolver
	}
}

// WithRoutes declares which routes are protected and which are public.
// Routes are the registered paths, "METHOD /users/:id" or "/users/:id" for
// every method. Routes in neither list are unmapped.
func WithRoutes(protected, public []string) Option {
	table := make(map[string]core.Requirement, len(protected)+len(public))
	for _, route := range public {
		table[route] = core.Public
	}
	for _, route := range protected {
		table[route] = core.Protected
	}
	return func(config *echoMiddlewareConfig) {
		config.resolver = func(c echo.Context) core.Requirement {
			if requirement, ok := table[c.Request().Method+" "+c.Path()]; ok {
				return requirement
			}
			if requirement, ok := table[c.Path()]; ok {
				return requirement
			}
			return core.Unmapped
		}
	}
}

// WithLogger sets a logger for the adapter
func WithLogger(logger jwtgate.Logger) Option {
	return func(config *echoMiddlewareConfig) {
		config.logger = logger
	}
}

// New creates an Echo middleware deciding every request with gate. Without
// WithRoutes or WithResolver every request is protected.
func New(gate *core.Gate, opts ...Option) echo.MiddlewareFunc {
	config := &echoMiddlewareConfig{
		resolver:       func(echo.Context) core.Requirement { return core.Protected },
		errorHandler:   defaultEchoErrorHandler,
		tokenExtractor: jwtgate.HeaderTokenExtractor(jwtgate.TokenHeader),
	}

	for _, opt := range opts {
		opt(config)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requirement := config.resolver(c)
			if requirement != core.Protected {
				return next(c)
			}

			token, err := config.tokenExtractor(c.Request())
			if err != nil {
				config.logError("failed to extract token from request", "error", err, "path", c.Path())
				return config.errorHandler(c, err)
			}

			decision, err := gate.Decide(c.Request().Context(), requirement, token)
			if err != nil {
				config.logError("authentication aborted", "error", err, "path", c.Path())
				return config.errorHandler(c, err)
			}
			if !decision.Allowed() {
				return config.errorHandler(c, decision.Err())
			}

			return next(c)
		}
	}
}

func (config *echoMiddlewareConfig) logError(msg string, args ...any) {
	if config.logger != nil {
		config.logger.Error(msg, args...)
	}
}

func defaultEchoErrorHandler(c echo.Context, err error) error {
	status, body := jwtgate.ResponseFor(err)
	return c.JSON(status, body)
}
