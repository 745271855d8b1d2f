// Package jwtgin adapts the authentication gate to Gin.
//
// The operation of a request is its matched route, "METHOD /full/:path".
// Requests that match no route are unmapped and pass through.
package jwtgin

import (
	"github.com/gin-gonic/gin"

	"github.com/moonzhou/jwtgate"
	"github.com/moonzhou/jwtgate/core"
)

// Resolver resolves the requirement of the operation a request maps to.
type Resolver func(c *gin.Context) core.Requirement

type config struct {
	resolver       Resolver
	errorHandler   func(*gin.Context, error)
	tokenExtractor jwtgate.TokenExtractor
	logger         jwtgate.Logger
}

// Option defines a functional option for configuring the middleware
type Option func(*config)

// WithErrorHandler sets a custom error handler for the middleware. The error
// is a *core.DenyError for denials and any other error for abandoned decisions.
func WithErrorHandler(handler func(*gin.Context, error)) Option {
	return func(cfg *config) {
		cfg.errorHandler = handler
	}
}

// WithTokenExtractor sets a custom token extractor.
func WithTokenExtractor(extractor jwtgate.TokenExtractor) Option {
	return func(cfg *config) {
		cfg.tokenExtractor = extractor
	}
}

// WithResolver sets a custom requirement resolver.
func WithResolver(resolver Resolver) Option {
	return func(cfg *config) {
		cfg.resolver = resolver
	}
}

// WithRoutes declares which routes are protected and which are public. Routes
// are written "METHOD /full/:path", or "/full/:path" for every method. Matched
// routes in neither list are unmapped.
func WithRoutes(protected, public []string) Option {
	table := make(map[string]core.Requirement, len(protected)+len(public))
	for _, route := range public {
		table[route] = core.Public
	}
	for _, route := range protected {
		table[route] = core.Protected
	}
	return func(cfg *config) {
		cfg.resolver = func(c *gin.Context) core.Requirement {
			fullPath := c.FullPath()
			if fullPath == "" {
				return core.Unmapped
			}
			if requirement, ok := table[c.Request.Method+" "+fullPath]; ok {
				return requirement
			}
			if requirement, ok := table[fullPath]; ok {
				return requirement
			}
			return core.Unmapped
		}
	}
}

// WithLogger sets a logger for the adapter.
func WithLogger(logger jwtgate.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// New creates a Gin middleware deciding every request with gate. Without
// WithRoutes or WithResolver every matched route is protected.
func New(gate *core.Gate, opts ...Option) gin.HandlerFunc {
	cfg := &config{
		resolver:       protectMatched,
		errorHandler:   defaultErrorHandler,
		tokenExtractor: jwtgate.HeaderTokenExtractor(jwtgate.TokenHeader),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *gin.Context) {
		requirement := cfg.resolver(c)
		if requirement != core.Protected {
			c.Next()
			return
		}

		token, err := cfg.tokenExtractor(c.Request)
		if err != nil {
			cfg.logError("failed to extract token from request", "error", err, "path", c.FullPath())
			cfg.errorHandler(c, err)
			c.Abort()
			return
		}

		decision, err := gate.Decide(c.Request.Context(), requirement, token)
		if err != nil {
			cfg.logError("authentication aborted", "error", err, "path", c.FullPath())
			cfg.errorHandler(c, err)
			c.Abort()
			return
		}
		if !decision.Allowed() {
			cfg.errorHandler(c, decision.Err())
			c.Abort()
			return
		}

		c.Next()
	}
}

func (cfg *config) logError(msg string, args ...any) {
	if cfg.logger != nil {
		cfg.logger.Error(msg, args...)
	}
}

func protectMatched(c *gin.Context) core.Requirement {
	if c.FullPath() == "" {
		return core.Unmapped
	}
	return core.Protected
}

func defaultErrorHandler(c *gin.Context, err error) {
	status, body := jwtgate.ResponseFor(err)
	c.AbortWithStatusJSON(status, body)
}
