package core

import (
	"errors"

	"github.com/moonzhou/jwtgate/directory"
)

// Option is a function that configures the Gate.
// Options return errors to enable validation during construction.
type Option func(*Gate) error

// New creates a new Gate with the provided options.
//
// WithDirectory and WithVerifier are required.
//
// Example:
//
//	v, _ := validator.New()
//	gate, err := core.New(
//	    core.WithDirectory(users),
//	    core.WithVerifier(v),
//	    core.WithLogger(slog.Default()),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
func New(opts ...Option) (*Gate, error) {
	g := &Gate{}

	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, err
		}
	}

	if err := g.validate(); err != nil {
		return nil, err
	}

	return g, nil
}

// validate ensures all required fields are set.
func (g *Gate) validate() error {
	if g.directory == nil {
		return errors.New("directory is required but not set (use WithDirectory option)")
	}
	if g.verifier == nil {
		return errors.New("verifier is required but not set (use WithVerifier option)")
	}
	return nil
}

// WithDirectory sets the directory used to resolve the claimed user.
func WithDirectory(dir directory.Directory) Option {
	return func(g *Gate) error {
		if dir == nil {
			return errors.New("directory cannot be nil")
		}
		g.directory = dir
		return nil
	}
}

// WithVerifier sets the signature verifier.
func WithVerifier(v Verifier) Option {
	return func(g *Gate) error {
		if v == nil {
			return errors.New("verifier cannot be nil")
		}
		g.verifier = v
		return nil
	}
}

// WithLogger sets an optional logger for the Gate.
//
// Denials are logged at warn level with their kind, lookups that abandon a
// decision at error level, and allowed requests at debug level.
func WithLogger(logger Logger) Option {
	return func(g *Gate) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		g.logger = logger
		return nil
	}
}
