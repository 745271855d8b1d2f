package jwtgate

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/moonzhou/jwtgate/core"
)

// OperationResolver resolves the authentication requirement of the
// operation a request maps to.
type OperationResolver func(r *http.Request) core.Requirement

// ProtectAll is an OperationResolver that treats every request as protected.
func ProtectAll(*http.Request) core.Requirement {
	return core.Protected
}

// Operations is a route table declaring which operations require
// authentication. Patterns use the net/http.ServeMux syntax, so
// "GET /users/{id}" and "/admin/" both work. A request that matches no
// registered pattern resolves to core.Unmapped.
//
// Operations must be fully registered before Resolve is used concurrently.
type Operations struct {
	mux      *http.ServeMux
	patterns map[string]core.Requirement
}

// NewOperations returns an empty route table.
func NewOperations() *Operations {
	return &Operations{
		mux:      http.NewServeMux(),
		patterns: make(map[string]core.Requirement),
	}
}

// requirementHandler marks a pattern in the mux. It is never served.
type requirementHandler core.Requirement

func (requirementHandler) ServeHTTP(http.ResponseWriter, *http.Request) {}

// Protect declares that method and path require a valid token. An empty
// method matches every method.
func (o *Operations) Protect(method, path string) error {
	return o.Register(pattern(method, path), core.Protected)
}

// Permit declares that method and path are public.
func (o *Operations) Permit(method, path string) error {
	return o.Register(pattern(method, path), core.Public)
}

// Register declares a ServeMux pattern with the given requirement.
func (o *Operations) Register(pattern string, requirement core.Requirement) (err error) {
	if requirement != core.Public && requirement != core.Protected {
		return fmt.Errorf("cannot register %q as %s", pattern, requirement)
	}
	if _, ok := o.patterns[pattern]; ok {
		return fmt.Errorf("operation %q already registered", pattern)
	}

	// ServeMux panics on invalid or conflicting patterns.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("invalid operation %q: %v", pattern, r)
		}
	}()
	o.mux.Handle(pattern, requirementHandler(requirement))
	o.patterns[pattern] = requirement
	return nil
}

// Resolve implements OperationResolver.
func (o *Operations) Resolve(r *http.Request) core.Requirement {
	h, matched := o.mux.Handler(r)
	if matched == "" {
		return core.Unmapped
	}
	requirement, ok := h.(requirementHandler)
	if !ok {
		// Redirects to a canonical path are not the operation itself.
		return core.Unmapped
	}
	return core.Requirement(requirement)
}

// Len returns the number of registered operations.
func (o *Operations) Len() int {
	return len(o.patterns)
}

// ParseOperations builds a route table of protected operations from entries
// such as "GET /users/{id}" or "/admin/".
func ParseOperations(protected []string) (*Operations, error) {
	ops := NewOperations()
	for _, entry := range protected {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if err := ops.Register(entry, core.Protected); err != nil {
			return nil, err
		}
	}
	return ops, nil
}

func pattern(method, path string) string {
	if method == "" {
		return path
	}
	return strings.ToUpper(method) + " " + path
}
