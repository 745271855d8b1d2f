/*
Package jwtgate provides HTTP middleware that authenticates requests with
per-user HMAC-signed tokens.

Each request carries its token in the "token" header. The middleware decodes
the token without verifying it to learn which user it claims to be, looks that
user up in a directory, and verifies the signature with the user's secret. The
middleware follows the Core-Adapter pattern, with this package serving as the
net/http transport adapter for the gate in package core.

# Quick Start

	import (
	    "github.com/moonzhou/jwtgate"
	    "github.com/moonzhou/jwtgate/directory"
	)

	func main() {
	    users := directory.NewMemory(directory.User{ID: "u1", Secret: "s1"})

	    ops := jwtgate.NewOperations()
	    if err := ops.Protect(http.MethodGet, "/users/{id}"); err != nil {
	        log.Fatal(err)
	    }
	    if err := ops.Permit(http.MethodPost, "/login"); err != nil {
	        log.Fatal(err)
	    }

	    middleware, err := jwtgate.New(
	        jwtgate.WithDirectory(users),
	        jwtgate.WithOperations(ops),
	    )
	    if err != nil {
	        log.Fatal(err)
	    }

	    http.Handle("/", middleware.CheckToken(apiHandler))
	    http.ListenAndServe(":8080", nil)
	}

# Operations

Whether a request needs a token depends on the operation it maps to:

  - Protect(method, path) operations need a valid token.
  - Permit(method, path) operations are public.
  - Requests matching no registered pattern are unmapped and pass through.

Patterns use the net/http.ServeMux syntax. Without WithOperations or
WithResolver every request is treated as protected.

# Configuration Options

	jwtgate.New(
	    jwtgate.WithDirectory(users),               // Required unless WithGate is used
	    jwtgate.WithVerifier(v),                    // Optional, defaults to HS256
	    jwtgate.WithOperations(ops),                // Optional, defaults to ProtectAll
	    jwtgate.WithErrorHandler(customHandler),    // Optional
	    jwtgate.WithTokenExtractor(extractor),      // Optional, defaults to the "token" header
	    jwtgate.WithLogger(slog.Default()),         // Optional
	    jwtgate.WithMetrics(metrics),               // Optional
	    jwtgate.WithTracer(tracer),                 // Optional
	)

# Error Responses

DefaultErrorHandler answers denials with a JSON body:

	{"code":"token_expired","message":"token expired"}

Malformed tokens, algorithm mismatches and otherwise invalid tokens answer
401 with the message "401". The remaining kinds answer 400 with a
human-readable message. When the decision cannot be made, for example
because the directory is unreachable, the answer is 500.

# Thread Safety

The Middleware is immutable after New and safe for concurrent use.
*/
package jwtgate
