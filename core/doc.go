/*
Package core provides the framework-agnostic authentication gate.

# Architecture

The core package implements the "Core" in the Core-Adapter pattern:

	┌─────────────────────────────────────────────┐
	│         Transport Adapters                  │
	│  (net/http, gRPC, Gin, Echo)                │
	│  • read the "token" header                  │
	│  • resolve the operation requirement        │
	│  • turn a Deny into a response              │
	└────────────────┬────────────────────────────┘
	                 │
	                 ▼
	┌─────────────────────────────────────────────┐
	│          Gate (THIS PACKAGE)                │
	│  requirement → token → claims → user →      │
	│  signature → Allow | Deny(kind)             │
	└───────┬─────────────┬───────────────┬───────┘
	        ▼             ▼               ▼
	     codec       directory        validator

# Basic Usage

	users := directory.NewMemory(directory.User{ID: "u1", Secret: "s1"})

	v, err := validator.New()
	if err != nil {
	    log.Fatal(err)
	}

	gate, err := core.New(
	    core.WithDirectory(users),
	    core.WithVerifier(v),
	)
	if err != nil {
	    log.Fatal(err)
	}

	decision, err := gate.Decide(ctx, core.Protected, r.Header.Get("token"))
	if err != nil {
	    // lookup failed or ctx cancelled: answer with a server error
	}
	if !decision.Allowed() {
	    // decision.Kind() is one of the ErrorKind constants
	}

# Decision Order

The order of the checks is fixed:

 1. Unmapped and Public requirements allow the request immediately.
 2. A missing token is NoToken.
 3. A token that cannot be decoded is MalformedToken; the directory is not consulted.
 4. A claimed user that does not exist is UserNotFound; the verifier is not called.
 5. The verifier's outcome decides between Allow and SignatureMismatch,
    TokenExpired, AlgorithmMismatch, InvalidClaim or InvalidToken.

The user is looked up before the signature is checked because the secret
belongs to the user. The lookup key comes from unverified claims, so a caller
can learn whether a user id exists before presenting a valid token. That is
accepted: the alternative is trying every user's secret.

# Error Kinds

	Kind               401-style  Trigger
	no_token           no         token header absent
	malformed_token    yes        token cannot be decoded
	user_not_found     no         claimed user does not exist
	signature_mismatch no         signature does not match the user's secret
	token_expired      no         exp has passed
	algorithm_mismatch yes        alg header differs from the expected algorithm
	invalid_claim      no         claim set fails validation
	invalid_token      yes        verifier returned false or failed otherwise

# Thread Safety

Gate is immutable after New. Decisions are independent, so the same Gate can
serve concurrent requests without coordination.
*/
package core
