package core

// Decision is the outcome of Gate.Decide: either Allow or Deny with exactly
// one ErrorKind. An allow carries no identity.
type Decision struct {
	allowed bool
	kind    ErrorKind
}

// Allow returns an allowing decision.
func Allow() Decision {
	return Decision{allowed: true}
}

// Deny returns a denying decision with the given reason. An empty kind
// becomes InvalidToken.
func Deny(kind ErrorKind) Decision {
	if kind == "" {
		kind = InvalidToken
	}
	return Decision{kind: kind}
}

// Allowed reports whether the request may proceed.
func (d Decision) Allowed() bool {
	return d.allowed
}

// Kind returns the reason of a denial, or "" for an allow.
func (d Decision) Kind() ErrorKind {
	return d.kind
}

// Err returns nil for an allow and a *DenyError for a denial.
func (d Decision) Err() error {
	if d.allowed {
		return nil
	}
	return NewDenyError(d.kind)
}

func (d Decision) String() string {
	if d.allowed {
		return "allow"
	}
	return "deny(" + string(d.kind) + ")"
}
