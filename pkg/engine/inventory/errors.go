package inventory

import (
	"errors"
	"fmt"
)

// ErrMissingIdentifier marks a single raw record that cannot be keyed. The
// orchestrator logs and drops that one record; it never aborts the scan.
var ErrMissingIdentifier = errors.New("missing identifier")

// FetchKind classifies a per-pair fetch failure for retry decisions.
type FetchKind string

const (
	KindThrottled        FetchKind = "Throttled"
	KindTransientNetwork FetchKind = "TransientNetwork"
	KindUnauthorized     FetchKind = "Unauthorized"
	KindUnknown          FetchKind = "Unknown"
)

// Retryable reports whether a failure of this kind is worth another attempt.
func (k FetchKind) Retryable() bool {
	return k == KindThrottled || k == KindTransientNetwork
}

// FetchError wraps a failed (region, family) listing with its classification.
// It never propagates past the orchestrator; exhausted errors become
// ScopeError records in the DiscoveryResult.
type FetchError struct {
	Kind   FetchKind
	Region string
	Family Family
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s/%s: %s: %v", e.Region, e.Family, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ConfigError indicates invalid configuration (bad region, family, or
// format). It is fatal and aborts before any discovery.
type ConfigError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// AuthError indicates credential resolution or identity verification failed.
// It is fatal and aborts before any discovery.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }
