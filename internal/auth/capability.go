// Package auth models the single privileged-caller capability required by
// every mutating registry operation. The capability is carried on the
// context: transport middleware (or a test) marks the context privileged
// after verifying the caller, and the registry checks the mark.
package auth

import "context"

type contextKey struct{}

var privilegedKey contextKey

// WithPrivileged marks the context as carrying the admin capability.
func WithPrivileged(ctx context.Context) context.Context {
	return context.WithValue(ctx, privilegedKey, true)
}

// IsPrivileged reports whether the context carries the admin capability.
func IsPrivileged(ctx context.Context) bool {
	v, _ := ctx.Value(privilegedKey).(bool)
	return v
}

// ContextCapability authorizes a call iff its context was marked privileged.
type ContextCapability struct{}

func (ContextCapability) Authorize(ctx context.Context) error {
	if !IsPrivileged(ctx) {
		return ErrNotPrivileged
	}
	return nil
}
