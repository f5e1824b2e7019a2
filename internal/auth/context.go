package auth

import (
	"context"
	"strings"
)

type subjectContextKey struct{}
type roleContextKey struct{}

// ContextWithIdentity attaches the authenticated subject and role to the
// context for the remainder of the request.
func ContextWithIdentity(ctx context.Context, subject string, role Role) context.Context {
	ctx = context.WithValue(ctx, subjectContextKey{}, strings.TrimSpace(subject))
	return context.WithValue(ctx, roleContextKey{}, role)
}

// SubjectFromContext extracts the authenticated username from the context.
func SubjectFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(subjectContextKey{}).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// RoleFromContext extracts the authenticated role from the context.
func RoleFromContext(ctx context.Context) (Role, bool) {
	if ctx == nil {
		return 0, false
	}
	v, ok := ctx.Value(roleContextKey{}).(Role)
	if !ok {
		return 0, false
	}
	return v, true
}
