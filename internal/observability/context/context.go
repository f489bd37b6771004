package context

import (
	"context"
	"strings"
)

type requestIDKey struct{}

type formIDKey struct{}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if value, ok := ctx.Value(requestIDKey{}).(string); ok {
		return value
	}
	return ""
}

// WithFormID tags the context with the form a request operates on.
func WithFormID(ctx context.Context, formID string) context.Context {
	formID = strings.TrimSpace(formID)
	if formID == "" {
		return ctx
	}
	return context.WithValue(ctx, formIDKey{}, formID)
}

func FormIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if value, ok := ctx.Value(formIDKey{}).(string); ok {
		return value
	}
	return ""
}
