package internal

import (
	"context"
	"time"
)

type ctxKey string

const (
	ContextChurchKey ctxKey = "churchID"
	ContextPersonKey ctxKey = "personID"
)

// ChurchIDFromContext returns the tenant the request is acting for, or "".
func ChurchIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if churchID, ok := ctx.Value(ContextChurchKey).(string); ok {
		return churchID
	}
	return ""
}

func ContextWithChurchID(ctx context.Context, churchID string) context.Context {
	return context.WithValue(ctx, ContextChurchKey, churchID)
}

func PersonIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if personID, ok := ctx.Value(ContextPersonKey).(string); ok {
		return personID
	}
	return ""
}

func ContextWithPersonID(ctx context.Context, personID string) context.Context {
	return context.WithValue(ctx, ContextPersonKey, personID)
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
