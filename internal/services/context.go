package services

import "context"

type contextKey string

const (
	itemIDKey    contextKey = "item_id"
	groupKey     contextKey = "group"
	strategyKey  contextKey = "strategy"
	requestIDKey contextKey = "request_id"
)

// WithItemID annotates context with the item identifier.
func WithItemID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, itemIDKey, id)
}

// ItemIDFromContext extracts the item identifier if present.
func ItemIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(itemIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithGroup annotates context with the group key being worked on.
func WithGroup(ctx context.Context, group string) context.Context {
	if group == "" {
		return ctx
	}
	return context.WithValue(ctx, groupKey, group)
}

// GroupFromContext returns the group key if present.
func GroupFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(groupKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStrategy annotates context with the matching strategy name.
func WithStrategy(ctx context.Context, strategy string) context.Context {
	if strategy == "" {
		return ctx
	}
	return context.WithValue(ctx, strategyKey, strategy)
}

// StrategyFromContext returns the strategy name if present.
func StrategyFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(strategyKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
