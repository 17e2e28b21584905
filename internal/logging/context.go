package logging

import (
	"context"
	"log/slog"

	"samplesort/internal/services"
)

const (
	// FieldComponent is the structured logging key for component names.
	FieldComponent = "component"
	// FieldItemID is the structured logging key for item identifiers.
	FieldItemID = "item_id"
	// FieldGroup is the structured logging key for group keys.
	FieldGroup = "group"
	// FieldStrategy is the structured logging key for matching strategy names.
	FieldStrategy = "strategy"
	// FieldCorrelationID is the structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	FieldEventType     = "event_type"
	FieldErrorHint     = "error_hint"
	FieldImpact        = "impact"
	FieldDecisionType  = "decision_type"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 4)
	if id, ok := services.ItemIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldItemID, id))
	}
	if group, ok := services.GroupFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldGroup, group))
	}
	if strategy, ok := services.StrategyFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStrategy, strategy))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
