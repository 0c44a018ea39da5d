package logging

import (
	"context"
	"log/slog"

	"banshee/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldTransactionID is the standardized key for transaction identifiers.
	FieldTransactionID = "transaction_id"
	// FieldCategory is the standardized key for scheduling categories.
	FieldCategory = "category"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldEventType tags a log line with a machine-friendly event name.
	FieldEventType = "event_type"
	// FieldErrorHint carries the suggested next step for an error or warning.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
)

// WithTransaction stamps ctx with the transaction identity used by WithContext.
func WithTransaction(ctx context.Context, id, category string) context.Context {
	ctx = services.WithTransactionID(ctx, id)
	return services.WithCategory(ctx, category)
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.TransactionIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldTransactionID, id))
	}
	if category, ok := services.CategoryFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCategory, category))
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
	return logger.With(attrsToArgs(fields)...)
}
