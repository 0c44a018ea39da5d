package services

import "context"

type contextKey string

const (
	transactionIDKey contextKey = "transaction_id"
	categoryKey      contextKey = "category"
	requestIDKey     contextKey = "request_id"
)

// WithTransactionID annotates context with the transaction identifier.
func WithTransactionID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, transactionIDKey, id)
}

// TransactionIDFromContext extracts the transaction identifier if present.
func TransactionIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(transactionIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithCategory annotates context with the scheduling category.
func WithCategory(ctx context.Context, category string) context.Context {
	if category == "" {
		return ctx
	}
	return context.WithValue(ctx, categoryKey, category)
}

// CategoryFromContext returns the scheduling category if present.
func CategoryFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(categoryKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
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
