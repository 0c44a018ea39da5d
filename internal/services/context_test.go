package services_test

import (
	"context"
	"testing"

	"banshee/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithTransactionID(ctx, "tx-1")
	ctx = services.WithCategory(ctx, "encode")
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.TransactionIDFromContext(ctx); !ok || id != "tx-1" {
		t.Fatalf("unexpected transaction id: %v %v", id, ok)
	}
	if category, ok := services.CategoryFromContext(ctx); !ok || category != "encode" {
		t.Fatalf("unexpected category: %v %v", category, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithCategory(ctx, "")
	ctx = services.WithTransactionID(ctx, "")
	if _, ok := services.CategoryFromContext(ctx); ok {
		t.Fatal("expected no category value")
	}
	if _, ok := services.TransactionIDFromContext(ctx); ok {
		t.Fatal("expected no transaction id value")
	}
}
