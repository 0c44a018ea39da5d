package codec_test

import (
	"testing"

	"banshee/internal/codec"
)

func TestHandleTableLifecycle(t *testing.T) {
	table := codec.NewHandleTable()
	h := table.Create()

	ctx, ok := table.Begin(h)
	if !ok {
		t.Fatal("Begin on fresh handle should succeed")
	}
	if _, ok := table.Begin(h); ok {
		t.Fatal("Begin on busy handle should fail")
	}
	table.Cancel(h)
	if ctx.Err() == nil {
		t.Fatal("Cancel should cancel the running context")
	}
	table.End(h, "aborted")
	if got := table.LastError(h); got != "aborted" {
		t.Fatalf("LastError = %q", got)
	}

	table.Cancel(h)
	if _, ok := table.Begin(h); ok {
		t.Fatal("pending cancel should refuse the next Begin")
	}
	if got := table.LastError(h); got != "cancelled before start" {
		t.Fatalf("LastError = %q", got)
	}
	if _, ok := table.Begin(h); !ok {
		t.Fatal("pending cancel should be consumed")
	}
	table.End(h, "")
	if got := table.LastError(h); got != "" {
		t.Fatalf("successful run should clear LastError, got %q", got)
	}

	table.Fail(h, "no route")
	if table.LastError(h) != "no route" {
		t.Fatal("Fail should set LastError")
	}

	table.Destroy(h)
	table.Destroy(h)
	table.Cancel(h)
	if _, ok := table.Begin(h); ok || table.Len() != 0 {
		t.Fatal("destroyed handle must be unusable")
	}
}
