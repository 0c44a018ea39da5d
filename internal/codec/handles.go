package codec

import (
	"context"
	"sync"
)

// HandleTable tracks per-handle state for engines that run each encode under
// a Go context. It implements the cancel and last-error halves of Engine.
type HandleTable struct {
	mu    sync.Mutex
	next  Handle
	slots map[Handle]*handleSlot
}

type handleSlot struct {
	cancel        context.CancelFunc
	pendingCancel bool
	lastError     string
}

// NewHandleTable returns an empty table.
func NewHandleTable() *HandleTable {
	return &HandleTable{slots: make(map[Handle]*handleSlot)}
}

// Create allocates a new handle.
func (t *HandleTable) Create() Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	t.slots[t.next] = &handleSlot{}
	return t.next
}

// Begin marks h busy and returns the context the encode must honour. It
// returns false when h is unknown, already busy, or a cancel request is
// pending; LastError explains why.
func (t *HandleTable) Begin(h Handle) (context.Context, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	slot := t.slots[h]
	if slot == nil {
		return nil, false
	}
	if slot.cancel != nil {
		slot.lastError = "handle busy: encode already in progress"
		return nil, false
	}
	if slot.pendingCancel {
		slot.pendingCancel = false
		slot.lastError = "cancelled before start"
		return nil, false
	}
	ctx, cancel := context.WithCancel(context.Background())
	slot.cancel = cancel
	slot.lastError = ""
	return ctx, true
}

// End releases h after an encode. A non-empty errText becomes LastError.
func (t *HandleTable) End(h Handle, errText string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	slot := t.slots[h]
	if slot == nil {
		return
	}
	if slot.cancel != nil {
		slot.cancel()
		slot.cancel = nil
	}
	if errText != "" {
		slot.lastError = errText
	}
}

// Fail records errText as the last error without running an encode.
func (t *HandleTable) Fail(h Handle, errText string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if slot := t.slots[h]; slot != nil {
		slot.lastError = errText
	}
}

func (t *HandleTable) LastError(h Handle) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if slot := t.slots[h]; slot != nil {
		return slot.lastError
	}
	return ""
}

// Cancel aborts the running encode on h or arms a cancel for the next one.
func (t *HandleTable) Cancel(h Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	slot := t.slots[h]
	if slot == nil {
		return
	}
	if slot.cancel != nil {
		slot.cancel()
		return
	}
	slot.pendingCancel = true
}

// Destroy forgets h, cancelling any running encode.
func (t *HandleTable) Destroy(h Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if slot := t.slots[h]; slot != nil && slot.cancel != nil {
		slot.cancel()
	}
	delete(t.slots, h)
}

// Len reports the number of live handles.
func (t *HandleTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.slots)
}
