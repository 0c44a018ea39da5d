package codec_test

import (
	"errors"
	"os"
	"sync"

	"banshee/internal/codec"
)

// fakeEngine scripts engine behaviour per source path.
type fakeEngine struct {
	mu         sync.Mutex
	next       codec.Handle
	live       map[codec.Handle]bool
	created    int
	destroyed  int
	lastErr    map[codec.Handle]string
	cancels    map[codec.Handle]chan struct{}
	fail       map[string]string
	progress   []float64
	blockUntil chan struct{}
	createErr  error
	encodes    []string
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		live:    make(map[codec.Handle]bool),
		lastErr: make(map[codec.Handle]string),
		cancels: make(map[codec.Handle]chan struct{}),
		fail:    make(map[string]string),
	}
}

func (f *fakeEngine) CreateHandle() (codec.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.next++
	f.created++
	f.live[f.next] = true
	f.cancels[f.next] = make(chan struct{}, 1)
	return f.next, nil
}

func (f *fakeEngine) Encode(h codec.Handle, source, output string, _ codec.Format, cb func(float64)) bool {
	f.mu.Lock()
	if !f.live[h] {
		f.mu.Unlock()
		return false
	}
	f.encodes = append(f.encodes, source)
	cancel := f.cancels[h]
	diag, shouldFail := f.fail[source]
	steps := append([]float64(nil), f.progress...)
	block := f.blockUntil
	f.mu.Unlock()

	for _, step := range steps {
		cb(step)
	}
	if block != nil {
		select {
		case <-block:
		case <-cancel:
			f.setLastError(h, "aborted by request")
			return false
		}
	}
	select {
	case <-cancel:
		f.setLastError(h, "aborted by request")
		return false
	default:
	}
	if shouldFail {
		f.setLastError(h, diag)
		return false
	}
	if err := os.WriteFile(output, []byte("encoded"), 0o644); err != nil {
		f.setLastError(h, err.Error())
		return false
	}
	return true
}

func (f *fakeEngine) setLastError(h codec.Handle, msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastErr[h] = msg
}

func (f *fakeEngine) LastError(h codec.Handle) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr[h]
}

func (f *fakeEngine) RequestCancel(h codec.Handle) {
	f.mu.Lock()
	ch := f.cancels[h]
	f.mu.Unlock()
	if ch == nil {
		return
	}
	select {
	case ch <- struct{}{}:
	default:
	}
}

func (f *fakeEngine) DestroyHandle(h codec.Handle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.live[h] {
		f.destroyed++
	}
	delete(f.live, h)
}

func (f *fakeEngine) counts() (created, destroyed int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created, f.destroyed
}

var errCreate = errors.New("engine unavailable")
