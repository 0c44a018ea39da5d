package testsupport

import (
	"testing"

	"banshee/internal/config"
	"banshee/internal/library"
)

// MustOpenLibrary opens the library store for cfg and registers cleanup.
func MustOpenLibrary(t testing.TB, cfg *config.Config) *library.Store {
	t.Helper()

	store, err := library.Open(cfg.LibraryDBPath())
	if err != nil {
		t.Fatalf("library.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
