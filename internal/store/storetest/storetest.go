// Package storetest opens throwaway stores for tests.
package storetest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/tayloree/confere/internal/model"
	"github.com/tayloree/confere/internal/store"
)

// New opens an empty sqlite-backed store under t.TempDir.
func New(t testing.TB) *store.Store {
	t.Helper()
	s, err := store.Open(store.DriverSQLite, filepath.Join(t.TempDir(), "confere.db"))
	if err != nil {
		t.Fatalf("opening test store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// Seed saves carts after recalculating their totals.
func Seed(t testing.TB, s *store.Store, carts ...model.Cart) {
	t.Helper()
	for i := range carts {
		cart := carts[i]
		cart.Recalculate()
		if err := s.SaveCart(context.Background(), &cart); err != nil {
			t.Fatalf("seeding cart %s: %v", cart.ID, err)
		}
	}
}
