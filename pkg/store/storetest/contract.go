// Package storetest provides a behavioral test suite shared by every
// store.Store implementation.
package storetest

import (
	"bytes"
	"context"
	"errors"
	"testing"

	apperr "github.com/matzehuels/graphbuilder/pkg/errors"
	"github.com/matzehuels/graphbuilder/pkg/store"
)

// RunContract verifies that s behaves like a store.Store. The store should
// start empty.
func RunContract(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()
	doc := []byte(`[{"x":0,"y":0,"id":"a","relatedNodes":[]}]`)

	t.Run("PutGet", func(t *testing.T) {
		if err := s.Put(ctx, "alpha", doc); err != nil {
			t.Fatalf("Put: %v", err)
		}
		got, err := s.Get(ctx, "alpha")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if !bytes.Equal(got, doc) {
			t.Errorf("Get = %s, want %s", got, doc)
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		next := []byte(`[]`)
		if err := s.Put(ctx, "alpha", next); err != nil {
			t.Fatalf("Put: %v", err)
		}
		got, err := s.Get(ctx, "alpha")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if !bytes.Equal(got, next) {
			t.Errorf("Get = %s, want %s", got, next)
		}
	})

	t.Run("GetMissing", func(t *testing.T) {
		_, err := s.Get(ctx, "missing")
		if !errors.Is(err, store.ErrNotFound) {
			t.Errorf("Get(missing) = %v, want ErrNotFound", err)
		}
	})

	t.Run("InvalidName", func(t *testing.T) {
		for _, name := range []string{"", "../escape", "a/b", ".hidden"} {
			if err := s.Put(ctx, name, doc); !apperr.Is(err, apperr.ErrCodeInvalidName) {
				t.Errorf("Put(%q) = %v, want INVALID_NAME", name, err)
			}
			if _, err := s.Get(ctx, name); !apperr.Is(err, apperr.ErrCodeInvalidName) {
				t.Errorf("Get(%q) = %v, want INVALID_NAME", name, err)
			}
		}
	})

	t.Run("List", func(t *testing.T) {
		if err := s.Put(ctx, "beta", doc); err != nil {
			t.Fatalf("Put: %v", err)
		}
		infos, err := s.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		var names []string
		for _, info := range infos {
			names = append(names, info.Name)
			if info.UpdatedAt.IsZero() {
				t.Errorf("%s has no update time", info.Name)
			}
		}
		if len(names) != 2 || names[0] != "alpha" || names[1] != "beta" {
			t.Errorf("List names = %v, want [alpha beta]", names)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := s.Delete(ctx, "alpha"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := s.Get(ctx, "alpha"); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("Get after Delete = %v, want ErrNotFound", err)
		}
		if err := s.Delete(ctx, "alpha"); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("second Delete = %v, want ErrNotFound", err)
		}
		infos, err := s.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(infos) != 1 || infos[0].Name != "beta" {
			t.Errorf("List after Delete = %v, want [beta]", infos)
		}
	})
}
