package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func storeBackends(t *testing.T) map[string]Store {
	t.Helper()

	fileStore, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	sqliteStore, err := OpenSQLite(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = sqliteStore.Close() })

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"file":   fileStore,
		"sqlite": sqliteStore,
		"redis":  NewRedisStore(client, "formengine:test:", 0),
	}
}

func TestStores_RoundTrip(t *testing.T) {
	t.Parallel()

	for name, store := range storeBackends(t) {
		store := store
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()

			if _, err := store.Get(ctx, "form_missing"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}

			if err := store.Put(ctx, "form_home", []byte(`{"a":1}`)); err != nil {
				t.Fatalf("Put: %v", err)
			}
			if err := store.Put(ctx, "form_home", []byte(`{"a":2}`)); err != nil {
				t.Fatalf("Put overwrite: %v", err)
			}
			got, err := store.Get(ctx, "form_home")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if string(got) != `{"a":2}` {
				t.Fatalf("got %q", got)
			}

			if err := store.Delete(ctx, "form_home"); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if _, err := store.Get(ctx, "form_home"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound after delete, got %v", err)
			}
			if err := store.Delete(ctx, "form_home"); err != nil {
				t.Fatalf("Delete of missing key should succeed: %v", err)
			}
		})
	}
}

func TestRedisStore_Prefix(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisStore(client, "app:", 0)
	if err := store.Put(context.Background(), "form_x", []byte("v")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := mr.Get("app:form_x")
	if err != nil || got != "v" {
		t.Fatalf("expected prefixed key, got %q %v", got, err)
	}
}
