package sessiontoken

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"aiga/internal/adapters/storage"
	"aiga/internal/adapters/storage/keyvalue"
)

func newBacking(t *testing.T) *keyvalue.SQLiteStore {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "portal.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.MigrateDB(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return keyvalue.NewSQLiteStore(db)
}

// failingKV fails every write so in-memory behaviour can be checked.
type failingKV struct {
	keyvalue.Store
}

func (failingKV) Set(context.Context, string, string) error { return errors.New("disk full") }
func (failingKV) Delete(context.Context, string) error      { return errors.New("disk full") }

func TestStore_SetSurvivesRestart(t *testing.T) {
	kv := newBacking(t)
	ctx := context.Background()

	s := New(kv)
	if err := s.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := s.Get(); ok {
		t.Fatal("fresh store should have no token")
	}
	if err := s.Set(ctx, "tok-1"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	restarted := New(kv)
	if err := restarted.Load(ctx); err != nil {
		t.Fatalf("Load after restart: %v", err)
	}
	got, ok := restarted.Get()
	if !ok || got != "tok-1" {
		t.Errorf("Get after restart = %q, %v; want tok-1, true", got, ok)
	}
}

func TestStore_ClearSurvivesRestart(t *testing.T) {
	kv := newBacking(t)
	ctx := context.Background()

	s := New(kv)
	if err := s.Set(ctx, "tok-1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok := s.Get(); ok {
		t.Error("token present after Clear")
	}

	restarted := New(kv)
	if err := restarted.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := restarted.Get(); ok {
		t.Error("token restored after Clear")
	}
}

func TestStore_SetRejectsEmpty(t *testing.T) {
	s := New(newBacking(t))
	if err := s.Set(context.Background(), ""); err == nil {
		t.Error("expected error for empty token")
	}
}

func TestStore_BackingFailures(t *testing.T) {
	ctx := context.Background()
	kv := newBacking(t)
	s := New(failingKV{Store: kv})

	if err := s.Set(ctx, "tok"); err == nil {
		t.Fatal("expected Set error")
	}
	if _, ok := s.Get(); ok {
		t.Error("Set failure must not leave an in-memory token")
	}

	s.token = "tok"
	if err := s.Clear(ctx); err == nil {
		t.Error("expected Clear error")
	}
	if _, ok := s.Get(); ok {
		t.Error("Clear must drop the in-memory token even on backing failure")
	}
}

func TestStore_LoadDiscardsUnsealable(t *testing.T) {
	kv := newBacking(t)
	ctx := context.Background()

	var k1, k2 [keyvalue.KeySize]byte
	k2[0] = 1
	if err := New(keyvalue.NewSealed(kv, &k1)).Set(ctx, "tok"); err != nil {
		t.Fatalf("Set sealed: %v", err)
	}

	s := New(keyvalue.NewSealed(kv, &k2))
	if err := s.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := s.Get(); ok {
		t.Error("unsealable token should be treated as absent")
	}
	if _, err := kv.Get(ctx, Key); !errors.Is(err, keyvalue.ErrNotFound) {
		t.Errorf("unsealable token should be removed, got %v", err)
	}
}
