package keyvalue

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"aiga/internal/adapters/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.MigrateDB(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewSQLiteStore(db)
}

func TestSQLiteStore_GetMissing(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Get(context.Background(), "session_token"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get missing: got %v, want ErrNotFound", err)
	}
}

func TestSQLiteStore_SetGetOverwriteDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, "session_token", "first"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(ctx, "session_token", "second"); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	if err := s.Set(ctx, "other", "untouched"); err != nil {
		t.Fatalf("Set other: %v", err)
	}

	got, err := s.Get(ctx, "session_token")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "second" {
		t.Errorf("Get = %q, want second", got)
	}

	if err := s.Delete(ctx, "session_token"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "session_token"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete: got %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, "session_token"); err != nil {
		t.Errorf("Delete missing key should succeed: %v", err)
	}
	if got, _ := s.Get(ctx, "other"); got != "untouched" {
		t.Errorf("other key = %q, want untouched", got)
	}
}

func TestSQLiteStore_EmptyKey(t *testing.T) {
	s := newTestStore(t)
	if err := s.Set(context.Background(), "", "v"); err == nil {
		t.Error("expected error for empty key")
	}
}

func testKey(b byte) *[KeySize]byte {
	var k [KeySize]byte
	for i := range k {
		k[i] = b
	}
	return &k
}

func TestSealed_RoundTrip(t *testing.T) {
	inner := newTestStore(t)
	s := NewSealed(inner, testKey(7))
	ctx := context.Background()

	if err := s.Set(ctx, "session_token", "tok-123"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	raw, err := inner.Get(ctx, "session_token")
	if err != nil {
		t.Fatalf("inner Get: %v", err)
	}
	if strings.Contains(raw, "tok-123") {
		t.Error("plaintext visible in stored value")
	}

	got, err := s.Get(ctx, "session_token")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "tok-123" {
		t.Errorf("Get = %q, want tok-123", got)
	}
}

func TestSealed_WrongKeyOrGarbage(t *testing.T) {
	inner := newTestStore(t)
	ctx := context.Background()

	if err := NewSealed(inner, testKey(1)).Set(ctx, "session_token", "tok"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := NewSealed(inner, testKey(2)).Get(ctx, "session_token"); !errors.Is(err, ErrUnsealable) {
		t.Errorf("wrong key: got %v, want ErrUnsealable", err)
	}

	if err := inner.Set(ctx, "plain", "not-base64!"); err != nil {
		t.Fatalf("inner Set: %v", err)
	}
	if _, err := NewSealed(inner, testKey(1)).Get(ctx, "plain"); !errors.Is(err, ErrUnsealable) {
		t.Errorf("garbage: got %v, want ErrUnsealable", err)
	}

	if _, err := NewSealed(inner, testKey(1)).Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing: got %v, want ErrNotFound", err)
	}
}

func TestParseKey(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"valid", strings.Repeat("ab", 32), false},
		{"too short", strings.Repeat("ab", 16), true},
		{"not hex", strings.Repeat("zz", 32), true},
		{"empty", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseKey(tt.in)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseKey error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
