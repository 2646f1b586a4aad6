package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestMemory_GetSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if _, err := m.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := m.Set(ctx, "k", []byte("v1")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := m.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != "v1" {
		t.Errorf("Get: got %q, want %q", got, "v1")
	}

	if err := m.Set(ctx, "k", []byte("v2")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, _ = m.Get(ctx, "k")
	if string(got) != "v2" {
		t.Errorf("Get after overwrite: got %q, want %q", got, "v2")
	}
}

func TestMemory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	original := []byte("value")
	m.Set(ctx, "k", original)
	original[0] = 'X'

	got, _ := m.Get(ctx, "k")
	if string(got) != "value" {
		t.Errorf("stored blob aliased caller slice: %q", got)
	}

	got[0] = 'Y'
	again, _ := m.Get(ctx, "k")
	if string(again) != "value" {
		t.Errorf("returned blob aliased stored slice: %q", again)
	}
}

func TestMemory_FailWrites(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.FailWrites = true

	if err := m.Set(ctx, "k", []byte("v")); err == nil {
		t.Fatal("expected write failure")
	}

	custom := errors.New("disk full")
	m.SetErr = custom
	if err := m.Set(ctx, "k", []byte("v")); !errors.Is(err, custom) {
		t.Errorf("expected custom error, got %v", err)
	}
}

func TestSQLite_RoundTrip(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "nested", "test.db")

	s, err := NewSQLite(dbPath)
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	defer s.Close()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := s.Set(ctx, "resolutions-data", []byte(`[{"id":"g1"}]`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := s.Get(ctx, "resolutions-data")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != `[{"id":"g1"}]` {
		t.Errorf("Get: got %q", got)
	}

	// Upsert replaces the previous blob.
	if err := s.Set(ctx, "resolutions-data", []byte(`[]`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, _ = s.Get(ctx, "resolutions-data")
	if string(got) != `[]` {
		t.Errorf("Get after upsert: got %q", got)
	}
}

func TestSQLite_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := NewSQLite(dbPath)
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	if err := s.Set(ctx, "k", []byte("persisted")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewSQLite(dbPath)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if string(got) != "persisted" {
		t.Errorf("Get after reopen: got %q", got)
	}
}
