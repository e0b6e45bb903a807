package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestSQLiteStoreExpiry(t *testing.T) {
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	now := time.Unix(1_700_000_000, 0)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	if err := s.Set(ctx, "tracks:p", []byte(`[1]`), time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, found, err := s.Get(ctx, "tracks:p")
	if err != nil || !found || string(v) != "[1]" {
		t.Fatalf("unexpected get %q %v %v", v, found, err)
	}

	now = now.Add(time.Hour)
	if _, found, err := s.Get(ctx, "tracks:p"); err != nil || found {
		t.Errorf("expired entry visible: found=%v err=%v", found, err)
	}
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM cache_entries`).Scan(&n); err != nil || n != 0 {
		t.Errorf("expired row not removed: n=%d err=%v", n, err)
	}
}

func TestSQLiteStoreUpsertAndDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	ctx := context.Background()
	if err := s.Set(ctx, "k", []byte("1"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, "k", []byte("2"), time.Minute); err != nil {
		t.Fatal(err)
	}
	v, _, _ := s.Get(ctx, "k")
	if string(v) != "2" {
		t.Errorf("upsert did not replace value: %q", v)
	}
	if err := s.Del(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, found, _ := s.Get(ctx, "k"); found {
		t.Error("deleted key still present")
	}
	if _, found, err := s.Get(ctx, "missing"); found || err != nil {
		t.Errorf("missing key: found=%v err=%v", found, err)
	}
}
