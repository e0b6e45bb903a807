package cache

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// fakeStore is an in-memory Store whose operations can be forced to fail.
type fakeStore struct {
	data   map[string][]byte
	ttls   map[string]time.Duration
	err    error
	closed bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (f *fakeStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if f.err != nil {
		return nil, false, f.err
	}
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *fakeStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if f.err != nil {
		return f.err
	}
	f.data[key] = value
	f.ttls[key] = ttl
	return nil
}

func (f *fakeStore) Del(ctx context.Context, key string) error {
	if f.err != nil {
		return f.err
	}
	delete(f.data, key)
	return nil
}

func (f *fakeStore) Ping(ctx context.Context) error { return f.err }

func (f *fakeStore) Close() error {
	f.closed = true
	return nil
}

func TestKeysIgnoreOrder(t *testing.T) {
	if AudioFeaturesKey([]string{"b", "c", "a"}) != AudioFeaturesKey([]string{"a", "b", "c"}) {
		t.Error("audio feature keys differ for permuted ids")
	}
	if got := AudioFeaturesKey([]string{"b", "a"}); got != "audio_features:a,b" {
		t.Errorf("unexpected audio feature key %q", got)
	}
	if ArtistsKey([]string{"z", "y"}) != "artists:y,z" {
		t.Errorf("unexpected artists key %q", ArtistsKey([]string{"z", "y"}))
	}
	a := RecommendationsKey(map[string]string{"limit": "10", "seed_genres": "rock"})
	b := RecommendationsKey(map[string]string{"seed_genres": "rock", "limit": "10"})
	if a != b || a != "recommendations:limit:10|seed_genres:rock" {
		t.Errorf("unexpected recommendation keys %q %q", a, b)
	}
	if PlaylistKey("p1") != "playlist:p1" || TracksKey("p1") != "tracks:p1" || AnalysisKey("p1") != "analysis:p1" {
		t.Error("unexpected single id keys")
	}
}

func TestKeysDoNotMutateInput(t *testing.T) {
	ids := []string{"b", "a"}
	AudioFeaturesKey(ids)
	if ids[0] != "b" {
		t.Errorf("input slice reordered: %v", ids)
	}
}

func TestDisabledCacheDegrades(t *testing.T) {
	c := Disabled()
	ctx := context.Background()
	var v string
	if c.Get(ctx, "k", &v) {
		t.Error("disabled cache reported a hit")
	}
	if got := c.Set(ctx, "k", "v", time.Minute); got != Skipped {
		t.Errorf("expected skipped, got %v", got)
	}
	if got := c.Delete(ctx, "k"); got != Skipped {
		t.Errorf("expected skipped, got %v", got)
	}
	if c.Ping(ctx) {
		t.Error("disabled cache answered ping")
	}
	if c.Backend() != BackendNone {
		t.Errorf("unexpected backend %q", c.Backend())
	}
}

func TestCacheRoundTripJSON(t *testing.T) {
	fs := newFakeStore()
	c := New(fs, "fake", DefaultTTLs(), quietLogger())
	ctx := context.Background()
	type payload struct {
		Name  string
		Count int
	}
	if got := c.Set(ctx, "playlist:x", payload{"mix", 3}, c.TTL.Playlist); got != Stored {
		t.Fatalf("expected stored, got %v", got)
	}
	if fs.ttls["playlist:x"] != time.Hour {
		t.Errorf("ttl not forwarded: %v", fs.ttls["playlist:x"])
	}
	var out payload
	if !c.Get(ctx, "playlist:x", &out) || out.Name != "mix" || out.Count != 3 {
		t.Errorf("unexpected read %+v", out)
	}
	if c.Delete(ctx, "playlist:x") != Deleted || c.Get(ctx, "playlist:x", &out) {
		t.Error("entry survived delete")
	}
}

func TestCacheStoreFailuresAreSwallowed(t *testing.T) {
	fs := newFakeStore()
	fs.err = errors.New("connection reset")
	c := New(fs, "fake", TTLs{}, quietLogger())
	ctx := context.Background()
	var v int
	if c.Get(ctx, "k", &v) {
		t.Error("failing store reported a hit")
	}
	if got := c.Set(ctx, "k", 1, time.Second); got != Failed {
		t.Errorf("expected failed, got %v", got)
	}
	if c.Ping(ctx) {
		t.Error("failing store answered ping")
	}
}

func TestCacheUndecodableEntryIsMiss(t *testing.T) {
	fs := newFakeStore()
	fs.data["k"] = []byte("{not json")
	c := New(fs, "fake", TTLs{}, quietLogger())
	var v map[string]int
	if c.Get(context.Background(), "k", &v) {
		t.Error("corrupt entry reported as hit")
	}
}

func TestZeroTTLsFallBackToDefaults(t *testing.T) {
	c := New(newFakeStore(), "fake", TTLs{Artists: time.Minute}, quietLogger())
	if c.TTL.Artists != time.Minute {
		t.Errorf("override lost: %v", c.TTL.Artists)
	}
	if c.TTL.Recommendations != 15*time.Minute || c.TTL.Analysis != 30*time.Minute {
		t.Errorf("defaults not applied: %+v", c.TTL)
	}
}

func TestRedisStoreExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()
	store, err := NewRedisStore(ctx, "redis://"+mr.Addr())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer store.Close()
	c := New(store, BackendRedis, DefaultTTLs(), quietLogger())

	if got := c.Set(ctx, "artists:a", []string{"rock"}, time.Minute); got != Stored {
		t.Fatalf("expected stored, got %v", got)
	}
	var genres []string
	if !c.Get(ctx, "artists:a", &genres) || len(genres) != 1 {
		t.Fatalf("unexpected read %v", genres)
	}
	mr.FastForward(2 * time.Minute)
	if c.Get(ctx, "artists:a", &genres) {
		t.Error("entry survived its ttl")
	}
	if !c.Ping(ctx) {
		t.Error("ping failed against live server")
	}
}

func TestOpenDegradesWhenRedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	c, err := Open(context.Background(), Config{RedisURL: "redis://" + addr}, quietLogger())
	if err != nil {
		t.Fatalf("open returned error: %v", err)
	}
	if c.Available() {
		t.Error("cache should be disabled when redis is down")
	}
}

func TestOpenWithoutConfigurationIsDisabled(t *testing.T) {
	c, err := Open(context.Background(), Config{}, quietLogger())
	if err != nil || c.Available() {
		t.Fatalf("expected disabled cache, got available=%v err=%v", c.Available(), err)
	}
	if _, err := Open(context.Background(), Config{Backend: "memcached"}, quietLogger()); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestOpenSQLite(t *testing.T) {
	c, err := Open(context.Background(), Config{Backend: BackendSQLite, SQLitePath: ":memory:"}, quietLogger())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer c.Close()
	if c.Backend() != BackendSQLite || !c.Ping(context.Background()) {
		t.Errorf("sqlite cache not usable: backend=%s", c.Backend())
	}
}
