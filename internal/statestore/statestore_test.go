package statestore

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"testing"
	"time"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if ok, err := s.Exist(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected missing key to not exist, got ok=%v err=%v", ok, err)
	}

	if err := s.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	ok, err := s.Exist(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("expected key to exist after Set, got ok=%v err=%v", ok, err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Fatalf("Get = %q, %v; want v, nil", got, err)
	}
}

func TestLoadLastSHAAbsent(t *testing.T) {
	s := NewMemoryStore()
	_, ok := LoadLastSHA(context.Background(), s, "deadbeef00000000")
	if ok {
		t.Error("expected ok=false for absent last_sha")
	}
}

func TestSaveAndLoadLastSHA(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	hash := "deadbeef00000000"
	sha := "0123456789abcdef0123456789abcdef01234567"

	if err := SaveLastSHA(ctx, s, hash, sha); err != nil {
		t.Fatalf("SaveLastSHA: %v", err)
	}
	got, ok := LoadLastSHA(ctx, s, hash)
	if !ok || got != sha {
		t.Errorf("LoadLastSHA = %q, %v; want %q, true", got, ok, sha)
	}
}

func TestSaveAndLoadFailedPaths(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	hash := "deadbeef00000000"
	paths := []string{"a.md", "b.md"}

	if err := SaveFailedPaths(ctx, s, hash, paths); err != nil {
		t.Fatalf("SaveFailedPaths: %v", err)
	}
	got := LoadFailedPaths(ctx, s, hash)
	if len(got) != 2 || got[0] != "a.md" || got[1] != "b.md" {
		t.Errorf("LoadFailedPaths = %v, want %v", got, paths)
	}
}

func TestFailedPathsCap(t *testing.T) {
	paths := make([]string, MaxFailedPaths+500)
	for i := range paths {
		paths[i] = "path-" + strconv.Itoa(i) + ".md"
	}
	capped := capFailedPaths(paths)
	if len(capped) != MaxFailedPaths {
		t.Fatalf("expected capped length %d, got %d", MaxFailedPaths, len(capped))
	}
	// Oldest-dropped: the tail of the original slice survives.
	if capped[len(capped)-1] != paths[len(paths)-1] {
		t.Error("expected the most recent entry to survive capping")
	}
}

func TestLoadFailedPathsDegradesOnCorruptData(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	hash := "deadbeef00000000"
	if err := s.Set(ctx, FailedKey(hash), []byte("not json")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got := LoadFailedPaths(ctx, s, hash)
	if got != nil {
		t.Errorf("expected nil for corrupt data, got %v", got)
	}
}

// slowStore blocks forever on every call, to exercise BoundedStore's
// timeout path.
type slowStore struct{}

func (slowStore) Exist(ctx context.Context, _ string) (bool, error) {
	<-ctx.Done()
	return false, ctx.Err()
}
func (slowStore) Get(ctx context.Context, _ string) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
func (slowStore) Set(ctx context.Context, _ string, _ []byte) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestBoundedStoreTimesOut(t *testing.T) {
	b := &BoundedStore{Inner: slowStore{}, Timeout: 20 * time.Millisecond}
	ctx := context.Background()

	if _, err := b.Exist(ctx, "k"); err == nil {
		t.Fatal("expected Exist to time out")
	}
	if _, err := b.Get(ctx, "k"); err == nil {
		t.Fatal("expected Get to time out")
	}
	if err := b.Set(ctx, "k", nil); err == nil {
		t.Fatal("expected Set to time out")
	}
}

// erroringStore always returns an error, to verify errors are wrapped as
// StateStoreError and never panic the caller.
type erroringStore struct{}

func (erroringStore) Exist(context.Context, string) (bool, error) { return false, errors.New("boom") }
func (erroringStore) Get(context.Context, string) ([]byte, error)  { return nil, errors.New("boom") }
func (erroringStore) Set(context.Context, string, []byte) error    { return errors.New("boom") }

func TestBoundedStorePropagatesError(t *testing.T) {
	b := NewBoundedStore(erroringStore{})
	if _, err := b.Exist(context.Background(), "k"); err == nil {
		t.Fatal("expected error from underlying store")
	}
}

func TestBoltStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := OpenBoltStore(filepath.Join(dir, "state.db"))
	if err != nil {
		t.Fatalf("OpenBoltStore: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	if err := store.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	ok, err := store.Exist(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("Exist = %v, %v", ok, err)
	}
	got, err := store.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Fatalf("Get = %q, %v", got, err)
	}
}
