package statestore

import (
	"context"

	"github.com/asukhodko/git-datasource/internal/model"
)

// MaxFailedPaths is the cap on persisted failed_paths (§3); oldest entries
// are dropped first when a write would exceed it.
const MaxFailedPaths = 10000

// LoadLastSHA returns the persisted last_sha for configHash. It degrades
// to ok=false on any store error or timeout, which the caller must treat
// as "absent" (forcing a full sync), per §4.D.
func LoadLastSHA(ctx context.Context, store Store, configHash string) (sha string, ok bool) {
	key := ShaKey(configHash)
	exists, err := store.Exist(ctx, key)
	if err != nil || !exists {
		return "", false
	}
	data, err := store.Get(ctx, key)
	if err != nil || len(data) == 0 {
		return "", false
	}
	return string(data), true
}

// LoadFailedPaths returns the persisted failed_paths for configHash,
// degrading to an empty list on any store error or timeout.
func LoadFailedPaths(ctx context.Context, store Store, configHash string) []string {
	key := FailedKey(configHash)
	exists, err := store.Exist(ctx, key)
	if err != nil || !exists {
		return nil
	}
	data, err := store.Get(ctx, key)
	if err != nil || len(data) == 0 {
		return nil
	}
	paths, err := model.FromJSON[[]string](data)
	if err != nil {
		return nil
	}
	return paths
}

// SaveLastSHA persists the new last_sha. The caller logs but does not
// abort the run on error (§4.D, §7 category 5).
func SaveLastSHA(ctx context.Context, store Store, configHash, sha string) error {
	return store.Set(ctx, ShaKey(configHash), []byte(sha))
}

// SaveFailedPaths persists failed_paths, capping at MaxFailedPaths with
// the oldest entries dropped first.
func SaveFailedPaths(ctx context.Context, store Store, configHash string, paths []string) error {
	capped := capFailedPaths(paths)
	data, err := model.ToJSON(capped)
	if err != nil {
		return err
	}
	return store.Set(ctx, FailedKey(configHash), data)
}

func capFailedPaths(paths []string) []string {
	if len(paths) <= MaxFailedPaths {
		return paths
	}
	// Oldest-dropped: keep the trailing MaxFailedPaths entries, preserving
	// their relative order.
	return append([]string(nil), paths[len(paths)-MaxFailedPaths:]...)
}

// FilterFailedPaths keeps only paths matching the given predicate,
// preserving order — used to re-apply the current subdir+extension filter
// to retried failed_paths on each run (§4.G).
func FilterFailedPaths(paths []string, keep func(string) bool) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

// MergeFailedPaths merges newly failed paths into the carried-over set,
// deduplicating while preserving first-seen order.
func MergeFailedPaths(carried, fresh []string) []string {
	seen := make(map[string]bool, len(carried)+len(fresh))
	out := make([]string, 0, len(carried)+len(fresh))
	for _, p := range append(append([]string(nil), carried...), fresh...) {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
