// Package statestore adapts a host-provided opaque key/value blob store to
// the sync engine's durable-state needs: a bounded-timeout veneer, key
// layout helpers, and two concrete backends (in-memory, embedded bbolt)
// for local use and tests.
package statestore

import "context"

// Store is the three-operation contract the host's blob store satisfies.
// Keys and values are opaque; at-least-once durability is sufficient.
type Store interface {
	Exist(ctx context.Context, key string) (bool, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Key layout (spec §6).

// ShaKey returns the storage key for a config's last successfully synced
// commit SHA.
func ShaKey(configHash string) string { return "git_sha:" + configHash }

// FailedKey returns the storage key for a config's transient-failure path
// list.
func FailedKey(configHash string) string { return "git_failed:" + configHash }

// BrowseKey returns the storage key reserved for the browse-mode variant
// (not implemented by this engine; see SPEC_FULL.md §9).
func BrowseKey(configHash string) string { return "git_browse:" + configHash }
