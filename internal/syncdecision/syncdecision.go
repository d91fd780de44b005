// Package syncdecision decides between a full and incremental crawl and
// builds the incremental path set, grounded on the crawl-variant logic of
// original_source/plugin/datasources/git_website_crawl.py
// (_should_full_sync / _get_file_paths_incremental).
package syncdecision

import "github.com/asukhodko/git-datasource/internal/model"

// MaxCommitsForIncremental caps how large a commit range an incremental
// sync will walk before falling back to a full sync.
const MaxCommitsForIncremental = 1000

// AncestryChecker is the subset of gitrepo.Graph this package depends on,
// named so tests can substitute a fake without a real repository.
type AncestryChecker interface {
	IsAncestor(old, new string) bool
	CommitCount(old, new string) int
}

// ShouldFullSync reports whether the crawl must walk the entire tree
// rather than diffing last_sha..current_sha. True when: there is no prior
// SHA, the SHAs are already equal (nothing to diff), history was rewritten
// (last_sha unreachable from current_sha), or the commit range exceeds
// MaxCommitsForIncremental.
func ShouldFullSync(g AncestryChecker, lastSHA, currentSHA string) bool {
	if lastSHA == "" {
		return true
	}
	if lastSHA == currentSHA {
		return true
	}
	if !g.IsAncestor(lastSHA, currentSHA) {
		return true
	}
	if g.CommitCount(lastSHA, currentSHA) > MaxCommitsForIncremental {
		return true
	}
	return false
}

// BuildIncrementalPaths merges the change set's emission paths (added,
// modified, and the new side of every rename) with any prior failed_paths
// that still pass the current filter, deduplicated with first-seen order
// preserved.
func BuildIncrementalPaths(changes model.ChangeSet, failedPaths []string, passesFilter func(string) bool) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, p := range changes.EmissionPaths() {
		add(p)
	}

	for _, p := range failedPaths {
		if passesFilter(p) {
			add(p)
		}
	}

	return out
}
