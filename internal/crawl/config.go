// Package crawl composes gitrepo, syncdecision, pipeline, and statestore
// into the single end-to-end operation the host invokes (§4.I), emitting
// structured log events and Prometheus observations at each numbered
// step.
package crawl

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/asukhodko/git-datasource/internal/gitrepo"
	"github.com/asukhodko/git-datasource/internal/pathutil"
)

// Config is one crawl invocation's repository configuration (§3).
type Config struct {
	RepoURL    string
	Branch     string
	Subdir     string
	Extensions []string
	Creds      gitrepo.Credentials
}

// NormalizedBranch returns Branch, defaulting to "main" when empty.
func (c Config) NormalizedBranch() string {
	if c.Branch == "" {
		return "main"
	}
	return c.Branch
}

// ConfigHash derives the 16-hex identity of this configuration:
// SHA-256(repo_url|branch|subdir|canonical_extensions)[:16].
func (c Config) ConfigHash() string {
	canonical := pathutil.CanonicalExtensions(c.Extensions)
	sum := sha256.Sum256([]byte(c.RepoURL + "|" + c.NormalizedBranch() + "|" + c.Subdir + "|" + canonical))
	return hex.EncodeToString(sum[:])[:16]
}

// PassesFilter reports whether path matches this configuration's subdir
// and extension filters (used to re-check carried-over failed_paths on
// each run, §4.G).
func (c Config) PassesFilter(path string) bool {
	return pathutil.MatchesSubdir(path, c.Subdir) && pathutil.MatchesExtensions(path, c.Extensions)
}
