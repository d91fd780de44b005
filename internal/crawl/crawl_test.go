package crawl

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-logr/logr"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/asukhodko/git-datasource/internal/model"
	"github.com/asukhodko/git-datasource/internal/statestore"
)

var fixtureSig = &object.Signature{Name: "tester", Email: "tester@example.com", When: time.Unix(0, 0)}

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}
}

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	full := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newOriginRepo(t *testing.T) (dir string, repo *gogit.Repository) {
	t.Helper()
	dir = t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	return dir, repo
}

func commitOnMain(t *testing.T, repo *gogit.Repository, msg string) string {
	t.Helper()
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := wt.Add("."); err != nil {
		t.Fatal(err)
	}
	hash, err := wt.Commit(msg, &gogit.CommitOptions{Author: fixtureSig})
	if err != nil {
		t.Fatal(err)
	}
	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName("main"), hash)
	if err := repo.Storer.SetReference(ref); err != nil {
		t.Fatal(err)
	}
	head := plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName("main"))
	if err := repo.Storer.SetReference(head); err != nil {
		t.Fatal(err)
	}
	return hash.String()
}

func runCrawl(t *testing.T, crawler *Crawler, cfg Config) []model.Record {
	t.Helper()
	var records []model.Record
	err := crawler.Run(context.Background(), cfg, func(r model.Record) error {
		records = append(records, r)
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return records
}

func TestCrawlFirstSyncFiltered(t *testing.T) {
	requireGit(t)
	origin, repo := newOriginRepo(t)
	writeFile(t, origin, "docs/readme.md", "hello")
	writeFile(t, origin, "docs/guide.txt", "ignored ext")
	writeFile(t, origin, "src/main.py", "ignored subdir")
	commitOnMain(t, repo, "initial")

	cacheDir := t.TempDir()
	store := statestore.NewMemoryStore()
	crawler := NewCrawler(cacheDir, store, logr.Discard(), nil)

	cfg := Config{RepoURL: origin, Branch: "main", Subdir: "docs", Extensions: []string{".md"}}
	records := runCrawl(t, crawler, cfg)

	if len(records) != 1 {
		t.Fatalf("expected exactly 1 record, got %d", len(records))
	}
	if len(records[0].Items) != 1 || records[0].Items[0].Title != "docs/readme.md" {
		t.Fatalf("expected a single docs/readme.md descriptor, got %+v", records[0].Items)
	}
	if records[0].Status != model.StatusCompleted {
		t.Errorf("expected completed status, got %s", records[0].Status)
	}

	configHash := cfg.ConfigHash()
	sha, ok := statestore.LoadLastSHA(context.Background(), store, configHash)
	if !ok || sha == "" {
		t.Fatal("expected last_sha to be persisted")
	}
	failed := statestore.LoadFailedPaths(context.Background(), store, configHash)
	if len(failed) != 0 {
		t.Errorf("expected empty failed_paths, got %v", failed)
	}
}

// TestCrawlIncrementalAdd simulates two separate invocations against the
// same durable Store but distinct, cold local caches (the realistic
// deployment shape: the Store persists across invocations, the on-disk
// git cache does not). Step 3's fast path only ever short-circuits a
// warm cache whose local HEAD already matches last_sha, so a cold cache
// here forces ensure_cloned, which discovers the new upstream commit.
func TestCrawlIncrementalAdd(t *testing.T) {
	requireGit(t)
	origin, repo := newOriginRepo(t)
	writeFile(t, origin, "docs/readme.md", "hello")
	commitOnMain(t, repo, "initial")

	store := statestore.NewMemoryStore()
	cfg := Config{RepoURL: origin, Branch: "main", Subdir: "docs", Extensions: []string{".md"}}

	runCrawl(t, NewCrawler(t.TempDir(), store, logr.Discard(), nil), cfg)

	writeFile(t, origin, "docs/newfile.md", "fresh content")
	commitOnMain(t, repo, "add newfile")

	records := runCrawl(t, NewCrawler(t.TempDir(), store, logr.Discard(), nil), cfg)
	if len(records) != 1 {
		t.Fatalf("expected exactly 1 record for the incremental add, got %d", len(records))
	}
	if len(records[0].Items) != 1 || records[0].Items[0].Title != "docs/newfile.md" {
		t.Fatalf("expected only docs/newfile.md emitted, got %+v", records[0].Items)
	}
}

// TestCrawlFastPathSkipsWarmCacheEvenWithUpstreamChanges documents the
// ported characteristic of the original datasource: a warm cache (same
// cache dir reused) trusts its local HEAD against last_sha without ever
// fetching, so upstream commits made after the first crawl are not seen
// until something invalidates the fast path (a cold cache, or pending
// failed_paths).
func TestCrawlFastPathSkipsWarmCacheEvenWithUpstreamChanges(t *testing.T) {
	requireGit(t)
	origin, repo := newOriginRepo(t)
	writeFile(t, origin, "docs/readme.md", "hello")
	commitOnMain(t, repo, "initial")

	cacheDir := t.TempDir()
	store := statestore.NewMemoryStore()
	crawler := NewCrawler(cacheDir, store, logr.Discard(), nil)
	cfg := Config{RepoURL: origin, Branch: "main", Subdir: "docs", Extensions: []string{".md"}}

	runCrawl(t, crawler, cfg)

	writeFile(t, origin, "docs/newfile.md", "fresh content")
	commitOnMain(t, repo, "add newfile")

	records := runCrawl(t, crawler, cfg)
	if len(records) != 1 {
		t.Fatalf("expected exactly 1 record, got %d", len(records))
	}
	if len(records[0].Items) != 0 {
		t.Errorf("expected the warm-cache fast path to skip without fetching, got %+v", records[0].Items)
	}
}

func TestCrawlNoOpFastPath(t *testing.T) {
	requireGit(t)
	origin, repo := newOriginRepo(t)
	writeFile(t, origin, "docs/readme.md", "hello")
	commitOnMain(t, repo, "initial")

	cacheDir := t.TempDir()
	store := statestore.NewMemoryStore()
	crawler := NewCrawler(cacheDir, store, logr.Discard(), nil)
	cfg := Config{RepoURL: origin, Branch: "main", Subdir: "docs", Extensions: []string{".md"}}

	runCrawl(t, crawler, cfg)
	records := runCrawl(t, crawler, cfg)

	if len(records) != 1 {
		t.Fatalf("expected exactly 1 record on the no-op rerun, got %d", len(records))
	}
	r := records[0]
	if r.Status != model.StatusCompleted || r.Total != 0 || r.Completed != 0 || len(r.Items) != 0 {
		t.Errorf("expected an empty completed record, got %+v", r)
	}
}
