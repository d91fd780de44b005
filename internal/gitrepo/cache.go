package gitrepo

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	gogit "github.com/go-git/go-git/v5"

	"github.com/asukhodko/git-datasource/internal/synerr"
	"github.com/asukhodko/git-datasource/internal/urlutil"
)

// CachePath returns the deterministic on-disk cache directory for a
// (repoURL, branch) pair: cacheDir/SHA-256(repoURL:branch)[:16].
func CachePath(cacheDir, repoURL, branch string) string {
	sum := sha256.Sum256([]byte(repoURL + ":" + branch))
	return filepath.Join(cacheDir, hex.EncodeToString(sum[:])[:16])
}

// Cache manages one repository's on-disk clone.
type Cache struct {
	Dir      string
	RepoURL  string
	Branch   string
	Creds    Credentials
	Path     string
}

// NewCache builds a Cache bound to the deterministic path for repoURL+branch
// under cacheDir.
func NewCache(cacheDir, repoURL, branch string, creds Credentials) *Cache {
	return &Cache{
		Dir:     cacheDir,
		RepoURL: repoURL,
		Branch:  branch,
		Creds:   creds,
		Path:    CachePath(cacheDir, repoURL, branch),
	}
}

// Exists reports whether the cache directory already contains a cloned
// repository.
func (c *Cache) Exists() bool {
	_, err := os.Stat(filepath.Join(c.Path, ".git"))
	return err == nil
}

// EnsureCloned clones the repository if the cache path is empty, or
// fetches and updates the remote URL (to pick up rotated tokens)
// otherwise. Returns the resolved HEAD commit SHA.
func (c *Cache) EnsureCloned(ctx context.Context) (string, error) {
	if err := urlutil.ValidateRepoURL(c.RepoURL); err != nil {
		return "", synerr.ConfigError("gitrepo.EnsureCloned", err)
	}

	authURL, env, cleanup, err := c.buildGitEnv()
	if err != nil {
		return "", synerr.AuthError("gitrepo.EnsureCloned", err)
	}
	defer cleanup()

	if c.Exists() {
		if err := c.runGit(ctx, c.Path, env, "remote", "set-url", "origin", authURL); err != nil {
			return "", synerr.TransportError("gitrepo.EnsureCloned", maskErr(err))
		}
		if err := c.runGit(ctx, c.Path, env, "fetch", "--force", "origin", c.Branch); err != nil {
			return "", synerr.TransportError("gitrepo.EnsureCloned", maskErr(err))
		}
		if err := c.runGit(ctx, c.Path, env, "checkout", "-f", "FETCH_HEAD"); err != nil {
			return "", synerr.TransportError("gitrepo.EnsureCloned", maskErr(err))
		}
	} else {
		if err := os.MkdirAll(filepath.Dir(c.Path), 0o755); err != nil {
			return "", synerr.RepoStateError("gitrepo.EnsureCloned", err)
		}
		if err := c.runGit(ctx, "", env, "clone", "--branch", c.Branch, authURL, c.Path); err != nil {
			return "", synerr.TransportError("gitrepo.EnsureCloned", maskErr(err))
		}
	}

	return c.HeadSHA(ctx)
}

// HeadSHA reads the local HEAD commit SHA without any network access.
func (c *Cache) HeadSHA(_ context.Context) (string, error) {
	repo, err := gogit.PlainOpen(c.Path)
	if err != nil {
		return "", synerr.RepoStateError("gitrepo.HeadSHA", err)
	}
	head, err := repo.Head()
	if err != nil {
		return "", synerr.RepoStateError("gitrepo.HeadSHA", err)
	}
	return head.Hash().String(), nil
}

// Open opens the cached repository for read-only graph queries.
func (c *Cache) Open() (*gogit.Repository, error) {
	repo, err := gogit.PlainOpen(c.Path)
	if err != nil {
		return nil, synerr.RepoStateError("gitrepo.Open", err)
	}
	return repo, nil
}

// buildGitEnv prepares the authenticated URL (HTTPS token injection) or
// the per-process SSH environment (temp key file + GIT_SSH_COMMAND),
// returning a cleanup func that must run on every exit path.
func (c *Cache) buildGitEnv() (authURL string, env []string, cleanup func(), err error) {
	base := []string{
		"GIT_TERMINAL_PROMPT=0",
		"GIT_CONFIG_NOSYSTEM=1",
	}
	noop := func() {}

	if c.Creds.SSHPrivateKey != "" && urlutil.ClassifyURL(c.RepoURL) == urlutil.URLSSH {
		sshe, sshVars, err := openSSHEnv(c.Creds.SSHPrivateKey)
		if err != nil {
			return c.RepoURL, nil, noop, err
		}
		return c.RepoURL, append(base, sshVars...), func() { sshe.Close() }, nil
	}

	if c.Creds.AccessToken != "" {
		return urlutil.BuildAuthURL(c.RepoURL, c.Creds.AccessToken), base, noop, nil
	}

	return c.RepoURL, base, noop, nil
}

// runGit executes git with args, scoping credentials to this single
// exec.Cmd's environment; the real process environment is never mutated.
func (c *Cache) runGit(ctx context.Context, dir string, extraEnv []string, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Env = append(os.Environ(), extraEnv...)
	if dir != "" {
		cmd.Dir = dir
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		return errCombined(string(out), err)
	}
	return nil
}

type gitCommandError struct {
	output string
	cause  error
}

func (e *gitCommandError) Error() string {
	return strings.TrimSpace(e.output) + ": " + e.cause.Error()
}

func (e *gitCommandError) Unwrap() error { return e.cause }

func errCombined(output string, cause error) error {
	return &gitCommandError{output: output, cause: cause}
}

// maskErr strips any credential that leaked into a git subprocess error
// message before it is wrapped and propagated.
func maskErr(err error) error {
	if err == nil {
		return nil
	}
	return errMasked(urlutil.MaskURL(err.Error()))
}

type maskedError string

func (e maskedError) Error() string { return string(e) }

func errMasked(msg string) error { return maskedError(msg) }
