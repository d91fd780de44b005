package gitrepo

import (
	"errors"
	"io"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"

	gogit "github.com/go-git/go-git/v5"

	"github.com/asukhodko/git-datasource/internal/pathutil"
	"github.com/asukhodko/git-datasource/internal/synerr"
)

// ErrBlobNotFound is returned by ReadBlob when path does not exist in the
// given commit's tree.
var ErrBlobNotFound = errors.New("gitrepo: blob not found")

// Graph performs read-only commit-graph queries against a locally cloned
// repository; it never touches the network.
type Graph struct {
	repo *gogit.Repository
}

// NewGraph wraps an already-opened repository.
func NewGraph(repo *gogit.Repository) *Graph {
	return &Graph{repo: repo}
}

// HeadSHA resolves branch preferring the remote-tracking ref, falling
// back to a local branch of the same name.
func (g *Graph) HeadSHA(branch string) (string, error) {
	if ref, err := g.repo.Reference(plumbing.NewRemoteReferenceName("origin", branch), true); err == nil {
		return ref.Hash().String(), nil
	}
	if ref, err := g.repo.Reference(plumbing.NewBranchReferenceName(branch), true); err == nil {
		return ref.Hash().String(), nil
	}
	return "", synerr.RepoStateError("gitrepo.HeadSHA", errors.New("branch not found: "+branch))
}

// commitByHash resolves a hex SHA to its *object.Commit.
func (g *Graph) commitByHash(sha string) (*object.Commit, error) {
	return g.repo.CommitObject(plumbing.NewHash(sha))
}

// ancestorSet performs a BFS over Commit.Parents() starting at start,
// returning the set of all reachable commit hashes (including start).
func (g *Graph) ancestorSet(start *object.Commit) map[string]bool {
	seen := map[string]bool{start.Hash.String(): true}
	queue := []*object.Commit{start}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		err := c.Parents().ForEach(func(p *object.Commit) error {
			if !seen[p.Hash.String()] {
				seen[p.Hash.String()] = true
				queue = append(queue, p)
			}
			return nil
		})
		_ = err
	}
	return seen
}

// IsAncestor reports whether old is reachable from new. Any graph
// resolution error is treated conservatively as false.
func (g *Graph) IsAncestor(old, new string) bool {
	newCommit, err := g.commitByHash(new)
	if err != nil {
		return false
	}
	if old == new {
		return true
	}
	oldHash := plumbing.NewHash(old).String()
	return g.ancestorSet(newCommit)[oldHash]
}

// CommitCount returns the number of commits in old..new (commits
// reachable from new but not from old). Returns 0 on any graph error.
func (g *Graph) CommitCount(old, new string) int {
	newCommit, err := g.commitByHash(new)
	if err != nil {
		return 0
	}
	oldCommit, err := g.commitByHash(old)
	if err != nil {
		return 0
	}
	excluded := g.ancestorSet(oldCommit)

	count := 0
	seen := map[string]bool{}
	queue := []*object.Commit{newCommit}
	seen[newCommit.Hash.String()] = true
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if !excluded[c.Hash.String()] {
			count++
		} else {
			continue
		}
		_ = c.Parents().ForEach(func(p *object.Commit) error {
			if !seen[p.Hash.String()] {
				seen[p.Hash.String()] = true
				queue = append(queue, p)
			}
			return nil
		})
	}
	return count
}

// ListTree enumerates every blob reachable from commit's tree
// (recursive), pre-filtered by subdir and extensions.
func (g *Graph) ListTree(sha, subdir string, extensions []string) ([]TreeEntry, error) {
	commit, err := g.commitByHash(sha)
	if err != nil {
		return nil, synerr.RepoStateError("gitrepo.ListTree", err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, synerr.RepoStateError("gitrepo.ListTree", err)
	}

	var entries []TreeEntry
	walker := object.NewTreeWalker(tree, true, nil)
	defer walker.Close()
	for {
		name, entry, err := walker.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, synerr.RepoStateError("gitrepo.ListTree", err)
		}
		if !entry.Mode.IsFile() {
			continue
		}
		if pathutil.IsDefaultExcluded(name) {
			continue
		}
		if !pathutil.MatchesSubdir(name, subdir) {
			continue
		}
		if !pathutil.MatchesExtensions(name, extensions) {
			continue
		}
		blob, err := g.repo.BlobObject(entry.Hash)
		if err != nil {
			continue
		}
		entries = append(entries, TreeEntry{Path: name, Size: blob.Size})
	}
	return entries, nil
}

// DiffTrees classifies changes between old and new commits into
// added/deleted/renamed/modified, applying the subdir+extension filter
// such that a rename survives if either side passes.
func (g *Graph) DiffTrees(old, new, subdir string, extensions []string) ([]TreeChange, error) {
	oldCommit, err := g.commitByHash(old)
	if err != nil {
		return nil, synerr.RepoStateError("gitrepo.DiffTrees", err)
	}
	newCommit, err := g.commitByHash(new)
	if err != nil {
		return nil, synerr.RepoStateError("gitrepo.DiffTrees", err)
	}
	oldTree, err := oldCommit.Tree()
	if err != nil {
		return nil, synerr.RepoStateError("gitrepo.DiffTrees", err)
	}
	newTree, err := newCommit.Tree()
	if err != nil {
		return nil, synerr.RepoStateError("gitrepo.DiffTrees", err)
	}

	changes, err := oldTree.Diff(newTree)
	if err != nil {
		return nil, synerr.RepoStateError("gitrepo.DiffTrees", err)
	}

	passes := func(path string) bool {
		return !pathutil.IsDefaultExcluded(path) &&
			pathutil.MatchesSubdir(path, subdir) &&
			pathutil.MatchesExtensions(path, extensions)
	}

	var deletions []*object.Change
	var additions []*object.Change
	var result []TreeChange

	for _, ch := range changes {
		action, err := ch.Action()
		if err != nil {
			continue
		}
		switch action {
		case merkletrie.Insert:
			additions = append(additions, ch)
		case merkletrie.Delete:
			deletions = append(deletions, ch)
		default:
			if ch.To.Name != "" && passes(ch.To.Name) {
				result = append(result, TreeChange{Kind: ChangeModified, NewPath: ch.To.Name, OldPath: ch.From.Name})
			}
		}
	}

	pairedAdds := map[int]bool{}
	for _, del := range deletions {
		renamed := false
		for i, add := range additions {
			if pairedAdds[i] {
				continue
			}
			if del.From.TreeEntry.Hash == add.To.TreeEntry.Hash {
				if passes(del.From.Name) || passes(add.To.Name) {
					result = append(result, TreeChange{Kind: ChangeRenamed, OldPath: del.From.Name, NewPath: add.To.Name})
				}
				pairedAdds[i] = true
				renamed = true
				break
			}
		}
		if !renamed && passes(del.From.Name) {
			result = append(result, TreeChange{Kind: ChangeDeleted, OldPath: del.From.Name})
		}
	}
	for i, add := range additions {
		if pairedAdds[i] {
			continue
		}
		if passes(add.To.Name) {
			result = append(result, TreeChange{Kind: ChangeAdded, NewPath: add.To.Name})
		}
	}

	return result, nil
}

// ReadBlob returns the raw bytes of path as it exists in commit sha.
func (g *Graph) ReadBlob(sha, path string) ([]byte, error) {
	commit, err := g.commitByHash(sha)
	if err != nil {
		return nil, synerr.RepoStateError("gitrepo.ReadBlob", err)
	}
	file, err := commit.File(path)
	if err != nil {
		return nil, ErrBlobNotFound
	}
	reader, err := file.Reader()
	if err != nil {
		return nil, synerr.ContentError("gitrepo.ReadBlob", err)
	}
	defer reader.Close()
	return io.ReadAll(reader)
}
