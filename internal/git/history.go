// Package git extracts scan targets from repository history using go-git.
// It only produces (path, content) pairs; classification and provenance
// annotation happen in the engine.
package git

import (
	"fmt"
	"io"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	"github.com/keyguard/keyguard/internal/log"
)

// HistoryEntry is one non-merge commit and the changed blobs it introduced.
// Blobs already seen earlier in the walk are omitted: identical content is
// scanned at most once per walk no matter how many commits reference it.
type HistoryEntry struct {
	Hash  string
	Files map[string][]byte
}

// ShortHash returns the 8-char commit identifier used in annotations.
func (e HistoryEntry) ShortHash() string {
	if len(e.Hash) < 8 {
		return e.Hash
	}
	return e.Hash[:8]
}

func open(root string) (*gogit.Repository, error) {
	repo, err := gogit.PlainOpenWithOptions(root, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("not a valid git repository %q: %w", root, err)
	}
	return repo, nil
}

// History walks commits reachable from startRef (newest first, capped at
// maxCommits when > 0), skipping merge commits, and returns the changed
// blob contents per commit. An invalid repository or unresolvable ref is
// an error; a single undiffable commit or unreadable blob is skipped.
func History(root, startRef string, maxCommits int) ([]HistoryEntry, error) {
	repo, err := open(root)
	if err != nil {
		return nil, err
	}
	if startRef == "" {
		startRef = "HEAD"
	}
	hash, err := repo.ResolveRevision(plumbing.Revision(startRef))
	if err != nil {
		return nil, fmt.Errorf("cannot resolve ref %q: %w", startRef, err)
	}
	iter, err := repo.Log(&gogit.LogOptions{From: *hash})
	if err != nil {
		return nil, fmt.Errorf("cannot read history from %q: %w", startRef, err)
	}
	defer iter.Close()

	seenBlobs := map[plumbing.Hash]bool{}
	var entries []HistoryEntry
	count := 0
	err = iter.ForEach(func(c *object.Commit) error {
		if maxCommits > 0 && count >= maxCommits {
			return storer.ErrStop
		}
		count++
		// Merge commits have no single diff base.
		if c.NumParents() > 1 {
			return nil
		}
		files, err := changedBlobs(c, seenBlobs)
		if err != nil {
			log.Debugf("skipping undiffable commit %s: %v", c.Hash.String()[:8], err)
			return nil
		}
		if len(files) > 0 {
			entries = append(entries, HistoryEntry{Hash: c.Hash.String(), Files: files})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// changedBlobs diffs a non-merge commit against its parent, or against the
// empty tree for the root commit.
func changedBlobs(c *object.Commit, seen map[plumbing.Hash]bool) (map[string][]byte, error) {
	tree, err := c.Tree()
	if err != nil {
		return nil, err
	}
	var parentTree *object.Tree
	if c.NumParents() == 1 {
		parent, err := c.Parent(0)
		if err != nil {
			return nil, err
		}
		parentTree, err = parent.Tree()
		if err != nil {
			return nil, err
		}
	}
	changes, err := object.DiffTree(parentTree, tree)
	if err != nil {
		return nil, err
	}

	files := map[string][]byte{}
	for _, ch := range changes {
		// Deletions leave nothing to scan on this commit.
		if ch.To.Name == "" {
			continue
		}
		blobHash := ch.To.TreeEntry.Hash
		if seen[blobHash] {
			continue
		}
		seen[blobHash] = true
		b, err := blobContent(tree, ch.To.Name)
		if err != nil {
			log.Debugf("skipping unreadable blob %s: %v", ch.To.Name, err)
			continue
		}
		files[ch.To.Name] = b
	}
	return files, nil
}

func blobContent(tree *object.Tree, path string) ([]byte, error) {
	f, err := tree.File(path)
	if err != nil {
		return nil, err
	}
	r, err := f.Reader()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// DiffBranches lists files differing between the merge base of base and
// compare and the compare ref, with each file's content as it exists on
// compare (triple-dot semantics). Files deleted on compare are skipped.
func DiffBranches(root, base, compare string) ([]string, [][]byte, error) {
	repo, err := open(root)
	if err != nil {
		return nil, nil, err
	}
	if compare == "" {
		compare = "HEAD"
	}
	baseCommit, err := resolveCommit(repo, base)
	if err != nil {
		return nil, nil, err
	}
	compareCommit, err := resolveCommit(repo, compare)
	if err != nil {
		return nil, nil, err
	}
	ancestors, err := baseCommit.MergeBase(compareCommit)
	if err != nil || len(ancestors) == 0 {
		return nil, nil, fmt.Errorf("no common ancestor between %q and %q", base, compare)
	}
	ancestorTree, err := ancestors[0].Tree()
	if err != nil {
		return nil, nil, err
	}
	compareTree, err := compareCommit.Tree()
	if err != nil {
		return nil, nil, err
	}
	changes, err := object.DiffTree(ancestorTree, compareTree)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot diff %q against %q: %w", base, compare, err)
	}

	var paths []string
	var data [][]byte
	for _, ch := range changes {
		if ch.To.Name == "" {
			continue // deleted on compare
		}
		b, err := blobContent(compareTree, ch.To.Name)
		if err != nil {
			continue
		}
		paths = append(paths, ch.To.Name)
		data = append(data, b)
	}
	return paths, data, nil
}

func resolveCommit(repo *gogit.Repository, rev string) (*object.Commit, error) {
	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("cannot resolve ref %q: %w", rev, err)
	}
	c, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("cannot read commit %s: %w", hash, err)
	}
	return c, nil
}
