package testutils

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/format/packfile"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// PackCommit encodes a synthetic packfile holding a commit and its full
// object closure, the shape a client pushing a new branch sends.
func (b *RepoBuilder) PackCommit(hash plumbing.Hash) ([]byte, error) {
	hashes, err := b.commitClosure(hash)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := packfile.NewEncoder(&buf, b.repo.Storer, false)
	if _, err := enc.Encode(hashes, 10); err != nil {
		return nil, fmt.Errorf("encoding packfile: %w", err)
	}
	return buf.Bytes(), nil
}

// commitClosure collects the commit, its root tree, and every reachable tree
// and blob.
func (b *RepoBuilder) commitClosure(hash plumbing.Hash) ([]plumbing.Hash, error) {
	commit, err := b.repo.CommitObject(hash)
	if err != nil {
		return nil, fmt.Errorf("resolving commit %s: %w", hash, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("resolving tree of %s: %w", hash, err)
	}

	hashes := []plumbing.Hash{hash, tree.Hash}
	walker := object.NewTreeWalker(tree, true, nil)
	defer walker.Close()
	for {
		_, entry, err := walker.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("walking tree: %w", err)
		}
		hashes = append(hashes, entry.Hash)
	}
	return hashes, nil
}
