package repo

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/odvcencio/pal/pkg/logging"
	"github.com/odvcencio/pal/pkg/object"
)

// CommitSigner signs canonical commit payload bytes and returns an encoded
// signature string to be stored under the commit's signature header.
type CommitSigner func(payload []byte) (string, error)

// Commit creates a new commit from the current index.
func (r *Repo) Commit(message, author string) (object.Hash, error) {
	return r.CommitWithSigner(message, author, nil)
}

// CommitWithSigner creates a new commit from the current index and signs it
// when signer is non-nil.
//
//  1. Build the tree from the index.
//  2. Resolve HEAD for the parent, if any.
//  3. Write the commit and move the current branch (or a detached HEAD)
//     with a compare-and-swap against the parent.
func (r *Repo) CommitWithSigner(message, author string, signer CommitSigner) (object.Hash, error) {
	idx, err := r.ReadIndex()
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	treeHash, err := r.BuildTreeFromIndex(idx)
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	parentHash, err := r.ResolveRef("HEAD")
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	var parents []object.Hash
	if parentHash != "" {
		parent, err := r.readCommit(parentHash)
		if err != nil {
			return "", fmt.Errorf("commit: %w", err)
		}
		if parent.TreeHash() == treeHash {
			return "", fmt.Errorf("commit: %w", ErrNothingToCommit)
		}
		parents = append(parents, parentHash)
	} else if len(idx.Entries) == 0 {
		return "", fmt.Errorf("commit: %w", ErrNothingToCommit)
	}

	return r.writeCommit(treeHash, parents, message, author, signer, "commit")
}

// writeCommit writes a commit over treeHash and advances HEAD's target from
// parents[0] (or from nothing for a root commit).
func (r *Repo) writeCommit(treeHash object.Hash, parents []object.Hash, message, author string, signer CommitSigner, reason string) (object.Hash, error) {
	if strings.TrimSpace(author) == "" {
		author = r.DefaultIdentity()
	}
	id := object.NewIdentity(author, time.Now())
	c := object.NewCommit(treeHash, parents, id, id, message)
	if signer != nil {
		payload, err := object.CommitSigningPayload(c)
		if err != nil {
			return "", fmt.Errorf("commit: signing payload: %w", err)
		}
		signature, err := signer(payload)
		if err != nil {
			return "", fmt.Errorf("commit: sign commit: %w", err)
		}
		c.Set(object.SignatureKey, signature)
	}

	commitHash, err := r.Store.WriteObject(c)
	if err != nil {
		return "", fmt.Errorf("commit: write commit: %w", err)
	}

	var expected object.Hash
	if len(parents) > 0 {
		expected = parents[0]
	}
	head, err := r.Head()
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	target := "HEAD"
	if strings.HasPrefix(head, "refs/") {
		target = head
	}
	if err := r.updateRef(target, commitHash, reason+": "+c.Summary(), expected); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	r.log.WithFields(logging.Fields{
		logging.HashFieldKey: commitHash,
		logging.RefFieldKey:  target,
	}).Debug("created commit")
	return commitHash, nil
}

// LogEntry pairs a commit with its hash.
type LogEntry struct {
	Hash   object.Hash
	Commit *object.Commit
}

// Log walks the history from start following first-parent links and
// returns up to limit commits, newest first. A limit <= 0 walks to the
// root. An empty start (no commits yet) yields an empty log.
func (r *Repo) Log(start object.Hash, limit int) ([]LogEntry, error) {
	var entries []LogEntry
	current := start

	for current != "" && (limit <= 0 || len(entries) < limit) {
		c, err := r.readCommit(current)
		if err != nil {
			if errors.Is(err, object.ErrNotFound) && len(entries) > 0 {
				r.log.WithField(logging.HashFieldKey, current).Warn("log: history ends at missing commit")
				break
			}
			return nil, fmt.Errorf("log: %w", err)
		}
		entries = append(entries, LogEntry{Hash: current, Commit: c})

		parents := c.Parents()
		if len(parents) == 0 {
			break
		}
		current = parents[0]
	}
	return entries, nil
}
