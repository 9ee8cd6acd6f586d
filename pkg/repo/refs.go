package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/odvcencio/pal/pkg/logging"
	"github.com/odvcencio/pal/pkg/object"
)

const (
	symrefPrefix   = "ref: "
	maxSymrefDepth = 10

	refLockRetryDelay = 5 * time.Millisecond
	refLockWaitLimit  = 2 * time.Second
)

// refPath maps a ref name to its file: "HEAD" and "refs/..." are taken as
// is, anything else is a branch under refs/heads/.
func (r *Repo) refPath(name string) string {
	return filepath.Join(r.PalDir, filepath.FromSlash(qualifyRef(name)))
}

func qualifyRef(name string) string {
	if name == "HEAD" || strings.HasPrefix(name, "refs/") {
		return name
	}
	return "refs/heads/" + name
}

// readRefFile returns the trimmed content of a ref file. A missing file or
// a path that is not a regular file yields ok == false.
func readRefFile(path string) (content string, ok bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.EISDIR) || errors.Is(err, syscall.ENOTDIR) {
			return "", false, nil
		}
		return "", false, err
	}
	return strings.TrimSpace(string(data)), true, nil
}

// Head reads .pal/HEAD. A symbolic HEAD yields the target ref path (e.g.
// "refs/heads/master"); a detached HEAD yields the raw hash.
func (r *Repo) Head() (string, error) {
	content, ok, err := readRefFile(filepath.Join(r.PalDir, "HEAD"))
	if err != nil {
		return "", fmt.Errorf("head: %w", err)
	}
	if !ok {
		return "", fmt.Errorf("head: missing HEAD: %w", ErrUnresolvedReference)
	}
	return strings.TrimPrefix(content, symrefPrefix), nil
}

// ResolveRef resolves a ref name to an object hash, following symbolic
// refs. A ref whose file does not exist resolves to "" with a nil error,
// which callers treat as "no commits yet". A symbolic chain longer than
// maxSymrefDepth fails with ErrUnresolvedReference.
func (r *Repo) ResolveRef(name string) (object.Hash, error) {
	cur := qualifyRef(name)
	for depth := 0; depth <= maxSymrefDepth; depth++ {
		content, ok, err := readRefFile(r.refPath(cur))
		if err != nil {
			return "", fmt.Errorf("resolve ref %q: %w", name, err)
		}
		if !ok {
			return "", nil
		}
		if target, isSym := strings.CutPrefix(content, symrefPrefix); isSym {
			cur = qualifyRef(strings.TrimSpace(target))
			continue
		}
		h, err := object.ParseHash(content)
		if err != nil {
			return "", fmt.Errorf("resolve ref %q: %w", name, err)
		}
		return h, nil
	}
	return "", fmt.Errorf("resolve ref %q: symbolic chain deeper than %d: %w", name, maxSymrefDepth, ErrUnresolvedReference)
}

// RefExists reports whether a ref file exists for name.
func (r *Repo) RefExists(name string) bool {
	info, err := os.Stat(r.refPath(name))
	return err == nil && info.Mode().IsRegular()
}

// UpdateRef writes a hash to the named ref using lockfile + rename. If
// expectedOld is provided, the update only succeeds when the current ref
// hash matches it; an expected "" means the ref must not exist yet.
func (r *Repo) UpdateRef(name string, h object.Hash, expectedOld ...object.Hash) error {
	return r.updateRef(name, h, "update", expectedOld...)
}

func (r *Repo) updateRef(name string, h object.Hash, reason string, expectedOld ...object.Hash) error {
	if len(expectedOld) > 1 {
		return fmt.Errorf("update ref %q: expected at most one old hash", name)
	}
	name = qualifyRef(name)
	refPath := r.refPath(name)

	if err := os.MkdirAll(filepath.Dir(refPath), 0o755); err != nil {
		return fmt.Errorf("update ref %q: mkdir: %w", name, err)
	}

	oldHash, err := r.withRefLock(name, func(lockFile *os.File, old string) error {
		if len(expectedOld) == 1 && object.Hash(old) != expectedOld[0] {
			return fmt.Errorf("%w (expected %q, found %q)", ErrRefCASMismatch, expectedOld[0], old)
		}
		_, err := lockFile.WriteString(string(h) + "\n")
		return err
	})
	if err != nil {
		return fmt.Errorf("update ref %q: %w", name, err)
	}

	r.log.WithFields(logging.Fields{
		logging.RefFieldKey:  name,
		logging.HashFieldKey: h,
		"old":                oldHash,
	}).Debug("ref updated")
	if err := r.appendReflog(name, object.Hash(oldHash), h, reason); err != nil {
		r.log.WithError(err).WithField(logging.RefFieldKey, name).Warn("reflog append failed")
	}
	return nil
}

// SetSymbolicRef points name at another ref, e.g. HEAD -> refs/heads/dev.
func (r *Repo) SetSymbolicRef(name, target string) error {
	name = qualifyRef(name)
	target = qualifyRef(target)
	_, err := r.withRefLock(name, func(lockFile *os.File, _ string) error {
		_, err := lockFile.WriteString(symrefPrefix + target + "\n")
		return err
	})
	if err != nil {
		return fmt.Errorf("set symbolic ref %q: %w", name, err)
	}
	r.log.WithFields(logging.Fields{logging.RefFieldKey: name, "target": target}).Debug("symbolic ref set")
	return nil
}

// DeleteRef removes a ref file. Missing refs are an error.
func (r *Repo) DeleteRef(name string) error {
	name = qualifyRef(name)
	if err := os.Remove(r.refPath(name)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("delete ref %q: %w", name, ErrUnresolvedReference)
		}
		return fmt.Errorf("delete ref %q: %w", name, err)
	}
	return nil
}

// withRefLock holds name.lock while fn writes the new content into it, then
// renames the lock over the ref. fn receives the current raw content.
func (r *Repo) withRefLock(name string, fn func(lockFile *os.File, old string) error) (string, error) {
	refPath := r.refPath(name)
	lockPath := refPath + ".lock"
	lockFile, err := acquireRefLock(lockPath)
	if err != nil {
		return "", fmt.Errorf("lock: %w", err)
	}
	cleanupLock := true
	defer func() {
		if lockFile != nil {
			_ = lockFile.Close()
		}
		if cleanupLock {
			_ = os.Remove(lockPath)
		}
	}()

	old, _, err := readRefFile(refPath)
	if err != nil {
		return "", fmt.Errorf("read old value: %w", err)
	}
	if err := fn(lockFile, old); err != nil {
		return old, err
	}
	if err := lockFile.Sync(); err != nil {
		return old, fmt.Errorf("sync: %w", err)
	}
	if err := lockFile.Close(); err != nil {
		lockFile = nil
		return old, fmt.Errorf("close: %w", err)
	}
	lockFile = nil

	if err := os.Rename(lockPath, refPath); err != nil {
		return old, fmt.Errorf("rename: %w", err)
	}
	cleanupLock = false
	return old, nil
}

func acquireRefLock(lockPath string) (*os.File, error) {
	deadline := time.Now().Add(refLockWaitLimit)
	for {
		f, err := os.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, nil
		}
		if os.IsExist(err) {
			if time.Now().After(deadline) {
				return nil, fmt.Errorf("timeout waiting for lock %q", lockPath)
			}
			time.Sleep(refLockRetryDelay)
			continue
		}
		return nil, err
	}
}

// Ref is a named reference and the hash it resolves to.
type Ref struct {
	Name string
	Hash object.Hash
}

// ListRefs lists references under .pal/refs/<prefix>, resolved and sorted
// by name. Names are full ref paths such as "refs/heads/master".
func (r *Repo) ListRefs(prefix string) ([]Ref, error) {
	root := filepath.Join(r.PalDir, "refs")
	dir := root
	if p := strings.Trim(strings.TrimSpace(prefix), "/"); p != "" {
		dir = filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(p, "refs/")))
	}

	var refs []Ref
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || strings.HasSuffix(d.Name(), ".lock") {
			return nil
		}
		rel, err := filepath.Rel(r.PalDir, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		h, err := r.ResolveRef(name)
		if err != nil {
			return err
		}
		if h != "" {
			refs = append(refs, Ref{Name: name, Hash: h})
		}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list refs: %w", err)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })
	return refs, nil
}
