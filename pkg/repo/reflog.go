package repo

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/odvcencio/pal/pkg/logging"
	"github.com/odvcencio/pal/pkg/object"
)

// nullHash stands in for "no value" on either side of a reflog line.
var nullHash = object.Hash(strings.Repeat("0", object.HexSize))

var errBadReflogLine = errors.New("malformed reflog line")

// ReflogEntry is one recorded movement of a ref. Old is empty when the ref
// was created, New when it was cleared.
type ReflogEntry struct {
	Ref       string
	Old       object.Hash
	New       object.Hash
	Committer object.Identity
	Message   string
}

// encode renders "old new Name <email> unix zone\tmessage".
func (e ReflogEntry) encode() string {
	old, cur := e.Old, e.New
	if old == "" {
		old = nullHash
	}
	if cur == "" {
		cur = nullHash
	}
	msg := strings.Join(strings.Fields(e.Message), " ")
	return fmt.Sprintf("%s %s %s\t%s\n", old, cur, e.Committer, msg)
}

func parseReflogLine(ref, line string) (ReflogEntry, error) {
	head, msg, ok := strings.Cut(line, "\t")
	if !ok || len(head) < 2*object.HexSize+2 {
		return ReflogEntry{}, errBadReflogLine
	}
	e := ReflogEntry{Ref: ref, Message: msg}
	var err error
	if e.Old, err = parseReflogHash(head[:object.HexSize]); err != nil {
		return ReflogEntry{}, err
	}
	if e.New, err = parseReflogHash(head[object.HexSize+1 : 2*object.HexSize+1]); err != nil {
		return ReflogEntry{}, err
	}
	if e.Committer, err = object.ParseIdentity(head[2*object.HexSize+2:]); err != nil {
		return ReflogEntry{}, err
	}
	return e, nil
}

func parseReflogHash(s string) (object.Hash, error) {
	h, err := object.ParseHash(s)
	if err != nil {
		return "", err
	}
	if h == nullHash {
		return "", nil
	}
	return h, nil
}

func (r *Repo) reflogPath(ref string) string {
	return filepath.Join(r.PalDir, "logs", filepath.FromSlash(ref))
}

// appendReflog records a move of ref made by the repository's default
// identity. A symbolic old value counts as no value.
func (r *Repo) appendReflog(ref string, oldHash, newHash object.Hash, message string) error {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil
	}
	if strings.HasPrefix(string(oldHash), symrefPrefix) {
		oldHash = ""
	}
	if strings.TrimSpace(message) == "" {
		message = "update"
	}
	e := ReflogEntry{
		Ref:       ref,
		Old:       object.Hash(strings.TrimSpace(string(oldHash))),
		New:       newHash,
		Committer: object.NewIdentity(r.DefaultIdentity(), time.Now()),
		Message:   message,
	}

	p := r.reflogPath(ref)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("reflog %s: %w", ref, err)
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("reflog %s: %w", ref, err)
	}
	if _, err := f.WriteString(e.encode()); err != nil {
		f.Close()
		return fmt.Errorf("reflog %s: %w", ref, err)
	}
	return f.Close()
}

// ReadReflog returns the movements of ref, newest first. "HEAD" or "" reads
// the log of the branch HEAD points at. A limit <= 0 returns everything.
// Unparseable lines are skipped.
func (r *Repo) ReadReflog(ref string, limit int) ([]ReflogEntry, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" || ref == "HEAD" {
		if head, err := r.Head(); err == nil && strings.HasPrefix(head, "refs/") {
			ref = head
		} else {
			ref = "HEAD"
		}
	} else {
		ref = qualifyRef(ref)
	}

	f, err := os.Open(r.reflogPath(ref))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read reflog %s: %w", ref, err)
	}
	defer f.Close()

	var entries []ReflogEntry
	sc := bufio.NewScanner(f)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			continue
		}
		e, err := parseReflogLine(ref, line)
		if err != nil {
			r.log.WithFields(logging.Fields{logging.RefFieldKey: ref, "line": n}).WithError(err).Debug("skipping reflog line")
			continue
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read reflog %s: %w", ref, err)
	}

	slices.Reverse(entries)
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
