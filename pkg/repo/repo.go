package repo

import (
	"fmt"
	"sync"

	lru "github.com/hnlq715/golang-lru"

	"github.com/odvcencio/pal/pkg/logging"
	"github.com/odvcencio/pal/pkg/object"
)

// MetaDirName is the repository metadata directory at the worktree root.
const MetaDirName = ".pal"

const commitCacheSize = 4096

// Repo represents an opened repository.
type Repo struct {
	RootDir string        // working directory root
	PalDir  string        // .pal/ directory
	Store   *object.Store // content-addressed object store

	log logging.Logger

	commitCacheOnce sync.Once
	commitCache     *lru.Cache
}

func newRepo(root, palDir string) *Repo {
	return &Repo{
		RootDir: root,
		PalDir:  palDir,
		Store:   object.NewStore(palDir),
		log:     logging.Default(),
	}
}

// SetLogger replaces the repository logger.
func (r *Repo) SetLogger(l logging.Logger) {
	if l == nil {
		l = logging.Discard()
	}
	r.log = l
}

// Logger returns the repository logger.
func (r *Repo) Logger() logging.Logger {
	return r.log
}

// readCommit reads a commit through a bounded cache. Commits are immutable,
// so a cached value never goes stale; callers get their own copy and may
// edit it freely.
func (r *Repo) readCommit(h object.Hash) (*object.Commit, error) {
	r.commitCacheOnce.Do(func() {
		c, err := lru.New(commitCacheSize)
		if err == nil {
			r.commitCache = c
		}
	})
	if r.commitCache != nil {
		if v, ok := r.commitCache.Get(h); ok {
			return &object.Commit{KVLM: v.(*object.Commit).Clone()}, nil
		}
	}
	c, err := r.Store.ReadCommit(h)
	if err != nil {
		return nil, fmt.Errorf("read commit %s: %w", h, err)
	}
	if r.commitCache != nil {
		r.commitCache.Add(h, &object.Commit{KVLM: c.Clone()})
	}
	return c, nil
}
