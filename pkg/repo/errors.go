package repo

import "errors"

var (
	// ErrUnresolvedReference is returned when a name or symbolic ref chain
	// leads nowhere, or an object has no legal indirection toward the
	// requested kind.
	ErrUnresolvedReference = errors.New("unresolved reference")
	// ErrAmbiguousName is returned when a short name matches several objects.
	ErrAmbiguousName = errors.New("ambiguous object name")
	// ErrTraversalLimit is returned when a walk exceeds its iteration cap.
	ErrTraversalLimit = errors.New("traversal limit exceeded")
	// ErrRefCASMismatch is returned when a ref changed under a guarded update.
	ErrRefCASMismatch = errors.New("ref compare-and-swap mismatch")
	// ErrPathConflict is returned when one path is both a file and a directory.
	ErrPathConflict = errors.New("path is both a file and a directory")
	// ErrNotARepository is returned by Open when no metadata dir is found.
	ErrNotARepository = errors.New("not a pal repository")
	// ErrRepositoryExists is returned by Init on an existing repository.
	ErrRepositoryExists = errors.New("repository already exists")
	// ErrDetachedHead is returned by operations that need a current branch.
	ErrDetachedHead = errors.New("HEAD is detached")
	// ErrAlreadyUpToDate is returned when a merge has nothing to do.
	ErrAlreadyUpToDate = errors.New("already up to date")
	// ErrDirtyWorktree is returned when uncommitted changes would be lost.
	ErrDirtyWorktree = errors.New("uncommitted changes")
	// ErrNothingToCommit is returned when the index matches HEAD.
	ErrNothingToCommit = errors.New("nothing to commit")
)
