package object

import "errors"

var (
	// ErrNotFound is returned when no object file exists for a hash.
	ErrNotFound = errors.New("object not found")
	// ErrCorruptObject is returned when a stored object cannot be decoded
	// or its header length disagrees with the payload.
	ErrCorruptObject = errors.New("corrupt object")
	// ErrInvalidFormat is returned for malformed payloads.
	ErrInvalidFormat = errors.New("invalid format")
	// ErrUnknownFormat is returned for an object kind outside blob, tree,
	// commit and tag.
	ErrUnknownFormat = errors.New("unknown object format")
	// ErrTypeMismatch is returned by the typed readers when the stored kind
	// differs from the requested one.
	ErrTypeMismatch = errors.New("object type mismatch")
)
