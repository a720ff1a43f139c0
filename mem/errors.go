package mem

import "errors"

// Errors surfaced by BlockList and Space operations. They are returned to
// the caller and never recovered internally.
var (
	// ErrOutOfRange marks positional access outside the valid index bounds.
	ErrOutOfRange = errors.New("index out of range")

	// ErrInvalidReference marks a nil block handle passed to an
	// identity-based removal.
	ErrInvalidReference = errors.New("invalid block reference")

	// ErrNoAllocatedBlocks marks a Free call while nothing is allocated.
	ErrNoAllocatedBlocks = errors.New("no allocated blocks")

	// ErrBadCapacity marks a Space construction with a non-positive size.
	ErrBadCapacity = errors.New("capacity must be positive")
)
