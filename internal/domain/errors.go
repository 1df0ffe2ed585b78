package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrNotFound is returned when a requested resource doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrUnknownStatus is returned for a repository status token outside the
	// fixed vocabulary
	ErrUnknownStatus = errors.New("unknown repository status")

	// ErrMissingFrontMatter is returned when a document has no front-matter
	// fences
	ErrMissingFrontMatter = errors.New("missing front matter")

	// ErrNoMetadata is returned when an event group matches no repository
	// document and cannot be persisted
	ErrNoMetadata = errors.New("no matching metadata")

	// ErrIncompleteRead is returned when a batched chain read is missing one
	// of its per-identifier results
	ErrIncompleteRead = errors.New("incomplete multicall result")
)
