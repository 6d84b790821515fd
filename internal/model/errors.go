package model

import (
	"errors"
	"fmt"
)

// Sentinel errors. Use errors.Is to test for them; wrapped variants carry
// additional context.
var (
	// ErrInvalidTransition is reported when an entry reaches Loaded without
	// passing through Loading. The transition is still applied.
	ErrInvalidTransition = errors.New("invalid load state transition")

	// ErrNotAvailable is returned when a resolution is requested that the
	// entry or playlist does not offer.
	ErrNotAvailable = errors.New("resolution not available")

	// ErrNoResolutionsAvailable is returned when nothing has been loaded yet.
	ErrNoResolutionsAvailable = errors.New("no resolutions available")

	// ErrInvalidState is returned when an operation does not fit the
	// current load state.
	ErrInvalidState = errors.New("invalid state for operation")

	// ErrUnknownSession is returned for lookups of session ids that were
	// never opened or have already terminated.
	ErrUnknownSession = errors.New("unknown playlist session")

	// ErrSessionTerminated is returned by mutators called after the
	// session ended.
	ErrSessionTerminated = errors.New("playlist session terminated")

	// ErrUnknownEntry is returned when an entry id is not part of a session.
	ErrUnknownEntry = errors.New("unknown playlist entry")

	// ErrLoadInProgress is returned when a playlist load is already running.
	ErrLoadInProgress = errors.New("playlist load already in progress")

	// ErrEmptyPlaylist is returned when a playlist resolves to no videos.
	ErrEmptyPlaylist = errors.New("playlist has no videos")
)

// TransitionError describes an out-of-order state change for one entry.
// Use errors.As to extract it.
type TransitionError struct {
	EntryID string
	From    LoadState
	To      LoadState
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("entry %s: %s -> %s: %v", e.EntryID, e.From, e.To, ErrInvalidTransition)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// ResolverError wraps a failure to resolve a playlist or video URL.
type ResolverError struct {
	URL string
	Err error
}

func (e *ResolverError) Error() string {
	return fmt.Sprintf("resolve %s: %v", e.URL, e.Err)
}

func (e *ResolverError) Unwrap() error {
	return e.Err
}
