package session

import "errors"

var (
	// ErrBackendCommandFailed wraps any failure reported by the audio backend.
	// Such failures are logged and counted, the state machine never branches on them.
	ErrBackendCommandFailed = errors.New("backend command failed")

	// ErrUserCancelledSave is returned by Stop when no save destination was given.
	// The backend session stays open until the next Record or Play closes it.
	ErrUserCancelledSave = errors.New("cannot save the record")

	// ErrUserCancelledSourceSelection is returned by Play when no source was chosen.
	ErrUserCancelledSourceSelection = errors.New("no playback source selected")

	ErrPlaybackAborted = errors.New("playback aborted")
	ErrPlaybackFailed  = errors.New("playback failed")

	// ErrInvalidTransition is returned for a control action the current mode does not accept.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrClosed is returned once the controller's Run loop has exited.
	ErrClosed = errors.New("session controller closed")
)
