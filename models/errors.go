package models

import "errors"

var (
	// ErrNotFound means the content or record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidContentType means the content type is not supported.
	ErrInvalidContentType = errors.New("invalid content type")

	// ErrInvalidAction means the moderation action is not recognized.
	ErrInvalidAction = errors.New("invalid action")

	// ErrInvalidTransition means the action is not legal from the record's
	// current status.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrAlreadyModerated means the record is already in the terminal state
	// the action would produce.
	ErrAlreadyModerated = errors.New("content already moderated")
)
