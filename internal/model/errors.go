package model

import "errors"

var (
	// ErrInvalidInput is returned when a required argument is empty or absent.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is returned when a lookup exhausts every strategy.
	ErrNotFound = errors.New("not found")

	// ErrCancelled is returned when an in-flight generation was aborted or superseded.
	ErrCancelled = errors.New("request cancelled")

	// ErrUpstream is returned when the completion or image service answers with a
	// non-success status or an unexpected payload.
	ErrUpstream = errors.New("upstream error")
)
