package domain

import "errors"

var (
	// ErrNotFound is returned by lookups that found nothing
	ErrNotFound = errors.New("not found")

	// ErrMalformedSnapshot marks upstream stats payloads that failed to decode
	ErrMalformedSnapshot = errors.New("malformed stats snapshot")

	// ErrInvalidChannel is returned for unknown release channels
	ErrInvalidChannel = errors.New("invalid channel")

	// ErrUpdateInProgress is returned when an update is triggered while one is running
	ErrUpdateInProgress = errors.New("update already in progress")
)
