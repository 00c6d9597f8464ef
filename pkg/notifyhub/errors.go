package notifyhub

import "errors"

// Common errors
var (
	// ErrHubClosed is returned when operating on a closed hub
	ErrHubClosed = errors.New("notifyhub: hub is closed")

	// ErrConsumerNotFound is returned when the consumer key is unknown
	ErrConsumerNotFound = errors.New("notifyhub: unknown consumer")

	// ErrEmptyKey is returned when a consumer key is empty
	ErrEmptyKey = errors.New("notifyhub: consumer key must not be empty")
)
