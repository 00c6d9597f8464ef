package redisbuf

import "errors"

// Common errors
var (
	// ErrNilClient is returned when a bridge is created without a Redis client
	ErrNilClient = errors.New("redisbuf: client must not be nil")

	// ErrEmptyStream is returned when a bridge is created without a stream name
	ErrEmptyStream = errors.New("redisbuf: stream name must not be empty")

	// ErrClosed is returned once the bridge has been closed
	ErrClosed = errors.New("redisbuf: bridge is closed")

	// ErrInvalidReserve is returned when a reservation request is malformed
	ErrInvalidReserve = errors.New("redisbuf: invalid reservation request")

	// ErrNotReserved is returned when writing or publishing before Reserve
	ErrNotReserved = errors.New("redisbuf: no slots reserved")

	// ErrBadSlot is returned when a slot index is out of range
	ErrBadSlot = errors.New("redisbuf: slot index out of range")

	// ErrShortSlot is returned when a write exceeds the slot size
	ErrShortSlot = errors.New("redisbuf: write exceeds slot size")

	// ErrBusy is returned when the forward channel is full or slots are pending
	ErrBusy = errors.New("redisbuf: forwarder is saturated")
)
