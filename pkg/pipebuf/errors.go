package pipebuf

import "errors"

// Common errors
var (
	// ErrDetached is returned once the consumer side has detached the buffer
	ErrDetached = errors.New("pipebuf: buffer is detached")

	// ErrNotReserved is returned when writing or publishing before Reserve
	ErrNotReserved = errors.New("pipebuf: no slots reserved")

	// ErrBadSlot is returned when a slot index is out of range
	ErrBadSlot = errors.New("pipebuf: slot index out of range")

	// ErrShortSlot is returned when a write exceeds the slot size
	ErrShortSlot = errors.New("pipebuf: write exceeds slot size")

	// ErrBusy is returned when reserving while published slots are pending
	ErrBusy = errors.New("pipebuf: published slots still pending")

	// ErrInvalidReserve is returned for a malformed reservation request
	ErrInvalidReserve = errors.New("pipebuf: invalid reservation")
)
