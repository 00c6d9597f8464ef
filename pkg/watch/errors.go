package watch

import "errors"

// Common errors
var (
	// ErrNilTransport is returned when a queue is created without a transport
	ErrNilTransport = errors.New("watch: transport must not be nil")

	// ErrNilQueue is returned when a watch operation is given a nil or detached queue
	ErrNilQueue = errors.New("watch: queue must not be nil")

	// ErrNilWatch is returned when a nil watch is attached to a list
	ErrNilWatch = errors.New("watch: watch must not be nil")

	// ErrAlreadyWatching is returned when the (object, queue) pair already has a watch
	ErrAlreadyWatching = errors.New("watch: object already watched by this queue")

	// ErrWatchNotFound is returned when removal finds no watch for the (queue, id) pair
	ErrWatchNotFound = errors.New("watch: no matching watch on this object")

	// ErrObjectGone is returned when attaching to a list that has been torn down
	ErrObjectGone = errors.New("watch: watched object has been torn down")

	// ErrInvalidFilter is returned when a filter specification fails validation
	ErrInvalidFilter = errors.New("watch: invalid filter specification")

	// ErrInvalidSize is returned when a note count is not a power of two within limits
	ErrInvalidSize = errors.New("watch: note count must be a power of two within limits")

	// ErrQueueBusy is returned when resizing a queue that has watches attached
	// or notes outstanding
	ErrQueueBusy = errors.New("watch: queue has watches attached or notes outstanding")

	// ErrInvalidRecord is returned when a record is malformed or cannot be decoded
	ErrInvalidRecord = errors.New("watch: malformed notification record")

	// ErrRecordTooLarge is returned when a record does not fit the destination buffer
	ErrRecordTooLarge = errors.New("watch: record does not fit a note slot")

	// ErrNoteNotClaimed is returned when releasing a note slot that is already free
	ErrNoteNotClaimed = errors.New("watch: note slot is already free")
)
