package logger

import (
	"log/slog"
	"strconv"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Errors groups multiple non-nil errors under the key "errors".
// If all errors are nil, it returns an empty Attr.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// QueueID records a delivery queue identifier under the key "queue_id".
// If id is nil, it returns an empty Attr.
func QueueID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("queue_id", id)
}

// WatchID records a watch identifier under the key "watch_id".
func WatchID(id uint64) slog.Attr {
	return slog.Uint64("watch_id", id)
}

// Object records a watched object label under the key "object".
func Object(label string) slog.Attr {
	return slog.String("object", label)
}

// NoteCount records a queue's note pool size under the key "note_count".
func NoteCount(n uint32) slog.Attr {
	return slog.Uint64("note_count", uint64(n))
}

// EventType records the notification type under the key "event_type".
func EventType(t uint32) slog.Attr {
	return slog.Uint64("event_type", uint64(t))
}

// Duration records a duration under the key "duration".
func Duration(d any) slog.Attr {
	return slog.Any("duration", d)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// ConsumerKey records the consumer key owning a queue under the key "consumer".
// If key is empty, it returns an empty Attr.
func ConsumerKey(key string) slog.Attr {
	if key == "" {
		return slog.Attr{}
	}
	return slog.String("consumer", key)
}
