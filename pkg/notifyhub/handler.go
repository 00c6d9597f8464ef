package notifyhub

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/watchkit/pkg/logger"
	"github.com/dmitrymomot/watchkit/pkg/pipebuf"
	"github.com/dmitrymomot/watchkit/pkg/watch"
)

// heartbeatInterval paces SSE keep-alive comments and overrun checks while
// the stream is idle.
const heartbeatInterval = 15 * time.Second

// Handler returns the hub's HTTP surface:
//
//	GET  /queues/{key}/events   — SSE stream of the consumer's notifications
//	POST /queues/{key}/filter   — install a YAML filter spec on the queue
//	GET  /queues/{key}/stats    — queue counters as JSON
//	DELETE /queues/{key}        — drop the consumer
//
// The events endpoint creates the consumer on first use; the others operate
// on existing consumers only.
func (h *Hub) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/queues/{key}/events", h.handleEvents)
	r.Post("/queues/{key}/filter", h.handleSetFilter)
	r.Get("/queues/{key}/stats", h.handleStats)
	r.Delete("/queues/{key}", h.handleDrop)
	return r
}

func (h *Hub) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	c, err := h.Consumer(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	records := make(chan watch.Record)
	go func() {
		defer close(records)
		for {
			rec, err := c.Next(ctx)
			if err != nil {
				return
			}
			select {
			case records <- rec:
			case <-ctx.Done():
				return
			}
		}
	}()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		if c.Overrun() {
			fmt.Fprint(w, "event: overrun\ndata: {}\n\n")
			c.AckOverrun()
			flusher.Flush()
		}

		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case rec, ok := <-records:
			if !ok {
				return
			}
			payload, err := json.Marshal(rec)
			if err != nil {
				h.log.LogAttrs(ctx, slog.LevelError, "failed to encode notification",
					logger.Component("notifyhub"),
					logger.ConsumerKey(c.Key()),
					logger.Error(err),
				)
				continue
			}
			fmt.Fprintf(w, "event: notification\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

func (h *Hub) handleSetFilter(w http.ResponseWriter, r *http.Request) {
	c, err := h.Lookup(chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, err)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	spec, err := watch.ParseFilterSpec(body)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := c.SetFilter(spec); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Hub) handleStats(w http.ResponseWriter, r *http.Request) {
	c, err := h.Lookup(chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, err)
		return
	}

	q := c.Queue()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"queue_id":    c.ID().String(),
		"notes":       q.Size(),
		"outstanding": q.Outstanding(),
		"pending":     c.Pending(),
		"watching":    q.Watching(),
		"overrun":     q.Overrun(),
	})
}

func (h *Hub) handleDrop(w http.ResponseWriter, r *http.Request) {
	if err := h.Drop(chi.URLParam(r, "key")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrConsumerNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrEmptyKey), errors.Is(err, watch.ErrInvalidFilter):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrHubClosed), errors.Is(err, pipebuf.ErrDetached):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
