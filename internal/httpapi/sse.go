package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/allaspectsdev/canonstore/internal/key"
)

// sseWriter writes Server-Sent Events to an http.ResponseWriter, flushing
// after each event for real-time delivery.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newSSEWriter(w http.ResponseWriter) *sseWriter {
	flusher, _ := w.(http.Flusher)
	return &sseWriter{w: w, flusher: flusher}
}

func (s *sseWriter) writeEvent(id int, data string) error {
	if _, err := fmt.Fprintf(s.w, "id: %d\n", id); err != nil {
		return fmt.Errorf("writing sse id: %w", err)
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("writing sse data: %w", err)
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}

// HandleIterate handles GET /entries: it streams every stored entry as a
// Server-Sent Event, in the store's insertion order, terminated by a
// "done" event once iteration completes.
func (h *Handler) HandleIterate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	sw := newSSEWriter(w)
	ctx := r.Context()

	id := 0
	h.engine.Iterate(func(k key.Key, v any) bool {
		select {
		case <-ctx.Done():
			return false
		default:
		}

		payload, err := json.Marshal(entryResponse{
			Fingerprint: h.engine.Fingerprint(k),
			Key:         keyToWire(k),
			Value:       v,
		})
		if err != nil {
			h.logger.Warn().Err(err).Msg("sse: failed to marshal entry")
			return true
		}
		if err := sw.writeEvent(id, string(payload)); err != nil {
			h.logger.Warn().Err(err).Msg("sse: failed to write event, aborting stream")
			return false
		}
		id++
		return true
	})

	_ = sw.writeEvent(id, `{"done":true,"count":`+strconv.Itoa(id)+`}`)
}
