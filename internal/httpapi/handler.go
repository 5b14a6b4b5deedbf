package httpapi

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/allaspectsdev/canonstore"
)

// maxEntryBodySize bounds the size of a POST /entries body, guarding
// against unbounded request bodies.
const maxEntryBodySize = 4 << 20 // 4 MB

// Handler is the HTTP handler binding an Engine to the REST surface:
// structural puts/gets/removes by fingerprint, plus health/metrics/
// diagnostics introspection and an SSE iteration stream.
type Handler struct {
	engine *canonstore.Engine
	logger zerolog.Logger
}

// NewHandler creates a Handler bound to engine.
func NewHandler(engine *canonstore.Engine, logger zerolog.Logger) *Handler {
	return &Handler{engine: engine, logger: logger}
}

// HandleCreate handles POST /entries: the body names a structural key and
// a JSON value, and the response carries the fingerprint the entry was
// stored under.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxEntryBodySize+1))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if int64(len(body)) > maxEntryBodySize {
		writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	var req entryRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	k, err := wireToKey(req.Key)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	var value any
	if len(req.Value) > 0 {
		if err := json.Unmarshal(req.Value, &value); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid \"value\" field")
			return
		}
	}

	fresh, err := h.engine.Put(r.Context(), k, value)
	if err != nil {
		h.logger.Error().Err(err).Msg("put failed")
		writeJSONError(w, http.StatusInternalServerError, "put failed")
		return
	}

	fp := h.engine.Fingerprint(k)
	w.Header().Set("Content-Type", "application/json")
	if fresh {
		w.WriteHeader(http.StatusCreated)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	_ = json.NewEncoder(w).Encode(entryResponse{Fingerprint: fp, Key: keyToWire(k), Value: value})
}

// HandleGet handles GET /entries/{fingerprint}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	fp := chi.URLParam(r, "fingerprint")
	k, v, found := h.engine.GetByFingerprint(fp)
	if !found {
		writeJSONError(w, http.StatusNotFound, "no entry for that fingerprint")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(entryResponse{Fingerprint: fp, Key: keyToWire(k), Value: v})
}

// HandleDelete handles DELETE /entries/{fingerprint}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	fp := chi.URLParam(r, "fingerprint")
	if !h.engine.RemoveByFingerprint(fp) {
		writeJSONError(w, http.StatusNotFound, "no entry for that fingerprint")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleHas handles HEAD /entries/{fingerprint}: presence is reported
// purely through the status code, with no body either way.
func (h *Handler) HandleHas(w http.ResponseWriter, r *http.Request) {
	fp := chi.URLParam(r, "fingerprint")
	if _, _, found := h.engine.GetByFingerprint(fp); !found {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// HandleClear handles DELETE /entries: it empties the store, failing with
// 409 Conflict if a registered plugin vetoes the clear.
func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Clear(r.Context()); err != nil {
		writeJSONError(w, http.StatusConflict, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleHealth returns a liveness summary: the engine's own Health
// snapshot rather than a bare "ok" sentinel.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	health := h.engine.Health()
	w.Header().Set("Content-Type", "application/json")
	if !health.OK {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	_ = json.NewEncoder(w).Encode(health)
}

// HandleDiagnostics returns the engine's deeper operator-facing snapshot.
func (h *Handler) HandleDiagnostics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(h.engine.Diagnostics())
}

// writeJSONError writes a JSON error response in a consistent
// {"error":{"message":...,"type":...}} envelope.
func writeJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	resp := map[string]any{
		"error": map[string]any{
			"message": message,
			"type":    "canonstore_error",
		},
	}
	data, _ := json.Marshal(resp)
	_, _ = w.Write(data)
}
