package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/logward/logward/internal/httputil"
	"github.com/logward/logward/internal/logging"
	"github.com/logward/logward/internal/service"
)

type IngestHandler struct {
	ingest *service.IngestService
	logger *logging.Logger
}

func NewIngestHandler(ingest *service.IngestService, logger *logging.Logger) *IngestHandler {
	return &IngestHandler{ingest: ingest, logger: logger}
}

// HandleIngest accepts one JSON event, either a bare object or the first
// element of an array. The ingest endpoint keeps its own envelope
// ({status: ok|error}) since log shippers, not the UI, talk to it.
func (h *IngestHandler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, map[string]any{
			"status":  "error",
			"message": "Invalid JSON body",
		})
		return
	}

	body, err := decodeEvent(raw)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, map[string]any{
			"status":  "error",
			"message": "Expected a JSON object or non-empty array",
		})
		return
	}

	event, err := h.ingest.Ingest(r.Context(), body)
	if err != nil {
		h.logger.WithContext(r.Context()).Error("ingest failed", logging.Error(err))
		httputil.WriteJSON(w, http.StatusInternalServerError, map[string]any{
			"status":  "error",
			"message": "Failed to store event",
		})
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"data":   event,
	})
}

func decodeEvent(raw json.RawMessage) (map[string]any, error) {
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err == nil {
		return body, nil
	}

	var batch []map[string]any
	if err := json.Unmarshal(raw, &batch); err != nil {
		return nil, err
	}
	if len(batch) == 0 {
		return nil, json.Unmarshal(raw, &body)
	}
	return batch[0], nil
}
