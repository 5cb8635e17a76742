package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/davidmtz-dev/hrassist/internal/core"
)

type DocumentHandler struct {
	store core.Collection
}

func NewDocumentHandler(store core.Collection) *DocumentHandler {
	return &DocumentHandler{store: store}
}

// ListDocuments returns the ingested documents with their chunk counts.
func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.store.ListDocuments(r.Context())
	if err != nil {
		log.Printf("list documents failed: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to list documents")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"documents": docs,
		"count":     len(docs),
	})
}

// Healthz reports readiness along with the collection chunk count.
func (h *DocumentHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	n, err := h.store.Count(r.Context())
	if err != nil {
		writeJSONError(w, http.StatusServiceUnavailable, "collection unavailable")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":      "ok",
		"chunk_count": n,
	})
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
