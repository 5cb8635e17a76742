package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/davidmtz-dev/hrassist/internal/models"
	"github.com/davidmtz-dev/hrassist/internal/services"
)

type ChatHandler struct {
	assistant *services.Assistant
}

func NewChatHandler(assistant *services.Assistant) *ChatHandler {
	return &ChatHandler{assistant: assistant}
}

type AskRequest struct {
	Question string               `json:"question"`
	Language string               `json:"language"`
	History  []models.ChatMessage `json:"conversation_history"`
}

// Ask streams the assistant's answer as server-sent events. Each token
// arrives as `data: {"token": ...}` and the stream ends with
// `data: [DONE]`.
func (h *ChatHandler) Ask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		writeJSONError(w, http.StatusBadRequest, "No question provided")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	emit := func(token string) error {
		frame, err := json.Marshal(map[string]string{"token": token})
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", frame); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	err := h.assistant.Ask(ctx, req.Question, req.Language, req.History, emit)
	switch {
	case errors.Is(err, services.ErrNoContext):
		_ = emit(h.noContextNotice(ctx, req.Language))
	case err != nil:
		log.Printf("chat stream error: %v", err)
		frame, _ := json.Marshal(map[string]string{"error": fmt.Sprintf("Stream Error: %v", err)})
		fmt.Fprintf(w, "data: %s\n\n", frame)
		flusher.Flush()
	}

	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

// noContextNotice tells an empty collection apart from a plain
// retrieval miss, in the language of the question.
func (h *ChatHandler) noContextNotice(ctx context.Context, language string) string {
	english := strings.EqualFold(language, "english")

	msg := "⚠️ No se encontraron documentos relevantes para su consulta."
	emptyNote := " La base de conocimientos parece estar vacía. Por favor, ejecute el cargador para agregar documentos."
	if english {
		msg = "⚠️ No relevant documents found for your query."
		emptyNote = " The knowledge base appears to be empty. Please run the loader to add documents."
	}

	if empty, err := h.assistant.IsEmpty(ctx); err == nil && empty {
		msg += emptyNote
	}
	return msg
}
