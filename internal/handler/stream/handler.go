package stream

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	sessionService "github.com/liuyint/policydesk/internal/service/session"
	"github.com/liuyint/policydesk/pkg/utils"
)

// Handler serves chat exchanges over Server-Sent Events so the page
// shell can render the teammate's reply as it would a live stream.
type Handler struct {
	sessions *sessionService.Manager
}

// New creates the stream handler.
func New(sessions *sessionService.Manager) *Handler {
	return &Handler{sessions: sessions}
}

// RegisterRoutes registers the SSE route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stream/{sessionID}", h.handleStream)
}

// StreamResponse is one SSE chunk.
type StreamResponse struct {
	Event     string `json:"event"`
	Content   string `json:"content,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Finished  bool   `json:"finished,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	userMessage := r.URL.Query().Get("message")

	if userMessage == "" {
		utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
		return
	}

	sess, err := h.sessions.Get(sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	utils.SetupSSEHeaders(w)

	utils.SendSSEChunk(w, flusher, StreamResponse{
		Event:     "start",
		SessionID: sessionID,
	})

	if err := h.exchange(r.Context(), w, flusher, sessionID, sess, userMessage); err != nil {
		utils.SendSSEChunk(w, flusher, StreamResponse{
			Event: "error",
			Error: err.Error(),
		})
		return
	}

	utils.SendSSEChunk(w, flusher, StreamResponse{
		Event:     "end",
		SessionID: sessionID,
		Finished:  true,
	})
}

func (h *Handler) exchange(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, sessionID string, sess *sessionService.Session, userMessage string) error {
	reply, err := sess.SendMessage(ctx, userMessage)
	if err != nil {
		return fmt.Errorf("chat exchange rejected: %w", err)
	}

	utils.SendSSEChunk(w, flusher, StreamResponse{
		Event:     "message",
		SessionID: sessionID,
		Content:   reply,
	})
	return nil
}
