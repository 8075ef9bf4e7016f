package live

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	sessionHandler "github.com/liuyint/policydesk/internal/handler/session"
	"github.com/liuyint/policydesk/internal/model/scenario"
	sessionService "github.com/liuyint/policydesk/internal/service/session"
)

// Handler drives a whole experiment session over one websocket, for
// page shells that prefer a single live channel to per-action HTTP
// requests. Every inbound frame maps onto one engine operation; the
// handler itself holds no experiment state.
type Handler struct {
	sessions *sessionService.Manager
	upgrader websocket.Upgrader
}

// New creates the websocket handler.
func New(sessions *sessionService.Manager) *Handler {
	return &Handler{
		sessions: sessions,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes registers the live channel route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/live/{sessionID}", h.handleSocket)
}

type inboundFrame struct {
	Type   string `json:"type"` // "message" | "decide" | "instruction" | "state"
	Text   string `json:"text,omitempty"`
	Choice string `json:"choice,omitempty"`
}

type outboundFrame struct {
	Type   string                    `json:"type"`
	Reply  string                    `json:"reply,omitempty"`
	Result *sessionService.Result    `json:"result,omitempty"`
	State  *sessionHandler.StateView `json:"state,omitempty"`
	Error  string                    `json:"error,omitempty"`
}

func (h *Handler) handleSocket(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[live] websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	state := sessionHandler.ViewState(sess)
	if err := conn.WriteJSON(outboundFrame{Type: "state", State: &state}); err != nil {
		return
	}

	for {
		var frame inboundFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[live] read failed: %v", err)
			}
			return
		}

		if err := h.dispatch(conn, sess, frame, r); err != nil {
			return
		}
	}
}

func (h *Handler) dispatch(conn *websocket.Conn, sess *sessionService.Session, frame inboundFrame, r *http.Request) error {
	switch frame.Type {
	case "message":
		if frame.Text == "" {
			return h.sendError(conn, "text is required")
		}
		reply, err := sess.SendMessage(r.Context(), frame.Text)
		if err != nil {
			return h.sendError(conn, err.Error())
		}
		return conn.WriteJSON(outboundFrame{Type: "reply", Reply: reply})

	case "decide":
		if sess.Phase() == sessionService.PhaseChatting {
			if err := sess.ReadyToDecide(); err != nil {
				return h.sendError(conn, err.Error())
			}
		}
		result, err := sess.Decide(scenario.Option(frame.Choice))
		if errors.Is(err, sessionService.ErrInvalidDecision) {
			return h.sendError(conn, "choice must be one of A, B, C, D")
		}
		if err != nil {
			return h.sendError(conn, err.Error())
		}
		return conn.WriteJSON(outboundFrame{Type: "outcome", Result: &result})

	case "instruction":
		if err := sess.FinishRound(frame.Text); err != nil {
			if errors.Is(err, sessionService.ErrNotDecided) {
				return h.sendError(conn, err.Error())
			}
			log.Printf("[live] round log write failed: %v", err)
			return h.sendError(conn, "failed to record round")
		}
		state := sessionHandler.ViewState(sess)
		return conn.WriteJSON(outboundFrame{Type: "state", State: &state})

	case "state":
		state := sessionHandler.ViewState(sess)
		return conn.WriteJSON(outboundFrame{Type: "state", State: &state})

	default:
		return h.sendError(conn, "unknown frame type")
	}
}

// sendError reports an in-band error without closing the channel.
func (h *Handler) sendError(conn *websocket.Conn, message string) error {
	return conn.WriteJSON(outboundFrame{Type: "error", Error: message})
}
