package session

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/liuyint/policydesk/internal/model/chat"
	"github.com/liuyint/policydesk/internal/model/scenario"
	sessionService "github.com/liuyint/policydesk/internal/service/session"
	"github.com/liuyint/policydesk/pkg/utils"
)

// Handler exposes the experiment engine to the page-based shell. It
// contains no decision, scoring, or prompt logic; every request maps
// onto exactly one engine operation.
type Handler struct {
	sessions *sessionService.Manager
}

// New creates the session handler.
func New(sessions *sessionService.Manager) *Handler {
	return &Handler{sessions: sessions}
}

// RegisterRoutes registers the session routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Get("/session/{sessionID}", h.handleState)
	r.Post("/session/{sessionID}/messages", h.handleSendMessage)
	r.Post("/session/{sessionID}/decide", h.handleDecide)
	r.Post("/session/{sessionID}/instruction", h.handleInstruction)
}

// ScenarioView exposes only the participant-visible scenario fields;
// the teammate's technical memo never crosses this boundary.
type ScenarioView struct {
	RoundNum         int    `json:"roundNum"`
	ScenarioID       string `json:"scenarioId"`
	Title            string `json:"title"`
	Options          string `json:"options"`
	HumanPrivateInfo string `json:"humanPrivateInfo"`
}

// StateView is the per-request snapshot served to the page shell.
type StateView struct {
	Phase      sessionService.Phase   `json:"phase"`
	Score      int                    `json:"score"`
	Rounds     int                    `json:"rounds"`
	Complete   bool                   `json:"complete"`
	Scenario   *ScenarioView          `json:"scenario,omitempty"`
	Transcript chat.Transcript        `json:"transcript"`
	LastResult *sessionService.Result `json:"lastResult,omitempty"`
}

// ViewScenario projects a scenario onto its participant-visible fields.
func ViewScenario(sc scenario.Scenario) *ScenarioView {
	return &ScenarioView{
		RoundNum:         sc.RoundNum,
		ScenarioID:       sc.ID,
		Title:            sc.Title,
		Options:          sc.OptionsText,
		HumanPrivateInfo: sc.HumanPrivateInfo,
	}
}

// ViewState snapshots a session for the page shell.
func ViewState(sess *sessionService.Session) StateView {
	view := StateView{
		Phase:      sess.Phase(),
		Score:      sess.Score(),
		Rounds:     sess.Rounds(),
		Complete:   sess.Complete(),
		Transcript: sess.Transcript(),
	}
	if view.Transcript == nil {
		view.Transcript = chat.Transcript{}
	}
	if sc, ok := sess.CurrentScenario(); ok {
		view.Scenario = ViewScenario(sc)
	}
	if res, ok := sess.LastResult(); ok {
		view.LastResult = &res
	}
	return view
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ParticipantID string `json:"participantId"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	handle, sess := h.sessions.Create(payload.ParticipantID)
	log.Printf("[session] created session=%s participant=%s", handle.ID, handle.ParticipantID)

	utils.RespondJSON(w, http.StatusCreated, map[string]any{
		"session": handle,
		"state":   ViewState(sess),
	})
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}
	utils.RespondJSON(w, http.StatusOK, ViewState(sess))
}

func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Text == "" {
		utils.RespondError(w, http.StatusBadRequest, "text is required")
		return
	}

	reply, err := sess.SendMessage(r.Context(), payload.Text)
	if err != nil {
		utils.RespondError(w, http.StatusConflict, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"reply": reply,
		"state": ViewState(sess),
	})
}

func (h *Handler) handleDecide(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var payload struct {
		Choice string `json:"choice"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Posting a decision is the page shell's explicit ready-to-decide
	// signal; an invalid label leaves the round in the deciding phase
	// so the client can retry.
	if sess.Phase() == sessionService.PhaseChatting {
		if err := sess.ReadyToDecide(); err != nil {
			utils.RespondError(w, http.StatusConflict, err.Error())
			return
		}
	}

	result, err := sess.Decide(scenario.Option(payload.Choice))
	switch {
	case errors.Is(err, sessionService.ErrInvalidDecision):
		utils.RespondError(w, http.StatusUnprocessableEntity, "choice must be one of A, B, C, D")
		return
	case err != nil:
		utils.RespondError(w, http.StatusConflict, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"result": result,
		"state":  ViewState(sess),
	})
}

func (h *Handler) handleInstruction(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := sess.FinishRound(payload.Text); err != nil {
		if errors.Is(err, sessionService.ErrNotDecided) {
			utils.RespondError(w, http.StatusConflict, err.Error())
			return
		}
		log.Printf("[session] round log write failed: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to record round")
		return
	}

	utils.RespondJSON(w, http.StatusOK, ViewState(sess))
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*sessionService.Session, bool) {
	sess, err := h.sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return sess, true
}
