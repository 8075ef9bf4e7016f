package session

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/liuyint/policydesk/internal/model/chat"
	recordModel "github.com/liuyint/policydesk/internal/model/record"
	"github.com/liuyint/policydesk/internal/model/scenario"
	"github.com/liuyint/policydesk/internal/model/team"
	sessionService "github.com/liuyint/policydesk/internal/service/session"
)

const catalogSource = `round,scenario_id,scenario_title,options,human_private_info,ai_private_info,option_A_outcome,option_B_outcome,option_C_outcome,option_D_outcome
1,levee,Flood Levee,"A) Raise. B) Buy out. C) Basin. D) Defer.",human memo one,ai memo one,"A: safety=2,equity=1,cost=2,political=1,total=6","B: safety=0,equity=0,cost=0,political=0,total=1","C: safety=0,equity=0,cost=0,political=0,total=2","D: safety=0,equity=0,cost=0,political=0,total=0"
2,water,Water Rationing,"A) Ration. B) Price. C) Wells. D) Wait.",human memo two,ai memo two,"A: safety=0,equity=0,cost=0,political=0,total=4","B: safety=1,equity=1,cost=0,political=0,total=3","C: safety=0,equity=0,cost=0,political=0,total=2","D: safety=0,equity=0,cost=0,political=0,total=1"
`

type echoTeammate struct{}

func (echoTeammate) Reply(_ context.Context, _ scenario.Scenario, _ team.Memory, _ chat.Transcript, message string) (string, error) {
	return "echo: " + message, nil
}

type discardLog struct{}

func (discardLog) Append(recordModel.Record) error { return nil }

func setupRouter(t *testing.T) (*chi.Mux, *sessionService.Manager) {
	t.Helper()
	catalog, err := scenario.Load(strings.NewReader(catalogSource))
	if err != nil {
		t.Fatalf("load fixture catalog: %v", err)
	}

	manager := sessionService.NewManager(catalog, echoTeammate{}, discardLog{})
	handler := New(manager)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, manager
}

func createSession(t *testing.T, r *chi.Mux, participantID string) string {
	t.Helper()
	payload, _ := json.Marshal(map[string]string{"participantId": participantID})

	req := httptest.NewRequest(http.MethodPost, "/session", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}

	var body struct {
		Session sessionService.Handle `json:"session"`
		State   StateView             `json:"state"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if body.State.Scenario == nil || body.State.Scenario.ScenarioID != "levee" {
		t.Fatalf("expected first scenario in create response, got %+v", body.State.Scenario)
	}
	return body.Session.ID
}

func postJSON(r *chi.Mux, path string, payload any) *httptest.ResponseRecorder {
	data, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestCreateSessionDefaultsToAnonymous(t *testing.T) {
	r, _ := setupRouter(t)
	payload, _ := json.Marshal(map[string]string{})

	req := httptest.NewRequest(http.MethodPost, "/session", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}
	var body struct {
		Session sessionService.Handle `json:"session"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Session.ParticipantID != "anonymous" {
		t.Fatalf("expected anonymous participant, got %s", body.Session.ParticipantID)
	}
}

func TestStateHidesAIPrivateInfo(t *testing.T) {
	r, _ := setupRouter(t)
	id := createSession(t, r, "p-1")

	req := httptest.NewRequest(http.MethodGet, "/session/"+id, nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if strings.Contains(resp.Body.String(), "ai memo one") {
		t.Fatal("expected AI private memo to stay hidden from the participant surface")
	}
	if !strings.Contains(resp.Body.String(), "human memo one") {
		t.Fatal("expected human private memo in state")
	}
}

func TestSendMessageReturnsReply(t *testing.T) {
	r, _ := setupRouter(t)
	id := createSession(t, r, "p-1")

	resp := postJSON(r, "/session/"+id+"/messages", map[string]string{"text": "hello"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var body struct {
		Reply string    `json:"reply"`
		State StateView `json:"state"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Reply != "echo: hello" {
		t.Fatalf("unexpected reply: %s", body.Reply)
	}
	if len(body.State.Transcript) != 2 {
		t.Fatalf("expected 2 transcript turns, got %d", len(body.State.Transcript))
	}
}

func TestSendMessageRequiresText(t *testing.T) {
	r, _ := setupRouter(t)
	id := createSession(t, r, "p-1")

	resp := postJSON(r, "/session/"+id+"/messages", map[string]string{})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestDecideInvalidLabel(t *testing.T) {
	r, _ := setupRouter(t)
	id := createSession(t, r, "p-1")

	resp := postJSON(r, "/session/"+id+"/decide", map[string]string{"choice": "E"})
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.Code)
	}

	// The round stays decidable; a valid retry succeeds.
	resp = postJSON(r, "/session/"+id+"/decide", map[string]string{"choice": "A"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 on retry, got %d", resp.Code)
	}
}

func TestDecideAndInstructionAdvanceRounds(t *testing.T) {
	r, _ := setupRouter(t)
	id := createSession(t, r, "p-1")

	resp := postJSON(r, "/session/"+id+"/decide", map[string]string{"choice": "A"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var decided struct {
		Result sessionService.Result `json:"result"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &decided); err != nil {
		t.Fatalf("decode decide response: %v", err)
	}
	if decided.Result.Score != 6 {
		t.Fatalf("expected score 6, got %d", decided.Result.Score)
	}

	resp = postJSON(r, "/session/"+id+"/instruction", map[string]string{"text": "be brief"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var state StateView
	if err := json.Unmarshal(resp.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode instruction response: %v", err)
	}
	if state.Scenario == nil || state.Scenario.ScenarioID != "water" {
		t.Fatalf("expected advance to water scenario, got %+v", state.Scenario)
	}
	if state.Phase != sessionService.PhaseChatting {
		t.Fatalf("expected chatting phase in round two, got %s", state.Phase)
	}
}

func TestInstructionWithoutDecisionConflicts(t *testing.T) {
	r, _ := setupRouter(t)
	id := createSession(t, r, "p-1")

	resp := postJSON(r, "/session/"+id+"/instruction", map[string]string{"text": "be brief"})
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.Code)
	}
}

func TestUnknownSessionReturns404(t *testing.T) {
	r, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/session/missing", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}
