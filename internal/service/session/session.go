package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/liuyint/policydesk/internal/model/chat"
	"github.com/liuyint/policydesk/internal/model/record"
	"github.com/liuyint/policydesk/internal/model/scenario"
	"github.com/liuyint/policydesk/internal/model/team"
)

// AnonymousParticipant names a participant who left the ID blank.
const AnonymousParticipant = "anonymous"

// gatewayErrorPrefix begins the in-band turn recorded when the
// teammate call fails. Shells display it like any other reply.
const gatewayErrorPrefix = "[Error contacting AI teammate: "

var (
	ErrNotChatting     = errors.New("round is not in the chat phase")
	ErrNotDeciding     = errors.New("round is not awaiting a decision")
	ErrNotDecided      = errors.New("round has no decision to close")
	ErrInvalidDecision = errors.New("decision label outside the valid option set")
	ErrNoTeammate      = errors.New("ai teammate unavailable")
)

// Phase names the round state visible to the shells.
type Phase string

const (
	PhaseChatting Phase = "chatting"
	PhaseDeciding Phase = "deciding"
	PhaseDecided  Phase = "decided"
	PhaseComplete Phase = "complete"
)

// Teammate is the narrow gateway contract the engine depends on. The
// implementation receives the scenario, the current team memory, the
// prior turns of this round, and the newest participant message.
type Teammate interface {
	Reply(ctx context.Context, sc scenario.Scenario, mem team.Memory, history chat.Transcript, message string) (string, error)
}

// RecordLog receives exactly one durable row per completed round.
type RecordLog interface {
	Append(record.Record) error
}

// Result summarizes one decided round for the shells.
type Result struct {
	RoundNum   int              `json:"roundNum"`
	ScenarioID string           `json:"scenarioId"`
	Choice     scenario.Option  `json:"choice"`
	Outcome    scenario.Outcome `json:"outcome"`
	Score      int              `json:"score"`
}

// Session drives one participant through the catalog in round order:
// chat, decision, outcome, optional adaptation, log write. It owns the
// team memory and the cumulative score; no other component mutates
// them.
type Session struct {
	mu sync.Mutex

	participantID string
	catalog       *scenario.Catalog
	teammate      Teammate
	records       RecordLog
	now           func() time.Time

	round      int
	phase      Phase
	transcript chat.Transcript
	memory     team.Memory
	score      int

	pendingChoice  scenario.Option
	pendingOutcome scenario.Outcome
	lastResult     *Result
}

// New starts a session over the catalog. A blank participant ID
// becomes AnonymousParticipant. A nil teammate is tolerated: every
// exchange then records the in-band gateway error, which lets the
// shells run without model credentials.
func New(participantID string, catalog *scenario.Catalog, teammate Teammate, records RecordLog) *Session {
	participantID = strings.TrimSpace(participantID)
	if participantID == "" {
		participantID = AnonymousParticipant
	}

	s := &Session{
		participantID: participantID,
		catalog:       catalog,
		teammate:      teammate,
		records:       records,
		now:           time.Now,
		phase:         PhaseChatting,
		memory:        team.NewMemory(),
	}
	if catalog.Len() == 0 {
		s.phase = PhaseComplete
	}
	return s
}

// ParticipantID returns the identifier logged with every round.
func (s *Session) ParticipantID() string {
	return s.participantID
}

// Phase returns the current round phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Complete reports whether the catalog is exhausted.
func (s *Session) Complete() bool {
	return s.Phase() == PhaseComplete
}

// Score returns the cumulative score across completed decisions.
func (s *Session) Score() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score
}

// CurrentScenario returns the scenario of the round in progress.
func (s *Session) CurrentScenario() (scenario.Scenario, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseComplete {
		return scenario.Scenario{}, false
	}
	return s.catalog.At(s.round), true
}

// Rounds returns the total number of rounds in the session.
func (s *Session) Rounds() int {
	return s.catalog.Len()
}

// Transcript returns a copy of the current round's chat history.
func (s *Session) Transcript() chat.Transcript {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(chat.Transcript(nil), s.transcript...)
}

// Memory returns a copy of the team memory.
func (s *Session) Memory() team.Memory {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.memory
	m.Instructions = append([]string(nil), m.Instructions...)
	return m
}

// LastResult returns the most recent decided round, if any.
func (s *Session) LastResult() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastResult == nil {
		return Result{}, false
	}
	return *s.lastResult, true
}

// SendMessage performs one chat exchange: the participant turn and the
// teammate turn are appended to the round history, in that order. A
// gateway failure never fails the exchange; the error text is recorded
// as the teammate's reply instead.
func (s *Session) SendMessage(ctx context.Context, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseChatting {
		return "", ErrNotChatting
	}

	sc := s.catalog.At(s.round)
	reply := s.exchange(ctx, sc, text)

	s.transcript = append(s.transcript,
		chat.Turn{Speaker: chat.SpeakerParticipant, Text: text},
		chat.Turn{Speaker: chat.SpeakerAI, Text: reply},
	)
	return reply, nil
}

func (s *Session) exchange(ctx context.Context, sc scenario.Scenario, text string) string {
	if s.teammate == nil {
		return gatewayErrorPrefix + ErrNoTeammate.Error() + "]"
	}

	reply, err := s.teammate.Reply(ctx, sc, s.memory, s.transcript, text)
	if err != nil {
		log.Printf("[session] teammate call failed for participant=%s round=%d: %v", s.participantID, sc.RoundNum, err)
		return fmt.Sprintf("%s%v]", gatewayErrorPrefix, err)
	}
	return reply
}

// ReadyToDecide is the explicit shell signal that closes the chat
// phase. The chat length is otherwise unbounded.
func (s *Session) ReadyToDecide() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseChatting {
		return ErrNotChatting
	}
	s.phase = PhaseDeciding
	return nil
}

// Decide records the participant's option choice. An invalid label is
// rejected with ErrInvalidDecision and changes nothing, so the shell
// can re-prompt. A valid label looks up the outcome, adds its total to
// the cumulative score, and moves the round to the decided phase.
func (s *Session) Decide(choice scenario.Option) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseDeciding {
		return Result{}, ErrNotDeciding
	}

	choice = scenario.Option(strings.ToUpper(strings.TrimSpace(string(choice))))
	if !choice.Valid() {
		return Result{}, ErrInvalidDecision
	}

	sc := s.catalog.At(s.round)
	outcome := sc.Outcomes[choice]

	s.score += outcome.Total
	s.pendingChoice = choice
	s.pendingOutcome = outcome
	s.phase = PhaseDecided

	res := Result{
		RoundNum:   sc.RoundNum,
		ScenarioID: sc.ID,
		Choice:     choice,
		Outcome:    outcome,
		Score:      s.score,
	}
	s.lastResult = &res
	return res, nil
}

// FinishRound closes a decided round: a non-empty instruction updates
// the team memory, one record is appended to the session log, and the
// session advances to the next scenario or completes. A log write
// failure is fatal for the session; the error is returned, the round
// does not advance, and the memory is left unchanged.
func (s *Session) FinishRound(instruction string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseDecided {
		return ErrNotDecided
	}

	instruction = strings.TrimSpace(instruction)
	memory := s.memory
	if instruction != "" {
		memory = team.Apply(memory, instruction)
	}

	sc := s.catalog.At(s.round)
	rec := record.Record{
		Timestamp:     s.now(),
		ParticipantID: s.participantID,
		RoundNum:      sc.RoundNum,
		ScenarioID:    sc.ID,
		Choice:        s.pendingChoice,
		Outcome:       s.pendingOutcome,
		ChatHistory:   append(chat.Transcript(nil), s.transcript...),
		Instruction:   instruction,
	}
	if err := s.records.Append(rec); err != nil {
		return fmt.Errorf("append round record: %w", err)
	}

	s.memory = memory
	s.round++
	s.transcript = nil
	if s.round >= s.catalog.Len() {
		s.phase = PhaseComplete
	} else {
		s.phase = PhaseChatting
	}
	return nil
}
