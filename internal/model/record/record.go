package record

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/liuyint/policydesk/internal/model/chat"
	"github.com/liuyint/policydesk/internal/model/scenario"
)

// TimeLayout is the timestamp format used in the session log.
const TimeLayout = "2006-01-02 15:04:05"

// Header is the fixed column schema of the session log destination.
var Header = []string{
	"timestamp",
	"participant_id",
	"round_num",
	"scenario_id",
	"choice",
	"safety",
	"equity",
	"cost",
	"political",
	"total",
	"chat_history_json",
	"instruction_text",
}

// Record is the write-once audit row for one completed round.
type Record struct {
	Timestamp     time.Time
	ParticipantID string
	RoundNum      int
	ScenarioID    string
	Choice        scenario.Option
	Outcome       scenario.Outcome
	ChatHistory   chat.Transcript
	Instruction   string
}

// Row flattens the record into Header order, serializing the chat
// history as an ordered JSON list of [speaker, text] pairs.
func (r Record) Row() ([]string, error) {
	history := r.ChatHistory
	if history == nil {
		history = chat.Transcript{}
	}
	serialized, err := json.Marshal(history)
	if err != nil {
		return nil, fmt.Errorf("serialize chat history: %w", err)
	}

	return []string{
		r.Timestamp.Format(TimeLayout),
		r.ParticipantID,
		strconv.Itoa(r.RoundNum),
		r.ScenarioID,
		string(r.Choice),
		strconv.Itoa(r.Outcome.Safety),
		strconv.Itoa(r.Outcome.Equity),
		strconv.Itoa(r.Outcome.Cost),
		strconv.Itoa(r.Outcome.Political),
		strconv.Itoa(r.Outcome.Total),
		string(serialized),
		r.Instruction,
	}, nil
}
