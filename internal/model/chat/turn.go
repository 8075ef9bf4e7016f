package chat

import "encoding/json"

// Speaker tags who produced a turn. The set is closed so a third party
// (moderator, observer) cannot slip in as a free-form role string.
type Speaker string

const (
	SpeakerParticipant Speaker = "participant"
	SpeakerAI          Speaker = "ai"
)

// Turn is one utterance in a round's chat history.
type Turn struct {
	Speaker Speaker
	Text    string
}

// MarshalJSON encodes the turn as a two-element [speaker, text] array,
// the shape stored in the session log and served to the page shell.
func (t Turn) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{string(t.Speaker), t.Text})
}

// UnmarshalJSON decodes the [speaker, text] pair form.
func (t *Turn) UnmarshalJSON(data []byte) error {
	var pair [2]string
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	t.Speaker = Speaker(pair[0])
	t.Text = pair[1]
	return nil
}

// Transcript is the ordered, append-only chat history of one round.
type Transcript []Turn
