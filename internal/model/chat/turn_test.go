package chat

import (
	"encoding/json"
	"testing"
)

func TestTranscriptMarshalsAsOrderedPairs(t *testing.T) {
	transcript := Transcript{
		{Speaker: SpeakerParticipant, Text: "what does the data say?"},
		{Speaker: SpeakerAI, Text: "the levee overtops often"},
	}

	data, err := json.Marshal(transcript)
	if err != nil {
		t.Fatalf("marshal err: %v", err)
	}

	want := `[["participant","what does the data say?"],["ai","the levee overtops often"]]`
	if string(data) != want {
		t.Fatalf("unexpected encoding: %s", data)
	}
}

func TestTurnRoundTrip(t *testing.T) {
	original := Turn{Speaker: SpeakerAI, Text: "reply"}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal err: %v", err)
	}

	var decoded Turn
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal err: %v", err)
	}
	if decoded != original {
		t.Fatalf("expected %+v, got %+v", original, decoded)
	}
}
