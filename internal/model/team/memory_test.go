package team

import "testing"

func TestNewMemoryDefaults(t *testing.T) {
	m := NewMemory()
	if m.ExplanationLength != LengthMedium {
		t.Fatalf("expected medium default, got %s", m.ExplanationLength)
	}
	if m.FocusEquity {
		t.Fatal("expected equity focus off by default")
	}
	if len(m.Instructions) != 0 {
		t.Fatalf("expected empty instruction history, got %d entries", len(m.Instructions))
	}
}

func TestApplyConciseAndEquity(t *testing.T) {
	m := Apply(NewMemory(), "please be concise and more equity focused")

	if m.ExplanationLength != LengthShort {
		t.Fatalf("expected short, got %s", m.ExplanationLength)
	}
	if !m.FocusEquity {
		t.Fatal("expected equity focus on")
	}
	if got := m.Instructions[len(m.Instructions)-1]; got != "please be concise and more equity focused" {
		t.Fatalf("expected verbatim instruction, got %q", got)
	}
}

func TestApplyEquityIsSticky(t *testing.T) {
	m := Apply(NewMemory(), "Be FAIR about the outer districts")
	if !m.FocusEquity {
		t.Fatal("expected equity focus on after fair keyword")
	}

	m = Apply(m, "talk about costs instead")
	if !m.FocusEquity {
		t.Fatal("expected equity focus to survive a non-matching instruction")
	}
	if len(m.Instructions) != 2 {
		t.Fatalf("expected 2 instructions, got %d", len(m.Instructions))
	}
}

func TestApplyShortenWinsOverLengthen(t *testing.T) {
	m := Apply(NewMemory(), "keep it brief but give more detail on equity")
	if m.ExplanationLength != LengthShort {
		t.Fatalf("expected shorten family to win, got %s", m.ExplanationLength)
	}
}

func TestApplyLengthen(t *testing.T) {
	m := Apply(NewMemory(), "could you explain more next time")
	if m.ExplanationLength != LengthLong {
		t.Fatalf("expected long, got %s", m.ExplanationLength)
	}
}

func TestApplyNeverRestoresMedium(t *testing.T) {
	m := Apply(NewMemory(), "be brief")
	m = Apply(m, "use a medium amount of detail")

	// Medium is only reachable as the untouched default; the ratchet
	// keeps the last matched length.
	if m.ExplanationLength != LengthShort {
		t.Fatalf("expected short to persist, got %s", m.ExplanationLength)
	}
}

func TestApplyRecordsUnmatchedInstruction(t *testing.T) {
	m := Apply(NewMemory(), "mention the river districts by name")
	if m.ExplanationLength != LengthMedium || m.FocusEquity {
		t.Fatal("expected no flag changes for unmatched instruction")
	}
	if len(m.Instructions) != 1 || m.Instructions[0] != "mention the river districts by name" {
		t.Fatalf("expected instruction preserved verbatim, got %v", m.Instructions)
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	original := Apply(NewMemory(), "first")
	_ = Apply(original, "be brief")

	if original.ExplanationLength != LengthMedium {
		t.Fatalf("expected input memory untouched, got %s", original.ExplanationLength)
	}
	if len(original.Instructions) != 1 {
		t.Fatalf("expected input instruction history untouched, got %v", original.Instructions)
	}
}
