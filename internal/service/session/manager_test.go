package session_test

import (
	"context"
	"errors"
	"testing"

	"github.com/liuyint/policydesk/internal/model/scenario"
	"github.com/liuyint/policydesk/internal/service/session"
)

func TestManagerCreateAndGet(t *testing.T) {
	m := session.NewManager(testCatalog(t), nil, &memoryLog{})

	handle, created := m.Create("p-1")
	if handle.ID == "" {
		t.Fatal("expected non-empty session id")
	}
	if handle.ParticipantID != "p-1" {
		t.Fatalf("unexpected participant id: %s", handle.ParticipantID)
	}

	got, err := m.Get(handle.ID)
	if err != nil {
		t.Fatalf("Get err: %v", err)
	}
	if got != created {
		t.Fatal("expected Get to return the created session")
	}
}

func TestManagerGetNotFound(t *testing.T) {
	m := session.NewManager(testCatalog(t), nil, &memoryLog{})

	if _, err := m.Get("missing"); !errors.Is(err, session.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestManagerSessionsAreIndependent(t *testing.T) {
	m := session.NewManager(testCatalog(t), &scriptedTeammate{reply: "ok"}, &memoryLog{})

	_, first := m.Create("p-1")
	_, second := m.Create("p-2")

	if err := first.ReadyToDecide(); err != nil {
		t.Fatalf("ReadyToDecide err: %v", err)
	}
	if _, err := first.Decide(scenario.OptionA); err != nil {
		t.Fatalf("Decide err: %v", err)
	}
	if err := first.FinishRound("be brief"); err != nil {
		t.Fatalf("FinishRound err: %v", err)
	}

	if second.Score() != 0 {
		t.Fatalf("expected second session score untouched, got %d", second.Score())
	}
	if mem := second.Memory(); len(mem.Instructions) != 0 {
		t.Fatal("expected second session memory untouched")
	}
	if _, err := second.SendMessage(context.Background(), "hi"); err != nil {
		t.Fatalf("expected second session still chatting, got %v", err)
	}
}
