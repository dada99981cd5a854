package store

import (
	"testing"

	"conductor/internal/domain"
)

func TestConfirmTaskIdempotent(t *testing.T) {
	s := New(Seed{Tasks: []domain.Task{
		{ID: "t1", Title: "one", Status: domain.StatusWaitingApproval},
		{ID: "t2", Title: "two", Status: domain.StatusBacklog},
	}})
	task, changed := s.ConfirmTask("t1")
	if !changed || task.Status != domain.StatusConfirmed {
		t.Fatalf("first confirm: changed=%v status=%s", changed, task.Status)
	}
	if _, changed := s.ConfirmTask("t1"); changed {
		t.Fatal("second confirm must be a no-op")
	}
	// other tasks untouched
	if other, _ := s.GetTask("t2"); other.Status != domain.StatusBacklog {
		t.Fatalf("unrelated task mutated: %+v", other)
	}
}

func TestConfirmUnknownTaskNoop(t *testing.T) {
	s := New(Seed{Tasks: []domain.Task{{ID: "t1", Status: domain.StatusWaitingApproval}}})
	if _, changed := s.ConfirmTask("nonexistent"); changed {
		t.Fatal("confirming unknown id must not change anything")
	}
	if got, _ := s.GetTask("t1"); got.Status != domain.StatusWaitingApproval {
		t.Fatalf("task mutated: %+v", got)
	}
}

func TestAcceptProposalClearsAll(t *testing.T) {
	s := New(Seed{Team: []domain.TeamMember{{ID: "tm1", Role: "Стратег"}}})
	s.AppendProposal(domain.RebalanceProposal{ID: "rp1", Status: domain.ProposalSuggested})
	s.AppendProposal(domain.RebalanceProposal{ID: "rp2", Status: domain.ProposalSuggested})

	cleared := s.AcceptProposal(domain.TeamMember{ID: "tm2", Role: "Мл. Аналитик", Effectiveness: 100, Workload: 0})
	if cleared != 2 {
		t.Fatalf("expected 2 cleared, got %d", cleared)
	}
	if got := s.Proposals(); len(got) != 0 {
		t.Fatalf("pending set not cleared: %v", got)
	}
	team := s.Team()
	if len(team) != 2 {
		t.Fatalf("expected exactly one appended member, team=%v", team)
	}
	added := team[1]
	if added.Effectiveness != 100 || added.Workload != 0 {
		t.Fatalf("unexpected member defaults: %+v", added)
	}
}

func TestRejectProposal(t *testing.T) {
	s := New(Seed{})
	s.AppendProposal(domain.RebalanceProposal{ID: "rp1"})
	s.AppendProposal(domain.RebalanceProposal{ID: "rp2"})
	if !s.RejectProposal("rp1") {
		t.Fatal("expected rejection of rp1")
	}
	if s.RejectProposal("rp1") {
		t.Fatal("second rejection must be a no-op")
	}
	left := s.Proposals()
	if len(left) != 1 || left[0].ID != "rp2" {
		t.Fatalf("unexpected pending set: %v", left)
	}
	if len(s.Team()) != 0 {
		t.Fatal("rejection must not touch the team")
	}
}

func TestProgress(t *testing.T) {
	s := New(Seed{})
	if s.Progress() != 0 {
		t.Fatal("empty workspace progress must be 0")
	}
	s.AppendTask(domain.Task{ID: "a", Status: domain.StatusConfirmed})
	s.AppendTask(domain.Task{ID: "b", Status: domain.StatusWaitingApproval})
	if got := s.Progress(); got != 50 {
		t.Fatalf("expected 50, got %v", got)
	}
}

func TestActiveProject(t *testing.T) {
	s := New(Seed{Projects: []domain.Project{{ID: "p1"}, {ID: "p2"}}})
	if p, ok := s.ActiveProject(); !ok || p.ID != "p1" {
		t.Fatalf("expected p1 active, got %+v ok=%v", p, ok)
	}
	if !s.SetActiveProject("p2") {
		t.Fatal("switch to p2 failed")
	}
	if s.SetActiveProject("missing") {
		t.Fatal("switch to unknown project must fail")
	}
	if p, _ := s.ActiveProject(); p.ID != "p2" {
		t.Fatalf("expected p2 active, got %+v", p)
	}
}

func TestSnapshotsAreCopies(t *testing.T) {
	s := New(Seed{Tasks: []domain.Task{{ID: "t1", Status: domain.StatusBacklog}}})
	snap := s.Tasks()
	snap[0].Status = domain.StatusDone
	if got, _ := s.GetTask("t1"); got.Status != domain.StatusBacklog {
		t.Fatal("snapshot mutation leaked into the store")
	}
}
