// Package store holds the workspace of record for one session: tasks, team,
// rebalance proposals, projects and context items. All collections are
// in-memory and mutex-serialized; the engine is the only writer.
package store

import (
	"sync"

	"conductor/internal/domain"
)

type Store struct {
	mu        sync.Mutex
	tasks     []domain.Task
	team      []domain.TeamMember
	proposals []domain.RebalanceProposal
	projects  []domain.Project
	context   []domain.ContextItem
	activeID  string
}

// Seed is the initial workspace content.
type Seed struct {
	Projects     []domain.Project
	Team         []domain.TeamMember
	Tasks        []domain.Task
	ContextItems []domain.ContextItem
}

func New(seed Seed) *Store {
	s := &Store{
		tasks:    append([]domain.Task(nil), seed.Tasks...),
		team:     append([]domain.TeamMember(nil), seed.Team...),
		projects: append([]domain.Project(nil), seed.Projects...),
		context:  append([]domain.ContextItem(nil), seed.ContextItems...),
	}
	if len(s.projects) > 0 {
		s.activeID = s.projects[0].ID
	}
	return s
}

func (s *Store) Tasks() []domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Task(nil), s.tasks...)
}

func (s *Store) Team() []domain.TeamMember {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.TeamMember(nil), s.team...)
}

func (s *Store) Proposals() []domain.RebalanceProposal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.RebalanceProposal(nil), s.proposals...)
}

func (s *Store) Projects() []domain.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Project(nil), s.projects...)
}

func (s *Store) ContextItems() []domain.ContextItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ContextItem(nil), s.context...)
}

func (s *Store) AppendTask(t domain.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, t)
}

// ConfirmTask transitions the task to confirmed_by_user. It reports whether a
// transition happened; confirming an unknown or already-confirmed task is a
// safe no-op, so calling it twice equals calling it once.
func (s *Store) ConfirmTask(id string) (domain.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.tasks {
		if t.ID != id {
			continue
		}
		if t.Status == domain.StatusConfirmed {
			return t, false
		}
		s.tasks[i].Status = domain.StatusConfirmed
		return s.tasks[i], true
	}
	return domain.Task{}, false
}

func (s *Store) GetTask(id string) (domain.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return domain.Task{}, false
}

func (s *Store) AppendTeamMember(m domain.TeamMember) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.team = append(s.team, m)
}

func (s *Store) AppendProposal(p domain.RebalanceProposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proposals = append(s.proposals, p)
}

// AcceptProposal clears the entire pending set and appends the auto-provisioned
// member. Acceptance is modeled as "replace the active proposal set", not
// per-id removal: even with several pending proposals only member is added.
// Reports the number of proposals cleared.
func (s *Store) AcceptProposal(member domain.TeamMember) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cleared := len(s.proposals)
	s.proposals = nil
	s.team = append(s.team, member)
	return cleared
}

// RejectProposal drops the identified proposal from the pending set without
// touching the team. Unknown ids are a no-op.
func (s *Store) RejectProposal(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.proposals {
		if p.ID == id {
			s.proposals = append(s.proposals[:i], s.proposals[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Store) GetProject(id string) (domain.Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.projects {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Project{}, false
}

func (s *Store) AppendProject(p domain.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects = append(s.projects, p)
	if s.activeID == "" {
		s.activeID = p.ID
	}
}

// ActiveProject returns the project the session converses about.
func (s *Store) ActiveProject() (domain.Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.projects {
		if p.ID == s.activeID {
			return p, true
		}
	}
	return domain.Project{}, false
}

func (s *Store) SetActiveProject(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.projects {
		if p.ID == id {
			s.activeID = id
			return true
		}
	}
	return false
}

func (s *Store) CountTasksByStatus() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := map[string]int{}
	for _, t := range s.tasks {
		counts[t.Status]++
	}
	return counts
}

// Progress is the share of confirmed tasks, 0..100.
func (s *Store) Progress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.tasks) == 0 {
		return 0
	}
	confirmed := 0
	for _, t := range s.tasks {
		if t.Status == domain.StatusConfirmed {
			confirmed++
		}
	}
	return float64(confirmed) / float64(len(s.tasks)) * 100
}
