// Package engine applies state changes to the workspace. It is the only place
// where model-generated text becomes mutations: Interpret walks the backstage
// blocks of a reply and dispatches the embedded commands. All failure modes
// degrade to a per-directive no-op; nothing here ever prevents the reply
// itself from being displayed.
package engine

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"conductor/internal/config"
	"conductor/internal/directive"
	"conductor/internal/domain"
	"conductor/internal/events"
	"conductor/internal/store"
)

// Auto-provisioned agent identity used when a rebalance proposal is accepted.
const (
	autoAgentRole = "Мл. Аналитик"
	autoAgentName = "Auto_Agent_02"
)

type Engine struct {
	Store   *store.Store
	Journal *events.Journal
	Config  *config.Config
	Logger  *zap.Logger
	Now     func() time.Time
	NewID   func() string
}

func New(st *store.Store, journal *events.Journal, cfg *config.Config) Engine {
	return Engine{
		Store:   st,
		Journal: journal,
		Config:  cfg,
		Logger:  zap.NewNop(),
		Now:     time.Now,
		NewID:   uuid.NewString,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) newID() string {
	if e.NewID != nil {
		return e.NewID()
	}
	return uuid.NewString()
}

func (e Engine) timestamp() string {
	return e.now().UTC().Format(time.RFC3339)
}

// TaskCreateOptions are parameters for creating a task. Every field has a
// default; zero options still produce a valid task.
type TaskCreateOptions struct {
	Title        string
	Description  string
	AssigneeRole string
	Origin       string
}

func (e Engine) CreateTask(opts TaskCreateOptions) domain.Task {
	if opts.Title == "" {
		opts.Title = e.Config.Defaults.TaskTitle
	}
	if opts.Description == "" {
		opts.Description = e.Config.Defaults.TaskDescription
	}
	if opts.AssigneeRole == "" {
		opts.AssigneeRole = e.Config.Defaults.AssigneeRole
	}
	if opts.Origin == "" {
		opts.Origin = domain.OriginAI
	}
	t := domain.Task{
		ID:           e.newID(),
		Title:        opts.Title,
		Description:  opts.Description,
		Status:       domain.StatusWaitingApproval,
		AssigneeRole: opts.AssigneeRole,
		Origin:       opts.Origin,
		CreatedAt:    e.timestamp(),
	}
	e.Store.AppendTask(t)
	e.Journal.Append("task.create", "task", t.ID, map[string]any{"title": t.Title, "origin": t.Origin})
	return t
}

// ConfirmTask is idempotent: unknown ids and already-confirmed tasks report
// false and change nothing.
func (e Engine) ConfirmTask(id string) (domain.Task, bool) {
	t, changed := e.Store.ConfirmTask(id)
	if changed {
		e.Journal.Append("task.confirm", "task", t.ID, map[string]any{"title": t.Title})
	}
	return t, changed
}

// ProposalOptions are parameters for a rebalance proposal; all optional.
type ProposalOptions struct {
	Reason  string
	Changes []string
	Impact  string
}

func (e Engine) ProposeRebalance(opts ProposalOptions) domain.RebalanceProposal {
	if opts.Reason == "" {
		opts.Reason = e.Config.Defaults.ProposalReason
	}
	if opts.Impact == "" {
		opts.Impact = e.Config.Defaults.ProposalImpact
	}
	if opts.Changes == nil {
		opts.Changes = []string{}
	}
	p := domain.RebalanceProposal{
		ID:        e.newID(),
		Reason:    opts.Reason,
		Changes:   opts.Changes,
		Impact:    opts.Impact,
		Status:    domain.ProposalSuggested,
		CreatedAt: e.timestamp(),
	}
	e.Store.AppendProposal(p)
	e.Journal.Append("proposal.suggest", "proposal", p.ID, map[string]any{"reason": p.Reason})
	return p
}

// AcceptProposal clears the whole pending set and provisions one new agent
// with full effectiveness and zero workload. The id identifies which proposal
// the user accepted; it only affects the journal record.
func (e Engine) AcceptProposal(id string) (domain.TeamMember, int) {
	member := domain.TeamMember{
		ID:            e.newID(),
		Role:          autoAgentRole,
		Name:          autoAgentName,
		Effectiveness: 100,
		Workload:      0,
	}
	cleared := e.Store.AcceptProposal(member)
	e.Journal.Append("proposal.accept", "proposal", id, map[string]any{"cleared": cleared, "member": member.Name})
	return member, cleared
}

func (e Engine) RejectProposal(id string) bool {
	ok := e.Store.RejectProposal(id)
	if ok {
		e.Journal.Append("proposal.reject", "proposal", id, nil)
	}
	return ok
}

// Applied describes one directive that changed state.
type Applied struct {
	Type     string
	Task     *domain.Task
	Proposal *domain.RebalanceProposal
}

// Interpret extracts every backstage block from reply and dispatches the
// commands found inside, in document order. Malformed payloads, unknown
// command types and dangling task references are each a no-op for that one
// block; interpretation of the remaining blocks continues.
func (e Engine) Interpret(reply string) []Applied {
	var applied []Applied
	for _, body := range directive.Extract(reply) {
		cmd, ok, err := directive.ParseCommand(body)
		if err != nil {
			e.Logger.Warn("directive payload rejected", zap.Error(err))
			continue
		}
		if !ok {
			continue // narration only
		}
		if !directive.Known(cmd.Type) {
			// Unknown command kinds are ignored so older interpreters
			// survive newer producers.
			e.Logger.Debug("unknown directive type", zap.String("type", cmd.Type))
			continue
		}
		switch cmd.Type {
		case directive.TypeCreateTask:
			t := e.CreateTask(TaskCreateOptions{
				Title:        cmd.Title,
				Description:  cmd.Description,
				AssigneeRole: cmd.AssigneeRole,
				Origin:       domain.OriginAI,
			})
			applied = append(applied, Applied{Type: cmd.Type, Task: &t})
		case directive.TypeConfirm:
			if cmd.TaskID == "" {
				e.Logger.Warn("confirm_task without taskId")
				continue
			}
			t, changed := e.ConfirmTask(cmd.TaskID)
			if !changed {
				e.Logger.Info("confirm_task had no effect", zap.String("task_id", cmd.TaskID))
				continue
			}
			applied = append(applied, Applied{Type: cmd.Type, Task: &t})
		case directive.TypeRebalance:
			p := e.ProposeRebalance(ProposalOptions{
				Reason:  cmd.Reason,
				Changes: cmd.Changes,
				Impact:  cmd.Impact,
			})
			applied = append(applied, Applied{Type: cmd.Type, Proposal: &p})
		}
	}
	return applied
}
