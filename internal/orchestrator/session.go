// Package orchestrator drives one chat session: user input goes to the
// conversation log, the prompt builder wraps it with workspace context, the
// collaborator reply comes back into the log and through the interpreter.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"conductor/internal/chat"
	"conductor/internal/domain"
	"conductor/internal/engine"
	"conductor/internal/llm"
	"conductor/internal/prompt"
	"conductor/internal/seed"
)

// ErrBusy is returned when a send arrives while another is in flight. The
// interpreter never sees interleaved replies.
var ErrBusy = errors.New("a message is already being processed")

const boundaryErrorReply = "Ошибка: Не удалось обработать запрос через Gemini API. Проверьте соединение или квоты."

type Session struct {
	Engine   engine.Engine
	Log      *chat.Log
	Client   llm.Client
	Logger   *zap.Logger
	inflight atomic.Bool
}

func New(eng engine.Engine, log *chat.Log, client llm.Client) *Session {
	s := &Session{Engine: eng, Log: log, Client: client, Logger: zap.NewNop()}
	if log.Len() == 0 {
		name := "—"
		if p, ok := eng.Store.ActiveProject(); ok {
			name = p.Name
		}
		s.appendAI(seed.WelcomeContent(name))
	}
	return s
}

// Thinking reports whether a send is currently outstanding.
func (s *Session) Thinking() bool { return s.inflight.Load() }

// Send runs one full turn: append the user message, call the collaborator
// with context + history, append the reply, interpret its directives. It
// returns the reply message and how many directives changed state. A second
// send while one is pending is rejected with ErrBusy. Boundary failures come
// back as a plain-language AI message, never as an error — except
// cancellation, where the turn is abandoned with no interpretation.
func (s *Session) Send(ctx context.Context, text string) (domain.ChatMessage, int, error) {
	if !s.inflight.CompareAndSwap(false, true) {
		return domain.ChatMessage{}, 0, ErrBusy
	}
	defer s.inflight.Store(false)

	history := s.Log.Messages()
	s.appendUser(text)

	var kpis []string
	if p, ok := s.Engine.Store.ActiveProject(); ok {
		kpis = p.KPIs
	}
	block := prompt.Context(kpis, s.Engine.Store.Team(), s.Engine.Store.Tasks())
	reply, err := s.Client.Send(ctx, history, prompt.Outgoing(block, text))
	if err != nil {
		if ctx.Err() != nil {
			// Abandoned call: the reply was never fully received, so
			// nothing is extracted or interpreted.
			return domain.ChatMessage{}, 0, err
		}
		s.Logger.Warn("collaborator call failed", zap.Error(err))
		return s.appendAI(boundaryErrorReply), 0, nil
	}

	msg := s.appendAI(reply)
	applied := s.Engine.Interpret(reply)
	if len(applied) > 0 {
		s.Logger.Info("directives applied", zap.Int("count", len(applied)))
	}
	return msg, len(applied), nil
}

// ConfirmTask is the user-side approval action. A successful transition is
// echoed into the conversation as a system backstage note.
func (s *Session) ConfirmTask(id string) (domain.Task, bool) {
	task, changed := s.Engine.ConfirmTask(id)
	if changed {
		s.appendAI(fmt.Sprintf("[BACKSTAGE]\nРоль: Система\nДействие: Пользователь подтвердил задачу \"%s\".\nПрогресс обновлен.\n[/BACKSTAGE]", task.Title))
	}
	return task, changed
}

// AcceptProposal applies the accepted rebalance: the pending set is cleared
// and the auto-provisioned agent joins the team.
func (s *Session) AcceptProposal(id string) (domain.TeamMember, int) {
	member, cleared := s.Engine.AcceptProposal(id)
	s.appendAI("[BACKSTAGE]\nРоль: Система\nДействие: Предложение принято. Состав команды обновлен.\n[/BACKSTAGE]")
	return member, cleared
}

func (s *Session) RejectProposal(id string) bool {
	return s.Engine.RejectProposal(id)
}

// Run drives the periodic rebalance heuristic until ctx is canceled. Ticks
// mutate through the same engine as directive interpretation, so writers to
// the proposal collection are never concurrent.
func (s *Session) Run(ctx context.Context) error {
	interval := time.Duration(s.Engine.Config.Rebalance.Interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.RebalanceTick()
		}
	}
}

// RebalanceTick fires the workload heuristic once: if no proposal is pending
// and a team member's workload exceeds the configured threshold, a proposal
// is suggested and announced in the chat.
func (s *Session) RebalanceTick() bool {
	if len(s.Engine.Store.Proposals()) > 0 {
		return false
	}
	threshold := s.Engine.Config.Rebalance.WorkloadThreshold
	for _, m := range s.Engine.Store.Team() {
		if m.Workload <= threshold {
			continue
		}
		s.Engine.ProposeRebalance(engine.ProposalOptions{
			Reason:  fmt.Sprintf("Загрузка роли %s > %d%%.", m.Role, threshold),
			Changes: []string{"Добавить Мл. Аналитика", fmt.Sprintf("Снизить нагрузку роли %s", m.Role)},
			Impact:  "Снижение узких мест на 20%",
		})
		s.appendAI(fmt.Sprintf("[BACKSTAGE]\nРоль: Авто-Ребалансировщик\nТревога: Обнаружена аномалия рабочей нагрузки у роли %s.\nДействие: Предложение сформировано в Панели Контекста.\n[/BACKSTAGE]", m.Role))
		return true
	}
	return false
}

func (s *Session) appendUser(content string) domain.ChatMessage {
	return s.append("user", content)
}

func (s *Session) appendAI(content string) domain.ChatMessage {
	return s.append("ai", content)
}

func (s *Session) append(sender, content string) domain.ChatMessage {
	msg := domain.ChatMessage{
		ID:        s.Engine.NewID(),
		Sender:    sender,
		Content:   content,
		Timestamp: s.Engine.Now().UTC().Format(time.RFC3339),
	}
	s.Log.Append(msg)
	return msg
}
