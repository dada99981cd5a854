package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"conductor/internal/chat"
	"conductor/internal/config"
	"conductor/internal/domain"
	"conductor/internal/engine"
	"conductor/internal/events"
	"conductor/internal/seed"
	"conductor/internal/store"
)

// scriptedClient returns queued replies and records the prompts it saw.
type scriptedClient struct {
	mu      sync.Mutex
	replies []string
	prompts []string
	err     error
	block   chan struct{}
}

func (c *scriptedClient) Configured() bool { return true }

func (c *scriptedClient) Send(ctx context.Context, history []domain.ChatMessage, message string) (string, error) {
	if c.block != nil {
		select {
		case <-c.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, message)
	if c.err != nil {
		return "", c.err
	}
	if len(c.replies) == 0 {
		return "Задача понятна: ок.", nil
	}
	reply := c.replies[0]
	c.replies = c.replies[1:]
	return reply, nil
}

func newTestSession(seedData store.Seed, client *scriptedClient) *Session {
	eng := engine.New(store.New(seedData), events.NewJournal(64), config.Default())
	eng.Now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	n := 0
	eng.NewID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	return New(eng, chat.NewLog(), client)
}

func TestSessionWelcomeMessage(t *testing.T) {
	s := newTestSession(seed.Workspace(), &scriptedClient{})
	msgs := s.Log.Messages()
	if len(msgs) != 1 || msgs[0].Sender != "ai" {
		t.Fatalf("expected one welcome AI message, got %v", msgs)
	}
	if !strings.Contains(msgs[0].Content, "Chrome VPN Расширение") {
		t.Fatalf("welcome should name the active project:\n%s", msgs[0].Content)
	}
}

func TestSendAppendsAndInterprets(t *testing.T) {
	client := &scriptedClient{replies: []string{
		"Задача понятна: X.\n\n[BACKSTAGE]\nOPCODE: JSON_CMD\nPAYLOAD: {\"type\":\"create_task\",\"title\":\"T1\"}\n[/BACKSTAGE]",
	}}
	s := newTestSession(store.Seed{Projects: seed.Projects()}, client)

	msg, applied, err := s.Send(context.Background(), "Создай задачу T1")
	if err != nil {
		t.Fatal(err)
	}
	if msg.Sender != "ai" || !strings.Contains(msg.Content, "T1") {
		t.Fatalf("unexpected reply message: %+v", msg)
	}
	if applied != 1 {
		t.Fatalf("expected 1 applied directive, got %d", applied)
	}
	msgs := s.Log.Messages()
	// welcome + user + ai
	if len(msgs) != 3 || msgs[1].Sender != "user" || msgs[2].Sender != "ai" {
		t.Fatalf("unexpected log: %v", msgs)
	}
	tasks := s.Engine.Store.Tasks()
	if len(tasks) != 1 || tasks[0].Title != "T1" || tasks[0].Status != domain.StatusWaitingApproval {
		t.Fatalf("directive not applied: %v", tasks)
	}
}

func TestSendAppliedCountWithFullJournal(t *testing.T) {
	client := &scriptedClient{replies: []string{
		"[BACKSTAGE]\nOPCODE: JSON_CMD\nPAYLOAD: {\"type\":\"create_task\",\"title\":\"T2\"}\n[/BACKSTAGE]",
	}}
	eng := engine.New(store.New(store.Seed{}), events.NewJournal(1), config.Default())
	eng.Now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	n := 0
	eng.NewID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	// the bounded journal is already at capacity before the send
	eng.Journal.Append("tick", "test", "", nil)
	s := New(eng, chat.NewLog(), client)

	_, applied, err := s.Send(context.Background(), "Создай задачу T2")
	if err != nil {
		t.Fatal(err)
	}
	if applied != 1 {
		t.Fatalf("expected 1 applied directive regardless of journal fill, got %d", applied)
	}
	if len(s.Engine.Store.Tasks()) != 1 {
		t.Fatal("directive not applied")
	}
}

func TestSendPrependsContextBlock(t *testing.T) {
	client := &scriptedClient{}
	s := newTestSession(seed.Workspace(), client)
	if _, _, err := s.Send(context.Background(), "Привет"); err != nil {
		t.Fatal(err)
	}
	if len(client.prompts) != 1 {
		t.Fatalf("expected 1 prompt, got %d", len(client.prompts))
	}
	sent := client.prompts[0]
	if !strings.Contains(sent, "[ТЕКУЩИЙ КОНТЕКСТ ПРОЕКТА]") || !strings.HasSuffix(sent, "User says: Привет") {
		t.Fatalf("context block not prepended:\n%s", sent)
	}
	// the context block must not leak into the stored log
	for _, m := range s.Log.Messages() {
		if m.Sender == "user" && strings.Contains(m.Content, "ТЕКУЩИЙ КОНТЕКСТ") {
			t.Fatal("context block stored in conversation log")
		}
	}
}

func TestSendBoundaryErrorBecomesChatMessage(t *testing.T) {
	client := &scriptedClient{err: errors.New("quota exceeded")}
	s := newTestSession(store.Seed{}, client)
	msg, applied, err := s.Send(context.Background(), "Привет")
	if err != nil {
		t.Fatalf("boundary errors must not surface as errors: %v", err)
	}
	if !strings.Contains(msg.Content, "Ошибка") {
		t.Fatalf("expected plain-language error message, got %q", msg.Content)
	}
	if applied != 0 {
		t.Fatalf("nothing was interpreted, applied must be 0, got %d", applied)
	}
	if len(s.Engine.Store.Tasks()) != 0 {
		t.Fatal("no interpretation may happen on boundary failure")
	}
}

func TestSendRejectsConcurrentSend(t *testing.T) {
	client := &scriptedClient{block: make(chan struct{})}
	s := newTestSession(store.Seed{}, client)

	done := make(chan error, 1)
	go func() {
		_, _, err := s.Send(context.Background(), "первое")
		done <- err
	}()
	// wait until the first send is holding the slot
	for i := 0; !s.Thinking() && i < 1000; i++ {
		time.Sleep(time.Millisecond)
	}
	if _, _, err := s.Send(context.Background(), "второе"); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	close(client.block)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
}

func TestSendCanceledNoInterpretation(t *testing.T) {
	client := &scriptedClient{block: make(chan struct{})}
	s := newTestSession(store.Seed{}, client)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := s.Send(ctx, "Привет"); err == nil {
		t.Fatal("expected cancellation error")
	}
	if len(s.Engine.Store.Tasks()) != 0 || len(s.Engine.Store.Proposals()) != 0 {
		t.Fatal("canceled send must not mutate state")
	}
}

func TestConfirmTaskEchoesNote(t *testing.T) {
	s := newTestSession(store.Seed{Tasks: []domain.Task{{ID: "t1", Title: "Черновик", Status: domain.StatusWaitingApproval}}}, &scriptedClient{})
	task, changed := s.ConfirmTask("t1")
	if !changed || task.Status != domain.StatusConfirmed {
		t.Fatalf("confirm failed: %+v changed=%v", task, changed)
	}
	msgs := s.Log.Messages()
	last := msgs[len(msgs)-1]
	if !strings.Contains(last.Content, "подтвердил задачу \"Черновик\"") {
		t.Fatalf("missing confirmation note: %q", last.Content)
	}
	// no note the second time
	n := s.Log.Len()
	if _, changed := s.ConfirmTask("t1"); changed || s.Log.Len() != n {
		t.Fatal("repeat confirm must not append a note")
	}
}

func TestRebalanceTick(t *testing.T) {
	s := newTestSession(store.Seed{Team: []domain.TeamMember{
		{ID: "tm1", Role: "Аналитик", Workload: 50},
		{ID: "tm2", Role: "Техлид", Workload: 95},
	}}, &scriptedClient{})

	if !s.RebalanceTick() {
		t.Fatal("expected a proposal for the overloaded role")
	}
	props := s.Engine.Store.Proposals()
	if len(props) != 1 || !strings.Contains(props[0].Reason, "Техлид") {
		t.Fatalf("unexpected proposals: %v", props)
	}
	last := s.Log.Messages()[s.Log.Len()-1]
	if !strings.Contains(last.Content, "Авто-Ребалансировщик") {
		t.Fatalf("missing chat notice: %q", last.Content)
	}
	// pending proposal suppresses further ticks
	if s.RebalanceTick() {
		t.Fatal("tick must be a no-op while a proposal is pending")
	}
}

func TestRebalanceTickBelowThreshold(t *testing.T) {
	s := newTestSession(store.Seed{Team: []domain.TeamMember{{ID: "tm1", Role: "Ops", Workload: 30}}}, &scriptedClient{})
	if s.RebalanceTick() {
		t.Fatal("no member above threshold, tick must be a no-op")
	}
}

func TestAcceptProposalFlow(t *testing.T) {
	s := newTestSession(store.Seed{Team: seed.Team()}, &scriptedClient{})
	p := s.Engine.ProposeRebalance(engine.ProposalOptions{})
	member, cleared := s.AcceptProposal(p.ID)
	if cleared != 1 || member.Effectiveness != 100 || member.Workload != 0 {
		t.Fatalf("unexpected accept result: %+v cleared=%d", member, cleared)
	}
	last := s.Log.Messages()[s.Log.Len()-1]
	if !strings.Contains(last.Content, "Предложение принято") {
		t.Fatalf("missing acceptance note: %q", last.Content)
	}
}
