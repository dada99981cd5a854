package chat

import (
	"testing"

	"conductor/internal/domain"
)

func TestLogAppendOrder(t *testing.T) {
	l := NewLog()
	l.Append(domain.ChatMessage{ID: "m1", Sender: "ai"})
	l.Append(domain.ChatMessage{ID: "m2", Sender: "user"})
	l.Append(domain.ChatMessage{ID: "m3", Sender: "ai"})

	msgs := l.Messages()
	if len(msgs) != 3 || msgs[0].ID != "m1" || msgs[2].ID != "m3" {
		t.Fatalf("order not preserved: %v", msgs)
	}
	if l.Len() != 3 {
		t.Fatalf("len: %d", l.Len())
	}
}

func TestLogTail(t *testing.T) {
	l := NewLog()
	for _, id := range []string{"m1", "m2", "m3"} {
		l.Append(domain.ChatMessage{ID: id})
	}
	tail := l.Tail(2)
	if len(tail) != 2 || tail[0].ID != "m2" {
		t.Fatalf("unexpected tail: %v", tail)
	}
	if got := l.Tail(0); len(got) != 3 {
		t.Fatalf("tail(0) should return all, got %v", got)
	}
	if got := l.Tail(10); len(got) != 3 {
		t.Fatalf("tail beyond length should return all, got %v", got)
	}
}

func TestLogSnapshotIsCopy(t *testing.T) {
	l := NewLog()
	l.Append(domain.ChatMessage{ID: "m1", Content: "original"})
	snap := l.Messages()
	snap[0].Content = "mutated"
	if l.Messages()[0].Content != "original" {
		t.Fatal("snapshot mutation leaked into the log")
	}
}
