// Package chat keeps the conversation history: an append-only sequence of
// user and AI turns. Messages are never mutated after creation.
package chat

import (
	"sync"

	"conductor/internal/domain"
)

type Log struct {
	mu       sync.Mutex
	messages []domain.ChatMessage
}

func NewLog() *Log {
	return &Log{}
}

func (l *Log) Append(msg domain.ChatMessage) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, msg)
}

func (l *Log) Messages() []domain.ChatMessage {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.ChatMessage(nil), l.messages...)
}

func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.messages)
}

// Tail returns the last n messages (all of them if n <= 0 or n >= len).
func (l *Log) Tail(n int) []domain.ChatMessage {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n <= 0 || n >= len(l.messages) {
		return append([]domain.ChatMessage(nil), l.messages...)
	}
	return append([]domain.ChatMessage(nil), l.messages[len(l.messages)-n:]...)
}
