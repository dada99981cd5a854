// Package llm is the boundary to the AI collaborator: one text prompt out,
// one text reply in. The entire contract with the model rides inside plain
// text; no tool calling.
package llm

import (
	"context"

	"conductor/internal/domain"
)

// Client sends one prompt and returns the full reply text. Implementations
// must not stream partial replies; the interpreter only ever sees complete
// messages.
type Client interface {
	Send(ctx context.Context, history []domain.ChatMessage, message string) (string, error)
	Configured() bool
}
