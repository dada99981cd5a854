// Package directive implements the backstage wire format: [BACKSTAGE] blocks
// embedded in orchestrator replies, optionally carrying an OPCODE/PAYLOAD
// command. Extraction and command parsing are pure functions so both stages
// stay testable in isolation.
package directive

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	openTag  = "[BACKSTAGE]"
	closeTag = "[/BACKSTAGE]"

	// opcodeMarker announces a machine command inside a block. Blocks
	// without it are narration only.
	opcodeMarker   = "OPCODE: JSON_CMD"
	payloadMarker  = "PAYLOAD:"
	TypeCreateTask = "create_task"
	TypeConfirm    = "confirm_task"
	TypeRebalance  = "rebalance"
)

// Command is the payload of one directive. Type is validated by the engine
// against the closed command set; unknown types are a forward-compatible no-op.
type Command struct {
	Type         string   `json:"type"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	AssigneeRole string   `json:"assigneeRole"`
	TaskID       string   `json:"taskId"`
	Reason       string   `json:"reason"`
	Changes      []string `json:"changes"`
	Impact       string   `json:"impact"`
}

// Extract returns the body of every well-formed [BACKSTAGE]...[/BACKSTAGE]
// envelope in s, in document order. An opening tag without a matching close is
// skipped; extraction never fails.
func Extract(s string) []string {
	var blocks []string
	for {
		start := strings.Index(s, openTag)
		if start < 0 {
			return blocks
		}
		rest := s[start+len(openTag):]
		end := strings.Index(rest, closeTag)
		if end < 0 {
			return blocks
		}
		blocks = append(blocks, strings.TrimSpace(rest[:end]))
		s = rest[end+len(closeTag):]
	}
}

// ParseCommand locates the command payload inside one extracted block body.
// A block without the opcode marker is narration: ok is false and err is nil.
// A block with the marker but an unusable payload returns an error; the caller
// treats that as narration too, after reporting it.
func ParseCommand(body string) (Command, bool, error) {
	if !strings.Contains(body, opcodeMarker) {
		return Command{}, false, nil
	}
	payload := ""
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, payloadMarker) {
			payload = strings.TrimSpace(strings.TrimPrefix(line, payloadMarker))
			break
		}
	}
	if payload == "" {
		return Command{}, false, fmt.Errorf("opcode without payload line")
	}
	var cmd Command
	if err := json.Unmarshal([]byte(payload), &cmd); err != nil {
		return Command{}, false, fmt.Errorf("parse payload: %w", err)
	}
	if cmd.Type == "" {
		return Command{}, false, fmt.Errorf("payload missing type")
	}
	return cmd, true, nil
}

// Known reports whether t is in the closed command set.
func Known(t string) bool {
	switch t {
	case TypeCreateTask, TypeConfirm, TypeRebalance:
		return true
	}
	return false
}
