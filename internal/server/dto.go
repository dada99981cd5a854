package server

import "conductor/internal/domain"

// Request payloads

type SendMessageRequest struct {
	Content string `json:"content" minLength:"1"`
}

type CreateTaskRequest struct {
	Title        string `json:"title,omitempty"`
	Description  string `json:"description,omitempty"`
	AssigneeRole string `json:"assignee_role,omitempty"`
}

type CreateProjectRequest struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Class       string   `json:"class,omitempty" enum:"A_IT,A_MKT,A_DATA,A_OPS,A_SALES,A_HYBRID"`
	KPIs        []string `json:"kpis,omitempty"`
	Goals       []string `json:"goals,omitempty"`
	Subgoals    []string `json:"subgoals,omitempty"`
	Temperature float64  `json:"temperature,omitempty"`
}

// Response payloads

type SendMessageResponse struct {
	Message domain.ChatMessage `json:"message"`
	Applied int                `json:"applied"`
}

type ConfirmTaskResponse struct {
	Task    domain.Task `json:"task"`
	Changed bool        `json:"changed"`
}

type AcceptProposalResponse struct {
	Member  domain.TeamMember `json:"member"`
	Cleared int               `json:"cleared"`
}

type StatusResponse struct {
	Project    *domain.Project `json:"project,omitempty"`
	Progress   float64         `json:"progress"`
	TaskCounts map[string]int  `json:"task_counts"`
	Proposals  int             `json:"proposals"`
	Thinking   bool            `json:"thinking"`
	Configured bool            `json:"configured"`
}
