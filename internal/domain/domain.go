package domain

// Task statuses. The interpreter only ever assigns StatusWaitingApproval and
// StatusConfirmed; the remaining values come from seeded or user-managed tasks.
const (
	StatusBacklog         = "backlog"
	StatusInProgress      = "in_progress"
	StatusWaitingApproval = "waiting_approval"
	StatusDone            = "done"
	StatusConfirmed       = "confirmed_by_user"
)

// Task origins.
const (
	OriginAI   = "ai"
	OriginUser = "user"
)

// Rebalance proposal statuses.
const (
	ProposalSuggested = "suggested"
	ProposalApplied   = "applied"
	ProposalRejected  = "rejected"
)

// Project classifications.
const (
	ClassIT     = "A_IT"
	ClassMkt    = "A_MKT"
	ClassData   = "A_DATA"
	ClassOps    = "A_OPS"
	ClassSales  = "A_SALES"
	ClassHybrid = "A_HYBRID"
)

type Task struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	Status       string `json:"status" enum:"backlog,in_progress,waiting_approval,done,confirmed_by_user"`
	AssigneeRole string `json:"assignee_role,omitempty"`
	Origin       string `json:"origin" enum:"ai,user"`
	CreatedAt    string `json:"created_at" format:"date-time"`
}

type TeamMember struct {
	ID            string `json:"id"`
	Role          string `json:"role"`
	Name          string `json:"name"`
	Effectiveness int    `json:"effectiveness" minimum:"0" maximum:"100"`
	Workload      int    `json:"workload" minimum:"0" maximum:"100"`
	IsAnomaly     bool   `json:"is_anomaly,omitempty"`
}

type RebalanceProposal struct {
	ID        string   `json:"id"`
	Reason    string   `json:"reason"`
	Changes   []string `json:"changes"`
	Impact    string   `json:"impact"`
	Status    string   `json:"status" enum:"suggested,applied,rejected"`
	CreatedAt string   `json:"created_at" format:"date-time"`
}

type Project struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description,omitempty"`
	Class           string   `json:"class" enum:"A_IT,A_MKT,A_DATA,A_OPS,A_SALES,A_HYBRID"`
	KPIs            []string `json:"kpis"`
	Goals           []string `json:"goals"`
	Subgoals        []string `json:"subgoals"`
	Status          string   `json:"status" enum:"Online,Offline"`
	TrustScore      int      `json:"trust_score"`
	DataScore       int      `json:"data_score"`
	ComplexityScore int      `json:"complexity_score"`
	Temperature     float64  `json:"temperature"`
}

type ChatMessage struct {
	ID        string `json:"id"`
	Sender    string `json:"sender" enum:"user,ai"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp" format:"date-time"`
}

type ContextItem struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Type    string `json:"type" enum:"doc,decision,history"`
	Date    string `json:"date"`
	Content string `json:"content,omitempty"`
}

// Event is one entry in the in-memory activity journal.
type Event struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts" format:"date-time"`
	Type       string         `json:"type"`
	EntityKind string         `json:"entity_kind"`
	EntityID   string         `json:"entity_id,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
}
