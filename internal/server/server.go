// Package server exposes the session over HTTP. Display and interpretation
// stay decoupled: the chat endpoint always returns the reply message even
// when every directive inside it was a no-op.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"conductor/internal/domain"
	"conductor/internal/engine"
	"conductor/internal/orchestrator"
)

// Config for the HTTP API handler.
type Config struct {
	Session  *orchestrator.Session
	BasePath string
}

type apiErrorBody struct {
	Code    string `json:"code" example:"not_found"`
	Message string `json:"message" example:"task not found"`
}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

func newAPIError(status int, code, message string) huma.StatusError {
	if code == "" {
		code = strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
	return &apiError{status: status, Body: apiErrorBody{Code: code, Message: message}}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, orchestrator.ErrBusy):
		return newAPIError(http.StatusConflict, "busy", err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return newAPIError(http.StatusServiceUnavailable, "aborted", err.Error())
	default:
		return newAPIError(http.StatusInternalServerError, "internal_error", err.Error())
	}
}

// New returns an HTTP handler exposing the Conductor API.
func New(cfg Config) (http.Handler, error) {
	if cfg.Session == nil {
		return nil, errors.New("session is required")
	}
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v0"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg)
	}

	router := chi.NewRouter()
	hcfg := huma.DefaultConfig("Conductor API", "0.1.0")
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerHealth(group)
	registerStatus(group, cfg.Session)
	registerChat(group, cfg.Session)
	registerTasks(group, cfg.Session)
	registerTeam(group, cfg.Session)
	registerProposals(group, cfg.Session)
	registerProjects(group, cfg.Session)
	registerContext(group, cfg.Session)
	registerEvents(group, cfg.Session)

	return router, nil
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerStatus(api huma.API, s *orchestrator.Session) {
	huma.Register(api, huma.Operation{
		OperationID: "status",
		Method:      http.MethodGet,
		Path:        "/status",
		Summary:     "Session status",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body StatusResponse `json:"body"`
	}, error) {
		resp := StatusResponse{
			Progress:   s.Engine.Store.Progress(),
			TaskCounts: s.Engine.Store.CountTasksByStatus(),
			Proposals:  len(s.Engine.Store.Proposals()),
			Thinking:   s.Thinking(),
			Configured: s.Client.Configured(),
		}
		if p, ok := s.Engine.Store.ActiveProject(); ok {
			resp.Project = &p
		}
		return &struct {
			Body StatusResponse `json:"body"`
		}{Body: resp}, nil
	})
}

func registerChat(api huma.API, s *orchestrator.Session) {
	huma.Register(api, huma.Operation{
		OperationID: "list-messages",
		Method:      http.MethodGet,
		Path:        "/chat/messages",
		Summary:     "Conversation history",
	}, func(ctx context.Context, input *struct {
		N int `query:"n" minimum:"0" doc:"Only the last n messages (0 = all)"`
	}) (*struct {
		Body []domain.ChatMessage `json:"body"`
	}, error) {
		return &struct {
			Body []domain.ChatMessage `json:"body"`
		}{Body: s.Log.Tail(input.N)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "send-message",
		Method:        http.MethodPost,
		Path:          "/chat/messages",
		Summary:       "Send a user message to the orchestrator",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		Body SendMessageRequest `json:"body"`
	}) (*struct {
		Body SendMessageResponse `json:"body"`
	}, error) {
		if strings.TrimSpace(input.Body.Content) == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "content is required")
		}
		msg, applied, err := s.Send(ctx, input.Body.Content)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body SendMessageResponse `json:"body"`
		}{Body: SendMessageResponse{Message: msg, Applied: applied}}, nil
	})
}

func registerTasks(api huma.API, s *orchestrator.Session) {
	huma.Register(api, huma.Operation{
		OperationID: "list-tasks",
		Method:      http.MethodGet,
		Path:        "/tasks",
		Summary:     "List tasks",
	}, func(ctx context.Context, input *struct {
		Status string `query:"status" doc:"Status filter"`
	}) (*struct {
		Body []domain.Task `json:"body"`
	}, error) {
		tasks := s.Engine.Store.Tasks()
		if input.Status != "" {
			filtered := tasks[:0]
			for _, t := range tasks {
				if t.Status == input.Status {
					filtered = append(filtered, t)
				}
			}
			tasks = filtered
		}
		return &struct {
			Body []domain.Task `json:"body"`
		}{Body: tasks}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-task",
		Method:        http.MethodPost,
		Path:          "/tasks",
		Summary:       "Create a user task",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body CreateTaskRequest `json:"body"`
	}) (*struct {
		Body domain.Task `json:"body"`
	}, error) {
		if input.Body.Title == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "title is required")
		}
		t := s.Engine.CreateTask(engine.TaskCreateOptions{
			Title:        input.Body.Title,
			Description:  input.Body.Description,
			AssigneeRole: input.Body.AssigneeRole,
			Origin:       domain.OriginUser,
		})
		return &struct {
			Body domain.Task `json:"body"`
		}{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "confirm-task",
		Method:      http.MethodPost,
		Path:        "/tasks/{task_id}/confirm",
		Summary:     "Confirm a waiting task",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		TaskID string `path:"task_id"`
	}) (*struct {
		Body ConfirmTaskResponse `json:"body"`
	}, error) {
		if _, ok := s.Engine.Store.GetTask(input.TaskID); !ok {
			return nil, newAPIError(http.StatusNotFound, "not_found", "task not found")
		}
		task, changed := s.ConfirmTask(input.TaskID)
		if !changed {
			// already confirmed: idempotent success
			task, _ = s.Engine.Store.GetTask(input.TaskID)
		}
		return &struct {
			Body ConfirmTaskResponse `json:"body"`
		}{Body: ConfirmTaskResponse{Task: task, Changed: changed}}, nil
	})
}

func registerTeam(api huma.API, s *orchestrator.Session) {
	huma.Register(api, huma.Operation{
		OperationID: "list-team",
		Method:      http.MethodGet,
		Path:        "/team",
		Summary:     "Team roster",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.TeamMember `json:"body"`
	}, error) {
		return &struct {
			Body []domain.TeamMember `json:"body"`
		}{Body: s.Engine.Store.Team()}, nil
	})
}

func registerProposals(api huma.API, s *orchestrator.Session) {
	huma.Register(api, huma.Operation{
		OperationID: "list-proposals",
		Method:      http.MethodGet,
		Path:        "/proposals",
		Summary:     "Pending rebalance proposals",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.RebalanceProposal `json:"body"`
	}, error) {
		return &struct {
			Body []domain.RebalanceProposal `json:"body"`
		}{Body: s.Engine.Store.Proposals()}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "accept-proposal",
		Method:      http.MethodPost,
		Path:        "/proposals/{proposal_id}/accept",
		Summary:     "Accept a rebalance proposal",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProposalID string `path:"proposal_id"`
	}) (*struct {
		Body AcceptProposalResponse `json:"body"`
	}, error) {
		if !hasProposal(s, input.ProposalID) {
			return nil, newAPIError(http.StatusNotFound, "not_found", "proposal not found")
		}
		member, cleared := s.AcceptProposal(input.ProposalID)
		return &struct {
			Body AcceptProposalResponse `json:"body"`
		}{Body: AcceptProposalResponse{Member: member, Cleared: cleared}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "reject-proposal",
		Method:      http.MethodPost,
		Path:        "/proposals/{proposal_id}/reject",
		Summary:     "Reject a rebalance proposal",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProposalID string `path:"proposal_id"`
	}) (*struct{}, error) {
		if !s.RejectProposal(input.ProposalID) {
			return nil, newAPIError(http.StatusNotFound, "not_found", "proposal not found")
		}
		return &struct{}{}, nil
	})
}

func hasProposal(s *orchestrator.Session, id string) bool {
	for _, p := range s.Engine.Store.Proposals() {
		if p.ID == id {
			return true
		}
	}
	return false
}

func registerProjects(api huma.API, s *orchestrator.Session) {
	huma.Register(api, huma.Operation{
		OperationID: "list-projects",
		Method:      http.MethodGet,
		Path:        "/projects",
		Summary:     "List projects",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.Project `json:"body"`
	}, error) {
		return &struct {
			Body []domain.Project `json:"body"`
		}{Body: s.Engine.Store.Projects()}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-project",
		Method:      http.MethodGet,
		Path:        "/projects/{project_id}",
		Summary:     "Get project",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"project_id"`
	}) (*struct {
		Body domain.Project `json:"body"`
	}, error) {
		p, ok := s.Engine.Store.GetProject(input.ProjectID)
		if !ok {
			return nil, newAPIError(http.StatusNotFound, "not_found", "project not found")
		}
		return &struct {
			Body domain.Project `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-project",
		Method:        http.MethodPost,
		Path:          "/projects",
		Summary:       "Create project",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		Body CreateProjectRequest `json:"body"`
	}) (*struct {
		Body domain.Project `json:"body"`
	}, error) {
		if input.Body.ID == "" || input.Body.Name == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "id and name are required")
		}
		if _, exists := s.Engine.Store.GetProject(input.Body.ID); exists {
			return nil, newAPIError(http.StatusConflict, "conflict", "project already exists")
		}
		p := domain.Project{
			ID:          input.Body.ID,
			Name:        input.Body.Name,
			Description: input.Body.Description,
			Class:       input.Body.Class,
			KPIs:        input.Body.KPIs,
			Goals:       input.Body.Goals,
			Subgoals:    input.Body.Subgoals,
			Status:      "Online",
			Temperature: input.Body.Temperature,
		}
		if p.Class == "" {
			p.Class = domain.ClassHybrid
		}
		s.Engine.Store.AppendProject(p)
		return &struct {
			Body domain.Project `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "activate-project",
		Method:      http.MethodPost,
		Path:        "/projects/{project_id}/activate",
		Summary:     "Make a project the active conversation context",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"project_id"`
	}) (*struct {
		Body domain.Project `json:"body"`
	}, error) {
		if !s.Engine.Store.SetActiveProject(input.ProjectID) {
			return nil, newAPIError(http.StatusNotFound, "not_found", "project not found")
		}
		p, _ := s.Engine.Store.GetProject(input.ProjectID)
		return &struct {
			Body domain.Project `json:"body"`
		}{Body: p}, nil
	})
}

func registerContext(api huma.API, s *orchestrator.Session) {
	huma.Register(api, huma.Operation{
		OperationID: "list-context",
		Method:      http.MethodGet,
		Path:        "/context",
		Summary:     "Context panel items",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.ContextItem `json:"body"`
	}, error) {
		return &struct {
			Body []domain.ContextItem `json:"body"`
		}{Body: s.Engine.Store.ContextItems()}, nil
	})
}

func registerEvents(api huma.API, s *orchestrator.Session) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "Activity journal",
	}, func(ctx context.Context, input *struct {
		N int `query:"n" minimum:"0" doc:"Only the last n entries (0 = all)"`
	}) (*struct {
		Body []domain.Event `json:"body"`
	}, error) {
		return &struct {
			Body []domain.Event `json:"body"`
		}{Body: s.Engine.Journal.Latest(input.N)}, nil
	})
}
