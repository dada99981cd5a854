// Package conductorsdk is a minimal Conductor HTTP API client.
package conductorsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Client is a minimal Conductor HTTP API client.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 30 * time.Second,
	}
}

// API models (partial).

type ChatMessage struct {
	ID        string `json:"id"`
	Sender    string `json:"sender"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

type SendResult struct {
	Message ChatMessage `json:"message"`
	Applied int         `json:"applied"`
}

type Task struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Status       string `json:"status"`
	AssigneeRole string `json:"assignee_role"`
	Origin       string `json:"origin"`
}

type ConfirmResult struct {
	Task    Task `json:"task"`
	Changed bool `json:"changed"`
}

type TeamMember struct {
	ID            string `json:"id"`
	Role          string `json:"role"`
	Name          string `json:"name"`
	Effectiveness int    `json:"effectiveness"`
	Workload      int    `json:"workload"`
}

type Proposal struct {
	ID      string   `json:"id"`
	Reason  string   `json:"reason"`
	Changes []string `json:"changes"`
	Impact  string   `json:"impact"`
	Status  string   `json:"status"`
}

type AcceptResult struct {
	Member  TeamMember `json:"member"`
	Cleared int        `json:"cleared"`
}

type Project struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Class  string   `json:"class"`
	KPIs   []string `json:"kpis"`
	Status string   `json:"status"`
}

type Event struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts"`
	Type       string         `json:"type"`
	EntityKind string         `json:"entity_kind"`
	EntityID   string         `json:"entity_id"`
	Payload    map[string]any `json:"payload"`
}

type Status struct {
	Project    *Project       `json:"project"`
	Progress   float64        `json:"progress"`
	TaskCounts map[string]int `json:"task_counts"`
	Proposals  int            `json:"proposals"`
	Thinking   bool           `json:"thinking"`
	Configured bool           `json:"configured"`
}

// APIError is the error envelope returned by the server.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d %s: %s", e.StatusCode, e.Code, e.Message)
}

func (c *Client) Send(ctx context.Context, content string) (SendResult, error) {
	var out SendResult
	err := c.post(ctx, "/chat/messages", map[string]string{"content": content}, &out)
	return out, err
}

func (c *Client) Messages(ctx context.Context, n int) ([]ChatMessage, error) {
	var out []ChatMessage
	err := c.get(ctx, "/chat/messages"+tailQuery(n), &out)
	return out, err
}

func (c *Client) Tasks(ctx context.Context, status string) ([]Task, error) {
	path := "/tasks"
	if status != "" {
		path += "?status=" + status
	}
	var out []Task
	err := c.get(ctx, path, &out)
	return out, err
}

func (c *Client) ConfirmTask(ctx context.Context, id string) (ConfirmResult, error) {
	var out ConfirmResult
	err := c.post(ctx, "/tasks/"+id+"/confirm", nil, &out)
	return out, err
}

func (c *Client) Team(ctx context.Context) ([]TeamMember, error) {
	var out []TeamMember
	err := c.get(ctx, "/team", &out)
	return out, err
}

func (c *Client) Proposals(ctx context.Context) ([]Proposal, error) {
	var out []Proposal
	err := c.get(ctx, "/proposals", &out)
	return out, err
}

func (c *Client) AcceptProposal(ctx context.Context, id string) (AcceptResult, error) {
	var out AcceptResult
	err := c.post(ctx, "/proposals/"+id+"/accept", nil, &out)
	return out, err
}

func (c *Client) RejectProposal(ctx context.Context, id string) error {
	return c.post(ctx, "/proposals/"+id+"/reject", nil, nil)
}

func (c *Client) Projects(ctx context.Context) ([]Project, error) {
	var out []Project
	err := c.get(ctx, "/projects", &out)
	return out, err
}

func (c *Client) Status(ctx context.Context) (Status, error) {
	var out Status
	err := c.get(ctx, "/status", &out)
	return out, err
}

func (c *Client) Events(ctx context.Context, n int) ([]Event, error) {
	var out []Event
	err := c.get(ctx, "/events"+tailQuery(n), &out)
	return out, err
}

func tailQuery(n int) string {
	if n <= 0 {
		return ""
	}
	return "?n=" + strconv.Itoa(n)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimSuffix(c.BaseURL, "/")+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	hc := c.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: c.Timeout}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var envelope struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(data, &envelope) == nil {
			apiErr.Code = envelope.Error.Code
			apiErr.Message = envelope.Error.Message
		}
		if apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}
