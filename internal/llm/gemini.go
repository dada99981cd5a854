package llm

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/genai"

	"conductor/internal/config"
	"conductor/internal/domain"
)

// Gemini talks to the Gemini API through the genai SDK.
type Gemini struct {
	client      *genai.Client
	model       string
	system      string
	temperature float32
	maxTokens   int32
}

// NewGemini creates a Gemini client. The API key is required here; use
// FromEnv to fall back to the offline client when no key is configured.
func NewGemini(ctx context.Context, apiKey, system string, cfg *config.Config) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Gemini{
		client:      client,
		model:       cfg.Model.Name,
		system:      system,
		temperature: float32(cfg.Model.Temperature),
		maxTokens:   int32(cfg.Model.MaxOutputTokens),
	}, nil
}

// FromEnv builds the boundary client: Gemini when the configured key env var
// is set, otherwise the offline demo client so the directive pipeline still
// runs without credentials.
func FromEnv(ctx context.Context, system string, cfg *config.Config) (Client, error) {
	key := os.Getenv(cfg.Model.APIKeyEnv)
	if key == "" {
		return Offline{}, nil
	}
	return NewGemini(ctx, key, system, cfg)
}

func (g *Gemini) Configured() bool { return true }

// roleFor maps a chat sender to the genai conversation role.
func roleFor(sender string) genai.Role {
	if sender == "ai" {
		return genai.RoleModel
	}
	return genai.RoleUser
}

func (g *Gemini) Send(ctx context.Context, history []domain.ChatMessage, message string) (string, error) {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, m := range history {
		contents = append(contents, genai.NewContentFromText(m.Content, roleFor(m.Sender)))
	}
	contents = append(contents, genai.NewContentFromText(message, genai.RoleUser))

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(g.system, genai.RoleUser),
		Temperature:       genai.Ptr(g.temperature),
		MaxOutputTokens:   g.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "Нет ответа от модели.", nil
	}
	return text, nil
}
