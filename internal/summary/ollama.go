// Package summary generates meeting notes with a local LLM served by Ollama.
package summary

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/codebuildervaibhav/meeting-pipeline/internal/types"
)

// Config points the summarizer at an Ollama server
type Config struct {
	Host        string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// OllamaSummarizer talks to Ollama through its OpenAI-compatible API
type OllamaSummarizer struct {
	client *openai.Client
	cfg    Config
}

// NewOllamaSummarizer creates a summarizer for cfg.Model on cfg.Host
func NewOllamaSummarizer(cfg Config) *OllamaSummarizer {
	if cfg.Host == "" {
		cfg.Host = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "llama3.2"
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.3
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 2000
	}

	// Ollama ignores the key but the client requires one
	clientCfg := openai.DefaultConfig("ollama")
	clientCfg.BaseURL = strings.TrimSuffix(cfg.Host, "/") + "/v1"

	log.Printf("SummarizerService initialized (model: %s, host: %s)", cfg.Model, cfg.Host)
	return &OllamaSummarizer{client: openai.NewClientWithConfig(clientCfg), cfg: cfg}
}

// CheckAvailability verifies that Ollama answers and has the model pulled
func (s *OllamaSummarizer) CheckAvailability(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	models, err := s.client.ListModels(ctx)
	if err != nil {
		return types.Errorf(types.ServiceUnavailable, "summarizer", "ollama not accessible: %v", err)
	}

	var available []string
	for _, m := range models.Models {
		if hasModel(m.ID, s.cfg.Model) {
			return nil
		}
		available = append(available, m.ID)
	}
	return types.Errorf(types.ServiceUnavailable, "summarizer",
		"model %s not found. Available: %s", s.cfg.Model, strings.Join(available, ", "))
}

// hasModel matches "llama3.2" against "llama3.2:latest" and exact tags.
func hasModel(id, want string) bool {
	if id == want {
		return true
	}
	name, _, _ := strings.Cut(id, ":")
	return name == want
}

// Summarize generates notes for the transcript, folding in the Q&A context
func (s *OllamaSummarizer) Summarize(ctx context.Context, t types.Transcript, c types.EnhancedContext) (*types.Summary, error) {
	reqCtx := ctx
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	log.Printf("Generating meeting summary with %s...", s.cfg.Model)
	resp, err := s.client.CreateChatCompletion(reqCtx, openai.ChatCompletionRequest{
		Model: s.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt(c)},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(t, c)},
		},
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxTokens,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if reqCtx.Err() != nil {
			return nil, types.Errorf(types.ModelError, "summarizer", "no response within %s", s.cfg.Timeout)
		}
		return nil, classify(err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, types.Errorf(types.ModelError, "summarizer", "empty response from %s", s.cfg.Model)
	}

	summary := ParseResponse(resp.Choices[0].Message.Content)
	summary.Model = s.cfg.Model
	log.Printf("Summary generated: %d key points, %d action items, %d decisions",
		len(summary.KeyPoints), len(summary.ActionItems), len(summary.Decisions))
	return summary, nil
}

// classify maps API errors to ModelError and transport errors to
// ServiceUnavailable.
func classify(err error) error {
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		if apiErr.HTTPStatusCode == 404 {
			return types.NewError(types.ServiceUnavailable, "summarizer", err)
		}
		return types.NewError(types.ModelError, "summarizer", err)
	case errors.As(err, &reqErr):
		return types.NewError(types.ModelError, "summarizer", err)
	}
	return types.NewError(types.ServiceUnavailable, "summarizer", fmt.Errorf("ollama request failed: %w", err))
}
