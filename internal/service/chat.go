package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/set-night/primeminister/internal/config"
	"github.com/set-night/primeminister/internal/domain"
	"github.com/shopspring/decimal"
)

// ChatClient talks to an OpenAI-compatible chat completions API (OpenAI,
// OpenRouter, or any gateway exposing the same surface).
type ChatClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	cache      *ModelsCache
}

func NewChatClient(baseURL, apiKey string, timeout time.Duration) *ChatClient {
	if baseURL == "" {
		baseURL = config.DefaultAPIURL
	}
	return &ChatClient{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		cache:      NewModelsCache(config.ModelCacheDuration),
	}
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int     `json:"prompt_tokens"`
		CompletionTokens int     `json:"completion_tokens"`
		Cost             float64 `json:"cost"`
		TotalCost        float64 `json:"total_cost"`
	} `json:"usage"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

type Model struct {
	ID            string
	Name          string
	ContextLength int
}

// Complete sends one system+user exchange and returns the first choice.
// Every failure wraps domain.ErrProvider.
func (c *ChatClient) Complete(ctx context.Context, req domain.CompletionRequest) (*domain.Completion, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: api key is not configured", domain.ErrProvider)
	}

	temperature := &req.Temperature
	// Skip temperature for Gemini models
	if strings.Contains(strings.ToLower(req.Model), "gemini") {
		temperature = nil
	}

	messages := make([]ChatMessage, 0, 2)
	if strings.TrimSpace(req.SystemPrompt) != "" {
		messages = append(messages, ChatMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, ChatMessage{Role: "user", Content: req.UserContent})

	payload, err := json.Marshal(ChatRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %w", domain.ErrProvider, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %w", domain.ErrProvider, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: chat request: %w", domain.ErrProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: rate limited (429)", domain.ErrProvider)
	}
	if resp.StatusCode == http.StatusServiceUnavailable {
		return nil, fmt.Errorf("%w: service unavailable (503)", domain.ErrProvider)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", domain.ErrProvider, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrProvider, resp.StatusCode, errorMessage(body))
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("%w: parse response: %w", domain.ErrProvider, err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("%w: response has no choices", domain.ErrProvider)
	}

	cost := chatResp.Usage.Cost
	if cost == 0 {
		cost = chatResp.Usage.TotalCost
	}

	slog.Debug("completion received",
		"caller", req.Caller,
		"stage", req.Stage,
		"model", req.Model,
		"duration", time.Since(start),
		"completion_tokens", chatResp.Usage.CompletionTokens,
	)

	return &domain.Completion{
		Text: chatResp.Choices[0].Message.Content,
		Usage: domain.Usage{
			PromptTokens:     chatResp.Usage.PromptTokens,
			CompletionTokens: chatResp.Usage.CompletionTokens,
			Cost:             decimal.NewFromFloat(cost),
		},
	}, nil
}

func errorMessage(body []byte) string {
	var e apiError
	if err := json.Unmarshal(body, &e); err == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 512 {
		msg = msg[:512]
	}
	return msg
}

func (c *ChatClient) ListModels(ctx context.Context) ([]Model, error) {
	if cached := c.cache.Get(); cached != nil {
		return cached, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch models: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch models: status %d: %s", resp.StatusCode, errorMessage(body))
	}

	var result struct {
		Data []struct {
			ID            string `json:"id"`
			Name          string `json:"name"`
			ContextLength int    `json:"context_length"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parse models: %w", err)
	}

	models := make([]Model, 0, len(result.Data))
	for _, m := range result.Data {
		name := m.Name
		if name == "" {
			name = m.ID
		}
		models = append(models, Model{ID: m.ID, Name: name, ContextLength: m.ContextLength})
	}

	c.cache.Set(models)
	return models, nil
}

func (c *ChatClient) GetModel(ctx context.Context, modelID string) (*Model, error) {
	models, err := c.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	for _, m := range models {
		if m.ID == modelID {
			return &m, nil
		}
	}
	return nil, domain.ErrModelNotFound
}

// CheckCouncilModels returns the distinct roster models the provider does
// not list.
func (c *ChatClient) CheckCouncilModels(ctx context.Context, council *domain.Council) ([]string, error) {
	wanted := []string{council.Model}
	for _, m := range council.Members {
		wanted = append(wanted, m.Model)
	}
	var missing []string
	seen := make(map[string]bool)
	for _, id := range wanted {
		if seen[id] {
			continue
		}
		seen[id] = true
		if _, err := c.GetModel(ctx, id); err != nil {
			if errors.Is(err, domain.ErrModelNotFound) {
				missing = append(missing, id)
				continue
			}
			return nil, err
		}
	}
	return missing, nil
}
