package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ShayCichocki/o1/pkg/models"
)

// DefaultOllamaURL is where a local Ollama server listens.
const DefaultOllamaURL = "http://localhost:11434"

// OllamaClient talks to Ollama's OpenAI-compatible chat completions endpoint.
type OllamaClient struct {
	baseURL    string
	apiKey     string
	maxTokens  int
	httpClient *http.Client
	tracker    *TokenTracker
}

// OllamaConfig contains configuration for creating a new OllamaClient.
type OllamaConfig struct {
	// BaseURL is the server root, e.g. http://localhost:11434.
	BaseURL string
	// APIKey is sent as a bearer token when set (proxies, hosted endpoints).
	APIKey string
	// MaxTokens caps each completion; zero leaves it to the server.
	MaxTokens int
	// HTTPClient overrides the default client.
	HTTPClient *http.Client
}

// NewOllamaClient creates a client for an Ollama server.
func NewOllamaClient(cfg OllamaConfig) *OllamaClient {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Minute}
	}
	return &OllamaClient{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		maxTokens:  cfg.MaxTokens,
		httpClient: httpClient,
		tracker:    NewTokenTracker(),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func chatMessages(conv models.Conversation) []chatMessage {
	out := make([]chatMessage, 0, len(conv))
	for _, m := range conv {
		out = append(out, chatMessage{Role: string(m.Role), Content: m.Content})
	}
	return out
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
	Stream    bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Tracker returns the token tracker for this client.
func (c *OllamaClient) Tracker() *TokenTracker {
	return c.tracker
}

// Complete sends a system+user conversation and returns the assistant reply.
func (c *OllamaClient) Complete(ctx context.Context, model, system, user string) (string, error) {
	fail := func(err error) (string, error) {
		return "", &GenerationError{Backend: "ollama", Model: model, Err: err}
	}

	body, err := json.Marshal(chatRequest{
		Model:     model,
		Messages:  chatMessages(models.NewConversation(system, user)),
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		return fail(fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return fail(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fail(fmt.Errorf("send request: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fail(fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return fail(fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fail(fmt.Errorf("decode response: %w", err))
	}
	if parsed.Error != nil {
		return fail(fmt.Errorf("server error: %s", parsed.Error.Message))
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return fail(ErrEmptyCompletion)
	}

	c.tracker.Add(parsed.Usage.PromptTokens, parsed.Usage.CompletionTokens)
	return parsed.Choices[0].Message.Content, nil
}

var _ Completer = (*OllamaClient)(nil)
