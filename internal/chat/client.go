// Package chat talks to a local Ollama-compatible chat-completion service.
// It is a secondary surface outside the application pipeline: the user can
// ask questions about their profile or drafts without burning pipeline quota.
package chat

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
)

// maxHistoryTurns bounds how much conversation history is sent per request.
const maxHistoryTurns = 20

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Status reports whether the chat service is reachable and which models
// it has pulled locally.
type Status struct {
	Reachable bool     `json:"reachable"`
	Models    []string `json:"models"`
}

// Client calls an Ollama-style HTTP API.
type Client struct {
	http         *resty.Client
	defaultModel string
}

// NewClient creates a chat client for the given base URL (e.g.
// http://localhost:11434).
func NewClient(baseURL, defaultModel string) *Client {
	return &Client{
		http:         resty.New().SetBaseURL(strings.TrimRight(baseURL, "/")),
		defaultModel: defaultModel,
	}
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type chatResponse struct {
	Message Message `json:"message"`
	Error   string  `json:"error"`
}

// Chat sends a message with a bounded window of prior turns and returns the
// assistant reply. An empty model selects the client default.
func (c *Client) Chat(ctx context.Context, model, system string, history []Message, message string) (string, error) {
	if model == "" {
		model = c.defaultModel
	}
	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}

	messages := make([]Message, 0, len(history)+2)
	if system != "" {
		messages = append(messages, Message{Role: "system", Content: system})
	}
	messages = append(messages, history...)
	messages = append(messages, Message{Role: "user", Content: message})

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(chatRequest{Model: model, Messages: messages, Stream: false}).
		Post("/api/chat")
	if err != nil {
		return "", &ServiceError{Kind: KindUnreachable, Message: "chat service is not reachable", Cause: err}
	}

	var parsed chatResponse
	if jsonErr := json.Unmarshal(resp.Body(), &parsed); jsonErr != nil && resp.IsSuccess() {
		return "", &ServiceError{Kind: KindBadResponse, Message: "failed to decode chat response", Cause: jsonErr}
	}

	if !resp.IsSuccess() {
		return "", classifyFailure(resp.StatusCode(), parsed.Error, model)
	}
	if strings.TrimSpace(parsed.Message.Content) == "" {
		return "", &ServiceError{Kind: KindBadResponse, Message: "chat service returned an empty reply"}
	}
	return parsed.Message.Content, nil
}

// classifyFailure maps a non-2xx response onto an ErrorKind. Status codes
// are the primary signal; the error body text is only consulted as a
// fallback because Ollama reports missing models with a 404.
func classifyFailure(status int, body, model string) *ServiceError {
	switch {
	case status == http.StatusNotFound:
		return &ServiceError{Kind: KindModelNotFound, Message: "model " + model + " is not available locally"}
	case strings.Contains(strings.ToLower(body), "not found") && strings.Contains(strings.ToLower(body), "model"):
		return &ServiceError{Kind: KindModelNotFound, Message: "model " + model + " is not available locally"}
	default:
		msg := body
		if msg == "" {
			msg = "chat service returned an unexpected response"
		}
		return &ServiceError{Kind: KindBadResponse, Message: msg}
	}
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// CheckStatus reports service reachability and the locally available models.
// An unreachable service is not an error: the status itself is the answer.
func (c *Client) CheckStatus(ctx context.Context) Status {
	resp, err := c.http.R().SetContext(ctx).Get("/api/tags")
	if err != nil || !resp.IsSuccess() {
		if err != nil {
			log.Printf("[chat] status check failed: %v", err)
		}
		return Status{Reachable: false}
	}

	var parsed tagsResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return Status{Reachable: true}
	}

	models := make([]string, 0, len(parsed.Models))
	for _, m := range parsed.Models {
		models = append(models, m.Name)
	}
	return Status{Reachable: true, Models: models}
}
