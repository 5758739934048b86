// Package backend ties the memory subsystem to the text generator:
// it hosts the generator client, the per-conversation backend, and the
// session registry.
package backend

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// Turn is one prior conversation turn handed to the generator.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a single generation request: system context, prior turns,
// and the new utterance, routed to a concrete model.
type Request struct {
	Model         string
	SystemContext string
	History       []Turn
	UserMessage   string
}

// Generator is the external text generator. Failures are surfaced to the
// caller as-is; no retry or backoff happens at this layer.
type Generator interface {
	// Generate produces a complete response.
	Generate(ctx context.Context, req Request) (string, error)

	// Stream produces the response as text fragments fed to fn. The
	// stream is finite and not restartable; it terminates naturally or
	// on upstream error.
	Stream(ctx context.Context, req Request, fn func(chunk string) error) error
}

// Level is the coarse intelligence routing tier for a conversation.
type Level string

// The closed set of routing tiers.
const (
	LevelNano     Level = "nano"
	LevelStandard Level = "standard"
	LevelSuper    Level = "super"
	LevelQuantum  Level = "quantum"
)

// modelByLevel routes each tier to a generator model.
var modelByLevel = map[Level]string{
	LevelNano:     "phi",
	LevelStandard: "llama2",
	LevelSuper:    "llama2",
	LevelQuantum:  "llama2",
}

// Model returns the generator model for the level. Unknown levels fall
// back to the super tier.
func (l Level) Model() string {
	if m, ok := modelByLevel[l]; ok {
		return m
	}
	return modelByLevel[LevelSuper]
}

// ParseLevel validates a level string.
func ParseLevel(s string) (Level, error) {
	l := Level(s)
	if _, ok := modelByLevel[l]; !ok {
		return "", fmt.Errorf("unknown intelligence level %q", s)
	}
	return l, nil
}

// OllamaGenerator talks to a local Ollama instance's chat API.
type OllamaGenerator struct {
	baseURL string
	client  *http.Client
}

// NewOllamaGenerator creates a generator client against $OLLAMA_HOST or
// the default local endpoint.
func NewOllamaGenerator() *OllamaGenerator {
	baseURL := os.Getenv("OLLAMA_HOST")
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &OllamaGenerator{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

type ollamaChatRequest struct {
	Model    string            `json:"model"`
	Messages []Turn            `json:"messages"`
	Stream   bool              `json:"stream"`
	Options  ollamaChatOptions `json:"options"`
}

type ollamaChatOptions struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	NumPredict  int     `json:"num_predict"`
}

type ollamaChatResponse struct {
	Message Turn `json:"message"`
	Done    bool `json:"done"`
}

func buildMessages(req Request) []Turn {
	messages := make([]Turn, 0, len(req.History)+2)
	messages = append(messages, Turn{Role: "system", Content: req.SystemContext})
	messages = append(messages, req.History...)
	messages = append(messages, Turn{Role: "user", Content: req.UserMessage})
	return messages
}

// Generate produces a complete response via a non-streaming chat call.
func (g *OllamaGenerator) Generate(ctx context.Context, req Request) (string, error) {
	body, _ := json.Marshal(ollamaChatRequest{
		Model:    req.Model,
		Messages: buildMessages(req),
		Stream:   false,
		Options:  ollamaChatOptions{Temperature: 0.7, TopP: 0.9, NumPredict: 1000},
	})

	resp, err := g.post(ctx, body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama error %d: %s", resp.StatusCode, string(b))
	}

	var result ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode ollama response: %w", err)
	}
	return result.Message.Content, nil
}

// Stream produces the response as NDJSON chunks fed to fn.
func (g *OllamaGenerator) Stream(ctx context.Context, req Request, fn func(chunk string) error) error {
	body, _ := json.Marshal(ollamaChatRequest{
		Model:    req.Model,
		Messages: buildMessages(req),
		Stream:   true,
		Options:  ollamaChatOptions{Temperature: 0.7, TopP: 0.9, NumPredict: 2000},
	})

	resp, err := g.post(ctx, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("ollama error %d: %s", resp.StatusCode, string(b))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var chunk ollamaChatResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			continue
		}
		if chunk.Message.Content != "" {
			if err := fn(chunk.Message.Content); err != nil {
				return err
			}
		}
		if chunk.Done {
			break
		}
	}
	return scanner.Err()
}

func (g *OllamaGenerator) post(ctx context.Context, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", g.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request failed: %w", err)
	}
	return resp, nil
}
