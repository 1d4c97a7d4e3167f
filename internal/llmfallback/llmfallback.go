// Package llmfallback is the Pipeline Orchestrator's (C13) last-resort
// collaborator (D5): a structured-JSON recommendation generator invoked
// only when both the vector Retrieval Client and the catalog-backed
// fallback search have failed. Uses a source-switched construction
// pattern (remote chat-completion over go-openai, local generation over
// the shared OllamaService), adapted from free-form conversational chat
// to one structured generation call per recommendation request.
package llmfallback

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nyx-moment/moment/internal/common"
	"github.com/nyx-moment/moment/internal/models/utils/ollama"
	"github.com/nyx-moment/moment/internal/types"
	ollamaapi "github.com/ollama/ollama/api"
	openai "github.com/sashabaranov/go-openai"
)

// Generator produces a best-effort candidate list when no retrieval
// backend is reachable, deriving plausible catalog items from the query
// text and filter alone.
type Generator interface {
	Generate(ctx context.Context, domain types.Domain, queryText string, filter types.FilterPredicate, count int) ([]types.Candidate, error)
}

const systemPrompt = `You are a catalog fallback for a recommendation service. ` +
	`Given a domain, a natural-language description of what the user wants, and ` +
	`a set of filter constraints, respond with ONLY a JSON array of candidate ` +
	`items. Each item must have exactly these fields: "id" (a short slug string), ` +
	`"title" (string), "releaseYear" (int), "genreTags" (array of lowercase ` +
	`strings), "qualityScore" (float 0-10), "popularityScore" (float 0-100), ` +
	`"voteCount" (int), "runtimeMinutes" (int). Do not include any prose, ` +
	`markdown, or explanation outside the JSON array.`

// RemoteGenerator calls an OpenAI-compatible chat-completion endpoint.
// Wraps github.com/sashabaranov/go-openai.
type RemoteGenerator struct {
	client    *openai.Client
	modelName string
}

// NewRemoteGenerator constructs a Generator over an OpenAI-compatible API.
func NewRemoteGenerator(apiKey, baseURL, modelName string) *RemoteGenerator {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &RemoteGenerator{client: openai.NewClientWithConfig(cfg), modelName: modelName}
}

func (g *RemoteGenerator) Generate(ctx context.Context, domain types.Domain, queryText string, filter types.FilterPredicate, count int) ([]types.Candidate, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.modelName,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(domain, queryText, filter, count)},
		},
		Temperature: 0.7,
	})
	if err != nil {
		return nil, fmt.Errorf("llmfallback(remote): create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("llmfallback(remote): empty response")
	}
	return parseCandidates(resp.Choices[0].Message.Content, count)
}

// OllamaGenerator calls a local Ollama chat model, reusing the shared
// OllamaService wrapper the Embedding Cache's OllamaProvider also uses.
type OllamaGenerator struct {
	service   *ollama.OllamaService
	modelName string
}

// NewOllamaGenerator wraps an already-constructed OllamaService.
func NewOllamaGenerator(service *ollama.OllamaService, modelName string) *OllamaGenerator {
	return &OllamaGenerator{service: service, modelName: modelName}
}

func (g *OllamaGenerator) Generate(ctx context.Context, domain types.Domain, queryText string, filter types.FilterPredicate, count int) ([]types.Candidate, error) {
	if err := g.service.EnsureModelAvailable(ctx, g.modelName); err != nil {
		return nil, fmt.Errorf("llmfallback(ollama): model unavailable: %w", err)
	}

	var content string
	streamFlag := false
	req := &ollamaapi.ChatRequest{
		Model: g.modelName,
		Messages: []ollamaapi.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt(domain, queryText, filter, count)},
		},
		Stream: &streamFlag,
	}
	err := g.service.Chat(ctx, req, func(resp ollamaapi.ChatResponse) error {
		content = resp.Message.Content
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("llmfallback(ollama): chat request: %w", err)
	}
	return parseCandidates(content, count)
}

func userPrompt(domain types.Domain, queryText string, filter types.FilterPredicate, count int) string {
	filterJSON, _ := json.Marshal(filter)
	return fmt.Sprintf("domain: %s\nrequest: %s\nfilters: %s\ncount: %d", domain, queryText, filterJSON, count)
}

// parseCandidates extracts the JSON array from the model's response,
// tolerating a markdown code fence or surrounding prose a model might emit
// despite instructions, and truncates to count items.
func parseCandidates(content string, count int) ([]types.Candidate, error) {
	var candidates []types.Candidate
	if err := common.ParseLLMJsonResponse(content, &candidates); err == nil {
		return truncateCandidates(candidates, count), nil
	}

	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("llmfallback: no JSON array found in response")
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &candidates); err != nil {
		return nil, fmt.Errorf("llmfallback: unmarshal candidates: %w", err)
	}
	return truncateCandidates(candidates, count), nil
}

func truncateCandidates(candidates []types.Candidate, count int) []types.Candidate {
	if len(candidates) > count {
		return candidates[:count]
	}
	return candidates
}
