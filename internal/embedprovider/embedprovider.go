// Package embedprovider is the Embedding Cache's (C5) external
// collaborator: text-to-vector conversion. Adapted from a
// batch/pool-oriented Embedder interface (built for bulk document-chunk
// embedding at ingestion time) down to the single `Embed(ctx, text)` call
// this domain actually issues per recommendation request.
package embedprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nyx-moment/moment/internal/logger"
	"github.com/nyx-moment/moment/internal/models/utils/ollama"
	ollamaapi "github.com/ollama/ollama/api"
)

// Provider converts a retrieval query text into a fixed-dimension vector.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// OllamaProvider embeds via a local Ollama instance, reusing the shared
// OllamaService wrapper (heartbeat check, lazy model pull).
type OllamaProvider struct {
	service    *ollama.OllamaService
	modelName  string
	dimensions int
}

// NewOllamaProvider wraps an already-constructed OllamaService.
func NewOllamaProvider(service *ollama.OllamaService, modelName string, dimensions int) *OllamaProvider {
	if modelName == "" {
		modelName = "nomic-embed-text"
	}
	return &OllamaProvider{service: service, modelName: modelName, dimensions: dimensions}
}

func (p *OllamaProvider) Dimensions() int { return p.dimensions }

func (p *OllamaProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := p.service.EnsureModelAvailable(ctx, p.modelName); err != nil {
		return nil, fmt.Errorf("embedprovider(ollama): model unavailable: %w", err)
	}

	resp, err := p.service.Embeddings(ctx, &ollamaapi.EmbedRequest{
		Model: p.modelName,
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("embedprovider(ollama): embed request: %w", err)
	}
	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("embedprovider(ollama): empty response")
	}
	return resp.Embeddings[0], nil
}

// OpenAIProvider embeds via an OpenAI-compatible HTTP endpoint, with the
// same bounded-retry backoff loop, trimmed to the single-text path.
type OpenAIProvider struct {
	apiKey     string
	baseURL    string
	modelName  string
	dimensions int
	httpClient *http.Client
	maxRetries int
}

// NewOpenAIProvider constructs an OpenAI-compatible embedding client.
func NewOpenAIProvider(apiKey, baseURL, modelName string, dimensions int) *OpenAIProvider {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &OpenAIProvider{
		apiKey:     apiKey,
		baseURL:    baseURL,
		modelName:  modelName,
		dimensions: dimensions,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		maxRetries: 3,
	}
}

func (p *OpenAIProvider) Dimensions() int { return p.dimensions }

type openAIEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type openAIEmbedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(openAIEmbedRequest{Model: p.modelName, Input: []string{text}})
	if err != nil {
		return nil, fmt.Errorf("embedprovider(openai): marshal request: %w", err)
	}

	resp, err := p.doWithRetry(ctx, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("embedprovider(openai): read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedprovider(openai): http status %s", resp.Status)
	}

	var parsed openAIEmbedResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("embedprovider(openai): unmarshal response: %w", err)
	}
	if len(parsed.Data) == 0 {
		return nil, fmt.Errorf("embedprovider(openai): empty response")
	}
	return parsed.Data[0].Embedding, nil
}

func (p *OpenAIProvider) doWithRetry(ctx context.Context, body []byte) (*http.Response, error) {
	url := p.baseURL + "/embeddings"
	var lastErr error

	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			if backoff > 10*time.Second {
				backoff = 10 * time.Second
			}
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("embedprovider(openai): build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+p.apiKey)

		resp, err := p.httpClient.Do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		logger.Errorf(ctx, "embedprovider(openai): attempt %d/%d failed: %v", attempt+1, p.maxRetries+1, err)
	}
	return nil, lastErr
}
