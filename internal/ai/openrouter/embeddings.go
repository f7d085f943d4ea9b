package openrouter

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/mitchellh/mapstructure"
)

const (
	defaultEmbeddingModel = "text-embedding-3-small"
	defaultBatchSize      = 32
)

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingItem struct {
	Index     int       `mapstructure:"index"`
	Embedding []float32 `mapstructure:"embedding"`
}

// Embedder calls an OpenAI-compatible /embeddings endpoint.
type Embedder struct {
	client    *Client
	model     string
	batchSize int

	mu        sync.Mutex
	dimension int
}

// NewEmbedder creates an embedder; zero batchSize selects the default.
func NewEmbedder(client *Client, model string, batchSize int) *Embedder {
	if model = strings.TrimSpace(model); model == "" {
		model = defaultEmbeddingModel
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Embedder{client: client, model: model, batchSize: batchSize}
}

func (e *Embedder) Name() string { return providerName }

func (e *Embedder) Dimension() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dimension
}

// Embed returns one vector per text in input order. Items are re-ordered by
// their reported index since providers are not required to keep request order.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if e == nil || e.client == nil {
		return nil, errors.New("openrouter embedder is not initialized")
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))

		decoded, err := e.client.postJSON(ctx, "/embeddings", embeddingRequest{Model: e.model, Input: texts[start:end]})
		if err != nil {
			return nil, fmt.Errorf("embeddings: %w", err)
		}

		var items []embeddingItem
		if err := mapstructure.Decode(decoded["data"], &items); err != nil {
			return nil, fmt.Errorf("decode embeddings: %w", err)
		}

		if len(items) != end-start {
			return nil, fmt.Errorf("provider returned %d embeddings for %d texts", len(items), end-start)
		}

		sort.SliceStable(items, func(i, j int) bool { return items[i].Index < items[j].Index })

		for _, item := range items {
			if len(item.Embedding) == 0 {
				return nil, errors.New("provider returned an empty embedding")
			}
			out = append(out, item.Embedding)
		}
	}

	if len(out) > 0 {
		e.mu.Lock()
		e.dimension = len(out[0])
		e.mu.Unlock()
	}

	return out, nil
}

func (e *Embedder) Close() error { return nil }
