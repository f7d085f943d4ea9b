package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"
)

const (
	defaultEmbeddingModel = "text-embedding-004"
	// maxEmbedBatch is the number of texts sent in one EmbedContent request.
	maxEmbedBatch = 100
	taskType      = "SEMANTIC_SIMILARITY"
)

// Embedder maps texts to vectors with the Gemini embedding endpoint.
type Embedder struct {
	models modelsAPI
	model  string

	mu        sync.Mutex
	dimension int
}

// NewEmbedder creates an Embedder for the Gemini API backend.
func NewEmbedder(ctx context.Context, apiKey, model string) (*Embedder, error) {
	models, err := newModels(ctx, apiKey)
	if err != nil {
		return nil, err
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultEmbeddingModel
	}

	return &Embedder{models: models, model: model}, nil
}

func (e *Embedder) Name() string { return providerName }

// Dimension is known after the first successful call.
func (e *Embedder) Dimension() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dimension
}

// Embed returns one vector per input text, in input order.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if e == nil || e.models == nil {
		return nil, errors.New("gemini embedder is not initialized")
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxEmbedBatch {
		end := min(start+maxEmbedBatch, len(texts))

		contents := make([]*genai.Content, 0, end-start)
		for _, text := range texts[start:end] {
			contents = append(contents, genai.NewContentFromText(text, genai.RoleUser))
		}

		resp, err := e.models.EmbedContent(ctx, e.model, contents, &genai.EmbedContentConfig{TaskType: taskType})
		if err != nil {
			return nil, fmt.Errorf("embed content: %w", err)
		}
		if resp == nil || len(resp.Embeddings) != end-start {
			got := 0
			if resp != nil {
				got = len(resp.Embeddings)
			}
			return nil, fmt.Errorf("gemini returned %d embeddings for %d texts", got, end-start)
		}

		for _, embedding := range resp.Embeddings {
			if embedding == nil || len(embedding.Values) == 0 {
				return nil, errors.New("gemini returned an empty embedding")
			}
			out = append(out, embedding.Values)
		}
	}

	if len(out) > 0 {
		e.mu.Lock()
		e.dimension = len(out[0])
		e.mu.Unlock()
	}

	return out, nil
}

// Close is a no-op; the genai client holds no resources that need releasing.
func (e *Embedder) Close() error { return nil }
