package gemini

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/cv-matcher/internal/ai"
)

type fakeModels struct {
	mu sync.Mutex

	generateResp *genai.GenerateContentResponse
	generateErr  error
	generateCfgs []*genai.GenerateContentConfig
	prompts      []string

	embedBatches [][]string
	embedErr     error
	dimension    int
}

func (f *fakeModels) GenerateContent(_ context.Context, _ string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generateCfgs = append(f.generateCfgs, config)
	for _, content := range contents {
		for _, part := range content.Parts {
			f.prompts = append(f.prompts, part.Text)
		}
	}
	return f.generateResp, f.generateErr
}

func (f *fakeModels) EmbedContent(_ context.Context, _ string, contents []*genai.Content, _ *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	batch := make([]string, 0, len(contents))
	resp := &genai.EmbedContentResponse{}
	for i, content := range contents {
		batch = append(batch, content.Parts[0].Text)
		values := make([]float32, f.dimension)
		values[0] = float32(len(f.embedBatches)*maxEmbedBatch + i + 1)
		resp.Embeddings = append(resp.Embeddings, &genai.ContentEmbedding{Values: values})
	}
	f.embedBatches = append(f.embedBatches, batch)
	return resp, nil
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{}
	for _, p := range parts {
		content.Parts = append(content.Parts, &genai.Part{Text: p})
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: content}}}
}

func TestGeneratorSendsDecodingOptions(t *testing.T) {
	models := &fakeModels{generateResp: textResponse("  Good fit: Django experience.  ", "")}
	g := &Generator{models: models, model: "gemini-pro", logger: zap.NewNop()}

	output, err := g.Generate(context.Background(), "  prompt  ", ai.GenerateOptions{Temperature: 0.7, MaxTokens: 150})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if output != "Good fit: Django experience." {
		t.Fatalf("unexpected output: %q", output)
	}

	if len(models.generateCfgs) != 1 {
		t.Fatalf("expected 1 call, got %d", len(models.generateCfgs))
	}

	cfg := models.generateCfgs[0]
	if cfg.Temperature == nil || *cfg.Temperature != 0.7 {
		t.Fatalf("unexpected temperature: %v", cfg.Temperature)
	}
	if cfg.MaxOutputTokens != 150 {
		t.Fatalf("unexpected max tokens: %d", cfg.MaxOutputTokens)
	}
	if models.prompts[0] != "prompt" {
		t.Fatalf("expected trimmed prompt, got %q", models.prompts[0])
	}
}

func TestGeneratorDoesNotRetry(t *testing.T) {
	models := &fakeModels{generateErr: genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"}}
	g := &Generator{models: models, model: "gemini-pro", logger: zap.NewNop()}

	_, err := g.Generate(context.Background(), "prompt", ai.GenerateOptions{})
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr genai.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusInternalServerError {
		t.Fatalf("expected wrapped api error, got %v", err)
	}

	if len(models.generateCfgs) != 1 {
		t.Fatalf("expected single call, got %d", len(models.generateCfgs))
	}
}

func TestGeneratorEmptyResponse(t *testing.T) {
	models := &fakeModels{generateResp: &genai.GenerateContentResponse{}}
	g := &Generator{models: models, model: "gemini-pro", logger: zap.NewNop()}

	if _, err := g.Generate(context.Background(), "prompt", ai.GenerateOptions{}); !errors.Is(err, ai.ErrEmptyResponse) {
		t.Fatalf("expected empty response error, got %v", err)
	}

	if _, err := g.Generate(context.Background(), "   ", ai.GenerateOptions{}); err == nil {
		t.Fatalf("expected error for blank prompt")
	}
}

func TestNewGeneratorRequiresKey(t *testing.T) {
	if _, err := NewGenerator(context.Background(), "  ", "", nil); err == nil {
		t.Fatalf("expected error for missing api key")
	}
}

func TestEmbedderBatchesAndKeepsOrder(t *testing.T) {
	models := &fakeModels{dimension: 8}
	e := &Embedder{models: models, model: defaultEmbeddingModel}

	texts := make([]string, maxEmbedBatch+5)
	for i := range texts {
		texts[i] = string(rune('a' + i%26))
	}

	vectors, err := e.Embed(context.Background(), texts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(vectors) != len(texts) {
		t.Fatalf("expected %d vectors, got %d", len(texts), len(vectors))
	}
	if len(models.embedBatches) != 2 || len(models.embedBatches[1]) != 5 {
		t.Fatalf("unexpected batching: %d batches", len(models.embedBatches))
	}
	for i, vec := range vectors {
		if vec[0] != float32(i+1) {
			t.Fatalf("vector %d out of order: %v", i, vec[0])
		}
	}
	if e.Dimension() != 8 {
		t.Fatalf("expected dimension 8, got %d", e.Dimension())
	}
}

func TestEmbedderPropagatesErrors(t *testing.T) {
	models := &fakeModels{embedErr: errors.New("permission denied")}
	e := &Embedder{models: models, model: defaultEmbeddingModel}

	if _, err := e.Embed(context.Background(), []string{"a"}); err == nil {
		t.Fatalf("expected error")
	}
}
