// Package embedding maps batches of text to dense vectors and owns the
// lifecycle of the loaded model.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/cv-matcher/internal/logger"
)

var (
	// ErrModelUnavailable wraps every failure to load the embedding model.
	ErrModelUnavailable = errors.New("embedding model unavailable")
	// ErrDimensionMismatch is returned when a backend produced vectors of different lengths.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Embedder is implemented by every embedding backend.
type Embedder interface {
	Name() string
	// Dimension may return 0 until the first call for remote backends.
	Dimension() int
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Close() error
}

// Loader builds an Embedder. It is called at most once per successful load.
type Loader func(ctx context.Context) (Embedder, error)

// Handle lazily loads an Embedder on first use and shares it afterwards.
// Concurrent callers wait for an in-flight load instead of starting their own.
// A failed load is not remembered, so a later call may try again.
type Handle struct {
	load   Loader
	logger *zap.Logger

	mu       sync.Mutex
	embedder Embedder
}

// NewHandle returns a Handle that loads through load.
func NewHandle(load Loader, log *zap.Logger) *Handle {
	return &Handle{load: load, logger: logger.WithFields(log)}
}

// Get returns the loaded embedder, loading it first if necessary.
func (h *Handle) Get(ctx context.Context) (Embedder, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.embedder != nil {
		return h.embedder, nil
	}

	if h.load == nil {
		return nil, fmt.Errorf("%w: no loader configured", ErrModelUnavailable)
	}

	h.logger.Info("loading embedding model")
	started := time.Now()

	embedder, err := h.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}
	if embedder == nil {
		return nil, fmt.Errorf("%w: loader returned nil", ErrModelUnavailable)
	}

	h.embedder = embedder
	h.logger = logger.WithEmbedder(h.logger, embedder.Name())
	h.logger.Info("embedding model loaded",
		zap.Int("dimension", embedder.Dimension()),
		zap.Duration("took", time.Since(started)),
	)

	return embedder, nil
}

// Embed loads the model if needed and embeds texts, checking that the backend
// returned one vector per text and that all vectors share one dimension.
func (h *Handle) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	embedder, err := h.Get(ctx)
	if err != nil {
		return nil, err
	}

	if len(texts) == 0 {
		return nil, nil
	}

	vectors, err := embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("encode %d texts: %w", len(texts), err)
	}

	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("encode %d texts: backend returned %d vectors", len(texts), len(vectors))
	}

	dim := len(vectors[0])
	for i, vec := range vectors {
		if len(vec) != dim {
			return nil, fmt.Errorf("%w: vector %d has %d values, expected %d", ErrDimensionMismatch, i, len(vec), dim)
		}
	}

	return vectors, nil
}

// Close releases the loaded model, if any.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.embedder == nil {
		return nil
	}

	err := h.embedder.Close()
	h.embedder = nil
	return err
}
