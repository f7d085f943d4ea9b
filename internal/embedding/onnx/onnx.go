// Package onnx runs a sentence-transformer model (all-MiniLM-L6-v2 by default)
// locally through ONNX Runtime.
package onnx

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

const (
	name             = "onnx"
	DefaultMaxSeqLen = 256
	DefaultDimension = 384
	defaultBatchSize = 16
	defaultOutput    = "last_hidden_state"
)

var inputNames = []string{"input_ids", "attention_mask", "token_type_ids"}

// Config points at the model artifacts.
type Config struct {
	// LibraryPath is the onnxruntime shared library. Empty uses the platform default.
	LibraryPath string
	// ModelDir holds model.onnx and tokenizer.json. Explicit paths below win.
	ModelDir      string
	ModelPath     string
	TokenizerPath string
	OutputName    string
	MaxSeqLen     int
	Dimension     int
	BatchSize     int
}

// Embedder produces mean-pooled, L2-normalised sentence embeddings.
type Embedder struct {
	mu        sync.Mutex
	session   *ort.DynamicAdvancedSession
	tk        *tokenizer.Tokenizer
	maxSeqLen int
	dimension int
	batchSize int
}

var envMu sync.Mutex

func initEnvironment(libraryPath string) error {
	envMu.Lock()
	defer envMu.Unlock()

	if ort.IsInitialized() {
		return nil
	}
	if libraryPath = strings.TrimSpace(libraryPath); libraryPath != "" {
		ort.SetSharedLibraryPath(libraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("initialize onnxruntime: %w", err)
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.ModelPath == "" && c.ModelDir != "" {
		c.ModelPath = filepath.Join(c.ModelDir, "model.onnx")
	}
	if c.TokenizerPath == "" && c.ModelDir != "" {
		c.TokenizerPath = filepath.Join(c.ModelDir, "tokenizer.json")
	}
	if c.OutputName == "" {
		c.OutputName = defaultOutput
	}
	if c.MaxSeqLen <= 0 {
		c.MaxSeqLen = DefaultMaxSeqLen
	}
	if c.Dimension <= 0 {
		c.Dimension = DefaultDimension
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}
	return c
}

// New loads the tokenizer and the ONNX session. This is the expensive step.
func New(cfg Config) (*Embedder, error) {
	cfg = cfg.withDefaults()
	if cfg.ModelPath == "" {
		return nil, errors.New("onnx model path is required")
	}
	if cfg.TokenizerPath == "" {
		return nil, errors.New("tokenizer path is required")
	}

	tk, err := pretrained.FromFile(cfg.TokenizerPath)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer %q: %w", cfg.TokenizerPath, err)
	}

	if err := initEnvironment(cfg.LibraryPath); err != nil {
		return nil, err
	}

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath, inputNames, []string{cfg.OutputName}, nil)
	if err != nil {
		return nil, fmt.Errorf("load onnx model %q: %w", cfg.ModelPath, err)
	}

	return &Embedder{
		session:   session,
		tk:        tk,
		maxSeqLen: cfg.MaxSeqLen,
		dimension: cfg.Dimension,
		batchSize: cfg.BatchSize,
	}, nil
}

func (e *Embedder) Name() string   { return name }
func (e *Embedder) Dimension() int { return e.dimension }

// Embed encodes texts in batches; output order follows input order.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil || e.tk == nil {
		return nil, errors.New("onnx embedder is closed")
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := min(start+e.batchSize, len(texts))
		vectors, err := e.embedBatch(texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}

	return out, nil
}

func (e *Embedder) embedBatch(texts []string) ([][]float32, error) {
	encoded := make([]encoding, 0, len(texts))
	for _, text := range texts {
		en, err := e.tk.EncodeSingle(text, true)
		if err != nil {
			return nil, fmt.Errorf("tokenize: %w", err)
		}
		encoded = append(encoded, truncate(encoding{
			ids:      en.Ids,
			typeIDs:  en.TypeIds,
			attnMask: en.AttentionMask,
		}, e.maxSeqLen))
	}

	b := newBatch(encoded)
	shape := ort.NewShape(int64(b.size), int64(b.seqLen))

	ids, err := ort.NewTensor(shape, b.ids)
	if err != nil {
		return nil, fmt.Errorf("input_ids tensor: %w", err)
	}
	defer ids.Destroy()

	mask, err := ort.NewTensor(shape, b.mask)
	if err != nil {
		return nil, fmt.Errorf("attention_mask tensor: %w", err)
	}
	defer mask.Destroy()

	types, err := ort.NewTensor(shape, b.typeIDs)
	if err != nil {
		return nil, fmt.Errorf("token_type_ids tensor: %w", err)
	}
	defer types.Destroy()

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(int64(b.size), int64(b.seqLen), int64(e.dimension)))
	if err != nil {
		return nil, fmt.Errorf("output tensor: %w", err)
	}
	defer output.Destroy()

	if err := e.session.Run([]ort.Value{ids, mask, types}, []ort.Value{output}); err != nil {
		return nil, fmt.Errorf("run onnx session: %w", err)
	}

	pooled := meanPool(output.GetData(), b.mask, b.size, b.seqLen, e.dimension)
	for _, vec := range pooled {
		l2Normalize(vec)
	}
	return pooled, nil
}

// Close releases the ONNX session. The runtime environment stays initialised
// for the life of the process.
func (e *Embedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return nil
	}
	err := e.session.Destroy()
	e.session = nil
	e.tk = nil
	return err
}
