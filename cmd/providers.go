package cmd

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/cv-matcher/internal/ai"
	"github.com/spigell/cv-matcher/internal/ai/gemini"
	"github.com/spigell/cv-matcher/internal/ai/openrouter"
	"github.com/spigell/cv-matcher/internal/embedding"
	"github.com/spigell/cv-matcher/internal/embedding/onnx"
	"github.com/spigell/cv-matcher/internal/logger"
	"github.com/spigell/cv-matcher/internal/secrets"
)

const (
	providerONNX       = "onnx"
	providerGemini     = "gemini"
	providerOpenRouter = "openrouter"
)

func geminiKey(cfg *AIConfig) (string, error) {
	src := secrets.Source{Name: "gemini api key", Env: "GEMINI_API_KEY"}
	if cfg != nil && cfg.Gemini != nil {
		src.File = cfg.Gemini.APIKeyFile
	}
	key, err := secrets.Load(src)
	if err != nil {
		return "", fmt.Errorf("%w (set ai.gemini.api-key-file, GEMINI_API_KEY_FILE or GEMINI_API_KEY)", err)
	}
	return key, nil
}

func openRouterClient(cfg *AIConfig, baseURL string, log *zap.Logger) (*openrouter.Client, error) {
	src := secrets.Source{Name: "openrouter api key", Env: "OPENROUTER_API_KEY"}
	if cfg != nil && cfg.OpenRouter != nil {
		src.File = cfg.OpenRouter.APIKeyFile
		if baseURL == "" {
			baseURL = cfg.OpenRouter.BaseURL
		}
	}
	key, err := secrets.Load(src)
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.openrouter.api-key-file, OPENROUTER_API_KEY_FILE or OPENROUTER_API_KEY)", err)
	}
	return openrouter.New(key, baseURL, log)
}

// newEmbeddingHandle prepares the lazily loaded embedding model. Nothing is
// loaded until the first request needs vectors.
func newEmbeddingHandle(config *Config, log *zap.Logger) (*embedding.Handle, error) {
	cfg := config.Embedding
	if cfg == nil {
		cfg = &EmbeddingConfig{Provider: providerONNX}
	}

	var load embedding.Loader

	switch cfg.Provider {
	case providerONNX, "":
		onnxCfg := onnx.Config{BatchSize: cfg.BatchSize}
		if cfg.ONNX != nil {
			onnxCfg.LibraryPath = cfg.ONNX.Library
			onnxCfg.ModelDir = cfg.ONNX.Model
			onnxCfg.TokenizerPath = cfg.ONNX.Tokenizer
			onnxCfg.MaxSeqLen = cfg.ONNX.MaxSeqLen
		}
		load = func(context.Context) (embedding.Embedder, error) {
			embedder, err := onnx.New(onnxCfg)
			if err != nil {
				return nil, err
			}
			return embedder, nil
		}
	case providerGemini:
		load = func(ctx context.Context) (embedding.Embedder, error) {
			key, err := geminiKey(config.AI)
			if err != nil {
				return nil, err
			}
			embedder, err := gemini.NewEmbedder(ctx, key, cfg.Model)
			if err != nil {
				return nil, err
			}
			return embedder, nil
		}
	case providerOpenRouter:
		load = func(context.Context) (embedding.Embedder, error) {
			client, err := openRouterClient(config.AI, cfg.BaseURL, log)
			if err != nil {
				return nil, err
			}
			return openrouter.NewEmbedder(client, cfg.Model, cfg.BatchSize), nil
		}
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}

	return embedding.NewHandle(load, log), nil
}

func newGenerator(ctx context.Context, cfg *AIConfig, log *zap.Logger) (ai.Generator, error) {
	switch cfg.Provider {
	case providerOpenRouter, "":
		client, err := openRouterClient(cfg, "", log)
		if err != nil {
			return nil, err
		}
		return openrouter.NewGenerator(client, cfg.Model), nil
	case providerGemini:
		key, err := geminiKey(cfg)
		if err != nil {
			return nil, err
		}
		generator, err := gemini.NewGenerator(ctx, key, cfg.Model, logger.WithCommonFields(log, providerGemini, cfg.Model))
		if err != nil {
			return nil, err
		}
		return generator, nil
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
}

func newSummarizer(ctx context.Context, cfg *AIConfig, log *zap.Logger) (ai.Summarizer, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	generator, err := newGenerator(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	var timeout time.Duration
	if cfg.Timeout != "" {
		timeout, err = time.ParseDuration(cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("parse ai.timeout: %w", err)
		}
	}

	return ai.NewFitSummarizer(generator, ai.FitConfig{
		Temperature:       cfg.Temperature,
		MaxTokens:         cfg.MaxTokens,
		ResumeBudget:      cfg.ResumeBudget,
		Timeout:           timeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
		MaxLogLength:      cfg.MaxLogLength,
	}, log), nil
}
