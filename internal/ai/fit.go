package ai

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spigell/cv-matcher/internal/logger"
	"github.com/spigell/cv-matcher/internal/utils"
)

//go:embed prompt.md
var promptTemplate string

const (
	DefaultTemperature  float32 = 0.7
	DefaultMaxTokens            = 150
	DefaultResumeBudget         = 2500
	defaultMaxLogLength         = 200
)

// FitConfig tunes the fit summarizer.
type FitConfig struct {
	Temperature float32
	MaxTokens   int
	// ResumeBudget is the number of resume characters placed into the prompt.
	ResumeBudget int
	// Timeout bounds a single generation call. Zero means no timeout.
	Timeout time.Duration
	// RequestsPerSecond paces outbound calls. Zero disables pacing.
	RequestsPerSecond float64
	MaxLogLength      int
}

// FitSummarizer asks a Generator whether a candidate fits a job.
// Every call is a single attempt: no retry, no backoff.
type FitSummarizer struct {
	generator Generator
	opts      GenerateOptions
	budget    int
	timeout   time.Duration
	limiter   *rate.Limiter
	maxLogLen int
	logger    *zap.Logger
}

// NewFitSummarizer builds a summarizer around generator, filling unset config values with defaults.
func NewFitSummarizer(generator Generator, cfg FitConfig, log *zap.Logger) *FitSummarizer {
	if cfg.Temperature <= 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.ResumeBudget <= 0 {
		cfg.ResumeBudget = DefaultResumeBudget
	}
	if cfg.MaxLogLength <= 0 {
		cfg.MaxLogLength = defaultMaxLogLength
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	if generator != nil {
		log = logger.WithCommonFields(log, generator.Name(), generator.Model())
	}

	return &FitSummarizer{
		generator: generator,
		opts:      GenerateOptions{Temperature: cfg.Temperature, MaxTokens: cfg.MaxTokens},
		budget:    cfg.ResumeBudget,
		timeout:   cfg.Timeout,
		limiter:   limiter,
		maxLogLen: cfg.MaxLogLength,
		logger:    logger.WithFields(log),
	}
}

// Summarize returns the generated fit summary or a failed Summary. It never panics.
func (s *FitSummarizer) Summarize(ctx context.Context, jobDescription, resumeText string) (summary Summary) {
	defer func() {
		if r := recover(); r != nil {
			summary = Failed(fmt.Errorf("generator panicked: %v", r))
		}
	}()

	if s.generator == nil {
		return Failed(errors.New("generator is not configured"))
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return Failed(fmt.Errorf("waiting for rate limiter: %w", err))
		}
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	prompt := BuildPrompt(jobDescription, resumeText, s.budget)

	s.logger.Debug("generate fit summary request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, s.maxLogLen)),
	)

	raw, err := s.generator.Generate(ctx, prompt, s.opts)
	if err != nil {
		return Failed(err)
	}

	text := strings.TrimSpace(raw)
	if text == "" {
		return Failed(ErrEmptyResponse)
	}

	s.logger.Debug("generate fit summary response",
		zap.Int("response_length", utf8.RuneCountInString(text)),
		zap.String("response_preview", utils.TruncateForLog(text, s.maxLogLen)),
	)

	return Succeeded(text)
}

// BuildPrompt places the full job description and the first budget characters
// of the resume into the prompt template.
func BuildPrompt(jobDescription, resumeText string, budget int) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Job description:\n{{JOB_DESCRIPTION}}\n\nCandidate resume:\n{{RESUME_TEXT}}\n\nExplain the fit in 1-2 sentences."
	}
	resume := utils.Truncate(resumeText, budget)
	return strings.NewReplacer(
		"{{JOB_DESCRIPTION}}", jobDescription,
		"{{RESUME_TEXT}}", resume,
	).Replace(template)
}
