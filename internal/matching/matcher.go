package matching

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/cv-matcher/internal/ai"
	"github.com/spigell/cv-matcher/internal/logger"
	"github.com/spigell/cv-matcher/internal/observability"
)

var (
	ErrEmptyJobDescription = errors.New("job description is empty")
	ErrNoCandidates        = errors.New("no candidate with usable text")
	// ErrEmbedding wraps any failure of the embedding stage, including model loading.
	ErrEmbedding = errors.New("embedding failed")
)

// Stage is a state of one matching request.
type Stage string

const (
	StageIdle        Stage = "idle"
	StageValidating  Stage = "validating"
	StageEmbedding   Stage = "embedding"
	StageRanking     Stage = "ranking"
	StageSummarizing Stage = "summarizing"
	StageDone        Stage = "done"
	StageFailed      Stage = "failed"
)

// StageObserver is notified on every state transition.
type StageObserver func(from, to Stage)

// Embedder is the part of the embedding provider the matcher depends on.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Config tunes a Matcher.
type Config struct {
	TopK int
	// Concurrency is the number of summaries requested in parallel. Values
	// below 2 keep calls sequential.
	Concurrency int
}

// Deps holds the collaborators of a Matcher. Summarizer may be nil, in which
// case results carry empty summaries.
type Deps struct {
	Embedder   Embedder
	Summarizer ai.Summarizer
	Logger     *zap.Logger
	Observer   StageObserver
}

// Matcher runs matching requests. It keeps no per-request state, so one
// Matcher can serve requests one after another.
type Matcher struct {
	topK        int
	concurrency int
	embedder    Embedder
	summarizer  ai.Summarizer
	logger      *zap.Logger
	observer    StageObserver
}

// New creates a Matcher.
func New(cfg Config, deps Deps) *Matcher {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}

	return &Matcher{
		topK:        cfg.TopK,
		concurrency: cfg.Concurrency,
		embedder:    deps.Embedder,
		summarizer:  deps.Summarizer,
		logger:      logger.WithFields(deps.Logger),
		observer:    deps.Observer,
	}
}

type request struct {
	m     *Matcher
	stage Stage
}

func (r *request) enter(to Stage) {
	from := r.stage
	r.stage = to
	r.m.logger.Debug("matching stage", zap.String("from", string(from)), zap.String("to", string(to)))
	if r.m.observer != nil {
		r.m.observer(from, to)
	}
}

func (r *request) fail(err error) error {
	r.enter(StageFailed)
	return err
}

// Match ranks inputs against query and summarizes the top matches.
// Only validation and embedding failures are returned as errors; summary
// failures are reported inside each result.
func (m *Matcher) Match(ctx context.Context, query Query, inputs []Input) (*Ranking, error) {
	req := &request{m: m, stage: StageIdle}

	req.enter(StageValidating)
	jobDescription, ok := Normalize(query.Text)
	if !ok {
		return nil, req.fail(ErrEmptyJobDescription)
	}

	candidates, excluded := m.accept(inputs)
	if len(candidates) == 0 {
		return nil, req.fail(ErrNoCandidates)
	}

	req.enter(StageEmbedding)
	queryVec, err := m.embed(ctx, jobDescription, candidates)
	if err != nil {
		return nil, req.fail(err)
	}

	req.enter(StageRanking)
	ranked, err := m.rank(ctx, queryVec, candidates)
	if err != nil {
		return nil, req.fail(err)
	}

	req.enter(StageSummarizing)
	m.summarize(ctx, jobDescription, ranked, candidates)

	ranking := &Ranking{
		Results:    Assemble(ranked, candidates),
		Considered: len(candidates),
		Excluded:   excluded,
	}

	req.enter(StageDone)
	return ranking, nil
}

// accept normalises inputs and keeps those with text, in input order.
func (m *Matcher) accept(inputs []Input) ([]*Candidate, []string) {
	candidates := make([]*Candidate, 0, len(inputs))
	var excluded []string

	for _, in := range inputs {
		text, ok := Normalize(in.Text)
		if !ok {
			m.logger.Warn("candidate has no usable text, excluding it", logger.Candidate(in.ID))
			excluded = append(excluded, in.ID)
			continue
		}
		candidates = append(candidates, &Candidate{
			ID:    strings.TrimSpace(in.ID),
			Text:  text,
			Order: len(candidates),
		})
	}

	return candidates, excluded
}

// embed encodes the job description and all candidates in one batch so that a
// single model instance produces every vector of the request.
func (m *Matcher) embed(ctx context.Context, jobDescription string, candidates []*Candidate) ([]float32, error) {
	ctx, span := observability.StartStageSpan(ctx, string(StageEmbedding), len(candidates)+1)
	defer span.End()

	if m.embedder == nil {
		err := fmt.Errorf("%w: no embedder configured", ErrEmbedding)
		observability.RecordError(span, err)
		return nil, err
	}

	texts := make([]string, 0, len(candidates)+1)
	texts = append(texts, jobDescription)
	for _, c := range candidates {
		texts = append(texts, c.Text)
	}

	m.logger.Info("generating embeddings", zap.Int("texts", len(texts)))

	vectors, err := m.embedder.Embed(ctx, texts)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrEmbedding, err)
		observability.RecordError(span, err)
		return nil, err
	}
	if len(vectors) != len(texts) {
		err = fmt.Errorf("%w: got %d vectors for %d texts", ErrEmbedding, len(vectors), len(texts))
		observability.RecordError(span, err)
		return nil, err
	}

	for i, c := range candidates {
		c.Embedding = vectors[i+1]
	}

	return vectors[0], nil
}

// rank scores every candidate and returns the top K.
func (m *Matcher) rank(ctx context.Context, queryVec []float32, candidates []*Candidate) ([]Ranked, error) {
	_, span := observability.StartStageSpan(ctx, string(StageRanking), len(candidates))
	defer span.End()

	m.logger.Info("calculating cosine similarity", zap.Int("candidates", len(candidates)))

	vectors := make([][]float32, len(candidates))
	for i, c := range candidates {
		vectors[i] = c.Embedding
	}

	ranked, err := Rank(queryVec, vectors, 0)
	if err != nil {
		err = fmt.Errorf("rank candidates: %w", err)
		observability.RecordError(span, err)
		return nil, err
	}

	for _, r := range ranked {
		score := r.Score
		candidates[r.Index].Score = &score
	}

	if len(ranked) > m.topK {
		for _, r := range ranked[m.topK:] {
			m.logger.Debug("candidate below top matches",
				logger.Candidate(candidates[r.Index].ID),
				zap.Float64("score", r.Score),
			)
		}
		ranked = ranked[:m.topK]
	}

	return ranked, nil
}

// summarize requests a fit summary for each ranked candidate. Failures are
// stored on the candidate and never stop the remaining calls.
func (m *Matcher) summarize(ctx context.Context, jobDescription string, ranked []Ranked, candidates []*Candidate) {
	if m.summarizer == nil {
		m.logger.Info("fit summaries are disabled")
		return
	}

	ctx, span := observability.StartStageSpan(ctx, string(StageSummarizing), len(ranked))
	defer span.End()

	m.logger.Info("generating fit summaries",
		zap.Int("candidates", len(ranked)),
		zap.Int("concurrency", m.concurrency),
	)

	// The errgroup only bounds parallelism; workers never return an error.
	var g errgroup.Group
	g.SetLimit(m.concurrency)

	for _, r := range ranked {
		c := candidates[r.Index]
		g.Go(func() error {
			summary := m.summarizeOne(ctx, jobDescription, c)
			c.Summary = &summary
			return nil
		})
	}

	_ = g.Wait()
}

func (m *Matcher) summarizeOne(ctx context.Context, jobDescription string, c *Candidate) ai.Summary {
	ctx, span := observability.StartSummarySpan(ctx, c.ID)
	defer span.End()

	summary := m.summarizer.Summarize(ctx, jobDescription, c.Text)
	if summary.Err != nil {
		observability.RecordError(span, summary.Err)
		m.logger.Warn("fit summary failed", logger.Candidate(c.ID), zap.Error(summary.Err))
		return summary
	}

	m.logger.Debug("fit summary generated", logger.Candidate(c.ID))
	return summary
}
