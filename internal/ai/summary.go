package ai

import (
	"context"
	"errors"
	"strings"
)

// FailurePrefix starts the placeholder shown in place of a failed summary.
const FailurePrefix = "summary generation failed"

// ErrEmptyResponse is returned by generators when the provider answered without text.
var ErrEmptyResponse = errors.New("provider returned empty response")

// GenerateOptions carries the decoding parameters of one generation request.
type GenerateOptions struct {
	Temperature float32
	MaxTokens   int
}

// Generator sends a single prompt to a text-generation provider.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
	Name() string
	Model() string
}

// Summarizer produces a fit summary for one candidate. Implementations never
// return a Go error: failures are carried inside the Summary.
type Summarizer interface {
	Summarize(ctx context.Context, jobDescription, resumeText string) Summary
}

// Summary is the outcome of one summarizer call: either Text or Err is set.
type Summary struct {
	Text string
	Err  error
}

// Succeeded wraps generated text.
func Succeeded(text string) Summary {
	return Summary{Text: strings.TrimSpace(text)}
}

// Failed wraps the reason a summary could not be produced.
func Failed(err error) Summary {
	if err == nil {
		err = errors.New("unknown error")
	}
	return Summary{Err: err}
}

// OK reports whether the summary holds generated text.
func (s Summary) OK() bool { return s.Err == nil && s.Text != "" }

// Empty reports whether no summary was requested at all.
func (s Summary) Empty() bool { return s.Err == nil && s.Text == "" }

// String renders the summary for display. Failures become a visible placeholder.
func (s Summary) String() string {
	if s.Err != nil {
		return FailurePrefix + ": " + s.Err.Error()
	}
	return s.Text
}
