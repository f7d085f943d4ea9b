// Package matching ranks candidate resumes against a job description and
// attaches a fit summary to the best matches.
package matching

import (
	"github.com/spigell/cv-matcher/internal/ai"
)

// DefaultTopK is the number of candidates kept after ranking.
const DefaultTopK = 10

// Input is one raw candidate as produced by intake: an identifier (file name
// or entered name) and the unnormalised text.
type Input struct {
	ID   string `mapstructure:"name" yaml:"name" json:"name"`
	Text string `mapstructure:"text" yaml:"text" json:"text"`
}

// Query is the job description a request matches against.
type Query struct {
	Text string
}

// Candidate is a staged record. Each pipeline stage fills its own field.
type Candidate struct {
	ID   string
	Text string
	// Order is the position among accepted candidates; it breaks score ties.
	Order     int
	Embedding []float32
	Score     *float64
	Summary   *ai.Summary
}

// Result is one entry of the final ranking.
type Result struct {
	Rank    int
	ID      string
	Score   float64
	Summary ai.Summary
}

// Ranking is the ordered output of a request, best match first.
type Ranking struct {
	Results []Result
	// Considered is the number of candidates that entered scoring.
	Considered int
	// Excluded lists inputs dropped because their text was empty.
	Excluded []string
}

func (r *Ranking) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Results)
}
