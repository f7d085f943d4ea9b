package intake

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/cv-matcher/internal/matching"
)

const (
	MinPasted = 1
	MaxPasted = 100
)

// Pair is one pasted candidate.
type Pair struct {
	Name string
	Text string
}

// Complete reports whether both the name and the text were provided.
func (p Pair) Complete() bool {
	return strings.TrimSpace(p.Name) != "" && strings.TrimSpace(p.Text) != ""
}

// ValidateCount checks the number of pasted candidates requested.
func ValidateCount(n int) error {
	if n < MinPasted || n > MaxPasted {
		return fmt.Errorf("number of candidates must be between %d and %d, got %d", MinPasted, MaxPasted, n)
	}
	return nil
}

type pastedSource struct {
	pairs []Pair
}

// NewPasted creates a source from pasted name/text pairs. Incomplete pairs are skipped.
func NewPasted(pairs []Pair) Source {
	return &pastedSource{pairs: pairs}
}

func (s *pastedSource) Name() string { return "pasted" }

func (s *pastedSource) Collect(_ context.Context, deps Deps) ([]matching.Input, Step, error) {
	inputs := make([]matching.Input, 0, len(s.pairs))
	for i, pair := range s.pairs {
		if !pair.Complete() {
			deps.Logger.Warn("candidate is incomplete, skipping it", zap.Int("number", i+1))
			continue
		}
		inputs = append(inputs, matching.Input{ID: strings.TrimSpace(pair.Name), Text: pair.Text})
	}

	return inputs, Step{Initial: len(s.pairs), Dropped: len(s.pairs) - len(inputs), Left: len(inputs)}, nil
}
