// Package intake collects candidate resumes from files, manifests and pasted text.
package intake

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/cv-matcher/internal/matching"
)

// Source produces candidates for a matching request.
type Source interface {
	Name() string
	Collect(ctx context.Context, deps Deps) ([]matching.Input, Step, error)
}

// Deps aggregates dependencies shared across all sources.
type Deps struct {
	Logger *zap.Logger
	// Extract reads a document into text. Defaults to extract.Text.
	Extract func(path string) (string, error)
}

// Step describes the result of collecting one source.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Run collects every source in order and concatenates their candidates.
// A source error aborts the run; per-item problems are reported by the
// sources themselves and only counted in their Step.
func Run(ctx context.Context, deps Deps, sources ...Source) ([]matching.Input, error) {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	var inputs []matching.Input
	for _, source := range sources {
		collected, info, err := source.Collect(ctx, deps)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", source.Name(), err)
		}

		deps.Logger.Info("intake step",
			zap.String("name", source.Name()),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		)

		inputs = append(inputs, collected...)
	}

	return inputs, nil
}
