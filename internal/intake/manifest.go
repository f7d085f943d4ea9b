package intake

import (
	"context"
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/spigell/cv-matcher/internal/matching"
)

type manifestSource struct {
	path string
}

// NewManifest creates a source reading a YAML or JSON file of {name, text}
// records. The records may be the document root or sit under "candidates".
func NewManifest(path string) Source {
	return &manifestSource{path: path}
}

func (s *manifestSource) Name() string { return "manifest" }

func (s *manifestSource) Collect(_ context.Context, deps Deps) ([]matching.Input, Step, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, Step{}, fmt.Errorf("read manifest: %w", err)
	}

	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, Step{}, fmt.Errorf("parse manifest %s: %w", s.path, err)
	}

	if root, ok := doc.(map[string]any); ok {
		doc = root["candidates"]
	}

	records, ok := doc.([]any)
	if !ok {
		return nil, Step{}, fmt.Errorf("manifest %s: expected a list of candidates", s.path)
	}

	inputs := make([]matching.Input, 0, len(records))
	for i, record := range records {
		var in matching.Input
		if err := mapstructure.Decode(record, &in); err != nil {
			deps.Logger.Warn("could not decode candidate, skipping it",
				zap.Int("number", i+1),
				zap.Error(err),
			)
			continue
		}
		if in.ID == "" {
			in.ID = fmt.Sprintf("candidate %d", i+1)
		}
		inputs = append(inputs, in)
	}

	return inputs, Step{Initial: len(records), Dropped: len(records) - len(inputs), Left: len(inputs)}, nil
}
