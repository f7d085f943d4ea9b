package intake

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/cv-matcher/internal/extract"
	"github.com/spigell/cv-matcher/internal/matching"
)

type fileSource struct {
	paths []string
}

// NewFiles creates a source reading resume documents. Directories are
// scanned (not recursively) for supported documents in name order.
func NewFiles(paths ...string) Source {
	return &fileSource{paths: paths}
}

func (s *fileSource) Name() string { return "files" }

func (s *fileSource) Collect(ctx context.Context, deps Deps) ([]matching.Input, Step, error) {
	read := deps.Extract
	if read == nil {
		read = extract.Text
	}

	paths, err := expand(s.paths)
	if err != nil {
		return nil, Step{}, err
	}

	inputs := make([]matching.Input, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, Step{}, err
		}

		name := filepath.Base(path)
		text, err := read(path)
		if err != nil {
			deps.Logger.Warn("could not read resume, skipping it",
				zap.String("file", name),
				zap.Error(err),
			)
			continue
		}

		if strings.TrimSpace(text) == "" {
			deps.Logger.Warn("no text extracted from resume", zap.String("file", name))
		}

		inputs = append(inputs, matching.Input{ID: name, Text: text})
	}

	return inputs, Step{Initial: len(paths), Dropped: len(paths) - len(inputs), Left: len(inputs)}, nil
}

func expand(paths []string) ([]string, error) {
	var out []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			// Missing files are reported by the extractor as read failures.
			out = append(out, path)
			continue
		}
		if !info.IsDir() {
			out = append(out, path)
			continue
		}

		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("read directory %s: %w", path, err)
		}

		var found []string
		for _, entry := range entries {
			if entry.IsDir() || !extract.Supported(entry.Name()) {
				continue
			}
			found = append(found, filepath.Join(path, entry.Name()))
		}
		sort.Strings(found)
		out = append(out, found...)
	}
	return out, nil
}
