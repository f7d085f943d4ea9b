// Package render writes a ranking in the supported output formats.
package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spigell/cv-matcher/internal/matching"
)

// Format is an output format name.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ErrUnknownFormat is returned for output formats other than text, json and yaml.
var ErrUnknownFormat = errors.New("unknown output format")

// ParseFormat validates a user supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Record is one ranked candidate as written by the structured formats.
type Record struct {
	Rank    int     `json:"rank" yaml:"rank"`
	ID      string  `json:"id" yaml:"id"`
	Score   float64 `json:"score" yaml:"score"`
	Summary string  `json:"summary" yaml:"summary"`
	Failed  bool    `json:"summary_failed,omitempty" yaml:"summary_failed,omitempty"`
}

// Report is the document written by the structured formats.
type Report struct {
	Results    []Record `json:"results" yaml:"results"`
	Considered int      `json:"considered" yaml:"considered"`
	Excluded   []string `json:"excluded,omitempty" yaml:"excluded,omitempty"`
}

// NewReport converts a ranking for output.
func NewReport(r *matching.Ranking) Report {
	report := Report{Results: make([]Record, 0, r.Len()), Considered: r.Considered, Excluded: r.Excluded}
	for _, res := range r.Results {
		report.Results = append(report.Results, Record{
			Rank:    res.Rank,
			ID:      res.ID,
			Score:   res.Score,
			Summary: res.Summary.String(),
			Failed:  res.Summary.Err != nil,
		})
	}
	return report
}

// Write renders r to w in the given format.
func Write(w io.Writer, format Format, r *matching.Ranking) error {
	switch format {
	case FormatText, "":
		return writeText(w, r)
	case FormatJSON:
		out, err := json.MarshalIndent(NewReport(r), "", "  ")
		if err != nil {
			return fmt.Errorf("marshal report: %w", err)
		}
		_, err = fmt.Fprintln(w, string(out))
		return err
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(NewReport(r)); err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
