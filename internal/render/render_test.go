package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/spigell/cv-matcher/internal/ai"
	"github.com/spigell/cv-matcher/internal/matching"
)

func sampleRanking() *matching.Ranking {
	return &matching.Ranking{
		Results: []matching.Result{
			{Rank: 1, ID: "alice.pdf", Score: 0.8123, Summary: ai.Succeeded("Strong Go background.")},
			{Rank: 2, ID: "bob.docx", Score: 0.4, Summary: ai.Failed(errors.New("timeout"))},
		},
		Considered: 3,
		Excluded:   []string{"scan.pdf"},
	}
}

func TestParseFormat(t *testing.T) {
	for in, expect := range map[string]Format{"": FormatText, "TEXT": FormatText, " json ": FormatJSON, "yaml": FormatYAML} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, expect, got)
	}

	_, err := ParseFormat("xml")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatText, sampleRanking()))

	out := buf.String()
	assert.Contains(t, out, "Top 2 of 3 candidates")
	assert.Contains(t, out, "1. alice.pdf")
	assert.Contains(t, out, "0.8123")
	assert.Contains(t, out, "2. bob.docx")
	assert.Contains(t, out, "0.4000")
	assert.Contains(t, out, "Strong Go background.")
	assert.Contains(t, out, "summary generation failed: timeout")
	assert.Contains(t, out, "scan.pdf")
	assert.Less(t, strings.Index(out, "alice.pdf"), strings.Index(out, "bob.docx"))
}

func TestWriteTextDisabledSummaries(t *testing.T) {
	ranking := &matching.Ranking{
		Results:    []matching.Result{{Rank: 1, ID: "a", Score: 1}},
		Considered: 1,
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatText, ranking))
	assert.Contains(t, buf.String(), summaryDisabled)
	assert.NotContains(t, buf.String(), "Excluded")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, sampleRanking()))

	var report Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &report))
	assert.Equal(t, NewReport(sampleRanking()), report)
	assert.True(t, report.Results[1].Failed)
	assert.Equal(t, "summary generation failed: timeout", report.Results[1].Summary)
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatYAML, sampleRanking()))

	var report Report
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &report))
	assert.Equal(t, NewReport(sampleRanking()), report)
	assert.Contains(t, buf.String(), "score: 0.8123")
}

func TestWriteUnknownFormat(t *testing.T) {
	err := Write(&bytes.Buffer{}, Format("xml"), sampleRanking())
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
