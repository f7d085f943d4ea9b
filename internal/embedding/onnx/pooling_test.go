package onnx

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncateKeepsLastToken(t *testing.T) {
	en := encoding{
		ids:      []int{101, 5, 6, 7, 8, 102},
		typeIDs:  []int{0, 0, 0, 0, 0, 0},
		attnMask: []int{1, 1, 1, 1, 1, 1},
	}

	cut := truncate(en, 4)
	assert.Equal(t, []int{101, 5, 6, 102}, cut.ids)
	assert.Len(t, cut.attnMask, 4)
	assert.Len(t, cut.typeIDs, 4)
	assert.Equal(t, []int{101, 5, 6, 7, 8, 102}, en.ids, "input must not be modified")

	assert.Equal(t, en, truncate(en, 10))
}

func TestNewBatchPadsRows(t *testing.T) {
	b := newBatch([]encoding{
		{ids: []int{101, 7, 102}, typeIDs: []int{0, 0, 0}, attnMask: []int{1, 1, 1}},
		{ids: []int{101, 102}, typeIDs: []int{0, 0}, attnMask: []int{1, 1}},
	})

	assert.Equal(t, 2, b.size)
	assert.Equal(t, 3, b.seqLen)
	assert.Equal(t, []int64{101, 7, 102, 101, 102, 0}, b.ids)
	assert.Equal(t, []int64{1, 1, 1, 1, 1, 0}, b.mask)
	assert.Equal(t, []int64{0, 0, 0, 0, 0, 0}, b.typeIDs)
}

func TestMeanPoolIgnoresPadding(t *testing.T) {
	// two rows, two tokens, dim 2; second row has its second token padded
	hidden := []float32{
		1, 2, 3, 4,
		5, 6, 100, 100,
	}
	mask := []int64{1, 1, 1, 0}

	pooled := meanPool(hidden, mask, 2, 2, 2)
	require.Len(t, pooled, 2)
	assert.Equal(t, []float32{2, 3}, pooled[0])
	assert.Equal(t, []float32{5, 6}, pooled[1])
}

func TestMeanPoolAllMasked(t *testing.T) {
	pooled := meanPool([]float32{1, 1}, []int64{0}, 1, 1, 2)
	assert.Equal(t, []float32{0, 0}, pooled[0])
}

func TestL2Normalize(t *testing.T) {
	vec := []float32{3, 4}
	l2Normalize(vec)
	assert.InDelta(t, 0.6, vec[0], 1e-6)
	assert.InDelta(t, 0.8, vec[1], 1e-6)

	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	assert.InDelta(t, 1, math.Sqrt(norm), 1e-6)

	zero := []float32{0, 0}
	l2Normalize(zero)
	assert.Equal(t, []float32{0, 0}, zero)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{ModelDir: "models/all-MiniLM-L6-v2"}.withDefaults()
	assert.Equal(t, "models/all-MiniLM-L6-v2/model.onnx", cfg.ModelPath)
	assert.Equal(t, "models/all-MiniLM-L6-v2/tokenizer.json", cfg.TokenizerPath)
	assert.Equal(t, DefaultMaxSeqLen, cfg.MaxSeqLen)
	assert.Equal(t, DefaultDimension, cfg.Dimension)
	assert.Equal(t, defaultOutput, cfg.OutputName)

	_, err := New(Config{})
	assert.Error(t, err)
}
