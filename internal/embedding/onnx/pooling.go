package onnx

import "math"

type encoding struct {
	ids      []int
	typeIDs  []int
	attnMask []int
}

// truncate keeps the first maxLen tokens. The final token of a cut sequence is
// replaced with the original last token so that [SEP] survives.
func truncate(en encoding, maxLen int) encoding {
	if maxLen <= 0 || len(en.ids) <= maxLen {
		return en
	}
	last := len(en.ids) - 1
	cut := encoding{
		ids:      append([]int(nil), en.ids[:maxLen]...),
		typeIDs:  append([]int(nil), en.typeIDs[:min(maxLen, len(en.typeIDs))]...),
		attnMask: append([]int(nil), en.attnMask[:min(maxLen, len(en.attnMask))]...),
	}
	cut.ids[maxLen-1] = en.ids[last]
	return cut
}

type batch struct {
	size    int
	seqLen  int
	ids     []int64
	mask    []int64
	typeIDs []int64
}

// newBatch right-pads every sequence with zeros to the longest one.
func newBatch(encoded []encoding) batch {
	seqLen := 1
	for _, en := range encoded {
		seqLen = max(seqLen, len(en.ids))
	}

	b := batch{
		size:    len(encoded),
		seqLen:  seqLen,
		ids:     make([]int64, len(encoded)*seqLen),
		mask:    make([]int64, len(encoded)*seqLen),
		typeIDs: make([]int64, len(encoded)*seqLen),
	}

	for row, en := range encoded {
		offset := row * seqLen
		for i, id := range en.ids {
			b.ids[offset+i] = int64(id)
			b.mask[offset+i] = 1
			if i < len(en.attnMask) {
				b.mask[offset+i] = int64(en.attnMask[i])
			}
			if i < len(en.typeIDs) {
				b.typeIDs[offset+i] = int64(en.typeIDs[i])
			}
		}
	}

	return b
}

// meanPool averages token embeddings of each row, weighted by the attention mask.
// hidden is laid out as [size][seqLen][dim].
func meanPool(hidden []float32, mask []int64, size, seqLen, dim int) [][]float32 {
	out := make([][]float32, size)
	for row := 0; row < size; row++ {
		vec := make([]float32, dim)
		var count float32
		for tok := 0; tok < seqLen; tok++ {
			if mask[row*seqLen+tok] == 0 {
				continue
			}
			count++
			base := (row*seqLen + tok) * dim
			for d := 0; d < dim; d++ {
				vec[d] += hidden[base+d]
			}
		}
		if count > 0 {
			for d := range vec {
				vec[d] /= count
			}
		}
		out[row] = vec
	}
	return out
}

// l2Normalize scales vec to unit length in place. Zero vectors are left as is.
func l2Normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
}
