package matching

import (
	"fmt"
	"math"
	"sort"
)

// ScoreDecimals is the precision of reported scores.
const ScoreDecimals = 4

// Ranked is the position of one candidate after ranking.
type Ranked struct {
	// Index points into the candidate slice passed to Rank.
	Index int
	// Score is the reported, rounded similarity.
	Score float64
	raw   float64
}

// Cosine returns the cosine similarity of a and b. A zero-norm vector scores 0,
// as does any NaN result.
func Cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		af, bf := float64(a[i]), float64(b[i])
		dot += af * bf
		na += af * af
		nb += bf * bf
	}
	if na == 0 || nb == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	if math.IsNaN(sim) {
		return 0
	}
	return sim
}

// RoundScore rounds a similarity to ScoreDecimals digits.
func RoundScore(score float64) float64 {
	p := math.Pow10(ScoreDecimals)
	return math.Round(score*p) / p
}

// Rank scores every vector against query and returns the best k, highest
// first. Ordering uses the unrounded similarity; equal similarities keep input
// order. A non-positive k keeps everything.
func Rank(query []float32, vectors [][]float32, k int) ([]Ranked, error) {
	ranked := make([]Ranked, len(vectors))
	for i, vec := range vectors {
		if len(vec) != len(query) {
			return nil, fmt.Errorf("candidate %d: vector has %d dimensions, query has %d", i, len(vec), len(query))
		}
		raw := Cosine(query, vec)
		ranked[i] = Ranked{Index: i, Score: RoundScore(raw), raw: raw}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].raw > ranked[j].raw
	})

	if k > 0 && len(ranked) > k {
		ranked = ranked[:k]
	}

	return ranked, nil
}
