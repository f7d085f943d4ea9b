package matching

// Assemble joins the ranked candidates into results, keeping the ranked order.
// Candidates must already carry their score; a missing summary is left empty.
func Assemble(ranked []Ranked, candidates []*Candidate) []Result {
	results := make([]Result, 0, len(ranked))
	for pos, r := range ranked {
		c := candidates[r.Index]

		result := Result{Rank: pos + 1, ID: c.ID, Score: r.Score}
		if c.Score != nil {
			result.Score = *c.Score
		}
		if c.Summary != nil {
			result.Summary = *c.Summary
		}
		results = append(results, result)
	}
	return results
}
