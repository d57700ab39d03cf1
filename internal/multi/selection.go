// Package multi prices same-race multi bets: conjunctions of "runner j
// finishes within the top k" claims (spec §4.6).
package multi

import "github.com/sawpanic/racepricer/internal/perr"

// Selection is one leg of a multi: runner Runner must finish within the top
// RankBound positions (1-based: RankBound=1 means outright win).
type Selection struct {
	Runner    int
	RankBound int
}

// Result is the priced outcome of a multi: a fair probability and its
// reciprocal price.
type Result struct {
	Probability float64
	Price       float64
}

// validate enforces spec §4.6/§7: pairwise-distinct runners, pairwise
// distinct rank bounds, and rank bounds within the field's simulated depth.
func validate(selections []Selection, n, m int) error {
	if len(selections) == 0 {
		return perr.New(perr.InvalidSelection, "empty selection set")
	}
	seenRunner := make(map[int]bool, len(selections))
	seenRank := make(map[int]bool, len(selections))
	for _, s := range selections {
		if s.Runner < 0 || s.Runner >= m {
			return perr.New(perr.InvalidSelection, "runner %d out of range [0,%d)", s.Runner, m)
		}
		if s.RankBound < 1 || s.RankBound > n {
			return perr.New(perr.InvalidSelection, "rank bound %d out of range [1,%d]", s.RankBound, n)
		}
		if seenRunner[s.Runner] {
			return perr.New(perr.InvalidSelection, "duplicate runner %d in selection set", s.Runner)
		}
		if seenRank[s.RankBound] {
			return perr.New(perr.InvalidSelection, "duplicate rank bound %d in selection set", s.RankBound)
		}
		seenRunner[s.Runner] = true
		seenRank[s.RankBound] = true
	}
	return nil
}

// isGaplessIncreasing reports whether selections, once sorted by rank bound,
// form the contiguous sequence 1,2,...,k — the structure under which the
// Harville conditional-product shortcut is exact (spec §4.6).
func isGaplessIncreasing(sorted []Selection) bool {
	for i, s := range sorted {
		if s.RankBound != i+1 {
			return false
		}
	}
	return true
}
