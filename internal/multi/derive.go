package multi

import (
	"sort"

	"github.com/sawpanic/racepricer/internal/matrix"
	"github.com/sawpanic/racepricer/internal/perr"
	"github.com/sawpanic/racepricer/internal/podium"
)

// Derive prices a multi by the MC-authoritative path (spec §4.6): it tallies,
// across trials fresh podium draws over w, the fraction satisfying every
// selection simultaneously. This is always correct for any W, including
// non-identity (biased) models, and is the form callers should default to.
func Derive(eng *podium.Engine, w *matrix.Dense, selections []Selection, trials int) (Result, error) {
	n, m := w.Rows, w.Cols
	if err := validate(selections, n, m); err != nil {
		return Result{}, err
	}

	prob, err := eng.Joint(w, trials, func(podiumOut []int) bool {
		for _, s := range selections {
			found := false
			for i := 0; i < s.RankBound; i++ {
				if podiumOut[i] == s.Runner {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	})
	if err != nil {
		return Result{}, err
	}
	if prob <= 0 {
		return Result{}, perr.New(perr.InsufficientInformation, "joint probability estimated as 0 over %d trials", trials)
	}
	return Result{Probability: prob, Price: 1.0 / prob}, nil
}

// HarvilleProbability computes the exact conditional-product shortcut (spec
// §4.6) from the Win probability vector alone. It is only exact when
// selections, sorted by rank bound, form the gapless sequence 1,2,...,k —
// i.e. the event reduces to "runner j_1 finishes 1st, runner j_2 finishes
// 2nd, ..., runner j_k finishes k-th" under the Harville model, which itself
// assumes every rank draws from the same relative weights as the Win market
// (an identity-weighted W). Callers fitting a biased W should prefer Derive.
func HarvilleProbability(pWin []float64, selections []Selection) (Result, error) {
	m := len(pWin)
	if err := validate(selections, len(selections), m); err != nil {
		return Result{}, err
	}

	sorted := append([]Selection(nil), selections...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].RankBound < sorted[j].RankBound })
	if !isGaplessIncreasing(sorted) {
		return Result{}, perr.New(perr.InvalidSelection, "selections do not form a gapless increasing rank sequence; use Derive instead")
	}

	excluded := 0.0
	prob := 1.0
	for _, s := range sorted {
		remaining := 1.0 - excluded
		if remaining <= 0 {
			return Result{}, perr.New(perr.InsufficientInformation, "exhausted remaining probability mass before placing runner %d", s.Runner)
		}
		prob *= pWin[s.Runner] / remaining
		excluded += pWin[s.Runner]
	}
	if prob <= 0 {
		return Result{}, perr.New(perr.InsufficientInformation, "Harville probability computed as 0")
	}
	return Result{Probability: prob, Price: 1.0 / prob}, nil
}
