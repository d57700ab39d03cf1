// Package podium implements the weighted Monte Carlo podium engine: given a
// rank-indexed relative-probability matrix W, it produces an unbiased
// estimate of each runner's probability of finishing in ranks 1..N, encoded
// as the cumulative Top-i price matrix described by spec §4.3.
package podium

import (
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/racepricer/internal/matrix"
	"github.com/sawpanic/racepricer/internal/metrics"
	"github.com/sawpanic/racepricer/internal/perr"
)

// SkippedTrialWarnRatio is the fraction of degenerate (S<=0) trials above
// which the engine surfaces a warning (spec §7) without erroring.
const SkippedTrialWarnRatio = 0.01

// Engine owns the pooled scratch buffers (podium slots, the taken bitset,
// and the rank-tally matrix) for one simulator instance. Buffers are grown
// to the largest N×M seen and reset — never freed or shrunk — between runs,
// so the per-trial loop of a long-lived Engine never allocates after warmup
// (spec §4.3, §9). Each Simulate call still allocates the price matrix it
// returns.
type Engine struct {
	seed uint64

	taken  []bool
	podium []int
	tally  *matrix.Dense // N rows x M cols, rank-by-runner counts

	registry *metrics.Registry
}

// NewEngine creates a podium engine seeded for bit-exact reproducibility.
func NewEngine(seed uint64) *Engine {
	return &Engine{seed: seed}
}

// SetRegistry attaches reg so Simulate reports the skipped-trial-fraction
// warning (spec §7) through Registry.SkippedTrialWarnings, not just via
// zerolog. Optional: a nil (or never-set) registry leaves Simulate's
// behaviour unchanged.
func (e *Engine) SetRegistry(reg *metrics.Registry) {
	e.registry = reg
}

func (e *Engine) ensureCapacity(n, m int) {
	if len(e.taken) < m {
		e.taken = make([]bool, m)
	}
	if len(e.podium) < n {
		e.podium = make([]int, n)
	}
	if e.tally == nil {
		e.tally = matrix.New(n, m)
	} else if e.tally.Rows < n || e.tally.Cols < m {
		e.tally.Reset(n, m)
	}
}

// Simulate runs T trials of weighted podium sampling over W (N rows, M
// columns; row 1 normalised, rows 2..N non-negative) and returns the
// cumulative Top-i probability matrix: entry (i,j) (0-indexed i) is the
// estimated probability that runner j finishes within the first i+1
// positions.
func (e *Engine) Simulate(w *matrix.Dense, trials int) (*matrix.Dense, error) {
	if trials <= 0 {
		return nil, perr.New(perr.InsufficientInformation, "trials must be positive, got %d", trials)
	}
	n, m := w.Rows, w.Cols
	e.ensureCapacity(n, m)
	e.tally.Reset(n, m)

	rng := newXorshift64(e.seed)

	recorded := 0
	skipped := 0
	for t := 0; t < trials; t++ {
		if e.runOneTrial(w, n, m, rng) {
			recorded++
			for i := 0; i < n; i++ {
				j := e.podium[i]
				e.tally.Set(i, j, e.tally.At(i, j)+1)
			}
		} else {
			skipped++
		}
	}

	if recorded > 0 {
		divideBy := float64(recorded)
		for i := 0; i < n; i++ {
			row := e.tally.Row(i)
			for j := range row {
				row[j] /= divideBy
			}
		}
	}

	if trials > 0 && float64(skipped)/float64(trials) > SkippedTrialWarnRatio {
		if e.registry != nil {
			e.registry.SkippedTrialWarnings.Inc()
		}
		log.Warn().
			Int("trials", trials).
			Int("skipped", skipped).
			Msg("podium engine: skipped-trial fraction exceeds warning threshold")
	}

	return cumulativeTopI(e.tally, n, m), nil
}

// runOneTrial draws one podium of N ranks over M runners, writing the
// winners into e.podium. Returns false if the trial aborted (a rank whose
// remaining active weight sums to <= 0 — spec §4.3 step 2) and should not be
// tallied.
func (e *Engine) runOneTrial(w *matrix.Dense, n, m int, rng *xorshift64) bool {
	for j := 0; j < m; j++ {
		e.taken[j] = false
	}

	for i := 0; i < n; i++ {
		row := w.Row(i)

		s := 0.0
		for j := 0; j < m; j++ {
			if !e.taken[j] {
				s += row[j]
			}
		}
		if s <= 0 {
			return false
		}

		u := rng.uniform(s)

		running := 0.0
		winner := -1
		for j := 0; j < m; j++ {
			if e.taken[j] {
				continue
			}
			running += row[j]
			if running > u {
				winner = j
				break
			}
		}
		if winner < 0 {
			// Floating-point rounding can leave u fractionally past the
			// last cumulative sum; fall back to the last active runner.
			for j := m - 1; j >= 0; j-- {
				if !e.taken[j] {
					winner = j
					break
				}
			}
		}

		e.taken[winner] = true
		e.podium[i] = winner
	}
	return true
}

// cumulativeTopI turns a per-rank marginal tally into the cumulative Top-i
// price matrix: row i becomes the running column-wise prefix sum of rows
// 0..i (spec §4.3: "the cumulative top-i matrix is then the running
// column-wise prefix sum down ranks").
func cumulativeTopI(tally *matrix.Dense, n, m int) *matrix.Dense {
	out := matrix.New(n, m)
	for j := 0; j < m; j++ {
		running := 0.0
		for i := 0; i < n; i++ {
			running += tally.At(i, j)
			out.Set(i, j, running)
		}
	}
	return out
}
