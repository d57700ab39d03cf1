package podium

import (
	"github.com/sawpanic/racepricer/internal/matrix"
	"github.com/sawpanic/racepricer/internal/perr"
)

// Joint runs trials podium simulations over w and returns the fraction for
// which satisfies(podium) holds, where podium[i] is the runner that finished
// rank i (0-indexed). This is the MC-authoritative path the multi deriver
// uses (spec §4.6): rather than re-deriving a joint probability from the
// marginal Top-i matrix, it tallies co-occurrence directly off the same
// per-trial draws Simulate would have used.
//
// Joint reuses the Engine's pooled taken/podium buffers and is seeded
// identically to Simulate, so calling Joint and Simulate with the same w and
// trial count draws the same sequence of podiums (not that callers need
// bit-for-bit parity across the two — each call reseeds fresh from e.seed).
func (e *Engine) Joint(w *matrix.Dense, trials int, satisfies func(podium []int) bool) (float64, error) {
	if trials <= 0 {
		return 0, perr.New(perr.InsufficientInformation, "trials must be positive, got %d", trials)
	}
	n, m := w.Rows, w.Cols
	e.ensureCapacity(n, m)

	rng := newXorshift64(e.seed)

	recorded := 0
	hits := 0
	for t := 0; t < trials; t++ {
		if !e.runOneTrial(w, n, m, rng) {
			continue
		}
		recorded++
		if satisfies(e.podium[:n]) {
			hits++
		}
	}

	if recorded == 0 {
		return 0, perr.New(perr.InsufficientInformation, "no recorded trials out of %d", trials)
	}
	return float64(hits) / float64(recorded), nil
}
