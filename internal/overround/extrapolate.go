package overround

import "github.com/sawpanic/racepricer/internal/perr"

// WinPlace bundles the two observed markets extrapolate_overrounds starts
// from: the Win overround and the Place overround (which pays PlacesPaying
// positions, 2 or 3).
type WinPlace struct {
	WinOverround   float64
	PlaceOverround float64
	PlacesPaying   int
}

// ExtrapolateOverrounds derives overrounds for Top-1..Top-N (N=4 by
// convention, spec §4.1) from a Win/Place pair. Top-1 is the Win overround
// verbatim. Top-X (X = PlacesPaying) is the Place overround verbatim — it
// already covers exactly X outcomes. Every other rank's overround is
// produced by linearly interpolating/extrapolating "excess margin per
// outcome" — (v_k - 1)/k — between the two anchor points, clamped at zero.
// The excess is non-increasing in k only when the Place excess per outcome
// does not exceed the Win excess; otherwise it rises with k.
func ExtrapolateOverrounds(wp WinPlace, n int) ([]float64, error) {
	if wp.PlaceOverround <= 1.0 {
		return nil, perr.New(perr.InsufficientInformation, "place overround %v <= 1.0", wp.PlaceOverround)
	}
	if wp.PlacesPaying != 2 && wp.PlacesPaying != 3 {
		return nil, perr.New(perr.InsufficientInformation, "places_paying %d not in {2,3}", wp.PlacesPaying)
	}
	if n < wp.PlacesPaying {
		n = wp.PlacesPaying
	}

	excessWin := wp.WinOverround - 1.0 // k=1
	excessPlace := (wp.PlaceOverround - 1.0) / float64(wp.PlacesPaying)

	overrounds := make([]float64, n)
	overrounds[0] = wp.WinOverround

	slope := (excessPlace - excessWin) / float64(wp.PlacesPaying-1)
	for k := 2; k <= n; k++ {
		excess := excessWin + slope*float64(k-1)
		if excess < 0 {
			excess = 0
		}
		overrounds[k-1] = 1.0 + excess*float64(k)
	}
	// Top-X reproduces the observed Place overround exactly, not the
	// linear-interpolated estimate (it's the anchor, not a derived point).
	overrounds[wp.PlacesPaying-1] = wp.PlaceOverround

	return overrounds, nil
}
