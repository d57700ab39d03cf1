// Package matrix provides a flat, row-major, reusable 2-D buffer. It backs
// the weight matrix W and the price matrix produced by the Monte Carlo
// engine. A single contiguous []float64 keeps W[i,j] access to one
// base-offset multiply-add, and lets the matrix be Reset and reused across
// simulations without reallocating.
package matrix

// Dense is an N-row by M-column matrix over a single flat buffer.
type Dense struct {
	Rows, Cols int
	data       []float64
}

// New allocates a zeroed Dense of the given shape.
func New(rows, cols int) *Dense {
	return &Dense{Rows: rows, Cols: cols, data: make([]float64, rows*cols)}
}

// At returns W[i,j].
func (d *Dense) At(i, j int) float64 {
	return d.data[i*d.Cols+j]
}

// Set assigns W[i,j] = v.
func (d *Dense) Set(i, j int, v float64) {
	d.data[i*d.Cols+j] = v
}

// Row returns a slice view onto row i — mutations through it write back
// into the underlying flat buffer.
func (d *Dense) Row(i int) []float64 {
	start := i * d.Cols
	return d.data[start : start+d.Cols]
}

// Reset zeroes the buffer in place, resizing only if the requested shape
// exceeds the current capacity — matching the engine's "grown, never
// shrunk" pooled-buffer contract (spec §4.3, §9).
func (d *Dense) Reset(rows, cols int) {
	need := rows * cols
	if cap(d.data) < need {
		d.data = make([]float64, need)
	} else {
		d.data = d.data[:need]
		for i := range d.data {
			d.data[i] = 0
		}
	}
	d.Rows, d.Cols = rows, cols
}

// RowSum returns Σ_j W[i,j].
func (d *Dense) RowSum(i int) float64 {
	sum := 0.0
	for _, v := range d.Row(i) {
		sum += v
	}
	return sum
}

// ColSum returns Σ_i W[i,j].
func (d *Dense) ColSum(j int) float64 {
	sum := 0.0
	for i := 0; i < d.Rows; i++ {
		sum += d.At(i, j)
	}
	return sum
}

// CopyRowFrom overwrites row i with src (len(src) must equal d.Cols).
func (d *Dense) CopyRowFrom(i int, src []float64) {
	copy(d.Row(i), src)
}

// NormalizeRow scales row i so its entries sum to 1, leaving a zero-sum row
// untouched (a wholly-scratched or not-yet-populated row has nothing to
// normalise against).
func (d *Dense) NormalizeRow(i int) {
	row := d.Row(i)
	sum := 0.0
	for _, v := range row {
		sum += v
	}
	if sum <= 0 {
		return
	}
	for k := range row {
		row[k] /= sum
	}
}

// Clone returns an independent deep copy.
func (d *Dense) Clone() *Dense {
	out := &Dense{Rows: d.Rows, Cols: d.Cols, data: make([]float64, len(d.data))}
	copy(out.data, d.data)
	return out
}
