package ident

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// center returns a copy of x with a per-row offset removed, and the offsets.
func center(x *mat.Dense, mode Centering) (*mat.Dense, []float64) {
	r, c := x.Dims()
	offsets := make([]float64, r)
	out := mat.DenseCopyOf(x)

	for i := 0; i < r; i++ {
		switch mode {
		case CenteringMean:
			offsets[i] = stat.Mean(mat.Row(nil, i, x), nil)
		case CenteringInit:
			offsets[i] = x.At(i, 0)
		default:
			continue
		}
		for k := 0; k < c; k++ {
			out.Set(i, k, x.At(i, k)-offsets[i])
		}
	}
	return out, offsets
}

func uncenter(x *mat.Dense, offsets []float64) {
	r, c := x.Dims()
	for i := 0; i < r; i++ {
		if offsets[i] == 0 {
			continue
		}
		for k := 0; k < c; k++ {
			x.Set(i, k, x.At(i, k)+offsets[i])
		}
	}
}
