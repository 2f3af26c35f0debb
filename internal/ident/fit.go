package ident

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// FitPercent returns the normalized root mean square fit per output row,
// 100*(1 - |y - yhat| / |y - mean(y)|). A constant row yields NaN.
func FitPercent(y, yhat mat.Matrix) []float64 {
	p, _ := y.Dims()
	fits := make([]float64, p)
	for i := 0; i < p; i++ {
		row := mat.Row(nil, i, y)
		est := mat.Row(nil, i, yhat)

		num := floats.Distance(row, est, 2)
		floats.AddConst(-stat.Mean(row, nil), row)
		den := floats.Norm(row, 2)
		if den == 0 {
			fits[i] = math.NaN()
			continue
		}
		fits[i] = 100 * (1 - num/den)
	}
	return fits
}
