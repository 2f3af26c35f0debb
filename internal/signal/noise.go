package signal

import (
	"fmt"
	"math"
)

// WhiteNoise returns one row of n independent zero-mean normal samples per
// entry of variances.
func WhiteNoise(src *Source, n int, variances []float64) ([][]float64, error) {
	for i, v := range variances {
		if v < 0 || math.IsNaN(v) {
			return nil, fmt.Errorf("%w: variance %v on channel %d", ErrInvalidParams, v, i)
		}
	}
	if n < 0 {
		n = 0
	}

	out := make([][]float64, len(variances))
	for i, v := range variances {
		dist := src.normal(math.Sqrt(v))
		row := make([]float64, n)
		for k := range row {
			row[k] = dist.Rand()
		}
		out[i] = row
	}
	return out, nil
}

// AddNoise returns clean + noise elementwise. Both must have the same shape.
func AddNoise(clean, noise [][]float64) ([][]float64, error) {
	if len(clean) != len(noise) {
		return nil, fmt.Errorf("%w: %d clean channels, %d noise channels", ErrInvalidParams, len(clean), len(noise))
	}
	out := make([][]float64, len(clean))
	for i := range clean {
		if len(clean[i]) != len(noise[i]) {
			return nil, fmt.Errorf("%w: channel %d length %d vs %d", ErrInvalidParams, i, len(clean[i]), len(noise[i]))
		}
		row := make([]float64, len(clean[i]))
		for k := range row {
			row[k] = clean[i][k] + noise[i][k]
		}
		out[i] = row
	}
	return out, nil
}
