package signal

import "fmt"

// RandomWalk returns n samples starting at initial, each following sample
// adding a zero-mean normal increment with standard deviation sigma.
func RandomWalk(src *Source, n int, initial, sigma float64) ([]float64, error) {
	if sigma < 0 {
		return nil, fmt.Errorf("%w: negative sigma %v", ErrInvalidParams, sigma)
	}
	if n <= 0 {
		return []float64{}, nil
	}

	dist := src.normal(sigma)
	rw := make([]float64, n)
	rw[0] = initial
	for k := 1; k < n; k++ {
		rw[k] = rw[k-1] + dist.Rand()
	}
	return rw, nil
}
