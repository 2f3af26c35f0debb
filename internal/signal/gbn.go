package signal

import (
	"fmt"
	"math"
)

const (
	DefaultGBNTol     = 0.01
	DefaultGBNMaxIter = 30
)

// GBNParams configures a generalized binary noise sequence.
type GBNParams struct {
	N          int
	SwitchProb float64
	Low, High  float64
	// MinHold is the number of samples between switch tests. Zero means 1.
	MinHold int
	// Tol is the accepted relative deviation of the realized switching rate
	// from SwitchProb. Zero disables regeneration.
	Tol float64
	// MaxIter bounds the number of regenerations when Tol is set.
	MaxIter int
}

func (p GBNParams) validate() error {
	if p.SwitchProb < 0 || p.SwitchProb > 1 || math.IsNaN(p.SwitchProb) {
		return fmt.Errorf("%w: switch probability %v not in [0, 1]", ErrInvalidParams, p.SwitchProb)
	}
	if p.Low > p.High {
		return fmt.Errorf("%w: low bound %v above high bound %v", ErrInvalidParams, p.Low, p.High)
	}
	if p.MinHold < 0 || p.Tol < 0 || p.MaxIter < 0 {
		return fmt.Errorf("%w: negative hold, tolerance or iteration count", ErrInvalidParams)
	}
	return nil
}

// GBN generates a switching sequence whose every value is exactly Low or
// High. The first level is picked with equal probability; afterwards the
// level flips with probability SwitchProb at each switch test.
//
// With Tol set, the sequence is regenerated until the realized switching
// rate is close enough to SwitchProb, keeping the best attempt.
func GBN(src *Source, p GBNParams) ([]float64, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if p.N <= 0 {
		return []float64{}, nil
	}
	if p.MinHold == 0 {
		p.MinHold = 1
	}

	attempts := 1
	if p.Tol > 0 && p.SwitchProb > 0 {
		attempts = p.MaxIter + 1
		if p.MaxIter == 0 {
			attempts = DefaultGBNMaxIter + 1
		}
	}

	var best []float64
	bestDev := math.Inf(1)
	for it := 0; it < attempts; it++ {
		seq, switches := gbnOnce(src, p)
		rate := float64(p.MinHold*(switches+1)) / float64(p.N)
		dev := math.Abs(rate - p.SwitchProb)
		if dev < bestDev {
			best, bestDev = seq, dev
		}
		if p.SwitchProb == 0 || bestDev/p.SwitchProb <= p.Tol {
			break
		}
	}

	return scaleBinary(best, p.Low, p.High), nil
}

// gbnOnce returns a +1/-1 sequence and its number of switches.
func gbnOnce(src *Source, p GBNParams) ([]float64, int) {
	seq := make([]float64, p.N)
	level := 1.0
	if src.Float64() < 0.5 {
		level = -1.0
	}
	seq[0] = level

	switches := 0
	lastTest := 0
	for i := 0; i < p.N-1; i++ {
		seq[i+1] = seq[i]
		if i-lastTest >= p.MinHold {
			lastTest = i
			if src.Float64() < p.SwitchProb {
				seq[i+1] = -seq[i]
				switches++
			}
		}
	}
	return seq, switches
}

func scaleBinary(seq []float64, low, high float64) []float64 {
	for i, v := range seq {
		if v > 0 {
			seq[i] = high
		} else {
			seq[i] = low
		}
	}
	return seq
}
