// Package signal generates the excitation and disturbance sequences used to
// drive identification experiments: generalized binary noise for
// manipulated inputs, random walks for disturbances and white measurement
// noise.
//
// Every generator draws from an explicit [Source], so a fixed seed
// reproduces the same sequences run to run. Sequences are fully
// materialized for the whole horizon.
package signal

import (
	"errors"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

var ErrInvalidParams = errors.New("signal: invalid generator parameters")

// Source is a seeded random stream shared by the generators of one
// experiment. It is not safe for concurrent use.
type Source struct {
	src rand.Source
	rng *rand.Rand
}

func NewSource(seed uint64) *Source {
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	return &Source{src: src, rng: rand.New(src)}
}

// Float64 returns a uniform draw in [0, 1).
func (s *Source) Float64() float64 {
	return s.rng.Float64()
}

func (s *Source) normal(sigma float64) distuv.Normal {
	return distuv.Normal{Mu: 0, Sigma: sigma, Src: s.src}
}
