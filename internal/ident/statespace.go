package ident

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// StateSpace is a discrete-time realization in process form:
//
//	x(k+1) = A x(k) + B u(k)
//	y(k)   = C x(k) + D u(k)
type StateSpace struct {
	A, B, C, D *mat.Dense
	X0         *mat.VecDense
}

func (s *StateSpace) Order() int {
	n, _ := s.A.Dims()
	return n
}

func (s *StateSpace) check(m int) error {
	n, nc := s.A.Dims()
	bn, bm := s.B.Dims()
	cp, cn := s.C.Dims()
	dp, dm := s.D.Dims()
	switch {
	case n != nc:
		return fmt.Errorf("%w: A is %dx%d", ErrOrderMismatch, n, nc)
	case bn != n || cn != n:
		return fmt.Errorf("%w: B or C does not match state order %d", ErrOrderMismatch, n)
	case bm != m || dm != m:
		return fmt.Errorf("%w: B or D does not match %d inputs", ErrOrderMismatch, m)
	case dp != cp:
		return fmt.Errorf("%w: C and D disagree on outputs", ErrOrderMismatch)
	case s.X0 != nil && s.X0.Len() != n:
		return fmt.Errorf("%w: x0 has %d entries, order is %d", ErrOrderMismatch, s.X0.Len(), n)
	}
	return nil
}

// Simulate runs the realization over u (inputs x samples) starting from X0
// (zero when nil) and returns the state and output trajectories.
func (s *StateSpace) Simulate(u *mat.Dense) (x, y *mat.Dense, err error) {
	m, samples := u.Dims()
	if err := s.check(m); err != nil {
		return nil, nil, err
	}
	if samples == 0 {
		return nil, nil, fmt.Errorf("%w: empty input trajectory", ErrInsufficientData)
	}
	n := s.Order()
	p, _ := s.C.Dims()

	x = mat.NewDense(n, samples, nil)
	y = mat.NewDense(p, samples, nil)

	xk := mat.NewVecDense(n, nil)
	if s.X0 != nil {
		xk.CopyVec(s.X0)
	}

	var cx, du, ax, bu mat.VecDense
	for k := 0; k < samples; k++ {
		uk := u.ColView(k)
		if k > 0 {
			ax.MulVec(s.A, xk)
			bu.MulVec(s.B, u.ColView(k-1))
			xk.AddVec(&ax, &bu)
		}
		cx.MulVec(s.C, xk)
		du.MulVec(s.D, uk)
		cx.AddVec(&cx, &du)
		x.SetCol(k, xk.RawVector().Data)
		y.SetCol(k, cx.RawVector().Data)
	}
	return x, y, nil
}

// SSModel is a fitted state-space model whose Yid is produced by
// simulating the realization over the identification inputs.
type SSModel struct {
	method string
	ss     *StateSpace
	yid    *mat.Dense
}

// NewSSModel simulates ss over u and wraps the result.
func NewSSModel(method string, ss *StateSpace, u *mat.Dense) (*SSModel, error) {
	_, y, err := ss.Simulate(u)
	if err != nil {
		return nil, err
	}
	return &SSModel{method: method, ss: ss, yid: y}, nil
}

func (m *SSModel) Method() string          { return m.method }
func (m *SSModel) Yid() *mat.Dense         { return m.yid }
func (m *SSModel) StateSpace() *StateSpace { return m.ss }
