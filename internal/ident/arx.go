package ident

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ARX fits, for every output i, the MISO difference equation
//
//	y_i(k) + a_1 y_i(k-1) + ... + a_na y_i(k-na)
//	    = sum_j sum_{l=1..nb_ij} b_ijl u_j(k - theta_ij - l)
//
// by linear least squares.
type ARX struct{}

func NewARX() *ARX {
	return &ARX{}
}

type ARXModel struct {
	// A[i] holds [1, a_1, ..., a_na] for output i.
	A [][]float64
	// B[i][j] holds [b_1, ..., b_nb] from input j to output i.
	B     [][][]float64
	Theta [][]int
	yid   *mat.Dense
}

func (m *ARXModel) Method() string  { return MethodARX }
func (m *ARXModel) Yid() *mat.Dense { return m.yid }

func (a *ARX) Identify(ctx context.Context, data Data, orders Orders, opts Options) (Model, error) {
	if err := data.validate(); err != nil {
		return nil, err
	}
	p, m, n := data.Dims()
	theta, err := checkARXOrders(orders, p, m)
	if err != nil {
		return nil, err
	}

	y, yOff := center(data.Y, opts.Centering)
	u, _ := center(data.U, opts.Centering)

	model := &ARXModel{
		A:     make([][]float64, p),
		B:     make([][][]float64, p),
		Theta: theta,
		yid:   mat.NewDense(p, n, nil),
	}

	for i := 0; i < p; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		na, nb, th := orders.NA[i], orders.NB[i], theta[i]

		start := na
		params := na
		for j := 0; j < m; j++ {
			start = max(start, nb[j]+th[j])
			params += nb[j]
		}
		rows := n - start
		if rows < params || params == 0 {
			return nil, fmt.Errorf("%w: output %d needs %d regressors, %d usable samples",
				ErrInsufficientData, i, params, rows)
		}

		phi := mat.NewDense(rows, params, nil)
		target := mat.NewVecDense(rows, nil)
		for r := 0; r < rows; r++ {
			k := start + r
			col := 0
			for l := 1; l <= na; l++ {
				phi.Set(r, col, -y.At(i, k-l))
				col++
			}
			for j := 0; j < m; j++ {
				for l := 1; l <= nb[j]; l++ {
					phi.Set(r, col, u.At(j, k-th[j]-l))
					col++
				}
			}
			target.SetVec(r, y.At(i, k))
		}

		var coef mat.VecDense
		if err := coef.SolveVec(phi, target); err != nil {
			return nil, fmt.Errorf("%w: output %d: %v", ErrEstimationFailure, i, err)
		}

		aPoly := make([]float64, na+1)
		aPoly[0] = 1
		for l := 1; l <= na; l++ {
			aPoly[l] = coef.AtVec(l - 1)
		}
		bPoly := make([][]float64, m)
		col := na
		for j := 0; j < m; j++ {
			bPoly[j] = make([]float64, nb[j])
			for l := range bPoly[j] {
				bPoly[j][l] = coef.AtVec(col)
				col++
			}
		}
		model.A[i] = aPoly
		model.B[i] = bPoly

		simulateARX(model.yid, i, y, u, aPoly, bPoly, th, start)
	}

	uncenter(model.yid, yOff)
	return model, nil
}

// simulateARX writes the free-run response of output i into dst, seeded
// with the measured samples before start.
func simulateARX(dst *mat.Dense, i int, y, u *mat.Dense, a []float64, b [][]float64, th []int, start int) {
	_, n := y.Dims()
	for k := 0; k < n; k++ {
		if k < start {
			dst.Set(i, k, y.At(i, k))
			continue
		}
		v := 0.0
		for l := 1; l < len(a); l++ {
			v -= a[l] * dst.At(i, k-l)
		}
		for j := range b {
			for l := 1; l <= len(b[j]); l++ {
				v += b[j][l-1] * u.At(j, k-th[j]-l)
			}
		}
		dst.Set(i, k, v)
	}
}

func checkARXOrders(o Orders, p, m int) ([][]int, error) {
	if len(o.NA) != p || len(o.NB) != p {
		return nil, fmt.Errorf("%w: need na and nb for %d outputs", ErrOrderMismatch, p)
	}
	theta := o.Theta
	if theta == nil {
		theta = make([][]int, p)
		for i := range theta {
			theta[i] = make([]int, m)
		}
	}
	if len(theta) != p {
		return nil, fmt.Errorf("%w: need delays for %d outputs", ErrOrderMismatch, p)
	}
	for i := 0; i < p; i++ {
		if o.NA[i] < 0 {
			return nil, fmt.Errorf("%w: negative na for output %d", ErrOrderMismatch, i)
		}
		if len(o.NB[i]) != m || len(theta[i]) != m {
			return nil, fmt.Errorf("%w: output %d needs nb and delay for %d inputs", ErrOrderMismatch, i, m)
		}
		for j := 0; j < m; j++ {
			if o.NB[i][j] < 0 || theta[i][j] < 0 {
				return nil, fmt.Errorf("%w: negative nb or delay at (%d, %d)", ErrOrderMismatch, i, j)
			}
		}
	}
	return theta, nil
}
