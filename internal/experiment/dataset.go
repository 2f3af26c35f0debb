package experiment

import (
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/cstrsim/internal/dynamo"
	"github.com/san-kum/cstrsim/internal/ident"
)

// Dataset is one generated experiment: inputs U (4 x npts), noiseless
// states X and measured outputs Y = X + noise (2 x npts) on a uniform grid.
type Dataset struct {
	Ts    float64
	Times []float64
	U     *mat.Dense
	X     *mat.Dense
	Y     *mat.Dense
}

func (d *Dataset) Samples() int {
	return len(d.Times)
}

// IdentData returns the (Y, U) pair handed to identifiers.
func (d *Dataset) IdentData() ident.Data {
	return ident.Data{Y: d.Y, U: d.U, Ts: d.Ts}
}

func controlsToDense(us []dynamo.Control) *mat.Dense {
	m := mat.NewDense(len(us[0]), len(us), nil)
	for k, u := range us {
		m.SetCol(k, u)
	}
	return m
}

func rowsToDense(rows [][]float64) *mat.Dense {
	m := mat.NewDense(len(rows), len(rows[0]), nil)
	for i, r := range rows {
		m.SetRow(i, r)
	}
	return m
}

func denseToRows(m *mat.Dense) [][]float64 {
	r, _ := m.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = mat.Row(nil, i, m)
	}
	return out
}
