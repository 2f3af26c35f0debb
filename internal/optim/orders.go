package optim

import (
	"context"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/cstrsim/internal/ident"
)

const (
	ParamNA = "na"
	ParamNB = "nb"
)

// OrderSearch tunes the ARX orders shared by all channels: every output
// gets the same na and every input-output pair the same nb. Delays come
// from Theta.
type OrderSearch struct {
	NA    []int
	NB    []int
	Theta [][]int
}

// Search fits one model per (na, nb) pair and scores it by the mean fit
// over output channels.
func (s *OrderSearch) Search(ctx context.Context, reg *ident.Registry, data ident.Data, opts ident.Options) (ident.Orders, []Point, error) {
	p, m, _ := data.Dims()
	grid := NewGridSearch([]string{ParamNA, ParamNB}, [][]int{s.NA, s.NB})

	best, points, err := grid.Search(ctx, func(ctx context.Context, params map[string]int) (float64, error) {
		model, err := reg.Identify(ctx, ident.MethodARX, data, s.orders(params, p, m), opts)
		if err != nil {
			return 0, err
		}
		return floats.Sum(ident.FitPercent(data.Y, model.Yid())) / float64(p), nil
	})
	if err != nil {
		return ident.Orders{}, points, err
	}
	return s.orders(best.Params, p, m), points, nil
}

func (s *OrderSearch) orders(params map[string]int, p, m int) ident.Orders {
	o := ident.Orders{
		NA:    make([]int, p),
		NB:    make([][]int, p),
		Theta: s.Theta,
	}
	for i := 0; i < p; i++ {
		o.NA[i] = params[ParamNA]
		o.NB[i] = make([]int, m)
		for j := range o.NB[i] {
			o.NB[i][j] = params[ParamNB]
		}
	}
	return o
}
