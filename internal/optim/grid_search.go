// Package optim searches model structure parameters by exhaustive grid
// evaluation.
package optim

import (
	"context"
	"errors"
	"math"
	"sort"
)

var ErrNoCandidate = errors.New("optim: no grid point could be evaluated")

// Evaluate scores one grid point; higher is better. An error discards the
// point without stopping the search.
type Evaluate func(ctx context.Context, params map[string]int) (float64, error)

type GridSearch struct {
	paramNames []string
	ranges     [][]int
}

func NewGridSearch(params []string, ranges [][]int) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Point is an evaluated grid point.
type Point struct {
	Params map[string]int
	Score  float64
}

// Search evaluates every combination and returns the best point together
// with all successful points sorted by descending score.
func (g *GridSearch) Search(ctx context.Context, eval Evaluate) (Point, []Point, error) {
	var points []Point
	if err := g.searchRecursive(ctx, 0, make(map[string]int), eval, &points); err != nil {
		return Point{}, points, err
	}
	if len(points) == 0 {
		return Point{}, nil, ErrNoCandidate
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Score > points[j].Score
	})
	return points[0], points, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]int,
	eval Evaluate,
	points *[]Point,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		score, err := eval(ctx, current)
		if err != nil || math.IsNaN(score) {
			return nil
		}
		*points = append(*points, Point{Params: current, Score: score})
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]int, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, eval, points); err != nil {
			return err
		}
	}
	return nil
}
