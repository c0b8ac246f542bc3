// Package optim tunes controller gains by exhaustive search over a scenario.
package optim

import (
	"context"
	"maps"
	"math"

	"github.com/pkg/errors"
	"github.com/san-kum/inertial/internal/dynamo"
	"go.uber.org/multierr"
)

// Objective scores one parameter set; lower is better.
type Objective func(ctx context.Context, params map[string]float64) (float64, error)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, errors.Wrapf(dynamo.ErrDimensionMismatch, "%d params, %d ranges", len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, dynamo.NewConfigError(params[i], "empty range")
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Size is the number of parameter combinations.
func (g *GridSearch) Size() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

type Result struct {
	Params    map[string]float64
	Value     float64
	Evaluated int
	// Failed aggregates errors from combinations that could not be scored.
	Failed error
}

// Search evaluates every combination. Failing combinations are skipped and
// reported in Result.Failed; cancellation stops the search with ctx.Err().
func (g *GridSearch) Search(ctx context.Context, objective Objective) (*Result, error) {
	res := &Result{Value: math.Inf(1)}
	if err := g.searchRecursive(ctx, 0, make(map[string]float64), objective, res); err != nil {
		return res, err
	}
	if res.Params == nil {
		return res, errors.Wrap(res.Failed, "no combination could be evaluated")
	}
	return res, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	objective Objective,
	res *Result,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		val, err := objective(ctx, current)
		res.Evaluated++
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			res.Failed = multierr.Append(res.Failed, err)
			return nil
		}
		if val < res.Value {
			res.Value = val
			res.Params = maps.Clone(current)
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		next := maps.Clone(current)
		next[paramName] = val
		if err := g.searchRecursive(ctx, depth+1, next, objective, res); err != nil {
			return err
		}
	}
	return nil
}
