package sat

import (
	"context"
	"fmt"
	"time"

	"github.com/go-air/gini"
	"github.com/go-air/gini/z"
)

// How often a running search is checked for a verdict or a cancellation
const giniPollInterval = 5 * time.Millisecond

type giniSolver struct{}

// NewGiniSolver returns an in-process solver, no external executable is required
func NewGiniSolver() SATSolver {
	return &giniSolver{}
}

func (solver *giniSolver) Solve(ctx context.Context, sat SAT) (SATSolution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g := gini.New()
	maxVariable := uint64(0)
	for _, clause := range sat.Clauses {
		for _, literal := range clause {
			g.Add(toLit(literal))
			maxVariable = max(maxVariable, uint64(max(literal, -literal)))
		}
		g.Add(0)
	}

	// Poll the background search; Wait and Stop share a lock and cannot be mixed
	search := g.GoSolve()
	ticker := time.NewTicker(giniPollInterval)
	defer ticker.Stop()

	var result int
	for done := false; !done; {
		select {
		case <-ctx.Done():
			search.Stop()
			return nil, ctx.Err()
		case <-ticker.C:
			result, done = search.Test()
		}
	}

	switch result {
	case 1:
	case -1: // Unsatisfiable
		return nil, nil
	default:
		return nil, fmt.Errorf("gini finished without a verdict: %d", result)
	}

	solution := make(SATSolution, 0, sat.Variables)
	for variable := uint64(1); variable <= sat.Variables; variable++ {
		// Variables absent from every clause are unconstrained and reported false
		if variable <= maxVariable && g.Value(z.Var(variable).Pos()) {
			solution = append(solution, int64(variable))
		} else {
			solution = append(solution, -int64(variable))
		}
	}
	return solution, nil
}

func toLit(literal int64) z.Lit {
	if literal < 0 {
		return z.Var(-literal).Neg()
	}
	return z.Var(literal).Pos()
}
