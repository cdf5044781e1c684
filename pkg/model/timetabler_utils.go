package model

import (
	"fmt"
	"sync"

	"github.com/limaJavier/lecture-timetabling/pkg/sat"
)

type inconsistentModelError struct {
	assignment Assignment
}

func (err inconsistentModelError) Error() string {
	return fmt.Sprintf("solver model decodes to an assignment violating the constraints: %v", err.assignment)
}

func verify(assignment Assignment, modelInput ModelInput) bool {
	p := newProblem(modelInput)
	timetable, ok := p.encode(assignment)
	if !ok {
		return false
	}
	return newPredicateEvaluator(p).Satisfied(timetable)
}

// Fitness scores an assignment against the five predicates; malformed assignments score 0
func Fitness(assignment Assignment, modelInput ModelInput) int {
	p := newProblem(modelInput)
	timetable, ok := p.encode(assignment)
	if !ok {
		return 0
	}
	return newPredicateEvaluator(p).Fitness(timetable)
}

func completeSolution(strategy Strategy, p problem, timetable []int) *Solution {
	return &Solution{
		Strategy:   strategy,
		Assignment: p.decode(timetable),
		Grid:       p.grid,
		Fitness:    totalPredicates,
		Complete:   true,
	}
}

// Screens out inputs that are unsatisfiable without search
func presolve(p problem) (bool, error) {
	if p.trivialUnsatisfiable() {
		return false, nil
	}
	return p.capacityFeasible()
}

func buildSat(variables uint64, constraints []func(state constraintState) [][]int64, state constraintState) sat.SAT {
	satInstance := sat.SAT{
		Variables: variables,
		Clauses:   [][]int64{},
	}

	// Execute constraints functions on different goroutines; clauses keep declaration order
	results := make([][][]int64, len(constraints))
	var waitGroup sync.WaitGroup
	for i, constraint := range constraints {
		waitGroup.Add(1)
		go func() {
			defer waitGroup.Done()
			results[i] = constraint(state)
		}()
	}
	waitGroup.Wait()

	for _, clauses := range results {
		satInstance.Clauses = append(satInstance.Clauses, clauses...)
	}

	return satInstance
}
