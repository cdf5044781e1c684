package model

import "context"

// Assignment holds the course name placed at every slot, aligned with SlotGrid.Slots
type Assignment []string

type Strategy string

const (
	StrategyBacktracking Strategy = "backtracking"
	StrategySAT          Strategy = "sat"
	StrategyGenetic      Strategy = "genetic"
)

type Solution struct {
	Strategy   Strategy
	Assignment Assignment
	Grid       SlotGrid
	Fitness    int   // Predicates satisfied, out of 5
	Complete   bool  // Every predicate holds
	History    []int // Best fitness per generation; heuristic only
}

func (solution *Solution) Schedule() map[string][]ScheduleBlock {
	return ShapeSchedule(solution.Assignment, solution.Grid)
}

type Timetabler interface {
	// Returns nil (with a nil error) when no timetable is found
	Build(
		ctx context.Context,
		modelInput ModelInput,
	) (*Solution, error)

	Verify(
		assignment Assignment,
		modelInput ModelInput,
	) bool
}
