package model

import (
	"context"

	"github.com/limaJavier/lecture-timetabling/pkg/sat"
	"go.uber.org/zap"
)

type satTimetabler struct {
	solver sat.SATSolver
	logger *zap.Logger
}

func NewSATTimetabler(solver sat.SATSolver, logger *zap.Logger) Timetabler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &satTimetabler{
		solver: solver,
		logger: logger,
	}
}

func (timetabler *satTimetabler) Build(ctx context.Context, modelInput ModelInput) (*Solution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	//** Derive request tables
	p := newProblem(modelInput)

	feasible, err := presolve(p)
	if err != nil {
		return nil, err
	} else if !feasible {
		return nil, nil
	}

	//** Build SAT instance
	state := newConstraintState(p)

	// Constraints functions
	constraints := []func(state constraintState) [][]int64{
		slotConstraints,
		timingConstraints,
		demandConstraints,
		contiguityConstraints,
		consecutiveConstraints,
		nonConsecutiveConstraints,
	}

	satInstance := buildSat(state.variables, constraints, state)

	timetabler.logger.Debug("sat instance built",
		zap.Uint64("variables", satInstance.Variables),
		zap.Int("clauses", len(satInstance.Clauses)),
	)

	//** Solve SAT instance
	solution, err := timetabler.solver.Solve(ctx, satInstance)
	if err != nil {
		return nil, err
	} else if solution == nil { // Return nil if the SAT instance is not satisfiable
		return nil, nil
	}

	//** Decode
	table := solution.Table(satInstance.Variables)
	timetable := make([]int, state.slots)
	for slot := range state.slots {
		timetable[slot] = none
		for course := range state.courses {
			if table[state.slotVariable(slot, course)] {
				timetable[slot] = course
				break
			}
		}
	}

	if !newPredicateEvaluator(p).Satisfied(timetable) {
		return nil, inconsistentModelError{assignment: p.decode(timetable)}
	}

	return completeSolution(StrategySAT, p, timetable), nil
}

func (timetabler *satTimetabler) Verify(assignment Assignment, modelInput ModelInput) bool {
	return verify(assignment, modelInput)
}
