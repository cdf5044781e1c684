package model

import (
	"context"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Nodes explored between two cancellation checks
const cancellationInterval = 1024

type backtrackingTimetabler struct {
	logger *zap.Logger
}

func NewBacktrackingTimetabler(logger *zap.Logger) Timetabler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &backtrackingTimetabler{
		logger: logger,
	}
}

func (timetabler *backtrackingTimetabler) Build(ctx context.Context, modelInput ModelInput) (*Solution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	//** Derive request tables
	p := newProblem(modelInput)

	feasible, err := presolve(p)
	if err != nil {
		return nil, err
	} else if !feasible {
		timetabler.logger.Debug("instance rejected before search",
			zap.Int("slots", p.slots()),
			zap.Int("demand", lo.Sum(p.demand)),
		)
		return nil, nil
	}

	//** Search
	search := newBacktrackingSearch(ctx, p)
	found, err := search.assign(0, none, none)
	if err != nil {
		return nil, err
	}

	timetabler.logger.Debug("backtracking search finished",
		zap.Int("slots", p.slots()),
		zap.Int("courses", len(p.courses)),
		zap.Uint64("nodes", search.nodes),
		zap.Bool("found", found),
	)

	if !found {
		return nil, nil
	}
	return completeSolution(StrategyBacktracking, p, search.timetable), nil
}

func (timetabler *backtrackingTimetabler) Verify(assignment Assignment, modelInput ModelInput) bool {
	return verify(assignment, modelInput)
}

// backtrackingSearch assigns slots left to right, checking every predicate on the smallest scope it depends on
type backtrackingSearch struct {
	ctx       context.Context
	problem   problem
	evaluator predicateEvaluator

	timetable  []int
	counts     []int
	candidates [][]int // Courses whose window covers each slot
	capacity   [][]int // capacity[course][slot]: slots at or after slot inside the course's window

	nodes uint64
}

func newBacktrackingSearch(ctx context.Context, p problem) *backtrackingSearch {
	slots, courses := p.slots(), len(p.courses)

	search := &backtrackingSearch{
		ctx:        ctx,
		problem:    p,
		evaluator:  newPredicateEvaluator(p),
		timetable:  make([]int, slots),
		counts:     make([]int, courses),
		candidates: make([][]int, slots),
		capacity:   make([][]int, courses),
	}

	for slot := range slots {
		search.timetable[slot] = none
		search.candidates[slot] = lo.Filter(lo.Range(courses), func(course int, _ int) bool {
			return p.allowed(course, slot)
		})
	}

	for course := range courses {
		search.capacity[course] = make([]int, slots+1)
		for slot := slots - 1; slot >= 0; slot-- {
			search.capacity[course][slot] = search.capacity[course][slot+1]
			if p.allowed(course, slot) {
				search.capacity[course][slot]++
			}
		}
	}

	return search
}

// Assigns the given slot and recurses; slots up to forcedUntil must hold the forced course
func (search *backtrackingSearch) assign(slot, forced, forcedUntil int) (bool, error) {
	search.nodes++
	if search.nodes%cancellationInterval == 0 {
		if err := search.ctx.Err(); err != nil {
			return false, err
		}
	}

	if slot == search.problem.slots() {
		return search.evaluator.Satisfied(search.timetable), nil
	}

	if !search.enoughCapacity(slot) {
		return false, nil
	}

	candidates := search.candidates[slot]
	if slot <= forcedUntil {
		candidates = []int{forced}
	}

	for _, course := range candidates {
		if !search.consistent(slot, course) {
			continue
		}

		nextForced, nextForcedUntil := forced, forcedUntil
		if duration := search.problem.durations[course]; duration > 1 && search.counts[course] == 0 {
			nextForced, nextForcedUntil = course, slot+duration-1
		}

		search.timetable[slot] = course
		search.counts[course]++

		found, err := search.assign(slot+1, nextForced, nextForcedUntil)
		if err != nil || found {
			return found, err
		}

		search.counts[course]--
		search.timetable[slot] = none
	}

	return false, nil
}

// Checks whether every course can still reach its demand with the slots left
func (search *backtrackingSearch) enoughCapacity(slot int) bool {
	for course, demand := range search.problem.demand {
		if demand-search.counts[course] > search.capacity[course][slot] {
			return false
		}
	}
	return true
}

// Checks whether placing course at slot keeps the partial timetable consistent
func (search *backtrackingSearch) consistent(slot, course int) bool {
	p := search.problem

	if !p.allowed(course, slot) || search.counts[course] >= p.demand[course] {
		return false
	}

	// The first occurrence opens the contiguous block
	if search.counts[course] == 0 && p.forbiddenStart(course, slot) {
		return false
	}

	if slot > 0 {
		previous := search.timetable[slot-1]
		if p.consecutive[0] != none && !adjacentSatisfy(previous, course, p.consecutive, touches) {
			return false
		}
		if p.nonConsecutive[0] != none && !adjacentSatisfy(previous, course, p.nonConsecutive, avoids) {
			return false
		}
	}

	return true
}
