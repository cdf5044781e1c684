package model

import "slices"

// Variables:
//
//	x(s, c)    = slot s holds course c                                  [1, slots*courses]
//	r(c, s, j) = at least j of the slots 0..s hold course c, j ≤ demand+1 (sequential counter)
type constraintState struct {
	problem problem

	slots,
	courses int

	counterBase []int64 // First counter variable per course
	variables   uint64
}

func newConstraintState(p problem) constraintState {
	state := constraintState{
		problem:     p,
		slots:       p.slots(),
		courses:     len(p.courses),
		counterBase: make([]int64, len(p.courses)),
	}

	next := int64(state.slots*state.courses) + 1
	for course, demand := range p.demand {
		state.counterBase[course] = next
		next += int64(state.slots * (demand + 1))
	}
	state.variables = uint64(next - 1)

	return state
}

func (state constraintState) slotVariable(slot, course int) int64 {
	return int64(slot*state.courses+course) + 1
}

func (state constraintState) counterVariable(course, slot, level int) int64 {
	levels := state.problem.demand[course] + 1
	return state.counterBase[course] + int64(slot*levels+level-1)
}

// Every slot holds exactly one course
func slotConstraints(state constraintState) [][]int64 {
	clauses := make([][]int64, 0)
	for slot := range state.slots {
		atLeastOne := make([]int64, 0, state.courses)
		for course := range state.courses {
			atLeastOne = append(atLeastOne, state.slotVariable(slot, course))
		}
		clauses = append(clauses, atLeastOne)

		for course1 := range state.courses - 1 {
			for course2 := course1 + 1; course2 < state.courses; course2++ {
				clauses = append(clauses, []int64{-state.slotVariable(slot, course1), -state.slotVariable(slot, course2)})
			}
		}
	}
	return clauses
}

// A course never occupies a slot outside its instructor's window
func timingConstraints(state constraintState) [][]int64 {
	clauses := make([][]int64, 0)
	for slot := range state.slots {
		for course := range state.courses {
			if !state.problem.allowed(course, slot) {
				clauses = append(clauses, []int64{-state.slotVariable(slot, course)})
			}
		}
	}
	return clauses
}

// Every course occupies exactly its demand
func demandConstraints(state constraintState) [][]int64 {
	clauses := make([][]int64, 0)
	last := state.slots - 1

	for course, demand := range state.problem.demand {
		levels := demand + 1
		x := func(slot int) int64 { return state.slotVariable(slot, course) }
		r := func(slot, level int) int64 { return state.counterVariable(course, slot, level) }

		for slot := range state.slots {
			for level := 1; level <= levels; level++ {
				if slot == 0 {
					if level == 1 {
						// r(0, 1) <-> x(0)
						clauses = append(clauses, []int64{-x(0), r(0, 1)}, []int64{-r(0, 1), x(0)})
					} else {
						clauses = append(clauses, []int64{-r(0, level)})
					}
					continue
				}

				// r(s, j) <-> r(s-1, j) v (r(s-1, j-1) ^ x(s)), where r(s-1, 0) is true
				clauses = append(clauses,
					[]int64{-r(slot-1, level), r(slot, level)},
					[]int64{-r(slot, level), r(slot-1, level), x(slot)},
				)
				if level == 1 {
					clauses = append(clauses, []int64{-x(slot), r(slot, 1)})
				} else {
					clauses = append(clauses,
						[]int64{-r(slot-1, level-1), -x(slot), r(slot, level)},
						[]int64{-r(slot, level), r(slot-1, level), r(slot-1, level-1)},
					)
				}
			}
		}

		if demand > 0 {
			clauses = append(clauses, []int64{r(last, demand)})
		}
		clauses = append(clauses, []int64{-r(last, levels)})
	}

	return clauses
}

// The first occurrence of a multi-hour course starts a block that is contiguous and stays within its day.
// "Seen before slot s" is the counter literal r(c, s-1, 1).
func contiguityConstraints(state constraintState) [][]int64 {
	clauses := make([][]int64, 0)
	for course, duration := range state.problem.durations {
		if duration <= 1 {
			continue
		}

		for slot := range state.slots {
			// x(s) ^ ¬seen(s) -> ...
			premise := []int64{-state.slotVariable(slot, course)}
			if slot > 0 {
				premise = append(premise, state.counterVariable(course, slot-1, 1))
			}

			if state.problem.forbiddenStart(course, slot) {
				clauses = append(clauses, premise)
				continue
			}
			for offset := 1; offset < duration; offset++ {
				clauses = append(clauses, append(slices.Clone(premise), state.slotVariable(slot+offset, course)))
			}
		}
	}
	return clauses
}

// Each occurrence of a paired course is flanked by its partner on every existing side
func consecutiveConstraints(state constraintState) [][]int64 {
	pair := state.problem.consecutive
	if pair[0] == none {
		return nil
	}

	clauses := make([][]int64, 0)
	for slot := range state.slots - 1 {
		for _, courses := range [][2]int{{pair[0], pair[1]}, {pair[1], pair[0]}} {
			course, partner := courses[0], courses[1]
			clauses = append(clauses,
				[]int64{-state.slotVariable(slot, course), state.slotVariable(slot+1, partner)},
				[]int64{-state.slotVariable(slot+1, course), state.slotVariable(slot, partner)},
			)
		}
	}
	return clauses
}

// No occurrence of a paired course touches its partner
func nonConsecutiveConstraints(state constraintState) [][]int64 {
	pair := state.problem.nonConsecutive
	if pair[0] == none {
		return nil
	}

	clauses := make([][]int64, 0)
	for slot := range state.slots - 1 {
		clauses = append(clauses,
			[]int64{-state.slotVariable(slot, pair[0]), -state.slotVariable(slot+1, pair[1])},
			[]int64{-state.slotVariable(slot, pair[1]), -state.slotVariable(slot+1, pair[0])},
		)
	}
	return clauses
}
