package model

import (
	"github.com/onsi/gomega/matchers/support/goraph/bipartitegraph"
	"github.com/samber/lo"
)

// Course index marking a disabled pair or an unassigned slot
const none = -1

// problem holds the lookup tables derived from a single request
type problem struct {
	input   ModelInput
	grid    SlotGrid
	courses []Course
	index   map[string]int // Course name -> course index

	demand    []int
	durations []int
	hours     []int // Wall-clock hour per slot

	consecutive    [2]int
	nonConsecutive [2]int
}

func newProblem(input ModelInput) problem {
	grid := BuildSlotGrid(input.DayHours())

	p := problem{
		input:          input,
		grid:           grid,
		courses:        input.Courses,
		index:          make(map[string]int),
		demand:         make([]int, len(input.Courses)),
		durations:      make([]int, len(input.Courses)),
		hours:          make([]int, grid.Len()),
		consecutive:    [2]int{none, none},
		nonConsecutive: [2]int{none, none},
	}

	for i, course := range input.Courses {
		p.index[course.Name] = i
		p.demand[i] = course.Demand()
		p.durations[i] = course.Duration
	}
	for slot := range p.hours {
		p.hours[slot] = grid.Hour(slot)
	}

	p.consecutive = p.pairIndices(input.Constraints.Consecutive)
	p.nonConsecutive = p.pairIndices(input.Constraints.NonConsecutive)

	return p
}

func (p problem) pairIndices(pair SubjectPair) [2]int {
	if !pair.Enabled() {
		return [2]int{none, none}
	}
	first, ok1 := p.index[pair[0]]
	second, ok2 := p.index[pair[1]]
	if !ok1 || !ok2 {
		// Unknown names are rejected during validation; treat the pair as disabled otherwise
		return [2]int{none, none}
	}
	return [2]int{first, second}
}

func (p problem) slots() int {
	return p.grid.Len()
}

// Checks whether the course's instructor is available at the slot's hour
func (p problem) allowed(course, slot int) bool {
	return p.courses[course].Available(p.hours[slot])
}

// Checks whether the course's first occurrence cannot start at slot
func (p problem) forbiddenStart(course, slot int) bool {
	return p.grid.ForbiddenStart(slot, p.durations[course])
}

// trivialUnsatisfiable detects inputs no assignment can satisfy without searching
func (p problem) trivialUnsatisfiable() bool {
	if p.slots() == 0 || len(p.courses) == 0 {
		return true
	}
	return lo.Sum(p.demand) != p.slots()
}

// capacityFeasible checks that every demanded unit can be matched to a distinct slot inside its course's window
func (p problem) capacityFeasible() (bool, error) {
	units := make([]any, 0, p.slots())
	for course, demand := range p.demand {
		for range demand {
			units = append(units, course)
		}
	}
	slots := lo.Map(lo.Range(p.slots()), func(slot int, _ int) any { return slot })

	neighbors := func(unitAny any, slotAny any) (bool, error) {
		return p.allowed(unitAny.(int), slotAny.(int)), nil
	}

	graph, err := bipartitegraph.NewBipartiteGraph(units, slots, neighbors)
	if err != nil {
		return false, err
	}

	return len(graph.LargestMatching()) == len(units), nil
}

// Converts course indices into an assignment aligned with the slot grid
func (p problem) decode(timetable []int) Assignment {
	return lo.Map(timetable, func(course int, _ int) string {
		if course == none {
			return ""
		}
		return p.courses[course].Name
	})
}

// Converts an assignment into course indices, failing on unknown names or a length mismatch
func (p problem) encode(assignment Assignment) ([]int, bool) {
	if len(assignment) != p.slots() {
		return nil, false
	}
	timetable := make([]int, len(assignment))
	for slot, name := range assignment {
		course, ok := p.index[name]
		if !ok {
			return nil, false
		}
		timetable[slot] = course
	}
	return timetable, true
}
