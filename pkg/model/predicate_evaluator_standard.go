package model

import (
	"slices"

	"github.com/samber/lo"
)

type predicateEvaluatorStandard struct {
	problem problem
}

func newPredicateEvaluator(p problem) predicateEvaluator {
	return &predicateEvaluatorStandard{problem: p}
}

func (evaluator *predicateEvaluatorStandard) EverySubject(timetable []int) bool {
	counts := make([]int, len(evaluator.problem.courses))
	for _, course := range timetable {
		if course < 0 || course >= len(counts) {
			return false
		}
		counts[course]++
	}
	return slices.Equal(counts, evaluator.problem.demand)
}

func (evaluator *predicateEvaluatorStandard) SameConsecutive(timetable []int) bool {
	for course, duration := range evaluator.problem.durations {
		if duration <= 1 {
			continue
		}

		first := slices.Index(timetable, course)
		if first == -1 {
			continue // Nothing to keep together
		}
		if evaluator.problem.forbiddenStart(course, first) {
			return false
		}
		for offset := 1; offset < duration; offset++ {
			if first+offset >= len(timetable) || timetable[first+offset] != course {
				return false
			}
		}
	}
	return true
}

func (evaluator *predicateEvaluatorStandard) TeacherTimings(timetable []int) bool {
	for slot, course := range timetable {
		if course < 0 || course >= len(evaluator.problem.courses) || !evaluator.problem.allowed(course, slot) {
			return false
		}
	}
	return true
}

func (evaluator *predicateEvaluatorStandard) DiffConsecutive(timetable []int) bool {
	pair := evaluator.problem.consecutive
	if pair[0] == none {
		return true
	}
	return neighborsSatisfy(timetable, pair, touches)
}

func (evaluator *predicateEvaluatorStandard) DiffNonConsecutive(timetable []int) bool {
	pair := evaluator.problem.nonConsecutive
	if pair[0] == none {
		return true
	}
	return neighborsSatisfy(timetable, pair, avoids)
}

func (evaluator *predicateEvaluatorStandard) Fitness(timetable []int) int {
	return lo.CountBy([]bool{
		evaluator.EverySubject(timetable),
		evaluator.SameConsecutive(timetable),
		evaluator.TeacherTimings(timetable),
		evaluator.DiffConsecutive(timetable),
		evaluator.DiffNonConsecutive(timetable),
	}, func(passed bool) bool { return passed })
}

func (evaluator *predicateEvaluatorStandard) Satisfied(timetable []int) bool {
	return evaluator.EverySubject(timetable) &&
		evaluator.TeacherTimings(timetable) &&
		evaluator.SameConsecutive(timetable) &&
		evaluator.DiffConsecutive(timetable) &&
		evaluator.DiffNonConsecutive(timetable)
}

func touches(neighbor, partner int) bool { return neighbor == partner }

func avoids(neighbor, partner int) bool { return neighbor != partner }

// Checks the relation between every occurrence of either paired course and each existing neighbor, against the other course of the pair
func neighborsSatisfy(timetable []int, pair [2]int, relation func(neighbor, partner int) bool) bool {
	for slot := range len(timetable) - 1 {
		if !adjacentSatisfy(timetable[slot], timetable[slot+1], pair, relation) {
			return false
		}
	}
	return true
}

// Checks a single adjacency from both sides
func adjacentSatisfy(left, right int, pair [2]int, relation func(neighbor, partner int) bool) bool {
	return occurrenceSatisfies(left, right, pair, relation) && occurrenceSatisfies(right, left, pair, relation)
}

func occurrenceSatisfies(course, neighbor int, pair [2]int, relation func(neighbor, partner int) bool) bool {
	switch course {
	case pair[0]:
		return relation(neighbor, pair[1])
	case pair[1]:
		return relation(neighbor, pair[0])
	}
	return true
}
