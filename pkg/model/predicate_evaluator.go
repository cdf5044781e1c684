package model

// Number of predicates a timetable is scored against
const totalPredicates = 5

// All methods take a full timetable: one course index per slot of the grid
type predicateEvaluator interface {
	// Checks whether every course occupies exactly its demanded number of slots
	EverySubject(timetable []int) bool

	// Checks whether the first occurrence of every multi-hour course opens a contiguous block that stays within its day
	SameConsecutive(timetable []int) bool

	// Checks whether every slot's hour lies within the availability window of the course it holds
	TeacherTimings(timetable []int) bool

	// Checks whether every occurrence of a consecutive-paired course is flanked by its partner (true when the pair is disabled)
	DiffConsecutive(timetable []int) bool

	// Checks whether no occurrence of a non-consecutive-paired course touches its partner (true when the pair is disabled)
	DiffNonConsecutive(timetable []int) bool

	// Counts the predicates the timetable satisfies
	Fitness(timetable []int) int

	// Checks whether the timetable satisfies every predicate
	Satisfied(timetable []int) bool
}
