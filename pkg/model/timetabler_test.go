package model

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"slices"
	"testing"
	"time"

	"github.com/limaJavier/lecture-timetabling/pkg/sat"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestBacktrackingTimetabler(t *testing.T) {
	timetabler := NewBacktrackingTimetabler(nil)

	t.Run("Satisfiable instances", func(t *testing.T) {
		satisfiableExecution(t, timetabler)
	})

	t.Run("Unsatisfiable instances", func(t *testing.T) {
		unsatisfiableExecution(t, timetabler)
	})

	t.Run("Exhaustive agreement", func(t *testing.T) {
		exhaustiveExecution(t, timetabler, 300)
	})
}

func TestGiniBasedSATTimetabler(t *testing.T) {
	timetabler := NewSATTimetabler(sat.NewGiniSolver(), nil)

	t.Run("Satisfiable instances", func(t *testing.T) {
		satisfiableExecution(t, timetabler)
	})

	t.Run("Unsatisfiable instances", func(t *testing.T) {
		unsatisfiableExecution(t, timetabler)
	})

	t.Run("Exhaustive agreement", func(t *testing.T) {
		exhaustiveExecution(t, timetabler, 300)
	})
}

func TestScenarioSingleCourseFillsDay(t *testing.T) {
	//** Arrange
	input := ModelInput{
		Constraints: Constraints{
			WorkingDays: []WorkingDay{{Day: Monday, StartHour: 9, EndHour: 17, TotalHours: 8}},
		},
		Courses: []Course{{Name: "CS101", LectureCount: 7, Duration: 1, StartHour: 9, EndHour: 17}},
	}

	for _, timetabler := range exactTimetablers() {
		//** Act
		solution, err := timetabler.Build(context.Background(), input)

		//** Assert
		require.Nil(t, err)
		require.NotNil(t, solution)
		assert.True(t, solution.Complete)
		assert.Equal(t, Assignment(slices.Repeat([]string{"CS101"}, 7)), solution.Assignment)

		schedule := solution.Schedule()
		assert.Len(t, schedule, 7)
		assert.Len(t, schedule["monday"], 7)
		for _, day := range Days[1:] {
			assert.Empty(t, schedule[day.Key()])
		}
		assert.Equal(t, "2018-02-25T14:00:00", schedule["monday"][4].StartTime)
	}
}

func TestScenarioConsecutivePairAdjacent(t *testing.T) {
	//** Arrange
	input, err := InputFromJson(satisfiableTestDirectory + "consecutive_pair.json")
	require.Nil(t, err)

	for _, timetabler := range exactTimetablers() {
		//** Act
		solution, err := timetabler.Build(context.Background(), input)

		//** Assert
		require.Nil(t, err)
		require.NotNil(t, solution)
		assert.ElementsMatch(t, []string{"A", "B"}, solution.Assignment)
	}
}

func TestScenarioBlockCannotCrossDayEnd(t *testing.T) {
	//** Arrange
	input, err := InputFromJson(unsatisfiableTestDirectory + "block_crosses_day_end.json")
	require.Nil(t, err)

	// The only span left for L is Monday 10:00 -> Tuesday 11:00
	crossing := Assignment{"G", "L", "L", "F", "F"}
	p := newProblem(input)
	timetable, ok := p.encode(crossing)
	require.True(t, ok)
	evaluator := newPredicateEvaluator(p)
	require.True(t, evaluator.EverySubject(timetable))
	require.True(t, evaluator.TeacherTimings(timetable))
	require.False(t, evaluator.SameConsecutive(timetable))

	for _, timetabler := range exactTimetablers() {
		//** Act
		solution, err := timetabler.Build(context.Background(), input)

		//** Assert
		assert.Nil(t, err)
		assert.Nil(t, solution)
	}
}

func TestDemandMismatchSkipsSearch(t *testing.T) {
	//** Arrange
	core, logs := observer.New(zap.DebugLevel)
	timetabler := NewBacktrackingTimetabler(zap.New(core))
	input, err := InputFromJson(unsatisfiableTestDirectory + "demand_mismatch.json")
	require.Nil(t, err)

	//** Act
	solution, err := timetabler.Build(context.Background(), input)

	//** Assert
	assert.Nil(t, err)
	assert.Nil(t, solution)
	assert.Equal(t, 1, logs.FilterMessage("instance rejected before search").Len())
	assert.Zero(t, logs.FilterMessage("backtracking search finished").Len())
}

func TestEmptyDomains(t *testing.T) {
	inputs := map[string]ModelInput{
		"No slots": {
			Constraints: Constraints{WorkingDays: []WorkingDay{{Day: Monday, StartHour: 9, TotalHours: 1}}},
			Courses:     []Course{{Name: "A", LectureCount: 0, Duration: 1, StartHour: 9, EndHour: 10}},
		},
		"No courses": {
			Constraints: Constraints{WorkingDays: []WorkingDay{{Day: Monday, StartHour: 9, TotalHours: 3}}},
		},
		"No window covers a slot": {
			Constraints: Constraints{WorkingDays: []WorkingDay{{Day: Monday, StartHour: 9, TotalHours: 3}}},
			Courses:     []Course{{Name: "A", LectureCount: 2, Duration: 1, StartHour: 15, EndHour: 18}},
		},
	}

	genetic, err := NewGeneticTimetabler(GeneticParams{PopulationSize: 4, Generations: 2, Elite: 1, ParentPool: 2, Seed: 3}, nil)
	require.Nil(t, err)

	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			for _, timetabler := range exactTimetablers() {
				solution, err := timetabler.Build(context.Background(), input)
				assert.Nil(t, err)
				assert.Nil(t, solution)
			}
			assert.NotPanics(t, func() {
				_, _ = genetic.Build(context.Background(), input)
			})
		})
	}
}

func TestCancelledBuild(t *testing.T) {
	//** Arrange
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	input, err := InputFromJson(satisfiableTestDirectory + "non_consecutive_block.json")
	require.Nil(t, err)

	genetic, err := NewGeneticTimetabler(DefaultGeneticParams(), nil)
	require.Nil(t, err)

	for _, timetabler := range append(exactTimetablers(), genetic) {
		//** Act
		solution, err := timetabler.Build(ctx, input)

		//** Assert
		assert.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, solution)
	}
}

func TestBacktrackingDeadlineDuringSearch(t *testing.T) {
	//** Arrange
	core, logs := observer.New(zap.DebugLevel)
	timetabler := NewBacktrackingTimetabler(zap.New(core))
	input, err := InputFromJson(hardTestDirectory + "exhaustive_search.json")
	require.Nil(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	//** Act
	start := time.Now()
	solution, err := timetabler.Build(ctx, input)
	elapsed := time.Since(start)

	//** Assert
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Nil(t, solution)
	assert.Less(t, elapsed, 5*time.Second)
	// The instance passes the presolve checks, so the deadline fired inside the search
	assert.Zero(t, logs.FilterMessage("instance rejected before search").Len())
}

func TestGeneticTimetabler(t *testing.T) {
	t.Run("Single course is trivially complete", func(t *testing.T) {
		//** Arrange
		timetabler, err := NewGeneticTimetabler(GeneticParams{PopulationSize: 20, Generations: 10, MutationRate: 0.01, Seed: 1, Elite: 10, ParentPool: 50}, nil)
		require.Nil(t, err)
		input, err := InputFromJson(satisfiableTestDirectory + "single_day_single_course.json")
		require.Nil(t, err)

		//** Act
		solution, err := timetabler.Build(context.Background(), input)

		//** Assert
		require.Nil(t, err)
		require.NotNil(t, solution)
		assert.Equal(t, StrategyGenetic, solution.Strategy)
		assert.True(t, solution.Complete)
		assert.Equal(t, totalPredicates, solution.Fitness)
		assert.True(t, timetabler.Verify(solution.Assignment, input))
	})

	t.Run("Best fitness never decreases", func(t *testing.T) {
		//** Arrange
		params := DefaultGeneticParams()
		params.PopulationSize, params.Generations, params.Seed = 60, 80, 42
		timetabler, err := NewGeneticTimetabler(params, nil)
		require.Nil(t, err)
		input, err := InputFromJson(satisfiableTestDirectory + "non_consecutive_block.json")
		require.Nil(t, err)

		//** Act
		solution, err := timetabler.Build(context.Background(), input)

		//** Assert
		require.Nil(t, err)
		require.NotNil(t, solution)
		assert.Len(t, solution.History, params.Generations)
		for i := 1; i < len(solution.History); i++ {
			assert.GreaterOrEqual(t, solution.History[i], solution.History[i-1])
		}
		assert.GreaterOrEqual(t, solution.Fitness, solution.History[len(solution.History)-1])
		assert.Equal(t, solution.Fitness == totalPredicates, solution.Complete)
		assert.Equal(t, solution.Fitness, Fitness(solution.Assignment, input))
		assert.Equal(t, solution.Complete, timetabler.Verify(solution.Assignment, input))
	})

	t.Run("Fixed seed is reproducible", func(t *testing.T) {
		//** Arrange
		params := GeneticParams{PopulationSize: 30, Generations: 25, MutationRate: 0.05, Seed: 7, Elite: 5, ParentPool: 15}
		input, err := InputFromJson(satisfiableTestDirectory + "weakly_typed_two_hour.json")
		require.Nil(t, err)

		//** Act
		solutions := lo.Map([]int{0, 1}, func(_ int, _ int) *Solution {
			timetabler, err := NewGeneticTimetabler(params, nil)
			require.Nil(t, err)
			solution, err := timetabler.Build(context.Background(), input)
			require.Nil(t, err)
			return solution
		})

		//** Assert
		require.NotNil(t, solutions[0])
		assert.Equal(t, solutions[0].Assignment, solutions[1].Assignment)
		assert.Equal(t, solutions[0].History, solutions[1].History)
	})

	t.Run("Invalid parameters", func(t *testing.T) {
		for _, params := range []GeneticParams{
			{PopulationSize: 0, Generations: 1, ParentPool: 1},
			{PopulationSize: 10, Generations: -1, ParentPool: 1},
			{PopulationSize: 10, Generations: 1, MutationRate: 1.5, ParentPool: 1},
			{PopulationSize: 10, Generations: 1, ParentPool: 0},
		} {
			_, err := NewGeneticTimetabler(params, nil)
			assert.NotNil(t, err, fmt.Sprintf("%+v", params))
		}
	})
}

func exactTimetablers() []Timetabler {
	return []Timetabler{
		NewBacktrackingTimetabler(nil),
		NewSATTimetabler(sat.NewGiniSolver(), nil),
	}
}

func satisfiableExecution(t *testing.T, timetabler Timetabler) {
	testFiles, err := os.ReadDir(satisfiableTestDirectory)
	if err != nil {
		log.Fatalf("cannot read directory: %v", err)
	}

	for _, file := range testFiles {
		//** Arrange
		filename := satisfiableTestDirectory + file.Name()
		input, err := InputFromJson(filename)
		if err != nil {
			log.Fatalf("cannot parse input file: %v", err)
		}

		//** Act
		solution, err := timetabler.Build(context.Background(), input)

		//** Assert
		assert.Nil(t, err, filename)
		if assert.NotNil(t, solution, filename) {
			assert.True(t, solution.Complete, filename)
			assert.True(t, timetabler.Verify(solution.Assignment, input), filename)
		}
	}
}

func unsatisfiableExecution(t *testing.T, timetabler Timetabler) {
	testFiles, err := os.ReadDir(unsatisfiableTestDirectory)
	if err != nil {
		log.Fatalf("cannot read directory: %v", err)
	}

	for _, file := range testFiles {
		//** Arrange
		filename := unsatisfiableTestDirectory + file.Name()
		input, err := InputFromJson(filename)
		if err != nil {
			log.Fatalf("cannot parse input file: %v", err)
		}

		//** Act
		solution, err := timetabler.Build(context.Background(), input)

		//** Assert
		assert.Nil(t, err, filename)
		assert.Nil(t, solution, filename)
	}
}

// Compares the timetabler against an exhaustive enumeration on small random instances
func exhaustiveExecution(t *testing.T, timetabler Timetabler, instances int) {
	random := rand.New(rand.NewPCG(17, 29))

	for i := range instances {
		//** Arrange
		input := generateInput(random)

		//** Act
		solution, err := timetabler.Build(context.Background(), input)
		expected := exhaustiveSatisfiable(input)

		//** Assert
		require.Nil(t, err)
		description := fmt.Sprintf("instance %d: %+v", i, input)
		if expected {
			if assert.NotNil(t, solution, description) {
				assert.True(t, timetabler.Verify(solution.Assignment, input), description)
			}
		} else {
			assert.Nil(t, solution, description)
		}
	}
}

func generateInput(random *rand.Rand) ModelInput {
	input := ModelInput{}

	for _, index := range random.Perm(len(Days))[:1+random.IntN(2)] {
		start := 9 + random.IntN(4)
		totalHours := 1 + random.IntN(5)
		input.Constraints.WorkingDays = append(input.Constraints.WorkingDays, WorkingDay{
			Day:        Day(index),
			StartHour:  start,
			EndHour:    start + totalHours,
			TotalHours: totalHours,
		})
	}

	slots := BuildSlotGrid(input.DayHours()).Len()
	demands := make([]int, 1+random.IntN(3))
	for range slots {
		demands[random.IntN(len(demands))]++
	}
	if random.IntN(10) == 0 {
		demands[0]++
	}

	for i, demand := range demands {
		lectures, duration := demand, 1
		if demand > 0 && demand%2 == 0 && random.IntN(2) == 0 {
			lectures, duration = demand/2, 2
		} else if demand > 0 && demand%3 == 0 && random.IntN(2) == 0 {
			lectures, duration = demand/3, 3
		}
		start := 8 + random.IntN(5)
		input.Courses = append(input.Courses, Course{
			Name:         fmt.Sprintf("C%d", i),
			LectureCount: lectures,
			Duration:     duration,
			StartHour:    start,
			EndHour:      start + 1 + random.IntN(7),
		})
	}

	if len(demands) > 1 {
		if random.IntN(3) == 0 {
			input.Constraints.Consecutive = SubjectPair{"C0", "C1"}
		}
		if random.IntN(3) == 0 {
			input.Constraints.NonConsecutive = SubjectPair{"C1", fmt.Sprintf("C%d", len(demands)-1)}
		}
	}

	return input
}

func exhaustiveSatisfiable(input ModelInput) bool {
	p := newProblem(input)
	evaluator := newPredicateEvaluator(p)
	slots, courses := p.slots(), len(p.courses)
	if slots == 0 || courses == 0 {
		return false
	}

	timetable := make([]int, slots)
	for {
		if evaluator.Satisfied(timetable) {
			return true
		}

		// Advance to the next timetable in lexicographic order
		slot := 0
		for ; slot < slots; slot++ {
			if timetable[slot]++; timetable[slot] < courses {
				break
			}
			timetable[slot] = 0
		}
		if slot == slots {
			return false
		}
	}
}
