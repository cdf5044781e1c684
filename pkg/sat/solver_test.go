package sat

import (
	"context"
	"math/rand/v2"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGini(t *testing.T) {
	solver := NewGiniSolver()
	t.Run("Random instances", func(t *testing.T) {
		randomExecution(t, solver)
	})
	t.Run("Unsatisfiable instance", func(t *testing.T) {
		// x1 and not x1
		instance := SAT{Variables: 1, Clauses: [][]int64{{1}, {-1}}}

		solution, err := solver.Solve(context.Background(), instance)

		assert.Nil(t, err)
		assert.Nil(t, solution)
	})
	t.Run("Cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		solution, err := solver.Solve(ctx, SAT{Variables: 1, Clauses: [][]int64{{1}}})

		assert.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, solution)
	})
	t.Run("Deadline during search", func(t *testing.T) {
		//** Arrange
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		instance := pigeonholeInstance(13, 12)

		//** Act
		start := time.Now()
		solution, err := solver.Solve(ctx, instance)
		elapsed := time.Since(start)

		//** Assert
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Nil(t, solution)
		assert.Less(t, elapsed, 5*time.Second)
	})
}

func TestExternalSolvers(t *testing.T) {
	solvers := map[string]SATSolver{
		DefaultKissatPath:        NewKissatSolver(""),
		DefaultCadicalPath:       NewCadicalSolver(""),
		DefaultCryptominisatPath: NewCryptominisatSolver(""),
	}
	for executable, solver := range solvers {
		t.Run(executable, func(t *testing.T) {
			if _, err := exec.LookPath(executable); err != nil {
				t.Skipf("%v executable is not available", executable)
			}
			randomExecution(t, solver)
		})
	}
}

func TestExternalSolverMissingExecutable(t *testing.T) {
	solver := NewKissatSolver("/nonexistent/kissat")

	solution, err := solver.Solve(context.Background(), SAT{Variables: 1, Clauses: [][]int64{{1}}})

	assert.ErrorContains(t, err, "cannot start kissat")
	assert.Nil(t, solution)
}

func TestToDIMACS(t *testing.T) {
	instance := SAT{Variables: 3, Clauses: [][]int64{{1, -2}, {3}}}

	assert.Equal(t, "p cnf 3 2\n1 -2 0\n3 0\n", instance.ToDIMACS())
}

func TestParseSolution(t *testing.T) {
	output := "c comment\ns SATISFIABLE\nv 1 -2 3\nv -4 5 0\n"

	solution, err := parseSolution(output)

	require.Nil(t, err)
	assert.Equal(t, SATSolution{1, -2, 3, -4, 5}, solution)
	assert.True(t, solution.Holds(3))
	assert.False(t, solution.Holds(2))
	assert.Equal(t, []bool{false, true, false, true, false, true}, solution.Table(5))

	_, err = parseSolution("v 1 x 0\n")
	assert.NotNil(t, err)
}

func randomExecution(t *testing.T, solver SATSolver) {
	random := rand.New(rand.NewPCG(7, 11))
	for range 20 {
		//** Arrange
		literals := uint64(random.IntN(10) + 1)
		clauses := random.IntN(30) + 1
		instance := generateSATInstance(random, literals, clauses)

		//** Act
		solution, err := solver.Solve(context.Background(), instance)

		//** Assert
		require.Nil(t, err)
		if solution == nil {
			assert.False(t, bruteForceSatisfiable(instance), "solver reported unsatisfiable on a satisfiable instance")
			continue
		}
		assert.True(t, assertSATSolution(instance, solution))
	}
}

// Places pigeons into fewer holes, one pigeon per hole; unsatisfiable and exponential for resolution
func pigeonholeInstance(pigeons, holes int64) SAT {
	variable := func(pigeon, hole int64) int64 { return pigeon*holes + hole + 1 }
	instance := SAT{Variables: uint64(pigeons * holes)}

	for pigeon := range pigeons {
		clause := make([]int64, 0, holes)
		for hole := range holes {
			clause = append(clause, variable(pigeon, hole))
		}
		instance.Clauses = append(instance.Clauses, clause)
	}

	for hole := range holes {
		for first := range pigeons {
			for second := first + 1; second < pigeons; second++ {
				instance.Clauses = append(instance.Clauses, []int64{-variable(first, hole), -variable(second, hole)})
			}
		}
	}

	return instance
}

func generateSATInstance(random *rand.Rand, literals uint64, clauses int) SAT {
	satInstance := SAT{
		Variables: literals,
		Clauses:   make([][]int64, clauses),
	}

	for i := range clauses {
		satInstance.Clauses[i] = make([]int64, 0, literals)
		for j := range literals {
			if random.Float32() < 0.3 {
				var sign int64 = 1
				if random.Float32() < 0.5 {
					sign = -1
				}
				satInstance.Clauses[i] = append(satInstance.Clauses[i], sign*(1+int64(j)))
			}
		}

		if len(satInstance.Clauses[i]) == 0 {
			var sign int64 = 1
			if random.Float32() < 0.5 {
				sign = -1
			}
			satInstance.Clauses[i] = append(satInstance.Clauses[i], sign*(1+random.Int64N(int64(literals))))
		}
	}

	return satInstance
}

func bruteForceSatisfiable(satInstance SAT) bool {
	for mask := uint64(0); mask < 1<<satInstance.Variables; mask++ {
		solution := make(SATSolution, 0, satInstance.Variables)
		for variable := uint64(1); variable <= satInstance.Variables; variable++ {
			if mask&(1<<(variable-1)) != 0 {
				solution = append(solution, int64(variable))
			} else {
				solution = append(solution, -int64(variable))
			}
		}
		if assertSATSolution(satInstance, solution) {
			return true
		}
	}
	return false
}

func assertSATSolution(satInstance SAT, satSolution SATSolution) bool {
	// Make sure there are no duplicates nor contradictions
	literals := make(map[int64]bool)
	for _, literal := range satSolution {
		if literals[literal] || literals[-literal] {
			return false
		}
		literals[literal] = true
	}

	// Check that all clauses are satisfied
	for _, clause := range satInstance.Clauses {
		satisfied := false
		for _, literal := range clause {
			if literals[literal] {
				satisfied = true
				break
			}
		}
		if !satisfied {
			return false
		}
	}

	return true
}
