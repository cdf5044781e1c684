package sat

import (
	"fmt"
	"strings"
)

// SATSolution holds the assigned literals of a satisfiable instance: variable v is true when v is present and false when -v is present
type SATSolution []int64

type SAT struct {
	Variables uint64
	Clauses   [][]int64
}

func (s SAT) ToDIMACS() string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "p cnf %d %d\n", s.Variables, len(s.Clauses))
	for _, clause := range s.Clauses {
		for _, literal := range clause {
			fmt.Fprintf(&builder, "%d ", literal)
		}
		builder.WriteString("0\n")
	}
	return builder.String()
}

// Returns whether the variable is set to true in the solution
func (solution SATSolution) Holds(variable uint64) bool {
	for _, literal := range solution {
		if literal == int64(variable) {
			return true
		}
	}
	return false
}

// Returns the solution as a lookup table indexed by variable (index 0 is unused)
func (solution SATSolution) Table(variables uint64) []bool {
	table := make([]bool, variables+1)
	for _, literal := range solution {
		if literal > 0 && uint64(literal) <= variables {
			table[literal] = true
		}
	}
	return table
}
