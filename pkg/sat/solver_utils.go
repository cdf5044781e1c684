package sat

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// Extracts the literals from the "v" lines of a solver's competition-format output
func parseSolution(solverOutput string) (SATSolution, error) {
	values := lo.Reduce(
		lo.Filter(strings.Split(solverOutput, "\n"), func(line string, _ int) bool {
			return len(line) > 0 && line[0] == 'v'
		}),
		func(values []string, line string, _ int) []string {
			return append(values, strings.Fields(line[1:])...)
		},
		[]string{},
	)

	solution := make(SATSolution, 0, len(values))
	for _, valueStr := range values {
		value, err := strconv.ParseInt(valueStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid literal in solver output: %w", err)
		}
		if value == 0 { // Terminator
			break
		}
		solution = append(solution, value)
	}
	return solution, nil
}
