package sat

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Executable names looked up on PATH when no explicit path is configured
const (
	DefaultKissatPath        = "kissat"
	DefaultCadicalPath       = "cadical"
	DefaultCryptominisatPath = "cryptominisat5"
)

// externalSolver feeds DIMACS into a competition-style solver binary through its standard input
type externalSolver struct {
	name string
	path string
	args []string
}

func NewKissatSolver(path string) SATSolver {
	return newExternalSolver("kissat", path, DefaultKissatPath, "-q", "--relaxed")
}

func NewCadicalSolver(path string) SATSolver {
	return newExternalSolver("cadical", path, DefaultCadicalPath, "-q")
}

func NewCryptominisatSolver(path string) SATSolver {
	return newExternalSolver("cryptominisat", path, DefaultCryptominisatPath, "--verb", "0")
}

func newExternalSolver(name, path, defaultPath string, args ...string) *externalSolver {
	if path == "" {
		path = defaultPath
	}
	return &externalSolver{name: name, path: path, args: args}
}

func (solver *externalSolver) Solve(ctx context.Context, sat SAT) (SATSolution, error) {
	dimacs := sat.ToDIMACS() // Transform SAT into DIMACS-CNF string format

	cmd := exec.CommandContext(ctx, solver.path, solver.args...)
	cmd.Stdin = strings.NewReader(dimacs) // Feed dimacs into the solver's standard input

	var stdOut bytes.Buffer
	cmd.Stdout = &stdOut
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	// Exit-code of 10 stands for satisfiable and exit-code 20 stands for unsatisfiable
	if err != nil && cmd.ProcessState == nil {
		return nil, fmt.Errorf("cannot start %v at %q: %w", solver.name, solver.path, err)
	} else if err != nil && cmd.ProcessState.ExitCode() != 10 && cmd.ProcessState.ExitCode() != 20 {
		return nil, fmt.Errorf("an error occurred during %v execution: %v : %v", solver.name, err.Error(), stderr.String())
	} else if cmd.ProcessState.ExitCode() == 20 {
		return nil, nil
	}

	return parseSolution(stdOut.String())
}
