package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/limaJavier/lecture-timetabling/pkg/model"
	"github.com/limaJavier/lecture-timetabling/pkg/sat"
)

const (
	exitFailure    = 1
	exitSolved     = 10
	exitUnverified = 15
	exitNoSolution = 20
)

var (
	validStrategies = []string{"backtracking", "sat", "genetic"}
	validSolvers    = []string{"gini", "kissat", "cadical", "cryptominisat"}
	solvers         = map[string]func(path string) sat.SATSolver{
		"gini":          func(string) sat.SATSolver { return sat.NewGiniSolver() },
		"kissat":        sat.NewKissatSolver,
		"cadical":       sat.NewCadicalSolver,
		"cryptominisat": sat.NewCryptominisatSolver,
	}
)

func main() {
	// Define arguments
	strategyPtr := flag.String("strategy", "backtracking", `Strategy to build the timetable. Allowed values are:
- "backtracking" (exhaustive search; a timetable is found if one exists),
- "sat" (same guarantees, the constraints are solved by a SAT-Solver) and
- "genetic" (heuristic; the best timetable found may violate some constraints), where "backtracking" is the default`)
	solverPtr := flag.String("solver", "gini", `SAT-Solver used by the "sat" strategy. Allowed values are: "gini" (embedded), "kissat", "cadical", "cryptominisat", where "gini" is the default`)
	solverPathPtr := flag.String("solver-path", "", "Path to the external SAT-Solver executable; if empty, it'll be looked up on PATH")
	filePathPtr := flag.String("file", "", "Path to the input file")
	outFilePathPtr := flag.String("out", "", "Path to the file where the output will be written; if empty, it'll be written into the Standard Output")
	timeoutPtr := flag.Duration("timeout", 0, "Maximum time spent building the timetable; 0 disables the limit")
	populationPtr := flag.Int("population", model.DefaultGeneticParams().PopulationSize, "Population size used by the genetic strategy")
	generationsPtr := flag.Int("generations", model.DefaultGeneticParams().Generations, "Generations evolved by the genetic strategy")
	mutationPtr := flag.Float64("mutation", model.DefaultGeneticParams().MutationRate, "Per-slot mutation probability used by the genetic strategy")
	seedPtr := flag.Uint64("seed", 0, "Random seed used by the genetic strategy; 0 draws a random one")
	verbosePtr := flag.Bool("verbose", false, "Log solver progress to the Standard Error")
	flag.Parse()
	strategy := strings.ToLower(*strategyPtr)
	solverStr := strings.ToLower(*solverPtr)
	filePath := *filePathPtr
	outFile := *outFilePathPtr

	// Validate arguments
	if !slices.Contains(validStrategies, strategy) {
		log.Fatalf("%v is not a valid strategy", strategy)
	} else if !slices.Contains(validSolvers, solverStr) {
		log.Fatalf("%v is not a valid solver", solverStr)
	} else if filePath == "" {
		log.Fatal("an input file must be specified")
	}

	logger := zap.NewNop()
	if *verbosePtr {
		var err error
		if logger, err = zap.NewDevelopment(); err != nil {
			log.Fatalf("cannot initialize logger: %v", err)
		}
	}

	exit(logger, run(options{
		strategy:   strategy,
		solver:     solverStr,
		solverPath: *solverPathPtr,
		filePath:   filePath,
		outFile:    outFile,
		timeout:    *timeoutPtr,
		genetic: model.GeneticParams{
			PopulationSize: *populationPtr,
			Generations:    *generationsPtr,
			MutationRate:   *mutationPtr,
			Seed:           *seedPtr,
		},
	}, logger))
}

type options struct {
	strategy   string
	solver     string
	solverPath string
	filePath   string
	outFile    string
	timeout    time.Duration
	genetic    model.GeneticParams // Only the user facing fields, the rest keep their defaults
}

var osExit = os.Exit

// Flushes the logger, os.Exit skips deferred calls
func exit(logger *zap.Logger, code int) {
	_ = logger.Sync()
	osExit(code)
}

// Builds the timetable and returns the process exit code
func run(opts options, logger *zap.Logger) int {
	// Extract input
	input, err := model.InputFromJson(opts.filePath)
	if err != nil {
		log.Printf("cannot parse input file: %v", err)
		return exitFailure
	}

	// Initialize engines
	var timetabler model.Timetabler
	switch opts.strategy {
	case "backtracking":
		timetabler = model.NewBacktrackingTimetabler(logger)
	case "sat":
		solver := solvers[opts.solver](opts.solverPath)
		timetabler = model.NewSATTimetabler(solver, logger)
	case "genetic":
		params := model.DefaultGeneticParams()
		params.PopulationSize = opts.genetic.PopulationSize
		params.Generations = opts.genetic.Generations
		params.MutationRate = opts.genetic.MutationRate
		params.Seed = opts.genetic.Seed
		if timetabler, err = model.NewGeneticTimetabler(params, logger); err != nil {
			log.Printf("invalid genetic parameters: %v", err)
			return exitFailure
		}
	}

	ctx := context.Background()
	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	// Build timetable
	start := time.Now()
	solution, err := timetabler.Build(ctx, input)
	elapsed := time.Since(start)

	if err != nil {
		log.Printf("an error occurred during timetable construction: %v", err)
		return exitFailure
	} else if solution == nil {
		fmt.Printf("Elapsed: %v\n", elapsed)
		return exitNoSolution
	}

	// Marshal output into json
	scheduleJson, err := json.Marshal(solution.Schedule())
	if err != nil {
		log.Printf("an error occurred while building output json: %v", err)
		return exitFailure
	}

	// Verify outfile is empty, if so then write the results to the Standard Output
	if opts.outFile == "" {
		fmt.Println(string(scheduleJson))
	} else if err := os.WriteFile(opts.outFile, scheduleJson, 0666); err != nil {
		log.Printf("an error occurred while writing to the output file: %v", err)
		return exitFailure
	}

	fmt.Printf("Elapsed: %v\n", elapsed)
	fmt.Printf("Fitness: %v/5\n", solution.Fitness)

	// Verify timetable correctness
	if !timetabler.Verify(solution.Assignment, input) {
		return exitUnverified
	}
	return exitSolved
}
