package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/limaJavier/lecture-timetabling/internal/config"
	appErrors "github.com/limaJavier/lecture-timetabling/internal/errors"
	"github.com/limaJavier/lecture-timetabling/internal/logger"
	"github.com/limaJavier/lecture-timetabling/internal/metrics"
	"github.com/limaJavier/lecture-timetabling/pkg/model"
	"github.com/limaJavier/lecture-timetabling/pkg/sat"
)

// StrategyAuto runs the exact search first and falls back to the heuristic on timeout.
const StrategyAuto = "auto"

const (
	SATSolverGini          = "gini"
	SATSolverKissat        = "kissat"
	SATSolverCadical       = "cadical"
	SATSolverCryptominisat = "cryptominisat"
)

// Timetablers groups one timetabler per strategy.
type Timetablers struct {
	Backtracking model.Timetabler
	SAT          model.Timetabler
	Genetic      model.Timetabler
}

// NewTimetablers constructs every strategy from the solver configuration.
func NewTimetablers(cfg config.SolverConfig, logger *zap.Logger) (Timetablers, error) {
	var solver sat.SATSolver
	switch cfg.SATSolver {
	case SATSolverGini, "":
		solver = sat.NewGiniSolver()
	case SATSolverKissat:
		solver = sat.NewKissatSolver(cfg.SolverPath)
	case SATSolverCadical:
		solver = sat.NewCadicalSolver(cfg.SolverPath)
	case SATSolverCryptominisat:
		solver = sat.NewCryptominisatSolver(cfg.SolverPath)
	default:
		return Timetablers{}, fmt.Errorf("unknown SAT solver %q", cfg.SATSolver)
	}

	params := model.DefaultGeneticParams()
	params.PopulationSize = cfg.Genetic.Population
	params.Generations = cfg.Genetic.Generations
	params.MutationRate = cfg.Genetic.MutationRate
	params.Seed = cfg.Genetic.Seed

	genetic, err := model.NewGeneticTimetabler(params, logger)
	if err != nil {
		return Timetablers{}, fmt.Errorf("invalid genetic parameters: %w", err)
	}

	return Timetablers{
		Backtracking: model.NewBacktrackingTimetabler(logger),
		SAT:          model.NewSATTimetabler(solver, logger),
		Genetic:      genetic,
	}, nil
}

// Result is the outcome of one generation request.
type Result struct {
	Schedule    map[string][]model.ScheduleBlock
	Satisfiable bool
	Strategy    model.Strategy
	Complete    bool
	Fitness     int
	FellBack    bool
	Duration    time.Duration
}

// TimetableService selects a strategy, bounds its run time and shapes the produced timetable.
type TimetableService struct {
	timetablers Timetablers
	cfg         config.SolverConfig
	metrics     *metrics.Recorder
	logger      *zap.Logger
}

// NewTimetableService constructs the service.
func NewTimetableService(timetablers Timetablers, cfg config.SolverConfig, recorder *metrics.Recorder, logger *zap.Logger) *TimetableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{
		timetablers: timetablers,
		cfg:         cfg,
		metrics:     recorder,
		logger:      logger,
	}
}

// Generate builds a timetable for input. An empty strategy selects the configured default.
func (s *TimetableService) Generate(ctx context.Context, input model.ModelInput, strategy string) (*Result, error) {
	if len(input.Courses) == 0 || len(input.Constraints.WorkingDays) == 0 {
		return nil, appErrors.ErrInputEmpty
	}

	strategy = strings.ToLower(strings.TrimSpace(strategy))
	if strategy == "" {
		strategy = s.cfg.Strategy
	}
	if strategy == "" {
		strategy = StrategyAuto
	}

	log := logger.FromContext(ctx, s.logger)
	start := time.Now()
	var (
		solution *model.Solution
		used     model.Strategy
		fellBack bool
		err      error
	)

	switch strategy {
	case StrategyAuto:
		used = model.StrategyBacktracking
		solution, err = s.run(ctx, used, s.cfg.Timeout, input)
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil && s.cfg.Fallback {
			log.Warn("exact search timed out, falling back to genetic search",
				zap.Duration("timeout", s.cfg.Timeout),
			)
			s.metrics.IncFallback()
			fellBack = true
			used = model.StrategyGenetic
			solution, err = s.run(ctx, used, 0, input)
		}
	case string(model.StrategyBacktracking), string(model.StrategySAT):
		used = model.Strategy(strategy)
		solution, err = s.run(ctx, used, s.cfg.Timeout, input)
	case string(model.StrategyGenetic):
		used = model.StrategyGenetic
		solution, err = s.run(ctx, used, 0, input)
	default:
		return nil, appErrors.Clone(appErrors.ErrInvalidStrategy, fmt.Sprintf("unknown solver strategy %q", strategy))
	}

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, appErrors.WithCause(appErrors.ErrTimeout, err, map[string]any{"strategy": used})
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "timetable generation failed")
	}

	result := &Result{
		Strategy: used,
		FellBack: fellBack,
		Duration: time.Since(start),
	}
	if solution != nil {
		result.Schedule = solution.Schedule()
		result.Satisfiable = true
		result.Complete = solution.Complete
		result.Fitness = solution.Fitness
	}

	log.Info("timetable generated",
		zap.String("strategy", string(used)),
		zap.Bool("satisfiable", result.Satisfiable),
		zap.Bool("complete", result.Complete),
		zap.Bool("fallback", fellBack),
		zap.Duration("duration", result.Duration),
	)

	return result, nil
}

// run executes one strategy, bounded by timeout when positive.
func (s *TimetableService) run(ctx context.Context, strategy model.Strategy, timeout time.Duration, input model.ModelInput) (*model.Solution, error) {
	timetabler := s.timetabler(strategy)
	if timetabler == nil {
		return nil, fmt.Errorf("strategy %s is not configured", strategy)
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	solution, err := timetabler.Build(ctx, input)
	duration := time.Since(start)

	var (
		outcome string
		fitness int
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		outcome = metrics.OutcomeTimeout
	case err != nil:
		outcome = metrics.OutcomeError
		logger.FromContext(ctx, s.logger).Error("solver failed", zap.String("strategy", string(strategy)), zap.Error(err))
	case solution == nil:
		outcome = metrics.OutcomeUnsatisfiable
	case solution.Complete:
		outcome, fitness = metrics.OutcomeSolved, solution.Fitness
	default:
		outcome, fitness = metrics.OutcomePartial, solution.Fitness
	}
	s.metrics.ObserveSolve(string(strategy), outcome, duration, fitness)

	return solution, err
}

func (s *TimetableService) timetabler(strategy model.Strategy) model.Timetabler {
	switch strategy {
	case model.StrategyBacktracking:
		return s.timetablers.Backtracking
	case model.StrategySAT:
		return s.timetablers.SAT
	case model.StrategyGenetic:
		return s.timetablers.Genetic
	}
	return nil
}
