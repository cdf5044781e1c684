package model

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"

	"go.uber.org/zap"
)

type GeneticParams struct {
	PopulationSize int
	Generations    int
	MutationRate   float64
	Seed           uint64 // 0 draws a random seed
	Elite          int    // Individuals copied unchanged into the next generation
	ParentPool     int    // Top-ranked individuals parents are drawn from
}

func DefaultGeneticParams() GeneticParams {
	return GeneticParams{
		PopulationSize: 100,
		Generations:    1000,
		MutationRate:   0.01,
		Elite:          10,
		ParentPool:     50,
	}
}

func (params GeneticParams) validate() error {
	switch {
	case params.PopulationSize < 1:
		return fmt.Errorf("population size must be positive: %d", params.PopulationSize)
	case params.Generations < 0:
		return fmt.Errorf("generations must not be negative: %d", params.Generations)
	case params.MutationRate < 0 || params.MutationRate > 1:
		return fmt.Errorf("mutation rate must lie in [0, 1]: %v", params.MutationRate)
	case params.Elite < 0 || params.ParentPool < 1:
		return fmt.Errorf("elite (%d) must not be negative and parent pool (%d) must be positive", params.Elite, params.ParentPool)
	}
	return nil
}

type geneticTimetabler struct {
	params GeneticParams
	logger *zap.Logger
}

func NewGeneticTimetabler(params GeneticParams, logger *zap.Logger) (Timetabler, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &geneticTimetabler{
		params: params,
		logger: logger,
	}, nil
}

type individual struct {
	timetable []int
	fitness   int
}

func (timetabler *geneticTimetabler) Build(ctx context.Context, modelInput ModelInput) (*Solution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p := newProblem(modelInput)
	slots, courses := p.slots(), len(p.courses)
	if slots == 0 || courses == 0 {
		return nil, nil
	}

	evaluator := newPredicateEvaluator(p)
	random := timetabler.newRandom()
	params := timetabler.params
	elite := min(params.Elite, params.PopulationSize)
	parentPool := min(params.ParentPool, params.PopulationSize)

	evaluate := func(timetable []int) individual {
		return individual{timetable: timetable, fitness: evaluator.Fitness(timetable)}
	}
	rank := func(population []individual) {
		slices.SortStableFunc(population, func(a, b individual) int {
			return b.fitness - a.fitness
		})
	}

	//** Initial population
	population := make([]individual, params.PopulationSize)
	for i := range population {
		timetable := make([]int, slots)
		for slot := range timetable {
			timetable[slot] = random.IntN(courses)
		}
		population[i] = evaluate(timetable)
	}

	//** Evolve
	history := make([]int, 0, params.Generations)
	for range params.Generations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rank(population)
		history = append(history, population[0].fitness)

		next := make([]individual, 0, params.PopulationSize)
		next = append(next, population[:elite]...)
		for len(next) < params.PopulationSize {
			parent1 := population[random.IntN(parentPool)].timetable
			parent2 := population[random.IntN(parentPool)].timetable

			// Single-point crossover
			cut := random.IntN(slots)
			child := slices.Concat(parent1[:cut], parent2[cut:])

			// Per-gene mutation
			for slot := range child {
				if random.Float64() < params.MutationRate {
					child[slot] = random.IntN(courses)
				}
			}
			next = append(next, evaluate(child))
		}
		population = next
	}

	rank(population)
	best := population[0]

	timetabler.logger.Debug("genetic search finished",
		zap.Int("generations", params.Generations),
		zap.Int("fitness", best.fitness),
	)

	if best.fitness == 0 {
		return nil, nil
	}

	return &Solution{
		Strategy:   StrategyGenetic,
		Assignment: p.decode(best.timetable),
		Grid:       p.grid,
		Fitness:    best.fitness,
		Complete:   best.fitness == totalPredicates,
		History:    history,
	}, nil
}

func (timetabler *geneticTimetabler) Verify(assignment Assignment, modelInput ModelInput) bool {
	return verify(assignment, modelInput)
}

func (timetabler *geneticTimetabler) newRandom() *rand.Rand {
	seed := timetabler.params.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
