package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env  string
	Port int

	CORS   CORSConfig
	Log    LogConfig
	Solver SolverConfig
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SolverConfig selects and tunes the timetable search.
type SolverConfig struct {
	Strategy   string // auto, backtracking, sat or genetic
	Timeout    time.Duration
	Fallback   bool
	SATSolver  string // gini, kissat, cadical or cryptominisat
	SolverPath string // External solver executable; empty looks the solver up on PATH
	Genetic    GeneticConfig
}

type GeneticConfig struct {
	Population   int
	Generations  int
	MutationRate float64
	Seed         uint64
}

// Load reads an optional .env file and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Solver = SolverConfig{
		Strategy:   strings.ToLower(v.GetString("SOLVER_STRATEGY")),
		Timeout:    parseDuration(v.GetString("SOLVER_TIMEOUT"), 10*time.Second),
		Fallback:   v.GetBool("SOLVER_FALLBACK"),
		SATSolver:  strings.ToLower(v.GetString("SAT_SOLVER")),
		SolverPath: v.GetString("SAT_SOLVER_PATH"),
		Genetic: GeneticConfig{
			Population:   v.GetInt("GENETIC_POPULATION"),
			Generations:  v.GetInt("GENETIC_GENERATIONS"),
			MutationRate: v.GetFloat64("GENETIC_MUTATION_RATE"),
			Seed:         v.GetUint64("GENETIC_SEED"),
		},
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8000)

	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SOLVER_STRATEGY", "auto")
	v.SetDefault("SOLVER_TIMEOUT", "10s")
	v.SetDefault("SOLVER_FALLBACK", true)
	v.SetDefault("SAT_SOLVER", "gini")
	v.SetDefault("SAT_SOLVER_PATH", "")

	v.SetDefault("GENETIC_POPULATION", 100)
	v.SetDefault("GENETIC_GENERATIONS", 1000)
	v.SetDefault("GENETIC_MUTATION_RATE", 0.01)
	v.SetDefault("GENETIC_SEED", 0)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
