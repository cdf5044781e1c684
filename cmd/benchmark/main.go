package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/limaJavier/lecture-timetabling/pkg/model"

	"github.com/samber/lo"
)

const (
	satisfiableTestDirectory   = "../../test/instances/satisfiable/"
	unsatisfiableTestDirectory = "../../test/instances/unsatisfiable/"
)

// Exit codes of the timetable executable
const (
	exitSolved     = 10
	exitUnverified = 15
	exitNoSolution = 20
)

type ResultType int

const (
	solved ResultType = iota
	partial
	unsatisfiable
	timeout
)

var resultTypes = map[ResultType]string{
	solved:        "solved",
	partial:       "partial",
	unsatisfiable: "unsatisfiable",
	timeout:       "timeout",
}

type TestMetadata struct {
	Name        string
	Satisfiable bool
	Courses     int
	Days        int
	Slots       int
	Demand      int
}

type TimetablerMetadata struct {
	Strategy string
	Solver   string // Only meaningful for the sat strategy
}

type BenchmarkResult struct {
	Timetabler    TimetablerMetadata
	Test          TestMetadata
	Duration      int64
	Memory        float32
	CpuPercentage int64
	Result        ResultType
}

func main() {
	executablePathPtr := flag.String("executable", "../../bin/timetable", "Path to the timetable executable")
	timeoutPtr := flag.Duration("timeout", time.Minute, "Maximum time given to each run")
	outPtr := flag.String("out", "benchmark_results.csv", "Path to the CSV file where results will be written")
	flag.Parse()

	tests := getTests()
	timetablers := getTimetablers()
	results := make([]BenchmarkResult, 0, len(tests)*len(timetablers))

	for _, test := range tests {
		for _, timetabler := range timetablers {
			fmt.Printf("Benchmarking test \"%v\" with strategy \"%v\" and solver \"%v\"\n", test.Name, timetabler.Strategy, timetabler.Solver)

			duration, maxMemory, cpuPercentage, result := measure(*executablePathPtr, *timeoutPtr, timetabler, test.Name)

			results = append(results, BenchmarkResult{
				Timetabler:    timetabler,
				Test:          test,
				Duration:      duration,
				Memory:        maxMemory,
				CpuPercentage: cpuPercentage,
				Result:        result,
			})
		}
	}

	toCsv(*outPtr, results)
}

func getTests() []TestMetadata {
	tests := make([]TestMetadata, 0)
	for _, tuple := range lo.Zip2([]string{satisfiableTestDirectory, unsatisfiableTestDirectory}, []bool{true, false}) {
		directory, satisfiable := tuple.A, tuple.B
		testFiles, err := os.ReadDir(directory)
		if err != nil {
			log.Fatalf("cannot read directory: %v", err)
		}

		for _, file := range testFiles {
			filename := directory + file.Name()
			input, err := model.InputFromJson(filename)
			if err != nil {
				log.Fatalf("cannot parse input file: %v", err)
			}

			tests = append(tests, TestMetadata{
				Name:        filename,
				Satisfiable: satisfiable,
				Courses:     len(input.Courses),
				Days:        len(input.Constraints.WorkingDays),
				Slots:       model.BuildSlotGrid(input.DayHours()).Len(),
				Demand:      lo.SumBy(input.Courses, model.Course.Demand),
			})
		}
	}

	return tests
}

func getTimetablers() []TimetablerMetadata {
	return []TimetablerMetadata{
		{Strategy: "backtracking"},
		{Strategy: "sat", Solver: "gini"},
		{Strategy: "sat", Solver: "kissat"},
		{Strategy: "sat", Solver: "cadical"},
		{Strategy: "genetic"},
	}
}

func measure(executablePath string, limit time.Duration, timetabler TimetablerMetadata, testFile string) (duration int64, maxMemory float32, cpuPercentage int64, result ResultType) {
	ctx, cancel := context.WithTimeout(context.Background(), limit)
	defer cancel()

	args := []string{"-v", executablePath, "-strategy", timetabler.Strategy, "-file", testFile}
	if timetabler.Solver != "" {
		args = append(args, "-solver", timetabler.Solver)
	}
	cmd := exec.CommandContext(ctx, "/usr/bin/time", args...)

	var stdOut bytes.Buffer
	cmd.Stdout = &stdOut
	var stdErr bytes.Buffer
	cmd.Stderr = &stdErr

	cmd.Run()
	if ctx.Err() != nil {
		return limit.Milliseconds(), 0, 0, timeout
	}

	switch cmd.ProcessState.ExitCode() {
	case exitSolved:
		result = solved
	case exitUnverified:
		result = partial
	case exitNoSolution:
		result = unsatisfiable
	default:
		log.Fatalf("an error occurred during the execution \"timetable\" at test \"%v\" using strategy \"%v\", solver \"%v\": %v\n", testFile, timetabler.Strategy, timetabler.Solver, stdErr.String())
	}

	splits := strings.Split(stdErr.String(), "\n")
	getLine := func(substr string) string {
		line, ok := lo.Find(splits, func(line string) bool {
			return strings.Contains(strings.ToLower(line), substr)
		})
		if !ok {
			log.Fatalf("Substring \"%v\" could not be found", substr)
		}
		return line
	}

	duration = parseDurationLine(getLine("wall clock"))
	maxMemory = parseMemoryLine(getLine("maximum resident set size"))
	cpuPercentage = parseCpuPercentageLine(getLine("percent of cpu"))

	return duration, maxMemory, cpuPercentage, result
}

func toCsv(path string, results []BenchmarkResult) {
	file, err := os.Create(path)
	if err != nil {
		log.Panicf("cannot create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writeResults(writer, results); err != nil {
		log.Panicf("cannot write CSV: %v", err)
	}
}

func writeResults(writer *csv.Writer, results []BenchmarkResult) error {
	header := []string{"Strategy", "Solver", "Test", "Satisfiable", "Courses", "Days", "Slots", "Demand", "Duration(ms)", "Memory(MB)", "CPU(%)", "Result"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("cannot write CSV header: %w", err)
	}

	for _, result := range results {
		record := []string{
			result.Timetabler.Strategy,
			result.Timetabler.Solver,
			result.Test.Name,
			fmt.Sprintf("%v", result.Test.Satisfiable),
			fmt.Sprintf("%d", result.Test.Courses),
			fmt.Sprintf("%d", result.Test.Days),
			fmt.Sprintf("%d", result.Test.Slots),
			fmt.Sprintf("%d", result.Test.Demand),
			fmt.Sprintf("%d", result.Duration),
			fmt.Sprintf("%.1f", result.Memory),
			fmt.Sprintf("%d", result.CpuPercentage),
			resultTypes[result.Result],
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("cannot write CSV record: %w", err)
		}
	}
	return nil
}

func parseDurationLine(line string) int64 {
	durationStr := strings.Split(line, "(h:mm:ss or m:ss):")[1][1:]
	return parseDuration(durationStr)
}

func parseDuration(durationStr string) int64 {
	parts := strings.Split(durationStr, ":")
	secondsStr := parts[len(parts)-1]
	secondsParts := strings.Split(secondsStr, ".")

	var duration int64
	if len(parts) == 3 { // h:mm:ss
		hours := lo.Must(strconv.Atoi(parts[0]))
		minutes := lo.Must(strconv.Atoi(parts[1]))
		seconds := lo.Must(strconv.Atoi(secondsParts[0]))
		hundredthOfSeconds := lo.Must(strconv.Atoi(secondsParts[1]))
		duration = int64(hours*3600+minutes*60+seconds)*1000 + int64(hundredthOfSeconds*10)
	} else if len(parts) == 2 { // m:ss
		minutes := lo.Must(strconv.Atoi(parts[0]))
		seconds := lo.Must(strconv.Atoi(secondsParts[0]))
		hundredthOfSeconds := lo.Must(strconv.Atoi(secondsParts[1]))
		duration = int64(minutes*60+seconds)*1000 + int64(hundredthOfSeconds*10)
	} else {
		log.Fatalf("unexpected duration format: %v", durationStr)
	}
	return duration
}

func parseMemoryLine(line string) float32 {
	memoryStr := strings.Split(line, ":")[1][1:]
	return float32(lo.Must(strconv.ParseFloat(memoryStr, 32))) / 1024
}

func parseCpuPercentageLine(line string) int64 {
	percentageStr := strings.Split(line, ":")[1][1:]
	percentageStr = percentageStr[:len(percentageStr)-1]
	return int64(lo.Must(strconv.Atoi(percentageStr)))
}
