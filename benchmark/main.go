// Package main provides a performance benchmarking tool for the loadcompare CLI.
// It generates synthetic scenario documents of increasing size, runs each command
// several times, treats the first successful run as cold and averages the rest as warm,
// and writes CSV output for performance analysis and documentation.
//
// Prerequisites:
// - loadcompare binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory for the generated datasets (defaults to a temp dir)
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aclements/go-moremath/stats"
	"github.com/goccy/go-yaml"
	"github.com/huangsam/loadcompare/schema"
)

// BenchmarkResult holds the result of a benchmark run (cold run and average of warm runs).
type BenchmarkResult struct {
	Dataset  string
	Rows     int
	Command  string
	ColdTime string
	WarmTime string
	WarmDev  string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir  string
	Timeout  time.Duration
	Runs     int
	Sizes    map[string]int
	Order    []string
	Commands map[string][]string
}

func main() {
	if len(os.Args) > 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}

	workDir := ""
	if len(os.Args) == 2 {
		workDir = os.Args[1]
	} else {
		dir, err := os.MkdirTemp("", "loadcompare-bench-*")
		if err != nil {
			fmt.Printf("Failed to create work dir: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = os.RemoveAll(dir) }()
		workDir = dir
	}

	config := BenchmarkConfig{
		WorkDir: workDir,
		Timeout: 2 * time.Minute,
		Runs:    5,
		Sizes: map[string]int{
			"small":  1_000,
			"medium": 20_000,
			"large":  100_000,
		},
		Order: []string{"small", "medium", "large"},
		Commands: map[string][]string{
			"compare":  {"compare", "--all-metrics"},
			"rows":     {"rows", "--param", "parameter_1=100", "--output", "csv"},
			"chart":    {"chart", "--axis", "parameter_2", "--output", "json"},
			"validate": {"validate"},
		},
	}

	if err := checkPrerequisites(); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	results, err := runBenchmarks(config)
	if err != nil {
		fmt.Printf("Benchmark failed: %v\n", err)
		os.Exit(1)
	}

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results, config)
}

// checkPrerequisites verifies that the loadcompare binary exists
func checkPrerequisites() error {
	if _, err := exec.LookPath("loadcompare"); err != nil {
		return errors.New("loadcompare binary not found in PATH")
	}
	return nil
}

// writeDataset generates a scenario document and a CSV file with n rows under dir.
func writeDataset(dir, name string, n int) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	file := name + ".csv"
	doc := schema.Configuration{
		Scenarios: []schema.Scenario{{
			ID:          name,
			Name:        "Synthetic " + name,
			File:        file,
			Description: fmt.Sprintf("%d generated rows", n),
			TargetAName: "baseline",
			TargetBName: "candidate",
			Metrics: []schema.Metric{
				{ID: "throughput", Name: "Throughput", Unit: "req/s", HigherIsBetter: true},
				{ID: "latency", Name: "Latency", Unit: "ms"},
			},
			Parameters: map[string]schema.ParameterDef{
				schema.Parameter1Key: {Name: "Connections", Unit: "conn"},
				schema.Parameter2Key: {Name: "Payload", Unit: "KB"},
				schema.Parameter3Key: {Name: "Threads"},
			},
		}},
		ColumnMappings: []schema.ColumnMapping{{
			File: file,
			Mappings: map[string]string{
				schema.TestConditionKey:              "condition",
				schema.Parameter1Key:                 "connections",
				schema.Parameter2Key:                 "payload",
				schema.Parameter3Key:                 "threads",
				schema.ScenarioAColumn("throughput"): "a_rps",
				schema.ScenarioBColumn("throughput"): "b_rps",
				schema.ScenarioAColumn("latency"):    "a_p99",
				schema.ScenarioBColumn("latency"):    "b_p99",
			},
		}},
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0o644); err != nil {
		return err
	}

	f, err := os.Create(filepath.Join(dir, file))
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"condition", "connections", "payload", "threads", "a_rps", "b_rps", "a_p99", "b_p99"}); err != nil {
		return err
	}
	conditions := []string{"warmup", "steady", "spike", "soak"}
	rng := rand.New(rand.NewPCG(uint64(n), 42))
	for i := range n {
		conns := 100 * (1 + i%8)
		rps := float64(conns) * (9 + rng.Float64())
		p99 := 5 + 40*rng.Float64()
		record := []string{
			conditions[i%len(conditions)],
			strconv.Itoa(conns),
			strconv.Itoa(1 << (i % 5)),
			strconv.Itoa(1 + i%4),
			strconv.FormatFloat(rps, 'f', 2, 64),
			strconv.FormatFloat(rps*1.08, 'f', 2, 64),
			strconv.FormatFloat(p99, 'f', 2, 64),
			strconv.FormatFloat(p99*0.93, 'f', 2, 64),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// runBenchmarks generates every dataset and runs all commands against it
func runBenchmarks(config BenchmarkConfig) ([]BenchmarkResult, error) {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d datasets, %v timeout, %d runs per command\n",
		len(config.Order), config.Timeout, config.Runs)

	for _, name := range config.Order {
		rows := config.Sizes[name]
		dir := filepath.Join(config.WorkDir, name)
		fmt.Printf("Generating %s dataset (%d rows)\n", name, rows)
		if err := writeDataset(dir, name, rows); err != nil {
			return nil, fmt.Errorf("failed to generate %s: %w", name, err)
		}

		for _, command := range []string{"compare", "rows", "chart", "validate"} {
			results = append(results, runBenchmarkSuite(config, name, rows, dir, command))
		}
	}
	return results, nil
}

// runBenchmarkSuite runs a command several times and summarizes the timings
func runBenchmarkSuite(config BenchmarkConfig, dataset string, rows int, dir, command string) BenchmarkResult {
	fmt.Printf("Running %s on %s\n", command, dataset)

	coldTime, warmTimes := runBenchmark(config, dir, config.Commands[command])

	result := BenchmarkResult{
		Dataset:  dataset,
		Rows:     rows,
		Command:  command,
		ColdTime: "TIMEOUT",
		WarmTime: "TIMEOUT",
		WarmDev:  "-",
	}
	if coldTime > 0 {
		result.ColdTime = fmt.Sprintf("%.3fs", coldTime)
	}
	if len(warmTimes) > 0 {
		sample := stats.Sample{Xs: warmTimes}
		result.WarmTime = fmt.Sprintf("%.3fs", sample.Mean())
		if len(warmTimes) > 1 {
			result.WarmDev = fmt.Sprintf("%.3fs", sample.StdDev())
		}
	}

	fmt.Printf("  Cold time: %s, Warm average: %s (stddev %s)\n", result.ColdTime, result.WarmTime, result.WarmDev)
	return result
}

// runBenchmark executes a loadcompare command multiple times and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, dir string, args []string) (coldTime float64, warmTimes []float64) {
	full := append([]string{"--base-path", dir, "--data-config", "config.yaml", "--log-level", "warn"}, args...)

	var times []float64
	for range config.Runs {
		ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
		start := time.Now()
		cmd := exec.CommandContext(ctx, "loadcompare", full...)
		output, err := cmd.Output()
		elapsed := time.Since(start).Seconds()
		cancel()

		if err == nil && isSuccess(output) {
			times = append(times, elapsed)
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// isSuccess checks if command output carries a result
func isSuccess(output []byte) bool {
	return len(strings.TrimSpace(string(output))) > 0
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("loadcompare_benchmark_%s.csv", timestamp))

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"dataset", "rows", "cmd", "cold_time", "warm_avg", "warm_stddev"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, result := range results {
		record := []string{result.Dataset, strconv.Itoa(result.Rows), result.Command, result.ColdTime, result.WarmTime, result.WarmDev}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult, config BenchmarkConfig) {
	fmt.Printf("Benchmark complete\n")
	for _, command := range []string{"compare", "rows", "chart", "validate"} {
		fmt.Printf("%s:\n", command)
		for _, name := range config.Order {
			for _, r := range results {
				if r.Command == command && r.Dataset == name {
					fmt.Printf("  %-8s (%7d rows): Cold: %s, Warm: %s\n", r.Dataset, r.Rows, r.ColdTime, r.WarmTime)
				}
			}
		}
	}
}
