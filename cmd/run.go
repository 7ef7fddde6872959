package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/jishnurajendran/variational-algorithms/internal/solve"
	"github.com/jishnurajendran/variational-algorithms/internal/store"
	"github.com/spf13/cobra"
)

var (
	numbersFlag string
	inputPath   string
	algorithm   string
	layers      int
	shots       int
	finalShots  int
	iters       int
	popSize     int
	method      string
	restarts    int
	seed        int64
	backend     string
	topK        int
	jsonOut     bool
	saveRun     bool
	runDataDir  string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single partitioning solve",
	Long: `Runs one variational optimization and prints the best partitions found.
The numbers come from --numbers or, one per whitespace-separated token,
from an --input file.`,
	RunE: runSolve,
}

func init() {
	runCmd.Flags().StringVar(&numbersFlag, "numbers", "", "Comma-separated numbers to partition")
	runCmd.Flags().StringVar(&inputPath, "input", "", "File with whitespace-separated numbers")
	runCmd.Flags().StringVar(&algorithm, "algorithm", "qaoa", "Algorithm: qaoa, vqe")
	runCmd.Flags().IntVar(&layers, "layers", 1, "Ansatz layers")
	runCmd.Flags().IntVar(&shots, "shots", 512, "Shots per energy evaluation (qaoa)")
	runCmd.Flags().IntVar(&finalShots, "final-shots", 4096, "Shots for the final sampling round")
	runCmd.Flags().IntVar(&iters, "iters", 100, "Max optimizer iterations")
	runCmd.Flags().IntVar(&popSize, "pop", 20, "Population size (mayfly)")
	runCmd.Flags().StringVar(&method, "method", "mayfly", "Optimizer: mayfly, neldermead")
	runCmd.Flags().IntVar(&restarts, "restarts", 1, "Independent restarts")
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Random seed")
	runCmd.Flags().StringVar(&backend, "backend", "", "Simulator backend (auto, statevector)")
	runCmd.Flags().IntVar(&topK, "top", 8, "Partitions to show in the ranking")
	runCmd.Flags().BoolVar(&jsonOut, "json", false, "Print the raw result as JSON")
	runCmd.Flags().BoolVar(&saveRun, "save", false, "Persist the finished run")
	runCmd.Flags().StringVar(&runDataDir, "data-dir", "./data", "Base directory for run storage")

	rootCmd.AddCommand(runCmd)
}

func runSolve(cmd *cobra.Command, args []string) error {
	numbers, err := parseNumbers(numbersFlag, inputPath)
	if err != nil {
		return err
	}

	cfg := solve.DefaultConfig()
	cfg.Numbers = numbers
	cfg.Algorithm = algorithm
	cfg.Layers = layers
	cfg.Shots = shots
	cfg.FinalShots = finalShots
	cfg.Iters = iters
	cfg.PopSize = popSize
	cfg.Method = method
	cfg.Restarts = restarts
	cfg.Seed = seed
	cfg.Backend = backend
	cfg.TopK = topK

	solver, err := solve.New(cfg)
	if err != nil {
		return err
	}

	start := time.Now()
	result, err := solver.Run()
	if err != nil {
		return fmt.Errorf("solve failed: %w", err)
	}
	elapsed := time.Since(start)

	eps := float64(0)
	if elapsed.Seconds() > 0 {
		eps = float64(result.Evaluations) / elapsed.Seconds()
	}

	slog.Info("Optimization complete",
		"elapsed", elapsed,
		"initial_energy", result.InitialEnergy,
		"best_energy", result.BestEnergy,
		"min_cost", result.MinCost,
		"evaluations", result.Evaluations,
		"evals_per_second", fmt.Sprintf("%.0f", eps),
	)

	if saveRun {
		runStore, err := store.NewFSStore(runDataDir)
		if err != nil {
			return fmt.Errorf("failed to open run store: %w", err)
		}
		record := store.NewRunRecord(uuid.New().String(), cfg, result, elapsed)
		if err := runStore.SaveRun(record); err != nil {
			return fmt.Errorf("failed to save run: %w", err)
		}
		fmt.Printf("Saved run %s\n", record.ID)
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	printResult(result, elapsed)
	return nil
}

// parseNumbers reads the problem input from the --numbers flag or an
// input file, exactly one of which must be given.
func parseNumbers(raw, path string) ([]float64, error) {
	if raw != "" && path != "" {
		return nil, fmt.Errorf("pass either --numbers or --input, not both")
	}

	var tokens []string
	switch {
	case raw != "":
		tokens = strings.Split(raw, ",")
	case path != "":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read input file: %w", err)
		}
		tokens = strings.Fields(string(data))
	default:
		return nil, fmt.Errorf("no numbers given: pass --numbers or --input")
	}

	numbers := make([]float64, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", tok, err)
		}
		numbers = append(numbers, v)
	}
	return numbers, nil
}

// printResult writes the human-readable partition report.
func printResult(result *solve.Result, elapsed time.Duration) {
	fmt.Printf("Partitioned %d numbers with %s (%d layer(s)) in %s\n",
		len(result.Numbers), result.Algorithm, result.Layers, elapsed.Round(time.Millisecond))
	fmt.Printf("Energy: %.4f -> %.4f after %d evaluations, %d restart(s)\n",
		result.InitialEnergy, result.BestEnergy, result.Evaluations, result.Restarts)
	fmt.Printf("Minimum cost over %d shots: %g (%d distinct outcomes)\n\n",
		result.FinalShots, result.MinCost, result.Distinct)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BITSTRING\tSUBSET A\tSUBSET B\tDIFF\tCOST\tFREQ")
	fmt.Fprintln(w, "---------\t--------\t--------\t----\t----\t----")
	for _, p := range result.TopPartitions {
		fmt.Fprintf(w, "%s\t%v\t%v\t%g\t%g\t%.1f%%\n",
			p.Bitstring, p.SubsetA, p.SubsetB, p.SumDiff, p.Cost, p.Frequency*100)
	}
	w.Flush()
}
