package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jishnurajendran/variational-algorithms/internal/solve"
	"github.com/jishnurajendran/variational-algorithms/internal/store"
	"github.com/spf13/cobra"
)

var (
	resumeDataDir    string
	resumeIters      int
	resumeMethod     string
	resumePop        int
	resumeRestarts   int
	resumeSeed       int64
	resumeFinalShots int
	resumeJSON       bool
	resumeSave       bool
)

var resumeCmd = &cobra.Command{
	Use:   "resume [run-id]",
	Short: "Refine a stored run from its best parameters",
	Long: `Loads a stored run and continues optimizing from its best parameters.
The problem, algorithm and layer count come from the stored run; budgets,
method and seed can change. The default method is Nelder-Mead, which
suits polishing an already good point.`,
	Args: cobra.ExactArgs(1),
	RunE: runResume,
}

func init() {
	resumeCmd.Flags().StringVar(&resumeDataDir, "data-dir", "./data", "Base directory for run storage")
	resumeCmd.Flags().IntVar(&resumeIters, "iters", 200, "Max optimizer iterations for the refinement")
	resumeCmd.Flags().StringVar(&resumeMethod, "method", "neldermead", "Optimizer: mayfly, neldermead")
	resumeCmd.Flags().IntVar(&resumePop, "pop", 20, "Population size (mayfly)")
	resumeCmd.Flags().IntVar(&resumeRestarts, "restarts", 1, "Independent restarts")
	resumeCmd.Flags().Int64Var(&resumeSeed, "seed", 42, "Random seed")
	resumeCmd.Flags().IntVar(&resumeFinalShots, "final-shots", 4096, "Shots for the final sampling round")
	resumeCmd.Flags().BoolVar(&resumeJSON, "json", false, "Print the raw result as JSON")
	resumeCmd.Flags().BoolVar(&resumeSave, "save", false, "Persist the refined run under a new ID")

	rootCmd.AddCommand(resumeCmd)
}

func runResume(cmd *cobra.Command, args []string) error {
	runID := args[0]

	runStore, err := store.NewFSStore(resumeDataDir)
	if err != nil {
		return fmt.Errorf("failed to open run store: %w", err)
	}

	record, err := runStore.LoadRun(runID)
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}

	cfg := record.Config
	cfg.Iters = resumeIters
	cfg.Method = resumeMethod
	cfg.PopSize = resumePop
	cfg.Restarts = resumeRestarts
	cfg.Seed = resumeSeed
	cfg.FinalShots = resumeFinalShots
	cfg.WarmStart = record.Result.BestParams

	if err := record.CompatibleWith(cfg); err != nil {
		return fmt.Errorf("refinement config incompatible with stored run: %w", err)
	}

	slog.Info("Resuming run",
		"run_id", runID,
		"algorithm", cfg.Algorithm,
		"stored_energy", record.Result.BestEnergy,
		"method", cfg.Method,
	)

	solver, err := solve.New(cfg)
	if err != nil {
		return err
	}

	start := time.Now()
	result, err := solver.Run()
	if err != nil {
		return fmt.Errorf("refinement failed: %w", err)
	}
	elapsed := time.Since(start)

	slog.Info("Refinement complete",
		"elapsed", elapsed,
		"stored_energy", record.Result.BestEnergy,
		"refined_energy", result.BestEnergy,
		"min_cost", result.MinCost,
	)

	if resumeSave {
		refined := store.NewRunRecord(uuid.New().String(), cfg, result, elapsed)
		if err := runStore.SaveRun(refined); err != nil {
			return fmt.Errorf("failed to save refined run: %w", err)
		}
		fmt.Printf("Saved refined run %s\n", refined.ID)
	}

	if resumeJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Printf("Stored energy %.6f, refined energy %.6f\n\n",
		record.Result.BestEnergy, result.BestEnergy)
	printResult(result, elapsed)
	return nil
}
