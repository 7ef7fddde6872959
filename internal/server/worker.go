package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jishnurajendran/variational-algorithms/internal/solve"
	"github.com/jishnurajendran/variational-algorithms/internal/store"
)

// runJob executes a solve job in the background. If runStore is not nil
// the finished run is persisted; if dataDir is not empty an energy trace
// is written alongside it.
func runJob(ctx context.Context, jm *JobManager, runStore store.Store, dataDir, jobID string) error {
	job, exists := jm.GetJob(jobID)
	if !exists {
		return fmt.Errorf("job not found: %s", jobID)
	}

	err := jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateRunning
	})
	if err != nil {
		return err
	}

	slog.Info("Starting job",
		"job_id", jobID,
		"algorithm", job.Config.Algorithm,
		"size", len(job.Config.Numbers),
	)

	// Open the trace before the solve so even early failures leave a file
	var tracer *store.TraceWriter
	if dataDir != "" {
		tracer, err = store.NewTraceWriter(dataDir, jobID, false)
		if err != nil {
			markJobFailed(jm, jobID, fmt.Errorf("failed to open trace: %w", err))
			return err
		}
		defer tracer.Close()
	}

	// The progress callback mirrors optimizer state into the job and the
	// trace file. The very first evaluation scores the starting point, so
	// it doubles as the initial energy.
	onProgress := func(p solve.Progress) {
		jm.UpdateJob(jobID, func(j *Job) {
			j.BestEnergy = p.BestEnergy
			j.Evaluations = p.Evaluations
			j.Restart = p.Restart
			if p.Evaluations == 1 {
				j.InitialEnergy = p.BestEnergy
			}
		})
		if tracer != nil {
			entry := store.TraceEntry{
				Evaluations: p.Evaluations,
				BestEnergy:  p.BestEnergy,
				Restart:     p.Restart,
				Timestamp:   time.Now(),
			}
			if err := tracer.Write(entry); err != nil {
				slog.Warn("Failed to write trace entry", "job_id", jobID, "error", err)
			} else {
				tracer.Flush() // Keep the trace endpoint readable mid-run
			}
		}
	}

	solver, err := solve.New(job.Config, solve.WithProgress(onProgress))
	if err != nil {
		markJobFailed(jm, jobID, err)
		return err
	}

	// Check for cancellation before starting the expensive part
	select {
	case <-ctx.Done():
		markJobCancelled(jm, jobID)
		return ctx.Err()
	default:
	}

	start := time.Now()

	// Start progress monitoring goroutine
	progressDone := make(chan struct{})
	go monitorProgress(ctx, jm, jobID, start, progressDone)

	result, err := solver.Run()

	close(progressDone)
	elapsed := time.Since(start)

	if err != nil {
		markJobFailed(jm, jobID, err)
		return err
	}

	// Check for cancellation after optimization
	select {
	case <-ctx.Done():
		markJobCancelled(jm, jobID)
		return ctx.Err()
	default:
	}

	// Update job with results
	endTime := time.Now()
	err = jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCompleted
		j.BestParams = result.BestParams
		j.BestEnergy = result.BestEnergy
		j.InitialEnergy = result.InitialEnergy
		j.Evaluations = result.Evaluations
		j.Restart = result.Restarts
		j.Result = result
		j.EndTime = &endTime
	})
	if err != nil {
		return err
	}

	// Persist the finished run
	if runStore != nil {
		record := store.NewRunRecord(jobID, job.Config, result, elapsed)
		if err := runStore.SaveRun(record); err != nil {
			slog.Warn("Failed to persist run", "job_id", jobID, "error", err)
		}
	}

	eps := float64(0)
	if elapsed.Seconds() > 0 {
		eps = float64(result.Evaluations) / elapsed.Seconds()
	}

	slog.Info("Job completed",
		"job_id", jobID,
		"elapsed", elapsed,
		"initial_energy", result.InitialEnergy,
		"best_energy", result.BestEnergy,
		"min_cost", result.MinCost,
		"evals_per_second", eps,
	)

	// Broadcast final completion event
	jm.broadcaster.Broadcast(ProgressEvent{
		JobID:       jobID,
		State:       StateCompleted,
		Evaluations: result.Evaluations,
		BestEnergy:  result.BestEnergy,
		Restart:     result.Restarts,
		EPS:         eps,
		Timestamp:   time.Now(),
	})

	return nil
}

// monitorProgress periodically broadcasts progress events during optimization
func monitorProgress(ctx context.Context, jm *JobManager, jobID string, startTime time.Time, done chan struct{}) {
	ticker := time.NewTicker(500 * time.Millisecond) // Throttle to 2 updates per second
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Get current job state
			job, exists := jm.GetJob(jobID)
			if !exists {
				return
			}

			elapsed := time.Since(startTime).Seconds()

			var eps float64
			if elapsed > 0 && job.Evaluations > 0 {
				eps = float64(job.Evaluations) / elapsed
			}

			// Broadcast progress event
			jm.broadcaster.Broadcast(ProgressEvent{
				JobID:       jobID,
				State:       job.State,
				Evaluations: job.Evaluations,
				BestEnergy:  job.BestEnergy,
				Restart:     job.Restart,
				EPS:         eps,
				Timestamp:   time.Now(),
			})
		}
	}
}

// markJobFailed marks a job as failed with an error message
func markJobFailed(jm *JobManager, jobID string, err error) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateFailed
		j.Error = err.Error()
		j.EndTime = &endTime
	})
	slog.Error("Job failed", "job_id", jobID, "error", err)
}

// markJobCancelled marks a job as cancelled
func markJobCancelled(jm *JobManager, jobID string) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCancelled
		j.EndTime = &endTime
	})
	slog.Info("Job cancelled", "job_id", jobID)
}
