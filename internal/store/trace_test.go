package store

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestTraceWriter_WriteAndRead(t *testing.T) {
	tmpDir := t.TempDir()

	runID := "test-run-123"

	writer, err := NewTraceWriter(tmpDir, runID, false)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}

	entries := []TraceEntry{
		{Evaluations: 1, BestEnergy: 9.5, Restart: 1, Timestamp: time.Now()},
		{Evaluations: 64, BestEnergy: 4.2, Restart: 1, Timestamp: time.Now()},
		{Evaluations: 130, BestEnergy: 1.8, Restart: 2, Timestamp: time.Now()},
		{Evaluations: 192, BestEnergy: 0.9, Restart: 2, Timestamp: time.Now()},
	}

	for _, entry := range entries {
		if err := writer.Write(entry); err != nil {
			t.Fatalf("Failed to write entry: %v", err)
		}
	}

	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close writer: %v", err)
	}

	// Verify file exists
	tracePath := filepath.Join(tmpDir, "runs", runID, "trace.jsonl")
	if _, err := os.Stat(tracePath); os.IsNotExist(err) {
		t.Fatalf("Trace file not created: %s", tracePath)
	}

	// Read entries back
	reader, err := NewTraceReader(tmpDir, runID)
	if err != nil {
		t.Fatalf("Failed to create trace reader: %v", err)
	}
	defer reader.Close()

	readEntries, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("Failed to read entries: %v", err)
	}

	if len(readEntries) != len(entries) {
		t.Fatalf("Expected %d entries, got %d", len(entries), len(readEntries))
	}

	for i, entry := range readEntries {
		if entry.Evaluations != entries[i].Evaluations {
			t.Errorf("Entry %d: expected evaluations %d, got %d", i, entries[i].Evaluations, entry.Evaluations)
		}
		if entry.BestEnergy != entries[i].BestEnergy {
			t.Errorf("Entry %d: expected energy %f, got %f", i, entries[i].BestEnergy, entry.BestEnergy)
		}
		if entry.Restart != entries[i].Restart {
			t.Errorf("Entry %d: expected restart %d, got %d", i, entries[i].Restart, entry.Restart)
		}
	}
}

func TestTraceWriter_Append(t *testing.T) {
	tmpDir := t.TempDir()
	runID := "test-run-append"

	writer, err := NewTraceWriter(tmpDir, runID, false)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}

	if err := writer.Write(TraceEntry{Evaluations: 1, BestEnergy: 1.0, Restart: 1, Timestamp: time.Now()}); err != nil {
		t.Fatalf("Failed to write entry: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close writer: %v", err)
	}

	// Append, the way a resumed run continues its history
	writer, err = NewTraceWriter(tmpDir, runID, true)
	if err != nil {
		t.Fatalf("Failed to create trace writer in append mode: %v", err)
	}

	if err := writer.Write(TraceEntry{Evaluations: 65, BestEnergy: 0.8, Restart: 1, Timestamp: time.Now()}); err != nil {
		t.Fatalf("Failed to write entry: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close writer: %v", err)
	}

	reader, err := NewTraceReader(tmpDir, runID)
	if err != nil {
		t.Fatalf("Failed to create trace reader: %v", err)
	}
	defer reader.Close()

	entries, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("Failed to read entries: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].Evaluations != 1 {
		t.Errorf("First entry: expected evaluations 1, got %d", entries[0].Evaluations)
	}
	if entries[1].Evaluations != 65 {
		t.Errorf("Second entry: expected evaluations 65, got %d", entries[1].Evaluations)
	}
}

func TestTraceWriter_Truncate(t *testing.T) {
	tmpDir := t.TempDir()
	runID := "test-run-truncate"

	writer, err := NewTraceWriter(tmpDir, runID, false)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}
	writer.Write(TraceEntry{Evaluations: 1, BestEnergy: 1.0, Restart: 1, Timestamp: time.Now()})
	writer.Write(TraceEntry{Evaluations: 2, BestEnergy: 0.9, Restart: 1, Timestamp: time.Now()})
	writer.Close()

	// Opening without append starts the history over
	writer, err = NewTraceWriter(tmpDir, runID, false)
	if err != nil {
		t.Fatalf("Failed to recreate trace writer: %v", err)
	}
	writer.Write(TraceEntry{Evaluations: 1, BestEnergy: 2.0, Restart: 1, Timestamp: time.Now()})
	writer.Close()

	reader, err := NewTraceReader(tmpDir, runID)
	if err != nil {
		t.Fatalf("Failed to create trace reader: %v", err)
	}
	defer reader.Close()

	entries, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("Failed to read entries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry after truncate, got %d", len(entries))
	}
	if entries[0].BestEnergy != 2.0 {
		t.Errorf("Expected energy 2.0, got %f", entries[0].BestEnergy)
	}
}

func TestTraceWriter_Flush(t *testing.T) {
	tmpDir := t.TempDir()
	runID := "test-run-flush"

	writer, err := NewTraceWriter(tmpDir, runID, false)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}
	defer writer.Close()

	if err := writer.Write(TraceEntry{Evaluations: 1, BestEnergy: 1.0, Restart: 1, Timestamp: time.Now()}); err != nil {
		t.Fatalf("Failed to write entry: %v", err)
	}

	if err := writer.Flush(); err != nil {
		t.Fatalf("Failed to flush: %v", err)
	}

	// Data should be on disk now (even without closing)
	tracePath := filepath.Join(tmpDir, "runs", runID, "trace.jsonl")
	data, err := os.ReadFile(tracePath)
	if err != nil {
		t.Fatalf("Failed to read trace file: %v", err)
	}
	if len(data) == 0 {
		t.Error("Trace file is empty after flush")
	}
}

func TestTraceReader_ReadIteratively(t *testing.T) {
	tmpDir := t.TempDir()
	runID := "test-run-iter"

	writer, err := NewTraceWriter(tmpDir, runID, false)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}

	for i := 0; i < 5; i++ {
		entry := TraceEntry{
			Evaluations: (i + 1) * 10,
			BestEnergy:  1.0 - float64(i)*0.1,
			Restart:     1,
			Timestamp:   time.Now(),
		}
		if err := writer.Write(entry); err != nil {
			t.Fatalf("Failed to write entry: %v", err)
		}
	}
	writer.Close()

	reader, err := NewTraceReader(tmpDir, runID)
	if err != nil {
		t.Fatalf("Failed to create trace reader: %v", err)
	}
	defer reader.Close()

	count := 0
	for {
		entry, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Failed to read entry: %v", err)
		}

		expectedEvals := (count + 1) * 10
		if entry.Evaluations != expectedEvals {
			t.Errorf("Entry %d: expected evaluations %d, got %d", count, expectedEvals, entry.Evaluations)
		}

		count++
	}

	if count != 5 {
		t.Errorf("Expected to read 5 entries, got %d", count)
	}
}

func TestTraceReader_NotFound(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := NewTraceReader(tmpDir, "nonexistent-run")
	if err == nil {
		t.Fatal("Expected error for nonexistent trace file")
	}

	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected NotFoundError, got: %v", err)
	}
}

func TestDeleteTrace(t *testing.T) {
	tmpDir := t.TempDir()
	runID := "test-run-delete"

	writer, err := NewTraceWriter(tmpDir, runID, false)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}
	writer.Write(TraceEntry{Evaluations: 1, BestEnergy: 1.0, Restart: 1, Timestamp: time.Now()})
	writer.Close()

	tracePath := filepath.Join(tmpDir, "runs", runID, "trace.jsonl")
	if _, err := os.Stat(tracePath); os.IsNotExist(err) {
		t.Fatal("Trace file was not created")
	}

	if err := DeleteTrace(tmpDir, runID); err != nil {
		t.Fatalf("Failed to delete trace: %v", err)
	}

	if _, err := os.Stat(tracePath); !os.IsNotExist(err) {
		t.Error("Trace file still exists after delete")
	}
}

func TestDeleteTrace_NotFound(t *testing.T) {
	tmpDir := t.TempDir()

	// Should not error when deleting a nonexistent trace
	if err := DeleteTrace(tmpDir, "nonexistent-run"); err != nil {
		t.Errorf("DeleteTrace should not error for nonexistent file, got: %v", err)
	}
}

func TestTraceWriter_ConcurrentWrites(t *testing.T) {
	tmpDir := t.TempDir()
	runID := "test-run-concurrent"

	writer, err := NewTraceWriter(tmpDir, runID, false)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}
	defer writer.Close()

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func(evals int) {
			entry := TraceEntry{
				Evaluations: evals,
				BestEnergy:  float64(evals),
				Restart:     1,
				Timestamp:   time.Now(),
			}
			if err := writer.Write(entry); err != nil {
				t.Errorf("Concurrent write failed: %v", err)
			}
			done <- true
		}(i)
	}

	for i := 0; i < 10; i++ {
		<-done
	}

	writer.Flush()

	reader, err := NewTraceReader(tmpDir, runID)
	if err != nil {
		t.Fatalf("Failed to create trace reader: %v", err)
	}
	defer reader.Close()

	entries, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("Failed to read entries: %v", err)
	}

	if len(entries) != 10 {
		t.Errorf("Expected 10 entries, got %d", len(entries))
	}
}
