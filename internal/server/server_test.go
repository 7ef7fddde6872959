package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jishnurajendran/variational-algorithms/internal/solve"
	"github.com/jishnurajendran/variational-algorithms/internal/store"
)

func TestServer_Index(t *testing.T) {
	s := NewServer(":8080", nil, "")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	s.handleIndex(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var info map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&info); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if info["service"] != "variational-algorithms" {
		t.Errorf("Unexpected service name: %v", info["service"])
	}

	// Anything but the exact root is not found
	req = httptest.NewRequest(http.MethodGet, "/nope", nil)
	w = httptest.NewRecorder()
	s.handleIndex(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestServer_CreateJob(t *testing.T) {
	s := NewServer(":8080", nil, "")

	// Minimal payload; everything else keeps its default
	body := []byte(`{"numbers": [1, 1, 2], "shots": 64, "final_shots": 256, "iters": 10}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs", bytes.NewReader(body))
	w := httptest.NewRecorder()

	s.handleCreateJob(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", w.Code)
	}

	var job Job
	if err := json.NewDecoder(w.Body).Decode(&job); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if job.ID == "" {
		t.Error("Job ID should not be empty")
	}

	if len(job.Config.Numbers) != 3 {
		t.Errorf("Expected 3 numbers, got %d", len(job.Config.Numbers))
	}

	if job.Config.Layers != 1 {
		t.Errorf("Absent fields should keep defaults, got layers=%d", job.Config.Layers)
	}

	// The worker starts immediately, and small jobs can finish fast
	if job.State == StateFailed || job.State == StateCancelled {
		t.Errorf("Unexpected job state %s", job.State)
	}
}

func TestServer_CreateJob_Invalid(t *testing.T) {
	s := NewServer(":8080", nil, "")

	tests := []struct {
		name string
		body string
	}{
		{"malformed JSON", `{"numbers": [1, 2`},
		{"too few numbers", `{"numbers": [5]}`},
		{"unknown algorithm", `{"numbers": [1, 2], "algorithm": "annealing"}`},
		{"zero layers", `{"numbers": [1, 2], "layers": 0}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			s.handleCreateJob(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", w.Code)
			}
		})
	}

	if len(s.jobManager.ListJobs()) != 0 {
		t.Error("Rejected payloads should not create jobs")
	}
}

func TestServer_ListJobs(t *testing.T) {
	s := NewServer(":8080", nil, "")

	// Create two jobs directly, bypassing the worker
	s.jobManager.CreateJob(testJobConfig())
	s.jobManager.CreateJob(testJobConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs", nil)
	w := httptest.NewRecorder()

	s.handleListJobs(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var jobs []*Job
	if err := json.NewDecoder(w.Body).Decode(&jobs); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if len(jobs) != 2 {
		t.Errorf("Expected 2 jobs, got %d", len(jobs))
	}
}

func TestServer_GetJobStatus(t *testing.T) {
	s := NewServer(":8080", nil, "")

	job := s.jobManager.CreateJob(testJobConfig())

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/jobs/%s/status", job.ID), nil)
	w := httptest.NewRecorder()

	s.handleGetJobStatus(w, req, job.ID)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if response["id"] != job.ID {
		t.Error("Response should contain job ID")
	}

	if response["state"] != string(StatePending) {
		t.Errorf("Expected pending state, got %v", response["state"])
	}
}

func TestServer_GetJobStatus_NotFound(t *testing.T) {
	s := NewServer(":8080", nil, "")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/nonexistent/status", nil)
	w := httptest.NewRecorder()

	s.handleGetJobStatus(w, req, "nonexistent")

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestServer_GetJobResult(t *testing.T) {
	s := NewServer(":8080", nil, "")

	job := s.jobManager.CreateJob(testJobConfig())

	// No result before the job has run
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/jobs/%s/result", job.ID), nil)
	w := httptest.NewRecorder()

	s.handleGetJobResult(w, req, job.ID)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 before run, got %d", w.Code)
	}

	// Run job and wait for completion
	if err := runJob(context.Background(), s.jobManager, nil, "", job.ID); err != nil {
		t.Fatalf("Job failed: %v", err)
	}

	w = httptest.NewRecorder()
	s.handleGetJobResult(w, req, job.ID)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var result solve.Result
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode result: %v", err)
	}

	if len(result.BestParams) != 2 {
		t.Errorf("Expected 2 params, got %d", len(result.BestParams))
	}

	if result.Evaluations == 0 {
		t.Error("Result should record evaluations")
	}
}

func TestServer_GetJobTrace(t *testing.T) {
	tmpDir := t.TempDir()
	st, err := store.NewFSStore(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	s := NewServer(":8080", st, tmpDir)

	job := s.jobManager.CreateJob(testJobConfig())

	if err := runJob(context.Background(), s.jobManager, st, tmpDir, job.ID); err != nil {
		t.Fatalf("Job failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/jobs/%s/trace", job.ID), nil)
	w := httptest.NewRecorder()

	s.handleGetJobTrace(w, req, job.ID)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var entries []store.TraceEntry
	if err := json.NewDecoder(w.Body).Decode(&entries); err != nil {
		t.Fatalf("Failed to decode trace: %v", err)
	}

	if len(entries) == 0 {
		t.Error("Trace should have entries after a run")
	}
}

func TestServer_GetJobTrace_Disabled(t *testing.T) {
	s := NewServer(":8080", nil, "")

	job := s.jobManager.CreateJob(testJobConfig())

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/jobs/%s/trace", job.ID), nil)
	w := httptest.NewRecorder()

	s.handleGetJobTrace(w, req, job.ID)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 without a data dir, got %d", w.Code)
	}
}

func TestServer_ListRuns(t *testing.T) {
	tmpDir := t.TempDir()
	st, err := store.NewFSStore(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	s := NewServer(":8080", st, tmpDir)

	job := s.jobManager.CreateJob(testJobConfig())
	if err := runJob(context.Background(), s.jobManager, st, tmpDir, job.ID); err != nil {
		t.Fatalf("Job failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil)
	w := httptest.NewRecorder()

	s.handleListRuns(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var infos []store.RunInfo
	if err := json.NewDecoder(w.Body).Decode(&infos); err != nil {
		t.Fatalf("Failed to decode runs: %v", err)
	}

	if len(infos) != 1 {
		t.Fatalf("Expected 1 run, got %d", len(infos))
	}

	if infos[0].ID != job.ID {
		t.Errorf("Expected run %s, got %s", job.ID, infos[0].ID)
	}
}

func TestServer_ListRuns_Disabled(t *testing.T) {
	s := NewServer(":8080", nil, "")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil)
	w := httptest.NewRecorder()

	s.handleListRuns(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 without a store, got %d", w.Code)
	}
}

func TestServer_Integration(t *testing.T) {
	// Skip in short mode
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	tmpDir := t.TempDir()
	st, err := store.NewFSStore(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	s := NewServer("localhost:0", st, tmpDir)
	srv := httptest.NewServer(s.corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/jobs" {
			s.handleJobs(w, r)
		} else if r.URL.Path == "/api/v1/runs" {
			s.handleListRuns(w, r)
		} else {
			s.handleJobsWithID(w, r)
		}
	})))
	defer srv.Close()

	// Create job
	body := []byte(`{"numbers": [1, 1, 2], "shots": 64, "final_shots": 256, "iters": 10, "seed": 42}`)
	resp, err := http.Post(srv.URL+"/api/v1/jobs", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("Failed to create job: %v", err)
	}
	defer resp.Body.Close()

	var job Job
	json.NewDecoder(resp.Body).Decode(&job)

	// Poll status until completed
	maxAttempts := 50
	for i := 0; i < maxAttempts; i++ {
		resp, err := http.Get(srv.URL + "/api/v1/jobs/" + job.ID + "/status")
		if err != nil {
			t.Fatalf("Failed to get status: %v", err)
		}

		var status map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&status)
		resp.Body.Close()

		if status["state"] == string(StateCompleted) {
			break
		}

		if status["state"] == string(StateFailed) {
			t.Fatalf("Job failed: %v", status["error"])
		}

		if i == maxAttempts-1 {
			t.Fatal("Job did not complete in time")
		}

		time.Sleep(100 * time.Millisecond)
	}

	// Fetch the result
	resp, err = http.Get(srv.URL + "/api/v1/jobs/" + job.ID + "/result")
	if err != nil {
		t.Fatalf("Failed to get result: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}

	var result solve.Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode result: %v", err)
	}

	if len(result.BestPartitions) == 0 {
		t.Error("Result should report best partitions")
	}

	// The finished run should be listed
	resp, err = http.Get(srv.URL + "/api/v1/runs")
	if err != nil {
		t.Fatalf("Failed to list runs: %v", err)
	}
	defer resp.Body.Close()

	var infos []store.RunInfo
	if err := json.NewDecoder(resp.Body).Decode(&infos); err != nil {
		t.Fatalf("Failed to decode runs: %v", err)
	}

	if len(infos) != 1 {
		t.Errorf("Expected 1 persisted run, got %d", len(infos))
	}
}

func TestServer_JobStream_SSE(t *testing.T) {
	// Skip in short mode
	if testing.Short() {
		t.Skip("Skipping SSE test in short mode")
	}

	s := NewServer(":8080", nil, "")

	job := s.jobManager.CreateJob(testJobConfig())

	// Drive the stream with a cancellable request context
	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/jobs/%s/events", job.ID), nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan bool)
	go func() {
		s.handleJobStream(w, req, job.ID)
		done <- true
	}()

	// Give the handler time to subscribe, then publish an event
	time.Sleep(100 * time.Millisecond)
	s.jobManager.broadcaster.Broadcast(ProgressEvent{
		JobID:       job.ID,
		State:       StateRunning,
		Evaluations: 64,
		BestEnergy:  3.5,
		EPS:         1500.0,
		Timestamp:   time.Now(),
	})
	time.Sleep(100 * time.Millisecond)

	// Disconnect the client
	cancel()

	select {
	case <-done:
		// Handler completed
	case <-time.After(3 * time.Second):
		t.Fatal("SSE handler did not return after disconnect")
	}

	// Check headers
	if w.Header().Get("Content-Type") != "text/event-stream" {
		t.Error("Expected text/event-stream content type")
	}

	// The initial snapshot plus the broadcast event
	body := w.Body.String()
	if !containsString(body, "data:") {
		t.Error("Expected SSE data in response")
	}
	if !containsString(body, `"evaluations":64`) {
		t.Error("Expected broadcast event in response")
	}
}

func TestServer_JobStream_NotFound(t *testing.T) {
	s := NewServer(":8080", nil, "")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/nonexistent/events", nil)
	w := httptest.NewRecorder()

	s.handleJobStream(w, req, "nonexistent")

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestEventBroadcaster(t *testing.T) {
	eb := NewEventBroadcaster()

	// Subscribe to events
	ch := eb.Subscribe("job1")
	defer eb.Unsubscribe("job1", ch)

	// Broadcast an event
	event := ProgressEvent{
		JobID:       "job1",
		State:       StateRunning,
		Evaluations: 10,
		BestEnergy:  100.5,
		EPS:         1500.0,
		Timestamp:   time.Now(),
	}
	eb.Broadcast(event)

	// Receive event
	select {
	case received := <-ch:
		if received.JobID != "job1" {
			t.Errorf("Expected jobID job1, got %s", received.JobID)
		}
		if received.Evaluations != 10 {
			t.Errorf("Expected 10 evaluations, got %d", received.Evaluations)
		}
	case <-time.After(1 * time.Second):
		t.Error("Timeout waiting for event")
	}

	// Cleanup
	eb.CleanupJob("job1")
}

func TestEventBroadcaster_LastEventReplay(t *testing.T) {
	eb := NewEventBroadcaster()

	// Broadcast with nobody listening
	eb.Broadcast(ProgressEvent{
		JobID:       "job1",
		State:       StateRunning,
		Evaluations: 42,
		Timestamp:   time.Now(),
	})

	// A late subscriber still gets the last event
	ch := eb.Subscribe("job1")
	defer eb.Unsubscribe("job1", ch)

	select {
	case received := <-ch:
		if received.Evaluations != 42 {
			t.Errorf("Expected replayed event with 42 evaluations, got %d", received.Evaluations)
		}
	case <-time.After(1 * time.Second):
		t.Error("Timeout waiting for replayed event")
	}
}

func containsString(haystack, needle string) bool {
	return bytes.Contains([]byte(haystack), []byte(needle))
}
