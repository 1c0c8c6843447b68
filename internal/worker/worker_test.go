package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/quayside/steelinspect/internal"
	"github.com/quayside/steelinspect/internal/repository"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:    "valid default config",
			config:  DefaultConfig(),
			wantErr: false,
		},
		{
			name: "concurrency too low",
			config: Config{
				Concurrency:       0,
				PollInterval:      5 * time.Second,
				JobTimeout:        5 * time.Minute,
				ShutdownTimeout:   30 * time.Second,
				StaleJobThreshold: 10 * time.Minute,
				RetryBackoff:      30 * time.Second,
			},
			wantErr: true,
		},
		{
			name: "concurrency too high",
			config: Config{
				Concurrency:       101,
				PollInterval:      5 * time.Second,
				JobTimeout:        5 * time.Minute,
				ShutdownTimeout:   30 * time.Second,
				StaleJobThreshold: 10 * time.Minute,
				RetryBackoff:      30 * time.Second,
			},
			wantErr: true,
		},
		{
			name: "poll interval too short",
			config: Config{
				Concurrency:       2,
				PollInterval:      time.Millisecond,
				JobTimeout:        5 * time.Minute,
				ShutdownTimeout:   30 * time.Second,
				StaleJobThreshold: 10 * time.Minute,
				RetryBackoff:      30 * time.Second,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsPermanent(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "permanent error",
			err:  NewPermanentError(context.Canceled),
			want: true,
		},
		{
			name: "regular error",
			err:  context.Canceled,
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPermanent(tt.err); got != tt.want {
				t.Errorf("IsPermanent() = %v, want %v", got, tt.want)
			}
		})
	}
}

// testHandler counts invocations and returns a scripted error.
type testHandler struct {
	jobType string
	calls   atomic.Int64
	err     error
}

func (h *testHandler) Type() string { return h.jobType }

func (h *testHandler) Handle(_ context.Context, _ []byte) error {
	h.calls.Add(1)
	return h.err
}

func newTestWorker(t *testing.T) (*Worker, *repository.Queries) {
	t.Helper()

	db, err := repository.Open(filepath.Join(t.TempDir(), "worker.db"), "")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := internal.RunMigrations(db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	queries := repository.New(db)
	config := Config{
		Concurrency:       1,
		PollInterval:      20 * time.Millisecond,
		JobTimeout:        10 * time.Second,
		ShutdownTimeout:   2 * time.Second,
		StaleJobThreshold: time.Minute,
		RetryBackoff:      time.Second,
	}

	w, err := New(db, queries, config, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("create worker: %v", err)
	}
	return w, queries
}

func waitForJobStatus(t *testing.T, queries *repository.Queries, jobID, status string, timeout time.Duration) repository.Job {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		job, err := queries.GetJob(context.Background(), jobID)
		if err != nil {
			t.Fatalf("get job: %v", err)
		}
		if job.Status == status {
			return job
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("job %s did not reach status %q within %v", jobID, status, timeout)
	panic("unreachable")
}

func TestWorkerProcessesJob(t *testing.T) {
	w, queries := newTestWorker(t)
	handler := &testHandler{jobType: "test_job"}
	w.Register(handler)

	ctx := context.Background()
	job, err := EnqueueJob(ctx, queries, "test_job", map[string]string{"key": "value"})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	w.Start(ctx)
	defer w.Stop()

	done := waitForJobStatus(t, queries, job.ID, repository.JobStatusCompleted, 5*time.Second)
	if done.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", done.Attempts)
	}
	if handler.calls.Load() != 1 {
		t.Errorf("handler calls = %d, want 1", handler.calls.Load())
	}
}

func TestWorkerRetriesThenFails(t *testing.T) {
	w, queries := newTestWorker(t)
	handler := &testHandler{jobType: "flaky_job", err: errors.New("boom")}
	w.Register(handler)

	ctx := context.Background()
	job, err := EnqueueJob(ctx, queries, "flaky_job", nil, WithMaxAttempts(2))
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	w.Start(ctx)
	defer w.Stop()

	failed := waitForJobStatus(t, queries, job.ID, repository.JobStatusFailed, 10*time.Second)
	if failed.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", failed.Attempts)
	}
	if failed.LastError != "boom" {
		t.Errorf("last error = %q, want %q", failed.LastError, "boom")
	}
}

func TestWorkerPermanentErrorSkipsRetry(t *testing.T) {
	w, queries := newTestWorker(t)
	handler := &testHandler{jobType: "doomed_job", err: NewPermanentError(errors.New("bad payload"))}
	w.Register(handler)

	ctx := context.Background()
	job, err := EnqueueJob(ctx, queries, "doomed_job", nil, WithMaxAttempts(3))
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	w.Start(ctx)
	defer w.Stop()

	failed := waitForJobStatus(t, queries, job.ID, repository.JobStatusFailed, 5*time.Second)
	if failed.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", failed.Attempts)
	}
	if handler.calls.Load() != 1 {
		t.Errorf("handler calls = %d, want 1", handler.calls.Load())
	}
}

func TestWorkerUnknownJobTypeFailsPermanently(t *testing.T) {
	w, queries := newTestWorker(t)

	ctx := context.Background()
	job, err := EnqueueJob(ctx, queries, "unregistered", nil, WithMaxAttempts(3))
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	w.Start(ctx)
	defer w.Stop()

	failed := waitForJobStatus(t, queries, job.ID, repository.JobStatusFailed, 5*time.Second)
	if failed.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", failed.Attempts)
	}
}

func TestWorkerDelayedJobWaits(t *testing.T) {
	w, queries := newTestWorker(t)
	handler := &testHandler{jobType: "later_job"}
	w.Register(handler)

	ctx := context.Background()
	job, err := EnqueueJob(ctx, queries, "later_job", nil, WithDelay(time.Hour))
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	w.Start(ctx)
	defer w.Stop()

	time.Sleep(200 * time.Millisecond)
	pending, err := queries.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if pending.Status != repository.JobStatusPending {
		t.Errorf("status = %q, want pending", pending.Status)
	}
	if handler.calls.Load() != 0 {
		t.Errorf("handler calls = %d, want 0", handler.calls.Load())
	}
}
