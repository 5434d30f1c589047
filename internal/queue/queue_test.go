package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestEnqueueAfterClose(t *testing.T) {
	q := NewJobQueue(1)
	q.Close()
	q.Close() // idempotent

	if err := q.Enqueue(&ProbeJob{ServerID: "s1"}); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("expected ErrQueueClosed, got %v", err)
	}
}

func TestEnqueueFull(t *testing.T) {
	q := NewJobQueue(1)
	if err := q.Enqueue(&ProbeJob{ServerID: "s1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := q.Enqueue(&ProbeJob{ServerID: "s2"}); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
}

func TestWorkerPoolDrainsOnClose(t *testing.T) {
	tests := []struct {
		name    string
		workers int
		jobs    int
	}{
		{name: "single worker", workers: 1, jobs: 5},
		{name: "more workers than jobs", workers: 4, jobs: 2},
		{name: "many jobs", workers: 3, jobs: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewJobQueue(tt.jobs)
			pool := NewWorkerPool(q, tt.workers)

			var mu sync.Mutex
			seen := map[string]bool{}
			pool.Start(context.Background(), func(ctx context.Context, job *ProbeJob) error {
				mu.Lock()
				defer mu.Unlock()
				seen[job.ServerID] = true
				if job.ServerID == "s0" {
					return errors.New("probe failed")
				}
				return nil
			})

			for i := 0; i < tt.jobs; i++ {
				id := "s" + string(rune('0'+i%10)) + string(rune('a'+i/10))
				if i == 0 {
					id = "s0"
				}
				if err := q.Enqueue(&ProbeJob{ServerID: id}); err != nil {
					t.Fatalf("enqueue %d: %v", i, err)
				}
			}
			q.Close()

			done := make(chan struct{})
			go func() {
				pool.Wait()
				close(done)
			}()
			select {
			case <-done:
			case <-time.After(5 * time.Second):
				t.Fatal("workers did not exit after close")
			}

			if len(seen) != tt.jobs {
				t.Errorf("processed %d distinct jobs, want %d", len(seen), tt.jobs)
			}
		})
	}
}

func TestWorkerPoolStop(t *testing.T) {
	q := NewJobQueue(1)
	pool := NewWorkerPool(q, 2)
	pool.Start(context.Background(), func(ctx context.Context, job *ProbeJob) error { return nil })

	pool.Stop()
	pool.Stop()
}
