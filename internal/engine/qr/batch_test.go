package qr

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type generatorFunc func(ctx context.Context, req *Request, actorID string) (*GenerationResult, error)

func (f generatorFunc) Generate(ctx context.Context, req *Request, actorID string) (*GenerationResult, error) {
	return f(ctx, req, actorID)
}

func labeledRequests(n int) []*Request {
	requests := make([]*Request, n)
	for i := range requests {
		requests[i] = urlRequest("https://example.com/")
		requests[i].Label = string(rune('a' + i))
	}
	return requests
}

func TestBatchIsolatesFailures(t *testing.T) {
	generator := generatorFunc(func(_ context.Context, req *Request, _ string) (*GenerationResult, error) {
		if req.Label == "c" {
			return nil, errors.New("boom")
		}
		return &GenerationResult{ID: req.Label}, nil
	})

	coordinator := NewBatchCoordinator(generator, zerolog.Nop())
	requests := labeledRequests(5)

	outcome := coordinator.GenerateBatch(context.Background(), requests, "", BatchOptions{MaxConcurrency: 2})

	if len(outcome.Successful) != 4 {
		t.Fatalf("successful = %d, want 4", len(outcome.Successful))
	}
	if len(outcome.Failed) != 1 {
		t.Fatalf("failed = %d, want 1", len(outcome.Failed))
	}

	failure := outcome.Failed[0]
	if failure.Index != 2 {
		t.Errorf("failed index = %d, want 2", failure.Index)
	}
	if failure.Request != requests[2] {
		t.Error("failure not associated with its input request")
	}
	if !strings.Contains(failure.Reason, "boom") {
		t.Errorf("failure reason = %q", failure.Reason)
	}

	// Each success carries the result of its own input.
	for _, success := range outcome.Successful {
		if success.Result.ID != requests[success.Index].Label {
			t.Errorf("index %d got result %q", success.Index, success.Result.ID)
		}
	}
}

func TestBatchBoundsConcurrency(t *testing.T) {
	var mu sync.Mutex
	current, peak := 0, 0

	generator := generatorFunc(func(_ context.Context, _ *Request, _ string) (*GenerationResult, error) {
		mu.Lock()
		current++
		if current > peak {
			peak = current
		}
		mu.Unlock()

		time.Sleep(10 * time.Millisecond)

		mu.Lock()
		current--
		mu.Unlock()
		return &GenerationResult{}, nil
	})

	coordinator := NewBatchCoordinator(generator, zerolog.Nop())
	outcome := coordinator.GenerateBatch(context.Background(), labeledRequests(9), "", BatchOptions{MaxConcurrency: 3})

	if len(outcome.Successful) != 9 {
		t.Fatalf("successful = %d, want 9", len(outcome.Successful))
	}
	if peak > 3 {
		t.Errorf("peak concurrency = %d, want at most 3", peak)
	}
}

func TestBatchItemTimeout(t *testing.T) {
	var sawCancel bool
	var mu sync.Mutex

	generator := generatorFunc(func(ctx context.Context, req *Request, _ string) (*GenerationResult, error) {
		if req.Label != "b" {
			return &GenerationResult{ID: req.Label}, nil
		}
		select {
		case <-time.After(time.Second):
			return &GenerationResult{ID: req.Label}, nil
		case <-ctx.Done():
			mu.Lock()
			sawCancel = true
			mu.Unlock()
			return nil, ctx.Err()
		}
	})

	coordinator := NewBatchCoordinator(generator, zerolog.Nop())
	requests := labeledRequests(3)

	outcome := coordinator.GenerateBatch(context.Background(), requests, "", BatchOptions{
		MaxConcurrency: 3,
		ItemTimeout:    25 * time.Millisecond,
	})

	if len(outcome.Successful) != 2 {
		t.Fatalf("successful = %d, want 2", len(outcome.Successful))
	}
	if len(outcome.Failed) != 1 {
		t.Fatalf("failed = %d, want 1", len(outcome.Failed))
	}

	failure := outcome.Failed[0]
	if failure.Index != 1 {
		t.Errorf("failed index = %d, want 1", failure.Index)
	}
	if !strings.Contains(failure.Reason, "timed out") {
		t.Errorf("failure reason = %q", failure.Reason)
	}

	// The deadline context reaches the generator, cancelling its work.
	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if !sawCancel {
		t.Error("slow item never observed cancellation")
	}
}

func TestBatchEmptyInput(t *testing.T) {
	coordinator := NewBatchCoordinator(generatorFunc(func(context.Context, *Request, string) (*GenerationResult, error) {
		t.Fatal("generator called for empty batch")
		return nil, nil
	}), zerolog.Nop())

	outcome := coordinator.GenerateBatch(context.Background(), nil, "", BatchOptions{})
	if len(outcome.Successful) != 0 || len(outcome.Failed) != 0 {
		t.Errorf("empty batch outcome = %+v", outcome)
	}
}
