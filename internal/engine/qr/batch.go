package qr

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"qrforge/internal/pkg/metrics"
)

// Generator is the per-item generation contract the coordinator fans out
// over. *Service implements it.
type Generator interface {
	Generate(ctx context.Context, req *Request, actorID string) (*GenerationResult, error)
}

type BatchOptions struct {
	MaxConcurrency int
	ItemTimeout    time.Duration
}

type BatchSuccess struct {
	Index  int               `json:"index"`
	Result *GenerationResult `json:"result"`
}

type BatchFailure struct {
	Index   int      `json:"index"`
	Request *Request `json:"request"`
	Reason  string   `json:"reason"`
}

// BatchOutcome buckets every input request into exactly one of the two
// slices, keyed back to the input by index.
type BatchOutcome struct {
	Successful []BatchSuccess `json:"successful"`
	Failed     []BatchFailure `json:"failed"`
}

// BatchCoordinator runs many generation requests with bounded concurrency:
// requests are partitioned into windows of MaxConcurrency, windows run
// sequentially, items within a window run concurrently and are isolated from
// each other's failures.
type BatchCoordinator struct {
	generator Generator
	log       zerolog.Logger
}

func NewBatchCoordinator(generator Generator, log zerolog.Logger) *BatchCoordinator {
	return &BatchCoordinator{generator: generator, log: log}
}

type itemOutcome struct {
	result *GenerationResult
	err    error
}

func (c *BatchCoordinator) GenerateBatch(ctx context.Context, requests []*Request, actorID string, opts BatchOptions) *BatchOutcome {
	maxConcurrency := opts.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = 5
	}
	itemTimeout := opts.ItemTimeout
	if itemTimeout <= 0 {
		itemTimeout = 10 * time.Second
	}

	outcomes := make([]itemOutcome, len(requests))
	for start := 0; start < len(requests); start += maxConcurrency {
		end := min(start+maxConcurrency, len(requests))

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				outcomes[i] = c.runItem(ctx, requests[i], actorID, itemTimeout)
			}(i)
		}
		wg.Wait()
	}

	outcome := &BatchOutcome{}
	for i, item := range outcomes {
		if item.err != nil {
			label := "failure"
			if errors.Is(item.err, context.DeadlineExceeded) {
				label = "timeout"
			}
			metrics.BatchItemsTotal.WithLabelValues(label).Inc()
			c.log.Debug().Int("index", i).Err(item.err).Msg("batch item failed")
			outcome.Failed = append(outcome.Failed, BatchFailure{
				Index:   i,
				Request: requests[i],
				Reason:  item.err.Error(),
			})
			continue
		}
		metrics.BatchItemsTotal.WithLabelValues("success").Inc()
		outcome.Successful = append(outcome.Successful, BatchSuccess{Index: i, Result: item.result})
	}
	return outcome
}

// runItem races the generation against a per-item deadline. The deadline
// context is passed into the generator, so a timed-out item's render and
// fetch work is cancelled rather than abandoned.
func (c *BatchCoordinator) runItem(ctx context.Context, req *Request, actorID string, timeout time.Duration) itemOutcome {
	itemCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan itemOutcome, 1)
	go func() {
		result, err := c.generator.Generate(itemCtx, req, actorID)
		done <- itemOutcome{result: result, err: err}
	}()

	select {
	case item := <-done:
		return item
	case <-itemCtx.Done():
		return itemOutcome{err: fmt.Errorf("item timed out after %v: %w", timeout, itemCtx.Err())}
	}
}
