package kreuzberg

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// batchItem is the unit of work a batch worker runs.
type batchItem func(ctx context.Context) (*ExtractionResult, error)

// BatchExtractFiles extracts many files concurrently. The returned
// slice always has len(paths) entries in input order; per-item failures
// become synthetic error results rather than failing the batch.
func BatchExtractFiles(ctx context.Context, paths []string, cfg *ExtractionConfig) ([]*ExtractionResult, error) {
	items := make([]batchItem, len(paths))
	for i, path := range paths {
		path := path
		items[i] = func(ctx context.Context) (*ExtractionResult, error) {
			return ExtractFile(ctx, path, "", cfg)
		}
	}
	return runBatch(ctx, items, cfg)
}

// BatchExtractBytes extracts many in-memory documents concurrently with
// the same ordering and isolation guarantees as BatchExtractFiles.
func BatchExtractBytes(ctx context.Context, inputs []BytesInput, cfg *ExtractionConfig) ([]*ExtractionResult, error) {
	items := make([]batchItem, len(inputs))
	for i, in := range inputs {
		in := in
		items[i] = func(ctx context.Context) (*ExtractionResult, error) {
			return ExtractBytes(ctx, in.Content, in.MimeType, cfg)
		}
	}
	return runBatch(ctx, items, cfg)
}

// runBatch fans items out to one goroutine each, bounded by a weighted
// semaphore. Each worker writes only to its own slot, so the output
// order matches the input order without any post-sorting. A worker
// panic is converted to that slot's error result; only failing to
// acquire a permit (context cancelled) aborts the batch.
func runBatch(ctx context.Context, items []batchItem, cfg *ExtractionConfig) ([]*ExtractionResult, error) {
	if len(items) == 0 {
		return []*ExtractionResult{}, nil
	}

	jobID := uuid.NewString()
	sem := sharedScheduler().newSemaphore(cfg)
	results := make([]*ExtractionResult, len(items))
	var wg sync.WaitGroup

	logger().Debug().Str("job_id", jobID).Int("items", len(items)).Msg("batch started")

	var acquireErr error
	for i, item := range items {
		if err := sem.Acquire(ctx, 1); err != nil {
			acquireErr = WrapError(KindOther, err, "batch %s cancelled before item %d", jobID, i)
			break
		}
		wg.Add(1)
		go func(slot int, run batchItem) {
			defer wg.Done()
			defer sem.Release(1)
			results[slot] = runBatchItem(ctx, slot, jobID, run)
		}(i, item)
	}

	wg.Wait()
	if acquireErr != nil {
		return nil, acquireErr
	}
	logger().Debug().Str("job_id", jobID).Msg("batch finished")
	return results, nil
}

// runBatchItem isolates one item: an error or panic in the pipeline is
// turned into a synthetic result for that slot only.
func runBatchItem(ctx context.Context, slot int, jobID string, run batchItem) (out *ExtractionResult) {
	defer func() {
		if recovered := recover(); recovered != nil {
			pc := capturePanicContext("batch", recovered)
			logger().Warn().
				Str("job_id", jobID).
				Int("slot", slot).
				Str("panic", pc.Message).
				Msg("batch item panicked")
			out = errorResult(&Error{Kind: KindPanic, Message: pc.Message, Panic: pc})
		}
	}()

	result, err := run(ctx)
	if err != nil {
		return errorResult(AsError(err))
	}
	return result
}

// errorResult builds the synthetic result standing in for a failed
// batch item.
func errorResult(err *Error) *ExtractionResult {
	return &ExtractionResult{
		Content:  "Error: " + err.Error(),
		MimeType: "text/plain",
		Metadata: Metadata{
			Error: &ErrorMetadata{
				Type:    err.Kind.String(),
				Message: err.Message,
			},
		},
	}
}
