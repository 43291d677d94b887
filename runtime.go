package kreuzberg

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/semaphore"
)

// scheduler is the process-wide executor for blocking entry points and
// the default batch concurrency bound. It is created once, lazily, and
// never torn down; per-call setup would defeat the point of sharing it.
type scheduler struct {
	parallelism int
	sequential  bool
}

var sharedScheduler = sync.OnceValue(func() *scheduler {
	procs := runtime.GOMAXPROCS(0)
	s := &scheduler{
		parallelism: defaultConcurrency(procs),
		sequential:  procs <= 1,
	}
	logger().Debug().
		Int("parallelism", s.parallelism).
		Bool("sequential", s.sequential).
		Msg("extraction scheduler created")
	return s
})

// defaultConcurrency is ceil(1.5 x procs), the bound used when the
// config does not set one.
func defaultConcurrency(procs int) int {
	if procs < 1 {
		procs = 1
	}
	return (procs*3 + 1) / 2
}

// concurrencyBound resolves the effective bound for a batch.
func (s *scheduler) concurrencyBound(cfg *ExtractionConfig) int {
	if cfg != nil && cfg.MaxConcurrentExtractions > 0 {
		return cfg.MaxConcurrentExtractions
	}
	return s.parallelism
}

// newSemaphore sizes a weighted semaphore for one batch run.
func (s *scheduler) newSemaphore(cfg *ExtractionConfig) *semaphore.Weighted {
	bound := s.concurrencyBound(cfg)
	if s.sequential {
		bound = 1
	}
	return semaphore.NewWeighted(int64(bound))
}

// ExtractFileSync is the blocking form of ExtractFile, driven on the
// shared scheduler with a background context.
func ExtractFileSync(path string, mimeHint string, cfg *ExtractionConfig) (*ExtractionResult, error) {
	sharedScheduler()
	return ExtractFile(context.Background(), path, mimeHint, cfg)
}

// ExtractBytesSync is the blocking form of ExtractBytes.
func ExtractBytesSync(content []byte, mimeType string, cfg *ExtractionConfig) (*ExtractionResult, error) {
	sharedScheduler()
	return ExtractBytes(context.Background(), content, mimeType, cfg)
}

// BatchExtractFilesSync is the blocking form of BatchExtractFiles.
func BatchExtractFilesSync(paths []string, cfg *ExtractionConfig) ([]*ExtractionResult, error) {
	return BatchExtractFiles(context.Background(), paths, cfg)
}

// BatchExtractBytesSync is the blocking form of BatchExtractBytes.
func BatchExtractBytesSync(items []BytesInput, cfg *ExtractionConfig) ([]*ExtractionResult, error) {
	return BatchExtractBytes(context.Background(), items, cfg)
}
