// Package pipeline provides bounded-concurrency batch processing on top of
// a single shared internal/ocr.Pipeline: file discovery, a worker pool, and
// result formatting for the CLI's image subcommand.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/qduc/easyocr-go/internal/imageproc"
)

// ProcessBatch discovers image files under the given paths and runs them
// through pl using a bounded worker pool, returning one ImageResult per
// discovered file in input order.
func ProcessBatch(ctx context.Context, pl ocrPipeline, decoder imageproc.Decoder, paths []string, cfg Config) (*Result, error) {
	files, err := discoverImageFiles(paths, cfg.Recursive, cfg.IncludePatterns, cfg.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("pipeline: discover image files: %w", err)
	}
	if len(files) == 0 {
		return nil, errors.New("pipeline: no image files found")
	}
	if decoder == nil {
		decoder = imageproc.StdDecoder{}
	}

	var progress ProgressCallback = NoOpProgressCallback{}
	if cfg.ShowProgress && !cfg.Quiet {
		progress = NewConsoleProgressCallback(os.Stderr, "Processing: ").
			WithUpdateInterval(cfg.ProgressInterval)
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(files) {
		workers = len(files)
	}

	progress.OnStart(len(files))
	start := time.Now()
	images := processImagesParallel(ctx, pl, decoder, files, cfg, progress, workers)
	duration := time.Since(start)
	progress.OnComplete()

	return &Result{Images: images, Duration: duration, WorkerCount: workers}, nil
}
