package pipeline

import (
	"context"
	"os"
	"sync"

	"github.com/qduc/easyocr-go/internal/imageproc"
	"github.com/qduc/easyocr-go/internal/ocr"
)

// ocrPipeline is the subset of *ocr.Pipeline's surface batch processing
// needs, kept narrow so tests can substitute a fake without touching ONNX
// Runtime.
type ocrPipeline interface {
	RunSplit(ctx context.Context, detectionImage, recognitionImage imageproc.RasterImage) ([]ocr.Result, error)
}

var _ ocrPipeline = (*ocr.Pipeline)(nil)

type imageJob struct {
	index int
	path  string
}

// processImagesParallel runs pl.RunSplit over files using a bounded worker
// pool, returning results in the same order as files regardless of
// completion order. Grounded on the teacher's
// Pipeline.ProcessImagesParallelContext worker-pool shape, adapted from
// image.Image inputs to file paths decoded one at a time per worker (so a
// large batch never holds every decoded image in memory at once).
func processImagesParallel(ctx context.Context, pl ocrPipeline, decoder imageproc.Decoder, files []string, cfg Config, progress ProgressCallback, workers int) []ImageResult {
	if workers > len(files) {
		workers = len(files)
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan imageJob, len(files))
	resultsCh := make(chan struct {
		index int
		res   ImageResult
	}, len(files))

	var sem chan struct{}
	if cfg.MaxGoroutines > 0 {
		sem = make(chan struct{}, cfg.MaxGoroutines)
	}

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				if sem != nil {
					sem <- struct{}{}
				}
				res := processOneImage(ctx, pl, decoder, job.path)
				if sem != nil {
					<-sem
				}
				resultsCh <- struct {
					index int
					res   ImageResult
				}{job.index, res}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, f := range files {
			select {
			case jobs <- imageJob{index: i, path: f}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultsCh)
	}()

	ordered := make([]ImageResult, len(files))
	done := 0
	for r := range resultsCh {
		ordered[r.index] = r.res
		done++
		if r.res.Err != nil {
			progress.OnError(r.index, r.res.Err)
		}
		progress.OnProgress(done, len(files))
	}
	return ordered
}

func processOneImage(ctx context.Context, pl ocrPipeline, decoder imageproc.Decoder, path string) ImageResult {
	f, err := os.Open(path)
	if err != nil {
		return ImageResult{Path: path, Err: err, ErrMsg: err.Error()}
	}
	defer f.Close()

	img, err := decoder.Decode(f)
	if err != nil {
		return ImageResult{Path: path, Err: err, ErrMsg: err.Error()}
	}

	results, err := pl.RunSplit(ctx, img, img)
	if err != nil {
		return ImageResult{Path: path, Err: err, ErrMsg: err.Error()}
	}

	return ImageResult{Path: path, Results: results}
}
